package payments

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"

	domain "rental-app/internal/domain/payments"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testDBSeq int64

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:paymentstore%d?mode=memory&cache=shared", atomic.AddInt64(&testDBSeq, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.PaymentTransaction{}, &domain.ProcessedWebhookEvent{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(newTestDB(t), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func createTx(t *testing.T, s *Store) *domain.PaymentTransaction {
	t.Helper()
	tx, err := s.Create(context.Background(), "stripe", decimal.NewFromFloat(50.00), "EUR", "VR-42")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return tx
}

// forceStatus walks a transaction into the wanted status through valid
// edges so tests can start from any state.
func forceStatus(t *testing.T, s *Store, id uint, status domain.Status) {
	t.Helper()
	ctx := context.Background()
	var err error
	switch status {
	case domain.StatusCreated:
	case domain.StatusPending:
		_, err = s.UpdateProviderDetails(ctx, id, fmt.Sprintf("cs_%d", id))
	case domain.StatusCompleted:
		forceStatus(t, s, id, domain.StatusPending)
		_, err = s.MarkCompleted(ctx, id)
	case domain.StatusFailed:
		_, err = s.MarkFailed(ctx, id, "forced")
	case domain.StatusRefunded:
		forceStatus(t, s, id, domain.StatusCompleted)
		_, err = s.MarkRefunded(ctx, id)
	}
	if err != nil {
		t.Fatalf("force status %s: %v", status, err)
	}
}

func TestCreateStartsCreated(t *testing.T) {
	s := newTestStore(t)
	tx := createTx(t, s)

	if tx.Status != domain.StatusCreated {
		t.Fatalf("status = %s, want CREATED", tx.Status)
	}
	if tx.ProviderTransactionID != nil {
		t.Fatalf("provider transaction id should start unset")
	}
	if !tx.Amount.Equal(decimal.NewFromFloat(50.00)) {
		t.Fatalf("amount = %s, want 50.00", tx.Amount)
	}
}

func TestUpdateProviderDetailsRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	tx := createTx(t, s)

	updated, err := s.UpdateProviderDetails(ctx, tx.ID, "cs_abc")
	if err != nil {
		t.Fatalf("update provider details: %v", err)
	}
	if updated.Status != domain.StatusPending {
		t.Fatalf("status = %s, want PENDING", updated.Status)
	}
	if updated.ProviderTransactionID == nil || *updated.ProviderTransactionID != "cs_abc" {
		t.Fatalf("provider transaction id not recorded")
	}

	byProvider, err := s.GetByProviderID(ctx, "cs_abc")
	if err != nil {
		t.Fatalf("get by provider id: %v", err)
	}
	if byProvider.ID != tx.ID {
		t.Fatalf("lookup by provider id returned a different transaction")
	}
}

func TestUpdateProviderDetailsOnlyOnce(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	tx := createTx(t, s)

	if _, err := s.UpdateProviderDetails(ctx, tx.ID, "cs_first"); err != nil {
		t.Fatalf("first update: %v", err)
	}

	_, err := s.UpdateProviderDetails(ctx, tx.ID, "cs_second")
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("second update err = %v, want ErrInvalidTransition", err)
	}

	got, err := s.GetByID(ctx, tx.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if *got.ProviderTransactionID != "cs_first" {
		t.Fatalf("provider transaction id overwritten to %s", *got.ProviderTransactionID)
	}
}

func TestTransitionMatrix(t *testing.T) {
	ops := map[domain.Status]func(s *Store, id uint) error{
		domain.StatusPending: func(s *Store, id uint) error {
			_, err := s.MarkPending(context.Background(), id)
			return err
		},
		domain.StatusCompleted: func(s *Store, id uint) error {
			_, err := s.MarkCompleted(context.Background(), id)
			return err
		},
		domain.StatusFailed: func(s *Store, id uint) error {
			_, err := s.MarkFailed(context.Background(), id, "boom")
			return err
		},
		domain.StatusRefunded: func(s *Store, id uint) error {
			_, err := s.MarkRefunded(context.Background(), id)
			return err
		},
	}

	sources := []domain.Status{
		domain.StatusCreated, domain.StatusPending, domain.StatusCompleted,
		domain.StatusFailed, domain.StatusRefunded,
	}

	for target, op := range ops {
		for _, from := range sources {
			t.Run(fmt.Sprintf("%s_to_%s", from, target), func(t *testing.T) {
				s := newTestStore(t)
				tx := createTx(t, s)
				forceStatus(t, s, tx.ID, from)

				err := op(s, tx.ID)
				got, getErr := s.GetByID(context.Background(), tx.ID)
				if getErr != nil {
					t.Fatalf("get: %v", getErr)
				}

				if domain.CanTransition(from, target) {
					if err != nil {
						t.Fatalf("valid edge failed: %v", err)
					}
					if got.Status != target {
						t.Fatalf("status = %s, want %s", got.Status, target)
					}
				} else {
					if !errors.Is(err, domain.ErrInvalidTransition) {
						t.Fatalf("err = %v, want ErrInvalidTransition", err)
					}
					if got.Status != from {
						t.Fatalf("status mutated to %s on rejected transition", got.Status)
					}
				}
			})
		}
	}
}

func TestMarkCompletedSetsCompletedAt(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	tx := createTx(t, s)
	forceStatus(t, s, tx.ID, domain.StatusPending)

	got, err := s.MarkCompleted(ctx, tx.ID)
	if err != nil {
		t.Fatalf("mark completed: %v", err)
	}
	if got.CompletedAt == nil {
		t.Fatalf("completed_at not set")
	}
}

func TestMarkFailedRecordsReason(t *testing.T) {
	s := newTestStore(t)
	tx := createTx(t, s)

	got, err := s.MarkFailed(context.Background(), tx.ID, "card declined")
	if err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	if got.FailureReason == nil || *got.FailureReason != "card declined" {
		t.Fatalf("failure reason not recorded")
	}
}

func TestByProviderIDVariantsNotFound(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.MarkCompletedByProviderID(context.Background(), "cs_missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if _, err := s.MarkFailedByProviderID(context.Background(), "cs_missing", "x"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if _, err := s.MarkRefundedByProviderID(context.Background(), "cs_missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestMarkCompletedByProviderID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	tx := createTx(t, s)
	if _, err := s.UpdateProviderDetails(ctx, tx.ID, "cs_abc"); err != nil {
		t.Fatalf("update provider details: %v", err)
	}

	got, err := s.MarkCompletedByProviderID(ctx, "cs_abc")
	if err != nil {
		t.Fatalf("mark completed by provider id: %v", err)
	}
	if got.ID != tx.ID || got.Status != domain.StatusCompleted {
		t.Fatalf("got id=%d status=%s", got.ID, got.Status)
	}
}
