package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"testing"

	domain "rental-app/internal/domain/payments"
	paymentstore "rental-app/internal/payments"
	"rental-app/internal/payments/provider"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testDBSeq int64

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:webhooktest%d?mode=memory&cache=shared", atomic.AddInt64(&testDBSeq, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.PaymentTransaction{}, &domain.ProcessedWebhookEvent{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// stubParser skips signature checks and reads the envelope straight from
// the payload, so pipeline tests exercise dedup and dispatch in isolation.
type stubParser struct {
	name string
	err  error
}

func (p *stubParser) Provider() string { return p.name }

func (p *stubParser) ParseAndVerify(payload []byte, header http.Header) (*Envelope, error) {
	if p.err != nil {
		return nil, p.err
	}
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPayloadInvalid, err)
	}
	return &env, nil
}

type recordingListener struct {
	completed []uint
	refunded  []uint
	err       error
}

func (l *recordingListener) OnPaymentCompleted(ctx context.Context, tx *domain.PaymentTransaction) error {
	l.completed = append(l.completed, tx.ID)
	return l.err
}

func (l *recordingListener) OnPaymentRefunded(ctx context.Context, tx *domain.PaymentTransaction) error {
	l.refunded = append(l.refunded, tx.ID)
	return l.err
}

type fixture struct {
	db       *gorm.DB
	store    *paymentstore.Store
	listener *recordingListener
	ingestor *Ingestor
}

func newFixture(t *testing.T, parsers ...Parser) *fixture {
	t.Helper()
	db := newTestDB(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := paymentstore.NewStore(db, log)
	listener := &recordingListener{}
	if len(parsers) == 0 {
		parsers = []Parser{&stubParser{name: provider.ProviderStripe}}
	}
	return &fixture{
		db:       db,
		store:    store,
		listener: listener,
		ingestor: NewIngestor(db, store, listener, log, parsers...),
	}
}

func (f *fixture) pendingTx(t *testing.T, providerTxID string) *domain.PaymentTransaction {
	t.Helper()
	ctx := context.Background()
	tx, err := f.store.Create(ctx, provider.ProviderStripe, decimal.NewFromFloat(50.00), "EUR", "VR-42")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	updated, err := f.store.UpdateProviderDetails(ctx, tx.ID, providerTxID)
	if err != nil {
		t.Fatalf("update provider details: %v", err)
	}
	return updated
}

func envelopePayload(t *testing.T, env Envelope) []byte {
	t.Helper()
	b, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return b
}

func (f *fixture) ledgerCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	if err := f.db.Model(&domain.ProcessedWebhookEvent{}).Count(&n).Error; err != nil {
		t.Fatalf("count ledger: %v", err)
	}
	return n
}

func TestIngestCompletedEventTransitionsAndCascades(t *testing.T) {
	f := newFixture(t)
	tx := f.pendingTx(t, "cs_abc")

	payload := envelopePayload(t, Envelope{
		EventID: "evt_1", EventType: "checkout.session.completed", ResourceID: "cs_abc",
	})
	if err := f.ingestor.Ingest(context.Background(), provider.ProviderStripe, payload, nil); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	got, err := f.store.GetByID(context.Background(), tx.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != domain.StatusCompleted {
		t.Fatalf("status = %s, want COMPLETED", got.Status)
	}
	if got.CompletedAt == nil {
		t.Fatalf("completed_at not set")
	}
	if len(f.listener.completed) != 1 || f.listener.completed[0] != tx.ID {
		t.Fatalf("listener completed calls = %v", f.listener.completed)
	}
}

func TestIngestIsIdempotent(t *testing.T) {
	f := newFixture(t)
	tx := f.pendingTx(t, "cs_abc")

	payload := envelopePayload(t, Envelope{
		EventID: "evt_1", EventType: "checkout.session.completed", ResourceID: "cs_abc",
	})

	for i := 0; i < 3; i++ {
		if err := f.ingestor.Ingest(context.Background(), provider.ProviderStripe, payload, nil); err != nil {
			t.Fatalf("ingest #%d: %v", i+1, err)
		}
	}

	if len(f.listener.completed) != 1 {
		t.Fatalf("cascade ran %d times, want 1", len(f.listener.completed))
	}
	if n := f.ledgerCount(t); n != 1 {
		t.Fatalf("ledger rows = %d, want 1", n)
	}

	got, _ := f.store.GetByID(context.Background(), tx.ID)
	if got.Status != domain.StatusCompleted {
		t.Fatalf("status = %s, want COMPLETED", got.Status)
	}
}

func TestIngestUnknownEventTypeIsAcceptedAndRecorded(t *testing.T) {
	f := newFixture(t)
	tx := f.pendingTx(t, "cs_abc")

	payload := envelopePayload(t, Envelope{
		EventID: "evt_future", EventType: "some.future.event", ResourceID: "cs_abc",
	})
	if err := f.ingestor.Ingest(context.Background(), provider.ProviderStripe, payload, nil); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	got, _ := f.store.GetByID(context.Background(), tx.ID)
	if got.Status != domain.StatusPending {
		t.Fatalf("status = %s, want PENDING untouched", got.Status)
	}
	if n := f.ledgerCount(t); n != 1 {
		t.Fatalf("ledger rows = %d, want 1", n)
	}
	if len(f.listener.completed)+len(f.listener.refunded) != 0 {
		t.Fatalf("cascade must not run for unknown event types")
	}
}

func TestIngestMissingResourceIsANoOp(t *testing.T) {
	f := newFixture(t)

	payload := envelopePayload(t, Envelope{
		EventID: "evt_info", EventType: "checkout.session.completed",
	})
	if err := f.ingestor.Ingest(context.Background(), provider.ProviderStripe, payload, nil); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if n := f.ledgerCount(t); n != 1 {
		t.Fatalf("ledger rows = %d, want 1", n)
	}
}

func TestIngestInvalidTransitionRollsBackLedger(t *testing.T) {
	f := newFixture(t)
	tx := f.pendingTx(t, "cs_abc")
	if _, err := f.store.MarkCompleted(context.Background(), tx.ID); err != nil {
		t.Fatalf("mark completed: %v", err)
	}

	payload := envelopePayload(t, Envelope{
		EventID: "evt_fail", EventType: "payment_intent.payment_failed", ResourceID: "cs_abc",
	})
	err := f.ingestor.Ingest(context.Background(), provider.ProviderStripe, payload, nil)
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}

	// The ledger insert and the transition are one atomic unit: a failed
	// transition must not leave the event marked processed.
	if n := f.ledgerCount(t); n != 0 {
		t.Fatalf("ledger rows = %d, want 0 after rollback", n)
	}

	got, _ := f.store.GetByID(context.Background(), tx.ID)
	if got.Status != domain.StatusCompleted {
		t.Fatalf("status = %s, want COMPLETED unchanged", got.Status)
	}
}

func TestIngestUnknownTransactionSurfacesNotFound(t *testing.T) {
	f := newFixture(t)

	payload := envelopePayload(t, Envelope{
		EventID: "evt_orphan", EventType: "checkout.session.completed", ResourceID: "cs_missing",
	})
	err := f.ingestor.Ingest(context.Background(), provider.ProviderStripe, payload, nil)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if n := f.ledgerCount(t); n != 0 {
		t.Fatalf("ledger rows = %d, want 0 after rollback", n)
	}
}

func TestIngestRefundEventCascades(t *testing.T) {
	f := newFixture(t)
	tx := f.pendingTx(t, "cs_abc")
	if _, err := f.store.MarkCompleted(context.Background(), tx.ID); err != nil {
		t.Fatalf("mark completed: %v", err)
	}

	payload := envelopePayload(t, Envelope{
		EventID: "evt_refund", EventType: "charge.refunded", ResourceID: "cs_abc",
	})
	if err := f.ingestor.Ingest(context.Background(), provider.ProviderStripe, payload, nil); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	got, _ := f.store.GetByID(context.Background(), tx.ID)
	if got.Status != domain.StatusRefunded {
		t.Fatalf("status = %s, want REFUNDED", got.Status)
	}
	if len(f.listener.refunded) != 1 {
		t.Fatalf("refund cascade calls = %d, want 1", len(f.listener.refunded))
	}
}

func TestIngestSignatureErrorPropagatesWithoutSideEffects(t *testing.T) {
	f := newFixture(t, &stubParser{name: provider.ProviderStripe, err: domain.ErrSignatureInvalid})

	err := f.ingestor.Ingest(context.Background(), provider.ProviderStripe, []byte(`{}`), nil)
	if !errors.Is(err, domain.ErrSignatureInvalid) {
		t.Fatalf("err = %v, want ErrSignatureInvalid", err)
	}
	if n := f.ledgerCount(t); n != 0 {
		t.Fatalf("ledger rows = %d, want 0", n)
	}
}

func TestIngestUnknownProviderIsAConfigurationError(t *testing.T) {
	f := newFixture(t)

	err := f.ingestor.Ingest(context.Background(), "bitcoin", []byte(`{}`), nil)
	var cfgErr *domain.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("err = %v, want ConfigurationError", err)
	}
}
