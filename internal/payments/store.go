package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"rental-app/internal/domain/payments"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Store owns the canonical PaymentTransaction rows and their guarded
// transitions. Every transition is a single conditional UPDATE whose WHERE
// clause restricts the current status to the allowed source set, so the
// check-then-set step is atomic: near-simultaneous conflicting events
// (e.g. a refund racing a completion) cannot both succeed out of order.
type Store struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewStore(db *gorm.DB, log *slog.Logger) *Store {
	return &Store{db: db, log: log}
}

// WithTx returns a Store bound to an open transaction, so the webhook
// pipeline can commit a transition together with its idempotency-ledger
// insert.
func (s *Store) WithTx(tx *gorm.DB) *Store {
	return &Store{db: tx, log: s.log}
}

func (s *Store) Create(ctx context.Context, provider string, amount decimal.Decimal, currency, reference string) (*payments.PaymentTransaction, error) {
	tx := payments.PaymentTransaction{
		PublicID:  uuid.New(),
		Provider:  provider,
		Amount:    amount,
		Currency:  currency,
		Reference: reference,
		Status:    payments.StatusCreated,
	}
	if err := s.db.WithContext(ctx).Create(&tx).Error; err != nil {
		return nil, fmt.Errorf("create payment transaction: %w", err)
	}
	return &tx, nil
}

func (s *Store) GetByID(ctx context.Context, id uint) (*payments.PaymentTransaction, error) {
	return s.getBy(ctx, "id = ?", id)
}

func (s *Store) GetByProviderID(ctx context.Context, providerTxID string) (*payments.PaymentTransaction, error) {
	return s.getBy(ctx, "provider_transaction_id = ?", providerTxID)
}

func (s *Store) getBy(ctx context.Context, query string, arg interface{}) (*payments.PaymentTransaction, error) {
	var tx payments.PaymentTransaction
	err := s.db.WithContext(ctx).Where(query, arg).First(&tx).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, payments.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// UpdateProviderDetails records the provider's session id and advances the
// transaction to PENDING. Only valid while the row is still CREATED with no
// provider transaction id; the id is immutable once set.
func (s *Store) UpdateProviderDetails(ctx context.Context, id uint, providerTxID string) (*payments.PaymentTransaction, error) {
	res := s.db.WithContext(ctx).
		Model(&payments.PaymentTransaction{}).
		Where("id = ?", id).
		Where("status = ?", payments.StatusCreated).
		Where("provider_transaction_id IS NULL").
		Updates(map[string]interface{}{
			"provider_transaction_id": providerTxID,
			"status":                  payments.StatusPending,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("update provider details: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		current, err := s.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s -> %s", payments.ErrInvalidTransition, current.Status, payments.StatusPending)
	}
	return s.GetByID(ctx, id)
}

func (s *Store) MarkPending(ctx context.Context, id uint) (*payments.PaymentTransaction, error) {
	return s.transition(ctx, "id = ?", id, payments.StatusPending, nil)
}

func (s *Store) MarkCompleted(ctx context.Context, id uint) (*payments.PaymentTransaction, error) {
	return s.markCompleted(ctx, "id = ?", id)
}

func (s *Store) MarkFailed(ctx context.Context, id uint, reason string) (*payments.PaymentTransaction, error) {
	return s.markFailed(ctx, "id = ?", id, reason)
}

func (s *Store) MarkRefunded(ctx context.Context, id uint) (*payments.PaymentTransaction, error) {
	return s.transition(ctx, "id = ?", id, payments.StatusRefunded, nil)
}

func (s *Store) MarkCompletedByProviderID(ctx context.Context, providerTxID string) (*payments.PaymentTransaction, error) {
	return s.markCompleted(ctx, "provider_transaction_id = ?", providerTxID)
}

func (s *Store) MarkFailedByProviderID(ctx context.Context, providerTxID, reason string) (*payments.PaymentTransaction, error) {
	return s.markFailed(ctx, "provider_transaction_id = ?", providerTxID, reason)
}

func (s *Store) MarkRefundedByProviderID(ctx context.Context, providerTxID string) (*payments.PaymentTransaction, error) {
	return s.transition(ctx, "provider_transaction_id = ?", providerTxID, payments.StatusRefunded, nil)
}

func (s *Store) markCompleted(ctx context.Context, query string, arg interface{}) (*payments.PaymentTransaction, error) {
	now := time.Now()
	return s.transition(ctx, query, arg, payments.StatusCompleted, map[string]interface{}{
		"completed_at": now,
	})
}

func (s *Store) markFailed(ctx context.Context, query string, arg interface{}, reason string) (*payments.PaymentTransaction, error) {
	return s.transition(ctx, query, arg, payments.StatusFailed, map[string]interface{}{
		"failure_reason": reason,
	})
}

// transition applies a guarded status change. The UPDATE only matches rows
// whose status is an allowed source for target; zero affected rows means
// the row is either missing (ErrNotFound) or in a state with no edge to
// target (ErrInvalidTransition), distinguished by a follow-up read.
func (s *Store) transition(ctx context.Context, query string, arg interface{}, target payments.Status, extra map[string]interface{}) (*payments.PaymentTransaction, error) {
	updates := map[string]interface{}{"status": target}
	for k, v := range extra {
		updates[k] = v
	}

	res := s.db.WithContext(ctx).
		Model(&payments.PaymentTransaction{}).
		Where(query, arg).
		Where("status IN ?", statusStrings(payments.AllowedSources(target))).
		Updates(updates)
	if res.Error != nil {
		return nil, fmt.Errorf("transition to %s: %w", target, res.Error)
	}

	if res.RowsAffected == 0 {
		current, err := s.getBy(ctx, query, arg)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s -> %s", payments.ErrInvalidTransition, current.Status, target)
	}

	return s.getBy(ctx, query, arg)
}

func statusStrings(in []payments.Status) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = string(s)
	}
	return out
}

// ListByReference returns a payment history for a business entity,
// newest first.
func (s *Store) ListByReference(ctx context.Context, reference string) ([]payments.PaymentTransaction, error) {
	var txs []payments.PaymentTransaction
	err := s.db.WithContext(ctx).
		Where("reference = ?", reference).
		Order("created_at DESC").
		Find(&txs).Error
	return txs, err
}
