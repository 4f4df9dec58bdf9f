package viewings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"rental-app/internal/domain/viewings"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("viewing request not found")

// Store owns ViewingRequest rows. Status changes go through
// TransitionStatus, which applies the change only when the row is in the
// expected source state and appends one audit row per applied transition.
type Store struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewStore(db *gorm.DB, log *slog.Logger) *Store {
	return &Store{db: db, log: log}
}

func (s *Store) Create(ctx context.Context, vr *viewings.ViewingRequest) error {
	return s.db.WithContext(ctx).Create(vr).Error
}

func (s *Store) GetByID(ctx context.Context, id uint) (*viewings.ViewingRequest, error) {
	var vr viewings.ViewingRequest
	err := s.db.WithContext(ctx).First(&vr, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &vr, nil
}

func (s *Store) ListByTenant(ctx context.Context, tenantID uint) ([]viewings.ViewingRequest, error) {
	var out []viewings.ViewingRequest
	err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

func (s *Store) FindByPaymentTransactionID(ctx context.Context, paymentTxID uint) (*viewings.ViewingRequest, error) {
	var vr viewings.ViewingRequest
	err := s.db.WithContext(ctx).
		Where("payment_transaction_id = ?", paymentTxID).
		First(&vr).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &vr, nil
}

// LinkPaymentTransaction attaches the payment that gates this request.
func (s *Store) LinkPaymentTransaction(ctx context.Context, id, paymentTxID uint) error {
	return s.db.WithContext(ctx).
		Model(&viewings.ViewingRequest{}).
		Where("id = ?", id).
		Update("payment_transaction_id", paymentTxID).Error
}

// TransitionStatus moves a request from one status to another. The UPDATE
// matches only rows currently in the source status, so a request that has
// already moved on is left untouched and no audit row is written. Returns
// whether the transition was applied.
func (s *Store) TransitionStatus(ctx context.Context, id uint, from, to viewings.Status, extra map[string]interface{}, reason, actor string) (bool, error) {
	applied := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{"status": to}
		for k, v := range extra {
			updates[k] = v
		}

		res := tx.Model(&viewings.ViewingRequest{}).
			Where("id = ? AND status = ?", id, from).
			Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("transition viewing request %d to %s: %w", id, to, res.Error)
		}
		if res.RowsAffected == 0 {
			return nil
		}
		applied = true

		change := viewings.ViewingStatusChange{
			ViewingRequestID: id,
			FromStatus:       from,
			ToStatus:         to,
			Reason:           reason,
			Actor:            actor,
		}
		return tx.Create(&change).Error
	})
	return applied, err
}

func (s *Store) StatusChanges(ctx context.Context, viewingRequestID uint) ([]viewings.ViewingStatusChange, error) {
	var out []viewings.ViewingStatusChange
	err := s.db.WithContext(ctx).
		Where("viewing_request_id = ?", viewingRequestID).
		Order("id ASC").
		Find(&out).Error
	return out, err
}
