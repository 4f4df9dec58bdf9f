package viewings

import (
	"context"
	"errors"
	"log/slog"
	"time"

	payments "rental-app/internal/domain/payments"
	"rental-app/internal/domain/viewings"
)

const (
	ReasonAutoConfirmed = "Auto-confirmed: payment completed"
	ReasonAutoCancelled = "Auto-cancelled: payment refunded"
)

// PaymentListener cascades payment outcomes into the linked viewing
// request. Both hooks are guarded, conditional transitions: a completion
// never downgrades a request past PENDING, a refund never touches a
// viewing that already took place, and re-invocation after a webhook
// retry cannot double-apply.
type PaymentListener struct {
	viewings *Store
	log      *slog.Logger
}

func NewPaymentListener(store *Store, log *slog.Logger) *PaymentListener {
	return &PaymentListener{viewings: store, log: log}
}

func (l *PaymentListener) OnPaymentCompleted(ctx context.Context, tx *payments.PaymentTransaction) error {
	vr, err := l.viewings.FindByPaymentTransactionID(ctx, tx.ID)
	if errors.Is(err, ErrNotFound) {
		l.log.Info("payment completed without a linked viewing request", "payment_transaction_id", tx.ID)
		return nil
	}
	if err != nil {
		return err
	}

	now := time.Now()
	applied, err := l.viewings.TransitionStatus(ctx, vr.ID,
		viewings.StatusPending, viewings.StatusConfirmed,
		map[string]interface{}{
			"confirmed_date_time": now,
			"responded_at":        now,
		},
		ReasonAutoConfirmed, viewings.ActorSystem)
	if err != nil {
		return err
	}
	if applied {
		l.log.Info("viewing request auto-confirmed",
			"viewing_request_id", vr.ID, "payment_transaction_id", tx.ID)
	}
	return nil
}

func (l *PaymentListener) OnPaymentRefunded(ctx context.Context, tx *payments.PaymentTransaction) error {
	vr, err := l.viewings.FindByPaymentTransactionID(ctx, tx.ID)
	if errors.Is(err, ErrNotFound) {
		l.log.Info("payment refunded without a linked viewing request", "payment_transaction_id", tx.ID)
		return nil
	}
	if err != nil {
		return err
	}

	applied, err := l.viewings.TransitionStatus(ctx, vr.ID,
		viewings.StatusConfirmed, viewings.StatusCancelled,
		nil,
		ReasonAutoCancelled, viewings.ActorSystem)
	if err != nil {
		return err
	}
	if applied {
		l.log.Info("viewing request auto-cancelled after refund",
			"viewing_request_id", vr.ID, "payment_transaction_id", tx.ID)
	}
	return nil
}
