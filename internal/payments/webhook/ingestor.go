package webhook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	payments "rental-app/internal/domain/payments"
	paymentstore "rental-app/internal/payments"
	"rental-app/internal/payments/provider"

	"gorm.io/gorm"
)

// Envelope is the provider-agnostic view of an inbound webhook event.
// ResourceID is the provider transaction id of the affected resource and
// may be empty: providers emit informational events without one.
type Envelope struct {
	EventID    string
	EventType  string
	ResourceID string
}

// Parser verifies and parses one provider's native payload into an
// Envelope. Signature failures map to ErrSignatureInvalid, unparseable
// payloads to ErrPayloadInvalid.
type Parser interface {
	Provider() string
	ParseAndVerify(payload []byte, header http.Header) (*Envelope, error)
}

// Listener receives transactions that just reached COMPLETED or REFUNDED
// so the booking side can cascade. Implementations must be idempotent;
// the pipeline may re-invoke them after a crashed delivery is retried.
type Listener interface {
	OnPaymentCompleted(ctx context.Context, tx *payments.PaymentTransaction) error
	OnPaymentRefunded(ctx context.Context, tx *payments.PaymentTransaction) error
}

// transitionFunc applies one guarded transition through a store bound to
// the ledger's database transaction.
type transitionFunc func(ctx context.Context, store *paymentstore.Store, resourceID string) (*payments.PaymentTransaction, error)

var errAlreadyProcessed = errors.New("webhook event already processed")

// Ingestor runs the webhook pipeline: verify, parse, dedup, dispatch,
// cascade. The idempotency-ledger insert and the resulting transition
// commit as one database transaction, so two concurrent deliveries of the
// same event cannot both apply it.
type Ingestor struct {
	db       *gorm.DB
	store    *paymentstore.Store
	listener Listener
	log      *slog.Logger
	parsers  map[string]Parser
	dispatch map[string]map[string]transitionFunc
}

func NewIngestor(db *gorm.DB, store *paymentstore.Store, listener Listener, log *slog.Logger, parsers ...Parser) *Ingestor {
	i := &Ingestor{
		db:       db,
		store:    store,
		listener: listener,
		log:      log,
		parsers:  make(map[string]Parser, len(parsers)),
		dispatch: make(map[string]map[string]transitionFunc, len(parsers)),
	}
	for _, p := range parsers {
		i.parsers[p.Provider()] = p
		i.dispatch[p.Provider()] = dispatchTable(p.Provider())
	}
	return i
}

func (i *Ingestor) Ingest(ctx context.Context, providerName string, payload []byte, header http.Header) error {
	parser, ok := i.parsers[providerName]
	if !ok {
		return &payments.ConfigurationError{Value: providerName}
	}

	env, err := parser.ParseAndVerify(payload, header)
	if err != nil {
		return err
	}

	var updated *payments.PaymentTransaction
	err = i.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record := payments.ProcessedWebhookEvent{
			Provider:        providerName,
			ProviderEventID: env.EventID,
			EventType:       env.EventType,
		}
		if err := tx.Create(&record).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errAlreadyProcessed
			}
			return fmt.Errorf("record webhook event: %w", err)
		}

		op, known := i.dispatch[providerName][env.EventType]
		if !known {
			// New provider event types must never break ingestion.
			return nil
		}
		if env.ResourceID == "" {
			// Informational event without a resolvable resource.
			return nil
		}

		t, err := op(ctx, i.store.WithTx(tx), env.ResourceID)
		if err != nil {
			return err
		}
		updated = t
		return nil
	})

	if errors.Is(err, errAlreadyProcessed) {
		i.log.Info("duplicate webhook delivery ignored",
			"provider", providerName, "event_id", env.EventID, "event_type", env.EventType)
		return nil
	}
	if err != nil {
		if errors.Is(err, payments.ErrNotFound) || errors.Is(err, payments.ErrInvalidTransition) {
			i.log.Warn("webhook anomaly",
				"provider", providerName, "event_id", env.EventID,
				"event_type", env.EventType, "resource_id", env.ResourceID, "error", err)
		}
		return err
	}

	if updated == nil {
		i.log.Info("webhook event recorded without transition",
			"provider", providerName, "event_id", env.EventID, "event_type", env.EventType)
		return nil
	}

	// The cascade runs outside the payment commit: it is a guarded,
	// conditional transition itself, so re-running it after a retry is safe.
	switch updated.Status {
	case payments.StatusCompleted:
		return i.listener.OnPaymentCompleted(ctx, updated)
	case payments.StatusRefunded:
		return i.listener.OnPaymentRefunded(ctx, updated)
	}
	return nil
}

func dispatchTable(providerName string) map[string]transitionFunc {
	switch providerName {
	case provider.ProviderStripe:
		return map[string]transitionFunc{
			"checkout.session.completed":    markCompleted,
			"checkout.session.expired":      markFailed("checkout session expired"),
			"payment_intent.payment_failed": markFailed("payment failed at provider"),
			"charge.refunded":               markRefunded,
		}
	case provider.ProviderRazorpay:
		return map[string]transitionFunc{
			"payment.captured": markCompleted,
			"payment.failed":   markFailed("payment failed at provider"),
			"refund.processed": markRefunded,
		}
	default:
		return map[string]transitionFunc{}
	}
}

func markCompleted(ctx context.Context, store *paymentstore.Store, resourceID string) (*payments.PaymentTransaction, error) {
	return store.MarkCompletedByProviderID(ctx, resourceID)
}

func markFailed(reason string) transitionFunc {
	return func(ctx context.Context, store *paymentstore.Store, resourceID string) (*payments.PaymentTransaction, error) {
		return store.MarkFailedByProviderID(ctx, resourceID, reason)
	}
}

func markRefunded(ctx context.Context, store *paymentstore.Store, resourceID string) (*payments.PaymentTransaction, error) {
	return store.MarkRefundedByProviderID(ctx, resourceID)
}
