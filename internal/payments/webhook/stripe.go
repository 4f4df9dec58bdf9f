package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	payments "rental-app/internal/domain/payments"
	"rental-app/internal/payments/provider"

	stripewebhook "github.com/stripe/stripe-go/v75/webhook"
)

// StripeParser verifies the Stripe-Signature header against the endpoint
// secret and maps the event to the generic envelope. The resource id is
// the id of the event's data object (checkout session, payment intent,
// charge), which is what we store as the provider transaction id.
type StripeParser struct {
	secret string
}

func NewStripeParser(webhookSecret string) *StripeParser {
	return &StripeParser{secret: webhookSecret}
}

func (p *StripeParser) Provider() string { return provider.ProviderStripe }

func (p *StripeParser) ParseAndVerify(payload []byte, header http.Header) (*Envelope, error) {
	event, err := stripewebhook.ConstructEventWithOptions(
		payload,
		header.Get("Stripe-Signature"),
		p.secret,
		stripewebhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		if isStripeSignatureError(err) {
			return nil, fmt.Errorf("%w: %v", payments.ErrSignatureInvalid, err)
		}
		return nil, fmt.Errorf("%w: %v", payments.ErrPayloadInvalid, err)
	}

	if event.Type == "" {
		return nil, fmt.Errorf("%w: missing event type", payments.ErrPayloadInvalid)
	}

	env := &Envelope{EventID: event.ID, EventType: string(event.Type)}

	// A missing or id-less data object is tolerated: the event is recorded
	// and dispatched as a no-op.
	if event.Data != nil && len(event.Data.Raw) > 0 {
		var object struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(event.Data.Raw, &object); err == nil {
			env.ResourceID = object.ID
		}
	}

	return env, nil
}

func isStripeSignatureError(err error) bool {
	return errors.Is(err, stripewebhook.ErrNotSigned) ||
		errors.Is(err, stripewebhook.ErrInvalidHeader) ||
		errors.Is(err, stripewebhook.ErrNoValidSignature) ||
		errors.Is(err, stripewebhook.ErrTooOld)
}
