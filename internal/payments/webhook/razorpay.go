package webhook

import (
	"encoding/json"
	"fmt"
	"net/http"

	payments "rental-app/internal/domain/payments"
	"rental-app/internal/payments/provider"

	razorpayutils "github.com/razorpay/razorpay-go/utils"
)

// RazorpayParser checks the HMAC signature in X-Razorpay-Signature against
// the webhook secret. Razorpay carries the delivery's unique event id in
// the X-Razorpay-Event-Id header, not the body. The resource id is the
// order id of the payment entity, which matches the order id we stored at
// checkout time.
type RazorpayParser struct {
	secret string
}

func NewRazorpayParser(webhookSecret string) *RazorpayParser {
	return &RazorpayParser{secret: webhookSecret}
}

func (p *RazorpayParser) Provider() string { return provider.ProviderRazorpay }

func (p *RazorpayParser) ParseAndVerify(payload []byte, header http.Header) (*Envelope, error) {
	signature := header.Get("X-Razorpay-Signature")
	if !razorpayutils.VerifyWebhookSignature(string(payload), signature, p.secret) {
		return nil, payments.ErrSignatureInvalid
	}

	var body struct {
		Event   string `json:"event"`
		Payload struct {
			Payment struct {
				Entity struct {
					ID      string `json:"id"`
					OrderID string `json:"order_id"`
				} `json:"entity"`
			} `json:"payment"`
		} `json:"payload"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, fmt.Errorf("%w: %v", payments.ErrPayloadInvalid, err)
	}
	if body.Event == "" {
		return nil, fmt.Errorf("%w: missing event type", payments.ErrPayloadInvalid)
	}

	eventID := header.Get("X-Razorpay-Event-Id")
	if eventID == "" {
		return nil, fmt.Errorf("%w: missing X-Razorpay-Event-Id header", payments.ErrPayloadInvalid)
	}

	return &Envelope{
		EventID:    eventID,
		EventType:  body.Event,
		ResourceID: body.Payload.Payment.Entity.OrderID,
	}, nil
}
