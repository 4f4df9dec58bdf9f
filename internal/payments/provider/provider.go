package provider

import (
	"context"

	"rental-app/internal/domain/payments"
)

// Session is the canonical shape of a provider-hosted checkout flow.
type Session struct {
	ProviderTransactionID string
	RedirectURL           string
}

// Client is the single capability each payment provider implements. An
// adapter converts the transaction's amount and currency into the
// provider's representation, attaches the reference and description,
// includes the configured redirect URLs, calls the remote API and maps
// the response back to a Session. No SDK type crosses this boundary.
//
// A failed call never mutates the stored transaction; only the explicit
// UpdateProviderDetails that follows a successful call advances it.
type Client interface {
	Name() string
	CreateCheckoutSession(ctx context.Context, tx *payments.PaymentTransaction, description string) (*Session, error)
}

// RedirectConfig holds the per-provider success/cancel URLs the hosted
// checkout sends the payer back to.
type RedirectConfig struct {
	SuccessURL string
	CancelURL  string
}
