package provider

import (
	"context"
	"strings"

	"rental-app/internal/domain/payments"

	"github.com/stripe/stripe-go/v75"
	checkoutsession "github.com/stripe/stripe-go/v75/checkout/session"
)

const ProviderStripe = "stripe"

type StripeClient struct {
	redirects RedirectConfig
}

func NewStripeClient(secretKey string, redirects RedirectConfig) *StripeClient {
	stripe.Key = secretKey
	return &StripeClient{redirects: redirects}
}

func (c *StripeClient) Name() string { return ProviderStripe }

func (c *StripeClient) CreateCheckoutSession(ctx context.Context, tx *payments.PaymentTransaction, description string) (*Session, error) {
	params := &stripe.CheckoutSessionParams{
		Params:            stripe.Params{Context: ctx},
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(c.redirects.SuccessURL),
		CancelURL:         stripe.String(c.redirects.CancelURL),
		ClientReferenceID: stripe.String(tx.Reference),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(strings.ToLower(tx.Currency)),
					// Stripe wants minor units (cents for EUR/USD).
					UnitAmount: stripe.Int64(tx.Amount.Shift(2).IntPart()),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(description),
					},
				},
			},
		},
	}

	s, err := checkoutsession.New(params)
	if err != nil {
		return nil, &payments.ProviderError{Provider: ProviderStripe, Err: err}
	}

	return &Session{ProviderTransactionID: s.ID, RedirectURL: s.URL}, nil
}
