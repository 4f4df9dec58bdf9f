package provider

import (
	"context"
	"errors"
	"fmt"

	"rental-app/internal/domain/payments"

	razorpay "github.com/razorpay/razorpay-go"
)

const ProviderRazorpay = "razorpay"

// RazorpayClient creates a Razorpay order for the transaction and points
// the payer at our hosted checkout page, which opens Razorpay's widget
// with that order id.
type RazorpayClient struct {
	client      *razorpay.Client
	checkoutURL string
}

func NewRazorpayClient(keyID, keySecret, checkoutURL string) *RazorpayClient {
	return &RazorpayClient{
		client:      razorpay.NewClient(keyID, keySecret),
		checkoutURL: checkoutURL,
	}
}

func (c *RazorpayClient) Name() string { return ProviderRazorpay }

func (c *RazorpayClient) CreateCheckoutSession(ctx context.Context, tx *payments.PaymentTransaction, description string) (*Session, error) {
	data := map[string]interface{}{
		// Razorpay wants minor units (paise for INR).
		"amount":   tx.Amount.Shift(2).IntPart(),
		"currency": tx.Currency,
		"receipt":  tx.Reference,
		"notes": map[string]interface{}{
			"description": description,
			"reference":   tx.Reference,
		},
	}

	order, err := c.client.Order.Create(data, nil)
	if err != nil {
		return nil, &payments.ProviderError{Provider: ProviderRazorpay, Err: err}
	}

	orderID, ok := order["id"].(string)
	if !ok || orderID == "" {
		return nil, &payments.ProviderError{Provider: ProviderRazorpay, Err: errors.New("order response missing id")}
	}

	return &Session{
		ProviderTransactionID: orderID,
		RedirectURL:           fmt.Sprintf("%s?order_id=%s", c.checkoutURL, orderID),
	}, nil
}
