package payments

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	payments "rental-app/internal/domain/payments"
	paymentstore "rental-app/internal/payments"
	"rental-app/internal/payments/provider"
	viewingstore "rental-app/internal/viewings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type checkoutRequest struct {
	Provider  string          `json:"provider"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Reference string          `json:"reference"`
}

// CreateCheckoutSession starts a hosted payment flow: it records a CREATED
// transaction, asks the resolved provider for a checkout session and only
// then advances the row to PENDING with the provider's session id. A
// provider failure therefore never leaves a dangling PENDING transaction.
func CreateCheckoutSession(store *paymentstore.Store, router *provider.Router, viewingStore *viewingstore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("user_id")
		if userID == 0 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not identified"})
			return
		}

		var body checkoutRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid checkout request"})
			return
		}
		if body.Reference == "" || !body.Amount.IsPositive() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing reference or non-positive amount"})
			return
		}
		currency := strings.ToUpper(strings.TrimSpace(body.Currency))
		if len(currency) != 3 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Currency must be an ISO-4217 code"})
			return
		}

		client, err := router.Resolve(body.Provider)
		if err != nil {
			var cfgErr *payments.ConfigurationError
			if errors.As(err, &cfgErr) {
				c.JSON(http.StatusBadRequest, gin.H{"error": cfgErr.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Provider resolution failed"})
			return
		}

		ctx := c.Request.Context()
		tx, err := store.Create(ctx, client.Name(), body.Amount, currency, body.Reference)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create payment transaction"})
			return
		}

		// A "VR-<id>" reference gates the matching viewing request on this
		// payment, which is what the webhook cascade later resolves.
		if viewingID, ok := viewingReference(body.Reference); ok {
			if err := viewingStore.LinkPaymentTransaction(ctx, viewingID, tx.ID); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to link viewing request"})
				return
			}
		}

		description := fmt.Sprintf("Apartment viewing booking %s", body.Reference)
		session, err := client.CreateCheckoutSession(ctx, tx, description)
		if err != nil {
			// Transaction stays CREATED; the user can retry checkout.
			c.JSON(http.StatusBadGateway, gin.H{"error": "Payment could not be started"})
			return
		}

		updated, err := store.UpdateProviderDetails(ctx, tx.ID, session.ProviderTransactionID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store provider session"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"provider_transaction_id": session.ProviderTransactionID,
			"redirect_url":            session.RedirectURL,
			"payment":                 updated,
		})
	}
}

func viewingReference(reference string) (uint, bool) {
	rest, ok := strings.CutPrefix(reference, "VR-")
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(rest, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
