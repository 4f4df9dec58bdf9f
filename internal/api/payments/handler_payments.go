package payments

import (
	"net/http"

	paymentstore "rental-app/internal/payments"

	"github.com/gin-gonic/gin"
)

// GetPaymentHistory lists the transactions recorded for one business
// reference, newest first.
func GetPaymentHistory(store *paymentstore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("user_id")
		if userID == 0 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		reference := c.Query("reference")
		if reference == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing reference"})
			return
		}

		txs, err := store.ListByReference(c.Request.Context(), reference)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load payments"})
			return
		}

		c.JSON(http.StatusOK, txs)
	}
}
