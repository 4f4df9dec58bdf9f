package paymentwebhook

import (
	"errors"
	"io"
	"net/http"

	payments "rental-app/internal/domain/payments"
	"rental-app/internal/payments/webhook"

	"github.com/gin-gonic/gin"
)

// ProviderWebhook is the inbound endpoint for one provider. Status codes
// drive the provider's retry behavior: signature and payload problems are
// final (4xx, a retry of the identical delivery can never succeed),
// persistence failures are 5xx so the provider redelivers, and duplicate
// or unrecognized events acknowledge with 200.
func ProviderWebhook(ingestor *webhook.Ingestor, providerName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload, err := readWebhookBody(c, 65536)
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Error reading request body"})
			return
		}

		err = ingestor.Ingest(c.Request.Context(), providerName, payload, c.Request.Header)
		switch {
		case err == nil:
			c.JSON(http.StatusOK, gin.H{"status": "received"})
		case errors.Is(err, payments.ErrSignatureInvalid):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Signature verification failed"})
		case errors.Is(err, payments.ErrPayloadInvalid):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
		case errors.Is(err, payments.ErrNotFound), errors.Is(err, payments.ErrInvalidTransition):
			// Anomaly from a misbehaving provider; already logged upstream.
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
	}
}

func readWebhookBody(c *gin.Context, maxBytes int64) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
	return io.ReadAll(c.Request.Body)
}
