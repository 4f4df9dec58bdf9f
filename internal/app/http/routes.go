package routes

import (
	"log/slog"
	"os"

	"rental-app/config"
	"rental-app/database"
	paymentsapi "rental-app/internal/api/payments"
	"rental-app/internal/api/paymentwebhook"
	viewingsapi "rental-app/internal/api/viewings"
	"rental-app/internal/app/http/middleware"
	paymentstore "rental-app/internal/payments"
	"rental-app/internal/payments/provider"
	"rental-app/internal/payments/webhook"
	viewingstore "rental-app/internal/viewings"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	payments := paymentstore.NewStore(database.DB, logger)
	viewings := viewingstore.NewStore(database.DB, logger)
	listener := viewingstore.NewPaymentListener(viewings, logger)

	router := provider.NewRouter(
		provider.NewStripeClient(config.STRIPE_SECRET_KEY, provider.RedirectConfig{
			SuccessURL: config.PAYMENT_SUCCESS_URL,
			CancelURL:  config.PAYMENT_CANCEL_URL,
		}),
		provider.NewRazorpayClient(config.RAZORPAY_KEY_ID, config.RAZORPAY_KEY_SECRET, config.RAZORPAY_CHECKOUT_URL),
	)

	ingestor := webhook.NewIngestor(database.DB, payments, listener, logger,
		webhook.NewStripeParser(config.STRIPE_WEBHOOK_SECRET),
		webhook.NewRazorpayParser(config.RAZORPAY_WEBHOOK_SECRET),
	)

	// Webhook routes take the raw body; no sanitization, no auth.
	r.POST("/webhooks/stripe", paymentwebhook.ProviderWebhook(ingestor, provider.ProviderStripe))
	r.POST("/webhooks/razorpay", paymentwebhook.ProviderWebhook(ingestor, provider.ProviderRazorpay))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Authenticated
	auth := r.Group("/")
	auth.Use(middleware.AuthMiddleware(), middleware.SanitizeAndCleanInputMiddleware())
	auth.POST("/payments/checkout", paymentsapi.CreateCheckoutSession(payments, router, viewings))
	auth.GET("/payments", paymentsapi.GetPaymentHistory(payments))

	auth.POST("/viewings", viewingsapi.CreateViewingRequest(viewings, database.DB))
	auth.GET("/viewings", viewingsapi.ListMyViewingRequests(viewings))

	landlord := auth.Group("/")
	landlord.Use(middleware.RequireRole("landlord"))
	landlord.PUT("/viewings/:id/respond", viewingsapi.RespondToViewingRequest(viewings))
}
