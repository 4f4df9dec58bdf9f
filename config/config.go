package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

var (
	PORT       string
	DB_URL     string
	JWT_SECRET string

	STRIPE_SECRET_KEY     string
	STRIPE_WEBHOOK_SECRET string

	RAZORPAY_KEY_ID         string
	RAZORPAY_KEY_SECRET     string
	RAZORPAY_WEBHOOK_SECRET string

	PAYMENT_SUCCESS_URL   string
	PAYMENT_CANCEL_URL    string
	RAZORPAY_CHECKOUT_URL string

	CORS_ORIGIN string
)

func LoadEnv() {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found. Using system environment variables.")
	}

	PORT = getEnv("PORT", "8080")
	DB_URL = mustEnv("DB_URL")
	JWT_SECRET = mustEnv("JWT_SECRET")

	STRIPE_SECRET_KEY = mustEnv("STRIPE_SECRET_KEY")
	STRIPE_WEBHOOK_SECRET = mustEnv("STRIPE_WEBHOOK_SECRET")

	RAZORPAY_KEY_ID = mustEnv("RAZORPAY_KEY_ID")
	RAZORPAY_KEY_SECRET = mustEnv("RAZORPAY_KEY_SECRET")
	RAZORPAY_WEBHOOK_SECRET = mustEnv("RAZORPAY_WEBHOOK_SECRET")

	appURL := getEnv("APP_URL", "http://localhost:5173")
	PAYMENT_SUCCESS_URL = getEnv("PAYMENT_SUCCESS_URL", appURL+"/viewings?paid=1")
	PAYMENT_CANCEL_URL = getEnv("PAYMENT_CANCEL_URL", appURL+"/viewings?canceled=1")
	RAZORPAY_CHECKOUT_URL = getEnv("RAZORPAY_CHECKOUT_URL", appURL+"/checkout/razorpay")

	CORS_ORIGIN = getEnv("CORS_ORIGIN", appURL)
}

func mustEnv(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("Missing required environment variable: %s", key)
	}
	return v
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
