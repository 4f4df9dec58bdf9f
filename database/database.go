package database

import (
	"fmt"
	"log"
	"os"

	"rental-app/internal/domain/apartments"
	"rental-app/internal/domain/payments"
	"rental-app/internal/domain/users"
	"rental-app/internal/domain/viewings"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func InitDB() {
	dsn := os.Getenv("DB_URL")
	if dsn == "" {
		log.Fatal("DB_URL not set")
	}

	// TranslateError is required: the webhook idempotency ledger relies on
	// unique-constraint violations surfacing as gorm.ErrDuplicatedKey.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	DB = db

	if err := DB.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto;`).Error; err != nil {
		log.Fatal("Failed to enable pgcrypto extension:", err)
	}

	if err := DB.AutoMigrate(
		&users.User{},
		&apartments.Apartment{},

		&viewings.ViewingRequest{},
		&viewings.ViewingStatusChange{},

		&payments.PaymentTransaction{},
		&payments.ProcessedWebhookEvent{},
	); err != nil {
		log.Fatal("AutoMigrate error:", err)
	}

	fmt.Println("Connected and migrated successfully")
}
