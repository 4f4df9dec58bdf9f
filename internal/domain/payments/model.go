package payments

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusCreated   Status = "CREATED"
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusRefunded  Status = "REFUNDED"
)

// allowedTransitions maps a target status to the set of source statuses
// a transaction may move from. COMPLETED, FAILED and REFUNDED are terminal,
// except that COMPLETED may still move to REFUNDED.
var allowedTransitions = map[Status][]Status{
	StatusPending:   {StatusCreated},
	StatusCompleted: {StatusPending},
	StatusFailed:    {StatusCreated, StatusPending},
	StatusRefunded:  {StatusCompleted},
}

// AllowedSources returns the source statuses from which a transition
// into target is permitted.
func AllowedSources(target Status) []Status {
	return allowedTransitions[target]
}

func CanTransition(from, to Status) bool {
	for _, s := range allowedTransitions[to] {
		if s == from {
			return true
		}
	}
	return false
}

// PaymentTransaction is the canonical payment record. It is a financial
// audit artifact: rows are never deleted, and the status field is only
// mutated through the guarded store operations.
type PaymentTransaction struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	PublicID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_payment_transactions_public_id" json:"public_id"`

	Provider string          `gorm:"type:varchar(20);not null;index" json:"provider"`
	Amount   decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	Currency string          `gorm:"type:varchar(3);not null" json:"currency"`

	// Reference links the payment to the business entity it pays for,
	// e.g. a viewing request ("VR-42"). Opaque to the payment core.
	Reference string `gorm:"type:varchar(100);not null;index" json:"reference"`

	// ProviderTransactionID is set at most once, while the transaction is
	// still CREATED, and is immutable afterwards.
	ProviderTransactionID *string `gorm:"type:varchar(200);uniqueIndex:idx_payment_transactions_provider_tx_id" json:"provider_transaction_id,omitempty"`

	Status        Status     `gorm:"type:varchar(20);not null;index" json:"status"`
	FailureReason *string    `gorm:"type:varchar(500)" json:"failure_reason,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
