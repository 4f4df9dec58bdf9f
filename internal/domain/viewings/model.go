package viewings

import "time"

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCompleted Status = "COMPLETED"
	StatusDeclined  Status = "DECLINED"
	StatusCancelled Status = "CANCELLED"
)

// ViewingRequest is a tenant's request to view an apartment. Confirmation
// is gated on the linked payment transaction; the payment core mutates a
// request exclusively through the store's guarded transition.
type ViewingRequest struct {
	ID          uint `gorm:"primaryKey" json:"id"`
	ApartmentID uint `gorm:"not null;index" json:"apartment_id"`
	TenantID    uint `gorm:"not null;index" json:"tenant_id"`

	Status Status `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`

	RequestedDateTime time.Time  `gorm:"not null" json:"requested_date_time"`
	ConfirmedDateTime *time.Time `json:"confirmed_date_time,omitempty"`
	RespondedAt       *time.Time `json:"responded_at,omitempty"`

	PaymentTransactionID *uint `gorm:"index:idx_viewing_requests_payment_transaction_id" json:"payment_transaction_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
