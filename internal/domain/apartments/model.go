package apartments

import (
	"time"

	"github.com/shopspring/decimal"
)

type Apartment struct {
	ID         uint `gorm:"primaryKey" json:"id"`
	LandlordID uint `gorm:"not null;index" json:"landlord_id"`

	Title   string `gorm:"type:varchar(200);not null" json:"title"`
	Address string `gorm:"type:varchar(300);not null" json:"address"`
	City    string `gorm:"type:varchar(100);not null;index" json:"city"`

	MonthlyRent decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"monthly_rent"`
	// ViewingFee is what a tenant pays to book a viewing slot.
	ViewingFee decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"viewing_fee"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
