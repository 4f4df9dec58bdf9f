package viewings

import "time"

// ActorSystem marks status changes applied by the payment cascade rather
// than a user.
const ActorSystem = "system"

// ViewingStatusChange is the append-only audit trail of viewing-request
// transitions. One row per applied transition.
type ViewingStatusChange struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	ViewingRequestID uint      `gorm:"not null;index" json:"viewing_request_id"`
	FromStatus       Status    `gorm:"type:varchar(20);not null" json:"from_status"`
	ToStatus         Status    `gorm:"type:varchar(20);not null" json:"to_status"`
	Reason           string    `gorm:"type:varchar(200);not null" json:"reason"`
	Actor            string    `gorm:"type:varchar(50);not null" json:"actor"`
	ChangedAt        time.Time `gorm:"autoCreateTime" json:"changed_at"`
}
