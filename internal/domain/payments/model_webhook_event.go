package payments

import "time"

// ProcessedWebhookEvent is the idempotency ledger for inbound provider
// webhooks. A row's existence alone marks its event as processed; the
// table is append-only and the (provider, provider_event_id) pair is
// enforced unique at the storage layer so two concurrent deliveries of
// the same event cannot both commit.
type ProcessedWebhookEvent struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Provider        string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_processed_webhook_events_provider_event,priority:1" json:"provider"`
	ProviderEventID string    `gorm:"type:varchar(200);not null;uniqueIndex:idx_processed_webhook_events_provider_event,priority:2" json:"provider_event_id"`
	EventType       string    `gorm:"type:varchar(100);not null" json:"event_type"`
	ProcessedAt     time.Time `gorm:"autoCreateTime" json:"processed_at"`
}
