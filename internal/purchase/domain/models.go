package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Purchase is the durable record of one completed payment. It is keyed by
// the processor intent id so that redelivered success events collapse into
// a single row.
type Purchase struct {
	ProviderIntentID string       `gorm:"primaryKey" json:"provider_intent_id"`
	AccountID        snowflake.ID `gorm:"not null" json:"account_id"`
	ProductID        string       `gorm:"not null" json:"product_id"`
	ProductName      string       `gorm:"not null" json:"product_name"`
	Amount           int64        `gorm:"not null" json:"amount"`
	Currency         string       `gorm:"not null" json:"currency"`
	DatePurchased    time.Time    `gorm:"not null" json:"date_purchased"`
}

func (Purchase) TableName() string { return "purchases" }

// WebhookEvent tracks one inbound delivery per (provider, provider_event_id)
// so redeliveries of an already processed event are acknowledged without
// side effects.
type WebhookEvent struct {
	ID              snowflake.ID   `gorm:"primaryKey" json:"id"`
	Provider        string         `gorm:"not null" json:"provider"`
	ProviderEventID string         `gorm:"not null" json:"provider_event_id"`
	EventType       string         `gorm:"not null" json:"event_type"`
	Payload         datatypes.JSON `gorm:"type:jsonb" json:"payload"`
	ReceivedAt      time.Time      `gorm:"not null" json:"received_at"`
	ProcessedAt     *time.Time     `json:"processed_at"`
}

func (WebhookEvent) TableName() string { return "webhook_events" }
