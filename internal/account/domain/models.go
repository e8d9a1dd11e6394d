package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Account mirrors a user record owned by the external identity system.
// BillingIdentityID is the processor-side customer reference; it is nil until
// the provisioner attaches it and is set at most once.
type Account struct {
	ID                snowflake.ID `gorm:"primaryKey" json:"id"`
	Subject           string       `gorm:"not null;uniqueIndex" json:"subject"`
	Email             string       `gorm:"not null" json:"email"`
	BillingIdentityID *string      `gorm:"column:billing_identity_id" json:"billing_identity_id,omitempty"`
	CreatedAt         time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt         time.Time    `gorm:"not null" json:"updated_at"`
}

func (Account) TableName() string { return "accounts" }

const EventTypeAccountCreated = "account.created"

// AccountEvent is an outbox row recording a change that downstream consumers
// drain at least once.
type AccountEvent struct {
	ID          snowflake.ID      `gorm:"primaryKey" json:"id"`
	AccountID   snowflake.ID      `gorm:"not null;index" json:"account_id"`
	EventType   string            `gorm:"type:text;not null" json:"event_type"`
	Payload     datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"payload"`
	Published   bool              `gorm:"not null;default:false" json:"published"`
	CreatedAt   time.Time         `gorm:"not null" json:"created_at"`
	PublishedAt *time.Time        `json:"published_at,omitempty"`
}

func (AccountEvent) TableName() string { return "account_events" }
