package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	// InsertEvent records the delivery, reporting false when the
	// (provider, provider_event_id) pair is already known.
	InsertEvent(ctx context.Context, db *gorm.DB, event *WebhookEvent) (bool, error)
	FindEvent(ctx context.Context, db *gorm.DB, provider, providerEventID string) (*WebhookEvent, error)
	MarkEventProcessed(ctx context.Context, db *gorm.DB, provider, providerEventID string, at time.Time) error

	// InsertPurchase is keyed by provider_intent_id, reporting false when
	// the purchase already exists.
	InsertPurchase(ctx context.Context, db *gorm.DB, purchase *Purchase) (bool, error)
	FindPurchasesByAccount(ctx context.Context, db *gorm.DB, accountID snowflake.ID) ([]Purchase, error)
}
