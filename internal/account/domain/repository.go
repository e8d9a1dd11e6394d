package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, account *Account) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Account, error)
	FindBySubject(ctx context.Context, db *gorm.DB, subject string) (*Account, error)
	AttachBillingIdentity(ctx context.Context, db *gorm.DB, id snowflake.ID, billingIdentityID string) (bool, error)
	InsertEvent(ctx context.Context, db *gorm.DB, event *AccountEvent) error
}
