package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/ledgerline/payflow/internal/account/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, account *domain.Account) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO accounts (id, subject, email, billing_identity_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		account.ID,
		account.Subject,
		account.Email,
		account.BillingIdentityID,
		account.CreatedAt,
		account.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Account, error) {
	var account domain.Account
	err := db.WithContext(ctx).Raw(
		`SELECT id, subject, email, billing_identity_id, created_at, updated_at
		 FROM accounts WHERE id = ?`,
		id,
	).Scan(&account).Error
	if err != nil {
		return nil, err
	}
	if account.ID == 0 {
		return nil, nil
	}
	return &account, nil
}

func (r *repo) FindBySubject(ctx context.Context, db *gorm.DB, subject string) (*domain.Account, error) {
	var account domain.Account
	err := db.WithContext(ctx).Raw(
		`SELECT id, subject, email, billing_identity_id, created_at, updated_at
		 FROM accounts WHERE subject = ?`,
		subject,
	).Scan(&account).Error
	if err != nil {
		return nil, err
	}
	if account.ID == 0 {
		return nil, nil
	}
	return &account, nil
}

func (r *repo) AttachBillingIdentity(ctx context.Context, db *gorm.DB, id snowflake.ID, billingIdentityID string) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE accounts
		 SET billing_identity_id = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND billing_identity_id IS NULL`,
		billingIdentityID,
		id,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) InsertEvent(ctx context.Context, db *gorm.DB, event *domain.AccountEvent) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO account_events (id, account_id, event_type, payload, published, created_at, published_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		event.ID,
		event.AccountID,
		event.EventType,
		event.Payload,
		event.Published,
		event.CreatedAt,
		event.PublishedAt,
	).Error
}
