package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	pkgdb "github.com/ledgerline/payflow/pkg/db"

	"github.com/ledgerline/payflow/internal/purchase/domain"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

// supportsOnConflict reports whether the dialect accepts the ON CONFLICT
// clause. MySQL does not; duplicates there surface as insert errors instead.
func supportsOnConflict(db *gorm.DB) bool {
	return db.Dialector.Name() != "mysql"
}

func insertOutcome(res *gorm.DB) (bool, error) {
	if res.Error != nil {
		if pkgdb.IsDuplicateKeyErr(res.Error) {
			return false, nil
		}
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) InsertEvent(ctx context.Context, db *gorm.DB, event *domain.WebhookEvent) (bool, error) {
	stmt := `INSERT INTO webhook_events (id, provider, provider_event_id, event_type, payload, received_at, processed_at)
		 VALUES (?, ?, ?, ?, ?, ?, NULL)`
	if supportsOnConflict(db) {
		stmt += ` ON CONFLICT (provider, provider_event_id) DO NOTHING`
	}
	res := db.WithContext(ctx).Exec(stmt,
		event.ID,
		event.Provider,
		event.ProviderEventID,
		event.EventType,
		event.Payload,
		event.ReceivedAt,
	)
	return insertOutcome(res)
}

func (r *repo) FindEvent(ctx context.Context, db *gorm.DB, provider, providerEventID string) (*domain.WebhookEvent, error) {
	var event domain.WebhookEvent
	err := db.WithContext(ctx).Raw(
		`SELECT id, provider, provider_event_id, event_type, payload, received_at, processed_at
		 FROM webhook_events
		 WHERE provider = ? AND provider_event_id = ?`,
		provider,
		providerEventID,
	).Scan(&event).Error
	if err != nil {
		return nil, err
	}
	if event.ID == 0 {
		return nil, nil
	}
	return &event, nil
}

func (r *repo) MarkEventProcessed(ctx context.Context, db *gorm.DB, provider, providerEventID string, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE webhook_events SET processed_at = ? WHERE provider = ? AND provider_event_id = ?`,
		at,
		provider,
		providerEventID,
	).Error
}

func (r *repo) InsertPurchase(ctx context.Context, db *gorm.DB, purchase *domain.Purchase) (bool, error) {
	stmt := `INSERT INTO purchases (provider_intent_id, account_id, product_id, product_name, amount, currency, date_purchased)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`
	if supportsOnConflict(db) {
		stmt += ` ON CONFLICT (provider_intent_id) DO NOTHING`
	}
	res := db.WithContext(ctx).Exec(stmt,
		purchase.ProviderIntentID,
		purchase.AccountID,
		purchase.ProductID,
		purchase.ProductName,
		purchase.Amount,
		purchase.Currency,
		purchase.DatePurchased,
	)
	return insertOutcome(res)
}

func (r *repo) FindPurchasesByAccount(ctx context.Context, db *gorm.DB, accountID snowflake.ID) ([]domain.Purchase, error) {
	var purchases []domain.Purchase
	err := db.WithContext(ctx).Raw(
		`SELECT provider_intent_id, account_id, product_id, product_name, amount, currency, date_purchased
		 FROM purchases
		 WHERE account_id = ?
		 ORDER BY date_purchased DESC`,
		accountID,
	).Scan(&purchases).Error
	if err != nil {
		return nil, err
	}
	return purchases, nil
}
