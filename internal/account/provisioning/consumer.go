package provisioning

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	accountdomain "github.com/ledgerline/payflow/internal/account/domain"
	"github.com/ledgerline/payflow/internal/observability/metrics"
	processordomain "github.com/ledgerline/payflow/internal/processor/domain"
)

// Consumer drains the account outbox and provisions a billing identity at
// the processor for each new account. A failed event stays unpublished and
// is retried on the next poll.
type Consumer struct {
	db        *gorm.DB
	log       *zap.Logger
	accounts  accountdomain.Service
	processor processordomain.Client
	metrics   *metrics.Metrics
}

func NewConsumer(
	db *gorm.DB,
	log *zap.Logger,
	accounts accountdomain.Service,
	processor processordomain.Client,
	m *metrics.Metrics,
) *Consumer {
	return &Consumer{
		db:        db,
		log:       log.Named("account.provisioning"),
		accounts:  accounts,
		processor: processor,
		metrics:   m,
	}
}

type eventRow struct {
	ID        snowflake.ID   `gorm:"column:id"`
	AccountID snowflake.ID   `gorm:"column:account_id"`
	Payload   datatypes.JSON `gorm:"column:payload"`
}

type accountCreatedPayload struct {
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
}

func (c *Consumer) ProcessPending(ctx context.Context, batchSize int) error {
	if batchSize <= 0 {
		batchSize = 50
	}

	var events []eventRow
	err := c.db.WithContext(ctx).Raw(
		`SELECT id, account_id, payload FROM account_events
		 WHERE event_type = ? AND published = false
		 ORDER BY created_at ASC
		 LIMIT ?`,
		accountdomain.EventTypeAccountCreated,
		batchSize,
	).Scan(&events).Error
	if err != nil {
		return err
	}

	for _, event := range events {
		if err := c.processEvent(ctx, event); err != nil {
			c.log.Error("failed to provision billing identity",
				zap.Error(err),
				zap.String("account_id", event.AccountID.String()),
			)
		}
	}

	return nil
}

func (c *Consumer) processEvent(ctx context.Context, event eventRow) error {
	var payload accountCreatedPayload
	if err := json.Unmarshal([]byte(event.Payload), &payload); err != nil {
		return err
	}
	if payload.Email == "" {
		return errors.New("missing email in account event")
	}

	account, err := c.accounts.GetByID(ctx, event.AccountID)
	if err != nil {
		return err
	}

	// Redelivered or already provisioned elsewhere: just retire the event.
	if account.BillingIdentityID != nil {
		return c.markPublished(ctx, event.ID)
	}

	customer, err := c.processor.CreateCustomer(ctx, payload.Email, map[string]string{
		"account_id": account.ID.String(),
	})
	if err != nil {
		return err
	}

	attached, err := c.accounts.AttachBillingIdentity(ctx, account.ID, customer.ID)
	if err != nil {
		return err
	}
	if attached {
		c.metrics.RecordIdentityProvisioned(ctx)
		c.log.Info("billing identity provisioned",
			zap.String("account_id", account.ID.String()),
			zap.String("billing_identity_id", customer.ID),
		)
	} else {
		// Lost the race with another provisioner. The account keeps the
		// identity that won; the extra customer is inert at the processor.
		c.log.Warn("billing identity already attached",
			zap.String("account_id", account.ID.String()),
		)
	}

	return c.markPublished(ctx, event.ID)
}

func (c *Consumer) markPublished(ctx context.Context, eventID snowflake.ID) error {
	return c.db.WithContext(ctx).Exec(
		`UPDATE account_events SET published = true, published_at = CURRENT_TIMESTAMP WHERE id = ?`,
		eventID,
	).Error
}
