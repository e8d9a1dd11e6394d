package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	catalogdomain "github.com/ledgerline/payflow/internal/catalog/domain"
	"github.com/ledgerline/payflow/internal/clock"
	"github.com/ledgerline/payflow/internal/observability/metrics"
	processordomain "github.com/ledgerline/payflow/internal/processor/domain"
	"github.com/ledgerline/payflow/internal/purchase/domain"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    domain.Repository
	Catalog catalogdomain.Service
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    domain.Repository
	catalog catalogdomain.Service
	metrics *metrics.Metrics
}

func New(p Params) domain.Recorder {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("purchase.recorder"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		catalog: p.Catalog,
		metrics: p.Metrics,
	}
}

func (s *Service) RecordIntentSucceeded(ctx context.Context, event *processordomain.Event, payload []byte) error {
	if event == nil || event.Intent == nil || event.Intent.IntentID == "" {
		return domain.ErrMalformedEvent
	}

	purchase, buildErr := s.buildPurchase(ctx, event)
	if buildErr != nil && !errors.Is(buildErr, domain.ErrMalformedEvent) {
		// Snapshot resolution hit a transient failure. Leave the event
		// unclaimed so redelivery gets a full retry.
		return buildErr
	}

	var outcome error
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fresh, err := s.claimEvent(ctx, tx, event, payload)
		if err != nil {
			return err
		}
		if !fresh {
			outcome = domain.ErrEventAlreadyProcessed
			return nil
		}

		if buildErr != nil {
			// The metadata stamped at intent creation is unusable, so
			// redelivery can never succeed. Retire the event instead of
			// bouncing it forever.
			outcome = buildErr
			s.log.Warn("retiring malformed success event",
				zap.String("provider_event_id", event.ProviderEventID),
				zap.String("intent_id", event.Intent.IntentID),
				zap.Error(buildErr),
			)
			return s.repo.MarkEventProcessed(ctx, tx, event.Provider, event.ProviderEventID, s.clock.Now())
		}

		recorded, err := s.repo.InsertPurchase(ctx, tx, purchase)
		if err != nil {
			return err
		}
		if recorded {
			s.metrics.RecordPurchase(ctx)
			s.log.Info("purchase recorded",
				zap.String("intent_id", purchase.ProviderIntentID),
				zap.String("product_id", purchase.ProductID),
				zap.String("account_id", purchase.AccountID.String()),
				zap.Int64("amount", purchase.Amount),
			)
		}

		return s.repo.MarkEventProcessed(ctx, tx, event.Provider, event.ProviderEventID, s.clock.Now())
	})
	if err != nil {
		return err
	}
	return outcome
}

func (s *Service) RecordIntentFailed(ctx context.Context, event *processordomain.Event, payload []byte) error {
	if event == nil || event.Intent == nil {
		return domain.ErrMalformedEvent
	}

	var outcome error
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fresh, err := s.claimEvent(ctx, tx, event, payload)
		if err != nil {
			return err
		}
		if !fresh {
			outcome = domain.ErrEventAlreadyProcessed
			return nil
		}

		s.log.Warn("payment intent failed",
			zap.String("intent_id", event.Intent.IntentID),
			zap.String("failure_code", event.Intent.FailureCode),
			zap.String("failure_message", event.Intent.FailureMessage),
		)

		return s.repo.MarkEventProcessed(ctx, tx, event.Provider, event.ProviderEventID, s.clock.Now())
	})
	if err != nil {
		return err
	}
	return outcome
}

func (s *Service) ListByAccount(ctx context.Context, accountID snowflake.ID) ([]domain.Purchase, error) {
	return s.repo.FindPurchasesByAccount(ctx, s.db, accountID)
}

// claimEvent inserts the delivery row, reporting false when the event was
// already processed to completion. An earlier delivery that died before
// commit leaves no processed mark, so the event is claimed again.
func (s *Service) claimEvent(ctx context.Context, tx *gorm.DB, event *processordomain.Event, payload []byte) (bool, error) {
	inserted, err := s.repo.InsertEvent(ctx, tx, &domain.WebhookEvent{
		ID:              s.genID.Generate(),
		Provider:        event.Provider,
		ProviderEventID: event.ProviderEventID,
		EventType:       event.Type,
		Payload:         datatypes.JSON(payload),
		ReceivedAt:      s.clock.Now(),
	})
	if err != nil {
		return false, err
	}
	if inserted {
		return true, nil
	}

	existing, err := s.repo.FindEvent(ctx, tx, event.Provider, event.ProviderEventID)
	if err != nil {
		return false, err
	}
	if existing != nil && existing.ProcessedAt != nil {
		return false, nil
	}
	return true, nil
}

func (s *Service) buildPurchase(ctx context.Context, event *processordomain.Event) (*domain.Purchase, error) {
	intent := event.Intent

	productID := strings.TrimSpace(intent.Metadata["product_id"])
	if productID == "" {
		return nil, fmt.Errorf("%w: missing product_id metadata", domain.ErrMalformedEvent)
	}
	rawAccountID := strings.TrimSpace(intent.Metadata["account_id"])
	if rawAccountID == "" {
		return nil, fmt.Errorf("%w: missing account_id metadata", domain.ErrMalformedEvent)
	}
	accountID, err := snowflake.ParseString(rawAccountID)
	if err != nil {
		return nil, fmt.Errorf("%w: bad account_id metadata", domain.ErrMalformedEvent)
	}

	// product_name was stamped into metadata at intent creation so the
	// snapshot reflects the product as sold, not as currently listed.
	productName := strings.TrimSpace(intent.Metadata["product_name"])
	if productName == "" {
		product, err := s.catalog.GetByID(ctx, productID)
		if err != nil {
			if errors.Is(err, catalogdomain.ErrProductNotFound) {
				return nil, fmt.Errorf("%w: unknown product %s", domain.ErrMalformedEvent, productID)
			}
			return nil, err
		}
		productName = product.Name
	}

	currency := strings.ToUpper(strings.TrimSpace(intent.Currency))
	if currency == "" {
		currency = "USD"
	}

	return &domain.Purchase{
		ProviderIntentID: intent.IntentID,
		AccountID:        accountID,
		ProductID:        productID,
		ProductName:      productName,
		Amount:           intent.Amount / 100,
		Currency:         currency,
		DatePurchased:    s.clock.Now(),
	}, nil
}
