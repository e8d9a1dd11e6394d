package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/fx"
	"go.uber.org/zap"

	accountdomain "github.com/ledgerline/payflow/internal/account/domain"
	catalogdomain "github.com/ledgerline/payflow/internal/catalog/domain"
	"github.com/ledgerline/payflow/internal/checkout/domain"
	"github.com/ledgerline/payflow/internal/config"
	"github.com/ledgerline/payflow/internal/observability/metrics"
	processordomain "github.com/ledgerline/payflow/internal/processor/domain"
)

type Params struct {
	fx.In

	Log       *zap.Logger
	Accounts  accountdomain.Service
	Catalog   catalogdomain.Service
	Processor processordomain.Client
	Holder    *config.PaymentsConfigHolder
	Metrics   *metrics.Metrics `optional:"true"`
}

type Service struct {
	log       *zap.Logger
	accounts  accountdomain.Service
	catalog   catalogdomain.Service
	processor processordomain.Client
	holder    *config.PaymentsConfigHolder
	metrics   *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		log:       p.Log.Named("checkout.service"),
		accounts:  p.Accounts,
		catalog:   p.Catalog,
		processor: p.Processor,
		holder:    p.Holder,
		metrics:   p.Metrics,
	}
}

func (s *Service) CreatePaymentIntent(ctx context.Context, caller accountdomain.Account, req domain.CreateIntentRequest) (domain.IntentResponse, error) {
	intent, err := s.createIntent(ctx, caller, req.ProductID, intentOptions{
		flow:             "intent",
		paymentMethodID:  strings.TrimSpace(req.PaymentMethodID),
		allowFutureUsage: req.AllowFutureUsage,
	})
	if err != nil {
		return domain.IntentResponse{}, err
	}

	s.metrics.RecordIntentCreated(ctx, "intent")
	return domain.IntentResponse{ClientSecret: intent.ClientSecret}, nil
}

func (s *Service) CreatePaymentSheet(ctx context.Context, caller accountdomain.Account, req domain.SheetRequest) (domain.SheetResponse, error) {
	billingIdentityID, err := s.ensureBillingIdentity(ctx, &caller)
	if err != nil {
		return domain.SheetResponse{}, err
	}

	intent, err := s.createIntent(ctx, caller, req.ProductID, intentOptions{flow: "sheet"})
	if err != nil {
		return domain.SheetResponse{}, err
	}

	key, err := s.processor.CreateEphemeralKey(ctx, billingIdentityID, s.holder.Current().EphemeralKeyVersion)
	if err != nil {
		return domain.SheetResponse{}, err
	}

	s.metrics.RecordIntentCreated(ctx, "sheet")
	return domain.SheetResponse{
		ClientSecret:      intent.ClientSecret,
		EphemeralKey:      key.Secret,
		BillingIdentityID: billingIdentityID,
	}, nil
}

func (s *Service) ChargeOffSession(ctx context.Context, caller accountdomain.Account, req domain.OffSessionRequest) (domain.ChargeResponse, error) {
	paymentMethodID := strings.TrimSpace(req.PaymentMethodID)
	if paymentMethodID == "" {
		return domain.ChargeResponse{}, domain.ErrInvalidPaymentMethod
	}

	intent, err := s.createIntent(ctx, caller, req.ProductID, intentOptions{
		flow:            "off_session",
		paymentMethodID: paymentMethodID,
		confirm:         true,
		offSession:      true,
	})
	if err != nil {
		return domain.ChargeResponse{}, err
	}

	s.metrics.RecordIntentCreated(ctx, "off_session")
	return domain.ChargeResponse{
		IntentID: intent.ID,
		Status:   intent.Status,
		Amount:   intent.Amount,
		Currency: strings.ToUpper(intent.Currency),
	}, nil
}

type intentOptions struct {
	flow             string
	paymentMethodID  string
	allowFutureUsage bool
	confirm          bool
	offSession       bool
}

func (s *Service) createIntent(ctx context.Context, caller accountdomain.Account, productID string, opts intentOptions) (processordomain.Intent, error) {
	billingIdentityID, err := s.ensureBillingIdentity(ctx, &caller)
	if err != nil {
		return processordomain.Intent{}, err
	}

	product, err := s.catalog.GetActiveByID(ctx, strings.TrimSpace(productID))
	if err != nil {
		return processordomain.Intent{}, err
	}

	params := processordomain.IntentParams{
		Amount:          product.Amount * 100,
		Currency:        product.Currency,
		CustomerID:      billingIdentityID,
		PaymentMethodID: opts.paymentMethodID,
		Confirm:         opts.confirm,
		OffSession:      opts.offSession,
		// A retried request after a timeout lands on the same processor
		// object instead of creating a second intent.
		IdempotencyKey: fmt.Sprintf("%s:%s:%s", opts.flow, caller.ID.String(), product.ID),
		// The webhook has no caller context; everything the recorder
		// needs travels in the intent metadata.
		Metadata: map[string]string{
			"product_id":   product.ID,
			"product_name": product.Name,
			"account_id":   caller.ID.String(),
		},
	}
	if opts.allowFutureUsage {
		params.SetupFutureUsage = "off_session"
	}

	intent, err := s.processor.CreatePaymentIntent(ctx, params)
	if err != nil {
		s.log.Warn("payment intent creation failed",
			zap.String("account_id", caller.ID.String()),
			zap.String("product_id", product.ID),
			zap.Bool("off_session", opts.offSession),
			zap.Error(err),
		)
		return processordomain.Intent{}, err
	}
	return intent, nil
}

// ensureBillingIdentity returns the caller's billing identity, provisioning
// one inline when the outbox consumer has not reached this account yet.
func (s *Service) ensureBillingIdentity(ctx context.Context, caller *accountdomain.Account) (string, error) {
	if caller.BillingIdentityID != nil && *caller.BillingIdentityID != "" {
		return *caller.BillingIdentityID, nil
	}

	customer, err := s.processor.CreateCustomer(ctx, caller.Email, map[string]string{
		"account_id": caller.ID.String(),
	})
	if err != nil {
		return "", err
	}

	attached, err := s.accounts.AttachBillingIdentity(ctx, caller.ID, customer.ID)
	if err != nil {
		return "", err
	}
	if !attached {
		// The consumer won the race; use whatever it attached.
		refreshed, err := s.accounts.GetByID(ctx, caller.ID)
		if err != nil {
			return "", err
		}
		if refreshed.BillingIdentityID == nil {
			return "", accountdomain.ErrNotFound
		}
		*caller = refreshed
		return *refreshed.BillingIdentityID, nil
	}

	s.log.Info("billing identity provisioned inline",
		zap.String("account_id", caller.ID.String()),
	)
	identity := customer.ID
	caller.BillingIdentityID = &identity
	return identity, nil
}
