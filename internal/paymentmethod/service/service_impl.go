package service

import (
	"context"
	"strings"

	"go.uber.org/fx"
	"go.uber.org/zap"

	accountdomain "github.com/ledgerline/payflow/internal/account/domain"
	"github.com/ledgerline/payflow/internal/paymentmethod/domain"
	processordomain "github.com/ledgerline/payflow/internal/processor/domain"
)

type Params struct {
	fx.In

	Log       *zap.Logger
	Processor processordomain.Client
}

type Service struct {
	log       *zap.Logger
	processor processordomain.Client
}

func New(p Params) domain.Service {
	return &Service{
		log:       p.Log.Named("paymentmethod.service"),
		processor: p.Processor,
	}
}

func (s *Service) List(ctx context.Context, caller accountdomain.Account) ([]processordomain.PaymentMethod, error) {
	if caller.BillingIdentityID == nil || *caller.BillingIdentityID == "" {
		// Nothing can be saved before provisioning completes.
		return []processordomain.PaymentMethod{}, nil
	}
	return s.processor.ListPaymentMethods(ctx, *caller.BillingIdentityID, "card")
}

func (s *Service) Detach(ctx context.Context, caller accountdomain.Account, paymentMethodID string) error {
	paymentMethodID = strings.TrimSpace(paymentMethodID)
	if paymentMethodID == "" {
		return domain.ErrInvalidPaymentMethod
	}
	if caller.BillingIdentityID == nil || *caller.BillingIdentityID == "" {
		return domain.ErrNoBillingIdentity
	}

	methods, err := s.processor.ListPaymentMethods(ctx, *caller.BillingIdentityID, "card")
	if err != nil {
		return err
	}
	owned := false
	for _, method := range methods {
		if method.ID == paymentMethodID {
			owned = true
			break
		}
	}
	if !owned {
		return domain.ErrPaymentMethodNotFound
	}

	if err := s.processor.DetachPaymentMethod(ctx, paymentMethodID); err != nil {
		return err
	}

	s.log.Info("payment method detached",
		zap.String("account_id", caller.ID.String()),
		zap.String("payment_method_id", paymentMethodID),
	)
	return nil
}
