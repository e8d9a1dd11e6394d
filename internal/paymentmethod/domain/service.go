package domain

import (
	"context"
	"errors"

	accountdomain "github.com/ledgerline/payflow/internal/account/domain"
	processordomain "github.com/ledgerline/payflow/internal/processor/domain"
)

var (
	ErrNoBillingIdentity     = errors.New("no billing identity")
	ErrPaymentMethodNotFound = errors.New("payment method not found")
	ErrInvalidPaymentMethod  = errors.New("invalid payment method id")
)

// Service manages the saved payment methods of a caller's billing identity.
// The processor owns the objects; nothing is persisted locally.
type Service interface {
	List(ctx context.Context, caller accountdomain.Account) ([]processordomain.PaymentMethod, error)
	// Detach removes a saved method after checking it belongs to the
	// caller's billing identity.
	Detach(ctx context.Context, caller accountdomain.Account, paymentMethodID string) error
}
