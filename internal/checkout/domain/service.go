package domain

import (
	"context"
	"errors"

	accountdomain "github.com/ledgerline/payflow/internal/account/domain"
)

var (
	ErrInvalidProduct       = errors.New("invalid product")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
)

type CreateIntentRequest struct {
	ProductID        string `json:"product_id" binding:"required"`
	PaymentMethodID  string `json:"payment_method_id"`
	AllowFutureUsage bool   `json:"allow_future_usage"`
}

type IntentResponse struct {
	ClientSecret string `json:"client_secret"`
}

type SheetRequest struct {
	ProductID string `json:"product_id" binding:"required"`
}

type SheetResponse struct {
	ClientSecret      string `json:"client_secret"`
	EphemeralKey      string `json:"ephemeral_key"`
	BillingIdentityID string `json:"customer_id"`
}

type OffSessionRequest struct {
	ProductID       string `json:"product_id" binding:"required"`
	PaymentMethodID string `json:"payment_method_id" binding:"required"`
}

type ChargeResponse struct {
	IntentID string `json:"intent_id"`
	Status   string `json:"status"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// Service creates payment intents on behalf of an authenticated caller. The
// caller's billing identity is provisioned lazily when the outbox consumer
// has not caught up yet.
type Service interface {
	CreatePaymentIntent(ctx context.Context, caller accountdomain.Account, req CreateIntentRequest) (IntentResponse, error)
	CreatePaymentSheet(ctx context.Context, caller accountdomain.Account, req SheetRequest) (SheetResponse, error)
	// ChargeOffSession confirms in the same call. A processor decline is
	// returned to the caller with its detail; there is no client-side
	// confirmation step left to recover in.
	ChargeOffSession(ctx context.Context, caller accountdomain.Account, req OffSessionRequest) (ChargeResponse, error)
}
