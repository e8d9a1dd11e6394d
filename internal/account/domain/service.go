package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type CreateAccountRequest struct {
	Subject string
	Email   string
}

type Service interface {
	// Create inserts the account together with its account.created outbox
	// event so the provisioner is guaranteed to observe it.
	Create(ctx context.Context, req CreateAccountRequest) (Account, error)
	GetByID(ctx context.Context, id snowflake.ID) (Account, error)
	GetBySubject(ctx context.Context, subject string) (Account, error)
	// AttachBillingIdentity sets billing_identity_id if and only if it is
	// still unset. It reports whether this call performed the attach.
	AttachBillingIdentity(ctx context.Context, id snowflake.ID, billingIdentityID string) (bool, error)
}

var (
	ErrInvalidSubject = errors.New("invalid_subject")
	ErrInvalidEmail   = errors.New("invalid_email")
	ErrInvalidID      = errors.New("invalid_id")
	ErrNotFound       = errors.New("not_found")
)
