package domain

import (
	"context"
	"errors"
)

var (
	ErrInvalidProductID = errors.New("invalid product id")
	ErrProductNotFound  = errors.New("product not found")
	ErrProductInactive  = errors.New("product inactive")
)

type Service interface {
	// GetByID returns the product or ErrProductNotFound.
	GetByID(ctx context.Context, id string) (*Product, error)

	// GetActiveByID returns the product only when it is active.
	GetActiveByID(ctx context.Context, id string) (*Product, error)
}
