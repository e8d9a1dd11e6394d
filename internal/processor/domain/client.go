package domain

import (
	"context"
	"net/http"
)

// Client is the outbound surface of the payment processor. Implementations
// translate these calls into processor API requests; tests substitute fakes.
type Client interface {
	CreateCustomer(ctx context.Context, email string, metadata map[string]string) (Customer, error)
	CreatePaymentIntent(ctx context.Context, params IntentParams) (Intent, error)
	CreateEphemeralKey(ctx context.Context, customerID string, apiVersion string) (EphemeralKey, error)
	ListPaymentMethods(ctx context.Context, customerID string, methodType string) ([]PaymentMethod, error)
	DetachPaymentMethod(ctx context.Context, paymentMethodID string) error
}

// Adapter verifies and decodes inbound webhook deliveries from one provider.
type Adapter interface {
	Provider() string
	Verify(ctx context.Context, payload []byte, headers http.Header) error
	Parse(ctx context.Context, payload []byte) (*Event, error)
}
