package domain

import "time"

// Customer is the processor-side billing identity created for an account.
type Customer struct {
	ID    string
	Email string
}

// Intent mirrors the subset of the processor payment intent the core needs.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
	Amount       int64
	Currency     string
}

const (
	IntentStatusSucceeded      = "succeeded"
	IntentStatusRequiresAction = "requires_action"
)

// IntentParams describes a payment intent to create. Amount is in the
// smallest currency unit. IdempotencyKey, when set, is forwarded to the
// processor so retried creates collapse into one intent.
type IntentParams struct {
	Amount           int64
	Currency         string
	CustomerID       string
	PaymentMethodID  string
	Confirm          bool
	OffSession       bool
	SetupFutureUsage string
	Metadata         map[string]string
	IdempotencyKey   string
}

// EphemeralKey grants a client short-lived access to its customer object.
type EphemeralKey struct {
	ID     string
	Secret string
}

type PaymentMethod struct {
	ID       string
	Brand    string
	Last4    string
	ExpMonth int64
	ExpYear  int64
}

const (
	EventTypeIntentSucceeded = "payment_intent.succeeded"
	EventTypeIntentFailed    = "payment_intent.payment_failed"
)

// Event is a verified, parsed processor webhook event.
type Event struct {
	Provider        string
	ProviderEventID string
	Type            string
	OccurredAt      time.Time
	Intent          *IntentEvent
}

// IntentEvent carries the payment intent fields of an intent lifecycle event.
type IntentEvent struct {
	IntentID       string
	Amount         int64
	Currency       string
	Status         string
	Metadata       map[string]string
	FailureCode    string
	FailureMessage string
}
