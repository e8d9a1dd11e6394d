package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"

	processordomain "github.com/ledgerline/payflow/internal/processor/domain"
)

var (
	// ErrEventAlreadyProcessed marks a redelivery of an event whose side
	// effects are already durable. Callers acknowledge it as success.
	ErrEventAlreadyProcessed = errors.New("event already processed")

	// ErrMalformedEvent marks an event that can never be applied, such as
	// one missing the metadata stamped at intent creation. It is retired
	// rather than redelivered forever.
	ErrMalformedEvent = errors.New("malformed event")
)

type Recorder interface {
	// RecordIntentSucceeded applies a payment_intent.succeeded event
	// exactly once. The purchase insert and the processed mark commit
	// together; any failure before commit leaves the event replayable.
	RecordIntentSucceeded(ctx context.Context, event *processordomain.Event, payload []byte) error

	// RecordIntentFailed retires a payment_intent.payment_failed event.
	// The failure is diagnostic only; no local state changes.
	RecordIntentFailed(ctx context.Context, event *processordomain.Event, payload []byte) error

	// ListByAccount returns an account's purchases, newest first.
	ListByAccount(ctx context.Context, accountID snowflake.ID) ([]Purchase, error)
}
