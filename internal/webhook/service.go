package webhook

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ledgerline/payflow/internal/observability/metrics"
	processordomain "github.com/ledgerline/payflow/internal/processor/domain"
	purchasedomain "github.com/ledgerline/payflow/internal/purchase/domain"
)

// Outcome classifies how a delivery was settled. Every outcome other than
// an error maps to a 200 so the sender stops redelivering.
type Outcome string

const (
	OutcomeProcessed Outcome = "processed"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeIgnored   Outcome = "ignored"
	OutcomeDiscarded Outcome = "discarded"
)

type Result struct {
	Outcome Outcome
	Event   *processordomain.Event
}

type Service interface {
	Ingest(ctx context.Context, payload []byte, headers http.Header) (Result, error)
}

type ingestService struct {
	log      *zap.Logger
	adapter  processordomain.Adapter
	recorder purchasedomain.Recorder
	metrics  *metrics.Metrics
}

func NewService(log *zap.Logger, adapter processordomain.Adapter, recorder purchasedomain.Recorder, m *metrics.Metrics) Service {
	return &ingestService{
		log:      log.Named("webhook.ingest"),
		adapter:  adapter,
		recorder: recorder,
		metrics:  m,
	}
}

func (s *ingestService) Ingest(ctx context.Context, payload []byte, headers http.Header) (Result, error) {
	if err := s.adapter.Verify(ctx, payload, headers); err != nil {
		s.metrics.RecordWebhookEvent(ctx, "unknown", "rejected")
		return Result{}, err
	}

	event, err := s.adapter.Parse(ctx, payload)
	if err != nil {
		if errors.Is(err, processordomain.ErrEventIgnored) {
			// Unknown event types must not break delivery.
			s.metrics.RecordWebhookEvent(ctx, "unknown", "ignored")
			return Result{Outcome: OutcomeIgnored}, nil
		}
		return Result{}, err
	}

	switch event.Type {
	case processordomain.EventTypeIntentSucceeded:
		err = s.recorder.RecordIntentSucceeded(ctx, event, payload)
	case processordomain.EventTypeIntentFailed:
		err = s.recorder.RecordIntentFailed(ctx, event, payload)
	default:
		s.metrics.RecordWebhookEvent(ctx, event.Type, "ignored")
		return Result{Outcome: OutcomeIgnored, Event: event}, nil
	}

	switch {
	case errors.Is(err, purchasedomain.ErrEventAlreadyProcessed):
		s.metrics.RecordWebhookEvent(ctx, event.Type, "duplicate")
		return Result{Outcome: OutcomeDuplicate, Event: event}, nil
	case errors.Is(err, purchasedomain.ErrMalformedEvent):
		s.metrics.RecordWebhookEvent(ctx, event.Type, "discarded")
		return Result{Outcome: OutcomeDiscarded, Event: event}, nil
	case err != nil:
		s.metrics.RecordWebhookEvent(ctx, event.Type, "failed")
		return Result{}, err
	}

	s.metrics.RecordWebhookEvent(ctx, event.Type, "processed")
	return Result{Outcome: OutcomeProcessed, Event: event}, nil
}
