package stripe

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ledgerline/payflow/internal/clock"
	"github.com/ledgerline/payflow/internal/processor/domain"
)

const defaultTolerance = 5 * time.Minute

// Adapter verifies Stripe webhook deliveries and decodes the intent
// lifecycle events the core consumes. Tolerance is read per delivery so a
// config reload applies without restarting.
type Adapter struct {
	webhookSecret string
	tolerance     func() time.Duration
	clock         clock.Clock
}

func NewAdapter(webhookSecret string, tolerance func() time.Duration, clk clock.Clock) (*Adapter, error) {
	webhookSecret = strings.TrimSpace(webhookSecret)
	if webhookSecret == "" {
		return nil, domain.ErrInvalidConfig
	}
	if tolerance == nil {
		tolerance = func() time.Duration { return defaultTolerance }
	}
	if clk == nil {
		clk = clock.NewSystemClock()
	}
	return &Adapter{
		webhookSecret: webhookSecret,
		tolerance:     tolerance,
		clock:         clk,
	}, nil
}

func (a *Adapter) Provider() string {
	return "stripe"
}

func (a *Adapter) Verify(ctx context.Context, payload []byte, headers http.Header) error {
	sigHeader := strings.TrimSpace(headers.Get("Stripe-Signature"))
	if sigHeader == "" {
		return domain.ErrInvalidSignature
	}

	timestamp, signatures, err := parseSignatureHeader(sigHeader)
	if err != nil {
		return domain.ErrInvalidSignature
	}

	unix, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return domain.ErrInvalidSignature
	}
	tolerance := a.tolerance()
	if tolerance <= 0 {
		tolerance = defaultTolerance
	}
	age := a.clock.Now().Sub(time.Unix(unix, 0))
	if age > tolerance || age < -tolerance {
		return domain.ErrStaleTimestamp
	}

	signedPayload := fmt.Sprintf("%s.%s", timestamp, string(payload))
	mac := hmac.New(sha256.New, []byte(a.webhookSecret))
	_, _ = mac.Write([]byte(signedPayload))
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, signature := range signatures {
		if hmac.Equal([]byte(signature), []byte(expected)) {
			return nil
		}
	}

	return domain.ErrInvalidSignature
}

type stripeEvent struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Created int64  `json:"created"`
	Data    struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

type stripeEventIntent struct {
	ID               string            `json:"id"`
	Amount           int64             `json:"amount"`
	Currency         string            `json:"currency"`
	Status           string            `json:"status"`
	Metadata         map[string]string `json:"metadata"`
	LastPaymentError *struct {
		Code        string `json:"code"`
		DeclineCode string `json:"decline_code"`
		Message     string `json:"message"`
	} `json:"last_payment_error"`
}

func (a *Adapter) Parse(ctx context.Context, payload []byte) (*domain.Event, error) {
	var event stripeEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, domain.ErrInvalidPayload
	}
	if strings.TrimSpace(event.ID) == "" {
		return nil, domain.ErrInvalidEvent
	}

	switch strings.TrimSpace(event.Type) {
	case domain.EventTypeIntentSucceeded, domain.EventTypeIntentFailed:
		return a.parseIntentEvent(event)
	default:
		return nil, domain.ErrEventIgnored
	}
}

func (a *Adapter) parseIntentEvent(event stripeEvent) (*domain.Event, error) {
	var intent stripeEventIntent
	if err := json.Unmarshal(event.Data.Object, &intent); err != nil {
		return nil, domain.ErrInvalidPayload
	}
	if strings.TrimSpace(intent.ID) == "" {
		return nil, domain.ErrInvalidEvent
	}

	intentEvent := &domain.IntentEvent{
		IntentID: intent.ID,
		Amount:   intent.Amount,
		Currency: strings.ToUpper(intent.Currency),
		Status:   intent.Status,
		Metadata: intent.Metadata,
	}
	if intent.LastPaymentError != nil {
		intentEvent.FailureCode = intent.LastPaymentError.Code
		if intent.LastPaymentError.DeclineCode != "" {
			intentEvent.FailureCode = intent.LastPaymentError.DeclineCode
		}
		intentEvent.FailureMessage = intent.LastPaymentError.Message
	}

	return &domain.Event{
		Provider:        a.Provider(),
		ProviderEventID: event.ID,
		Type:            strings.TrimSpace(event.Type),
		OccurredAt:      eventTimestamp(event.Created),
		Intent:          intentEvent,
	}, nil
}

func parseSignatureHeader(header string) (string, []string, error) {
	parts := strings.Split(header, ",")
	var timestamp string
	signatures := []string{}
	for _, part := range parts {
		piece := strings.TrimSpace(part)
		if piece == "" {
			continue
		}
		keyValue := strings.SplitN(piece, "=", 2)
		if len(keyValue) != 2 {
			continue
		}
		key := strings.TrimSpace(keyValue[0])
		value := strings.TrimSpace(keyValue[1])
		if key == "t" {
			timestamp = value
		}
		if key == "v1" {
			signatures = append(signatures, value)
		}
	}
	if timestamp == "" || len(signatures) == 0 {
		return "", nil, errors.New("invalid_signature")
	}
	return timestamp, signatures, nil
}

func eventTimestamp(created int64) time.Time {
	if created == 0 {
		return time.Now().UTC()
	}
	return time.Unix(created, 0).UTC()
}
