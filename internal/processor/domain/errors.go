package domain

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

var (
	ErrInvalidConfig    = errors.New("invalid processor config")
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrStaleTimestamp   = errors.New("webhook timestamp outside tolerance")
	ErrInvalidPayload   = errors.New("invalid webhook payload")
	ErrInvalidEvent     = errors.New("invalid webhook event")
	ErrEventIgnored     = errors.New("webhook event ignored")
)

// APIError is a structured error returned by the processor API. DeclineCode
// is only set on card declines and is surfaced to callers solely on the
// off-session charge path.
type APIError struct {
	StatusCode  int
	Type        string
	Code        string
	DeclineCode string
	Message     string
}

func (e *APIError) Error() string {
	if e.DeclineCode != "" {
		return fmt.Sprintf("processor: %s (%s)", e.Code, e.DeclineCode)
	}
	if e.Code != "" {
		return fmt.Sprintf("processor: %s", e.Code)
	}
	return fmt.Sprintf("processor: %s", strings.TrimSpace(e.Message))
}

// Declined reports whether the error is a card decline rather than a
// request or platform fault.
func (e *APIError) Declined() bool {
	return e.Code == "card_declined" || e.DeclineCode != ""
}

// IsTransient reports whether err is worth retrying: processor 5xx, rate
// limiting, or a transport failure before any response arrived.
func IsTransient(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= http.StatusInternalServerError ||
			apiErr.StatusCode == http.StatusTooManyRequests
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
