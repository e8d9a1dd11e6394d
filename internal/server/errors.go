package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	accountdomain "github.com/ledgerline/payflow/internal/account/domain"
	"github.com/ledgerline/payflow/internal/auth"
	catalogdomain "github.com/ledgerline/payflow/internal/catalog/domain"
	checkoutdomain "github.com/ledgerline/payflow/internal/checkout/domain"
	paymentmethoddomain "github.com/ledgerline/payflow/internal/paymentmethod/domain"
	processordomain "github.com/ledgerline/payflow/internal/processor/domain"
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var ErrInvalidRequest = errors.New("invalid_request")

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

// mapError is the single place errors become HTTP responses. Auth failures
// and missing accounts collapse into the same generic rejection, and
// processor error text never reaches the client from here; the off-session
// handler alone surfaces decline detail.
func mapError(err error) (int, errorPayload) {
	generic := errorPayload{Type: "invalid_request", Message: "invalid request"}

	switch {
	case err == nil:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}

	case errors.Is(err, auth.ErrUnauthenticated),
		errors.Is(err, accountdomain.ErrNotFound):
		return http.StatusBadRequest, generic

	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, catalogdomain.ErrInvalidProductID),
		errors.Is(err, catalogdomain.ErrProductNotFound),
		errors.Is(err, catalogdomain.ErrProductInactive),
		errors.Is(err, checkoutdomain.ErrInvalidProduct),
		errors.Is(err, checkoutdomain.ErrInvalidPaymentMethod),
		errors.Is(err, paymentmethoddomain.ErrInvalidPaymentMethod),
		errors.Is(err, paymentmethoddomain.ErrPaymentMethodNotFound),
		errors.Is(err, paymentmethoddomain.ErrNoBillingIdentity):
		return http.StatusBadRequest, generic

	case errors.Is(err, processordomain.ErrInvalidSignature),
		errors.Is(err, processordomain.ErrStaleTimestamp),
		errors.Is(err, processordomain.ErrInvalidPayload),
		errors.Is(err, processordomain.ErrInvalidEvent):
		// Success or failure only; no verification detail.
		return http.StatusBadRequest, generic

	case processordomain.IsTransient(err):
		return http.StatusBadGateway, errorPayload{
			Type:    "upstream_error",
			Message: "upstream temporarily unavailable",
		}
	}

	var apiErr *processordomain.APIError
	if errors.As(err, &apiErr) {
		// Processor rejections stay opaque on the synchronous paths.
		return http.StatusBadRequest, generic
	}

	return http.StatusInternalServerError, errorPayload{
		Type:    "internal_error",
		Message: "internal server error",
	}
}

// classifyErrorForLog feeds the request logger, which unlike the response
// body does keep the detailed cause.
func classifyErrorForLog(err error) (string, string) {
	switch {
	case err == nil:
		return "", ""
	case errors.Is(err, auth.ErrUnauthenticated):
		return "unauthenticated", "unauthenticated"
	case errors.Is(err, accountdomain.ErrNotFound):
		return "not_found", "account_not_found"
	case errors.Is(err, catalogdomain.ErrProductNotFound):
		return "not_found", "product_not_found"
	case errors.Is(err, processordomain.ErrInvalidSignature):
		return "signature_invalid", "signature_mismatch"
	case errors.Is(err, processordomain.ErrStaleTimestamp):
		return "signature_invalid", "stale_timestamp"
	case processordomain.IsTransient(err):
		return "transient_upstream", "processor_unavailable"
	}

	var apiErr *processordomain.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.Code
		if apiErr.DeclineCode != "" {
			code = apiErr.DeclineCode
		}
		return "processor_rejected", code
	}
	return "internal_error", "internal"
}
