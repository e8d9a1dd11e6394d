package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	checkoutdomain "github.com/ledgerline/payflow/internal/checkout/domain"
	processordomain "github.com/ledgerline/payflow/internal/processor/domain"
)

func (s *Server) HandleCreatePaymentIntent(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	var req checkoutdomain.CreateIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.checkoutSvc.CreatePaymentIntent(c.Request.Context(), caller, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) HandleCreatePaymentSheet(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	var req checkoutdomain.SheetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.checkoutSvc.CreatePaymentSheet(c.Request.Context(), caller, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) HandleChargeOffSession(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	var req checkoutdomain.OffSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	resp, err := s.checkoutSvc.ChargeOffSession(c.Request.Context(), caller, req)
	if err != nil {
		// A decline is terminal here: there is no client confirmation
		// step left, so the caller gets the detail for manual follow-up.
		var apiErr *processordomain.APIError
		if errors.As(err, &apiErr) && apiErr.Declined() {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": gin.H{
					"type":         "card_declined",
					"code":         apiErr.Code,
					"decline_code": apiErr.DeclineCode,
					"message":      apiErr.Message,
				},
			})
			return
		}
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
