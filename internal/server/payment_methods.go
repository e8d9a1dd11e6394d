package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type paymentMethodView struct {
	ID       string `json:"id"`
	Brand    string `json:"brand"`
	Last4    string `json:"last4"`
	ExpMonth int64  `json:"exp_month"`
	ExpYear  int64  `json:"exp_year"`
}

func (s *Server) HandleListPaymentMethods(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	methods, err := s.methodSvc.List(c.Request.Context(), caller)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	views := make([]paymentMethodView, 0, len(methods))
	for _, method := range methods {
		views = append(views, paymentMethodView{
			ID:       method.ID,
			Brand:    method.Brand,
			Last4:    method.Last4,
			ExpMonth: method.ExpMonth,
			ExpYear:  method.ExpYear,
		})
	}

	c.JSON(http.StatusOK, gin.H{"payment_methods": views})
}

func (s *Server) HandleDetachPaymentMethod(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	if err := s.methodSvc.Detach(c.Request.Context(), caller, c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "detached"})
}
