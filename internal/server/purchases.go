package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type purchaseView struct {
	IntentID      string    `json:"intent_id"`
	ProductID     string    `json:"product_id"`
	ProductName   string    `json:"product_name"`
	Amount        int64     `json:"amount"`
	Currency      string    `json:"currency"`
	DatePurchased time.Time `json:"date_purchased"`
}

func (s *Server) HandleListPurchases(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	purchases, err := s.purchaseSvc.ListByAccount(c.Request.Context(), caller.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	views := make([]purchaseView, 0, len(purchases))
	for _, purchase := range purchases {
		views = append(views, purchaseView{
			IntentID:      purchase.ProviderIntentID,
			ProductID:     purchase.ProductID,
			ProductName:   purchase.ProductName,
			Amount:        purchase.Amount,
			Currency:      purchase.Currency,
			DatePurchased: purchase.DatePurchased,
		})
	}

	c.JSON(http.StatusOK, gin.H{"purchases": views})
}
