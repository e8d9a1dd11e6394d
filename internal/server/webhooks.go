package server

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

// HandleProcessorWebhook ingests a signed processor delivery. Any settled
// outcome returns 200 so the sender stops redelivering; a failure before
// the side effects commit returns 5xx to invite redelivery.
func (s *Server) HandleProcessorWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	result, err := s.webhookSvc.Ingest(c.Request.Context(), payload, c.Request.Header)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "outcome": string(result.Outcome)})
}
