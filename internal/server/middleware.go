package server

import (
	"github.com/gin-gonic/gin"

	accountdomain "github.com/ledgerline/payflow/internal/account/domain"
)

const callerContextKey = "payflow.caller"

// AuthRequired resolves the bearer token to an Account before the handler
// runs. Every rejection is the same generic 400 regardless of whether the
// token or the account was the problem.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, err := s.resolver.Resolve(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.Set(callerContextKey, caller)
		c.Next()
	}
}

func callerFrom(c *gin.Context) (accountdomain.Account, bool) {
	value, ok := c.Get(callerContextKey)
	if !ok {
		return accountdomain.Account{}, false
	}
	caller, ok := value.(accountdomain.Account)
	return caller, ok
}
