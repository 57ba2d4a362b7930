package middleware

import (
	"github.com/gin-gonic/gin"

	appctx "kardex/internal/core/context"
)

// HeaderOperator carries the acting identity. The value is opaque to the
// service: it is stamped on ledger entries and audit rows, nothing more.
const HeaderOperator = "X-Operator"

// Operator middleware extracts the acting identity from the request and
// stores it in context for the domain layer.
func Operator() gin.HandlerFunc {
	return func(c *gin.Context) {
		if op := c.GetHeader(HeaderOperator); op != "" {
			ctx := appctx.WithOperator(c.Request.Context(), op)
			c.Request = c.Request.WithContext(ctx)
			c.Set("operator", op)
		}
		c.Next()
	}
}
