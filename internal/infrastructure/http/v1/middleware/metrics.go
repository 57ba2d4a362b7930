package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"kardex/internal/infrastructure/metrics"
)

// Metrics middleware records request count and latency per route.
// Uses the route template (c.FullPath) so path parameters don't explode
// the label cardinality.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveRequest(
			c.Request.Method,
			route,
			strconv.Itoa(c.Writer.Status()),
			time.Since(start),
		)
	}
}
