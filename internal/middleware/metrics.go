package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/rackplan/internal/metrics"
)

// Metrics records request counts and latency per matched route. Unmatched
// paths share one label so scanners cannot blow up cardinality.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		timer := metrics.NewTimer()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RecordHTTP(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), timer.Duration())
	}
}
