package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wms-platform/stock-ledger-service/pkg/metrics"
)

// MetricsMiddleware records request counts and latency per route pattern,
// and the AppError code of every error response.
func MetricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if probePaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		m.IncrementHTTPRequestsInFlight()
		defer m.DecrementHTTPRequestsInFlight()

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RecordHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
		if code := c.GetString(ContextKeyErrorCode); code != "" {
			m.RecordAPIError(route, code)
		}
	}
}

func MetricsEndpoint(m *metrics.Metrics) gin.HandlerFunc {
	handler := m.Handler()
	return func(c *gin.Context) {
		handler.ServeHTTP(c.Writer, c.Request)
	}
}
