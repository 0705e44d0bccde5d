package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"stackbridge/internal/shared/server/respond"
	"stackbridge/internal/shared/telemetry"
)

// Logging emits a structured log per request. Bridge routes add the
// operation they ran and the source of the answer.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.EqualFold(c.Request.Method, "OPTIONS") {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		fields := map[string]any{
			"request_id":  RequestIDFromContext(c),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"route":       c.FullPath(),
			"status":      c.Writer.Status(),
			"duration_ms": float64(latency.Microseconds()) / 1000.0,
			"client_ip":   c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		}
		if op := c.GetString(respond.OperationKey); op != "" {
			fields["operation"] = op
		}
		if source := c.GetString(respond.SourceKey); source != "" {
			fields["source"] = source
		}
		telemetry.Info("request.complete", fields)
	}
}
