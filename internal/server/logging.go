package server

import (
	"time"

	"github.com/dilshand3/SubsFlow/internal/logger"

	"github.com/gin-gonic/gin"
)

// RequestLoggingMiddleware writes one line per request after it completes.
// Metrics scrapes are skipped to keep the log readable.
func RequestLoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		if path == "/metrics" {
			return
		}

		if raw != "" {
			path = path + "?" + raw
		}

		logger.Infof("%s %s -> %d (%dms) from %s",
			c.Request.Method,
			path,
			c.Writer.Status(),
			time.Since(start).Milliseconds(),
			c.ClientIP(),
		)
	}
}
