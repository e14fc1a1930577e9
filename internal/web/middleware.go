package web

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samvad-hq/samvad-name-profiler/internal/logger"
)

// requestLogger logs one structured entry per request.
func requestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := map[string]any{
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"client_ip":  c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			entry["errors"] = c.Errors.String()
		}
		if c.Writer.Status() >= 500 {
			log.ErrorObj("http request", "http_request", entry)
			return
		}
		log.DebugObj("http request", "http_request", entry)
	}
}
