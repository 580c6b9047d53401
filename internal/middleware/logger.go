package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/barber-api/pkg/logger"
)

// Logger returns a middleware that logs HTTP requests
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()
		if raw != "" {
			path = path + "?" + raw
		}

		fields := []interface{}{
			"request_id", c.GetString(ContextRequestID),
			"client_ip", c.ClientIP(),
			"method", c.Request.Method,
			"path", path,
			"status", statusCode,
			"latency", latency.String(),
			"user_agent", c.Request.UserAgent(),
		}

		switch {
		case statusCode >= 500:
			log.Warn("Server error", fields...)
		case statusCode >= 400:
			log.Info("Client error", fields...)
		default:
			log.Debug("Request processed", fields...)
		}
	}
}
