package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// SizeLimitConfig represents size limit configuration
type SizeLimitConfig struct {
	MaxBodySize int64 // in bytes
}

func DefaultSizeLimitConfig() SizeLimitConfig {
	return SizeLimitConfig{
		MaxBodySize: 1 << 20, // 1MB
	}
}

// SizeLimit rejects declared oversize bodies up front and caps the rest while reading.
func SizeLimit(config SizeLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > config.MaxBodySize {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, ErrorResponse{
				Status:  "error",
				Code:    http.StatusRequestEntityTooLarge,
				Message: fmt.Sprintf("body size exceeds %d bytes", config.MaxBodySize),
				TraceID: c.GetString(ContextRequestID),
			})
			return
		}

		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, config.MaxBodySize)
		}
		c.Next()
	}
}
