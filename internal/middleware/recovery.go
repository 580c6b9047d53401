package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/barber-api/pkg/logger"
)

// Recovery handles panics and logs them appropriately
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error(fmt.Errorf("panic: %v", r), "Request panic recovered",
					"stack", string(debug.Stack()),
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
					"client_ip", c.ClientIP(),
					"request_id", c.GetString(ContextRequestID),
				)

				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
					Status:  "error",
					Code:    http.StatusInternalServerError,
					Message: "internal server error",
					TraceID: c.GetString(ContextRequestID),
				})
			}
		}()
		c.Next()
	}
}
