package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	apperrors "github.com/jwalitptl/barber-api/pkg/errors"
	"github.com/jwalitptl/barber-api/pkg/logger"
	pkgvalidator "github.com/jwalitptl/barber-api/pkg/validator"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}

// ErrorHandler renders the last error a handler attached with c.Error.
func ErrorHandler(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		traceID := c.GetString(ContextRequestID)
		lastErr := c.Errors.Last().Err
		resp := toResponse(lastErr)
		resp.TraceID = traceID

		fields := []interface{}{
			"trace_id", traceID,
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
			"status", resp.Code,
		}
		if resp.Code >= http.StatusInternalServerError {
			log.Error(lastErr, "Request error", fields...)
		} else {
			log.Debug("Request rejected", append(fields, "error", lastErr.Error())...)
		}

		if c.Writer.Written() {
			return
		}
		c.AbortWithStatusJSON(resp.Code, resp)
	}
}

func toResponse(err error) ErrorResponse {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		err = pkgvalidator.Translate(err)
	}

	if appErr, ok := apperrors.As(err); ok {
		status := appErr.StatusCode()
		msg := appErr.Message
		if status >= http.StatusInternalServerError {
			msg = "internal server error"
		}
		return ErrorResponse{Status: "error", Code: status, Message: msg, Reason: appErr.Reason}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorResponse{Status: "error", Code: http.StatusGatewayTimeout, Message: "request timeout"}
	}
	return ErrorResponse{Status: "error", Code: http.StatusInternalServerError, Message: "internal server error"}
}

func abortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
