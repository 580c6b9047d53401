package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/barber-api/internal/model"
	"github.com/jwalitptl/barber-api/pkg/auth"
	apperrors "github.com/jwalitptl/barber-api/pkg/errors"
	"github.com/jwalitptl/barber-api/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), ErrorHandler(logger.Nop()))
	r.Use(mw...)
	return r
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantReason string
		wantMsg    string
	}{
		{"conflict keeps reason", apperrors.NewConflict("double-booked", "slot taken"), http.StatusConflict, "double-booked", "slot taken"},
		{"validation", apperrors.NewValidation("shop-closed", "shop is closed"), http.StatusUnprocessableEntity, "shop-closed", "shop is closed"},
		{"not found", apperrors.NewNotFound("appointment", nil), http.StatusNotFound, "", "appointment not found"},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, "", "request timeout"},
		{"unknown error is hidden", errors.New("pq: connection refused"), http.StatusInternalServerError, "", "internal server error"},
		{"internal app error is hidden", apperrors.NewInternal(errors.New("secret detail")), http.StatusInternalServerError, "", "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newEngine()
			r.GET("/x", func(c *gin.Context) { _ = c.Error(tt.err) })

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decodeError(t, w)
			assert.Equal(t, "error", resp.Status)
			assert.Equal(t, tt.wantStatus, resp.Code)
			assert.Equal(t, tt.wantReason, resp.Reason)
			assert.Equal(t, tt.wantMsg, resp.Message)
			assert.NotEmpty(t, resp.TraceID)
		})
	}
}

func TestErrorHandlerTranslatesBindingErrors(t *testing.T) {
	require.NoError(t, RegisterBindingValidators())

	type body struct {
		Open string `json:"open_time" binding:"required,clocktime"`
	}
	r := newEngine()
	r.POST("/x", func(c *gin.Context) {
		var b body
		if err := c.ShouldBindJSON(&b); err != nil {
			_ = c.Error(err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{"open_time":"25:00"}`)))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, "invalid-input", resp.Reason)
	assert.Contains(t, resp.Message, "open_time must be HH:MM")
}

type staticTokens struct {
	claims *auth.Claims
	err    error
}

func (s staticTokens) ValidateToken(string) (*auth.Claims, error) {
	return s.claims, s.err
}

func TestAuthMiddleware(t *testing.T) {
	shopID := uuid.New()
	claims := &auth.Claims{ShopID: shopID, Role: model.RoleStaff}

	route := func(tokens TokenValidator, min model.Role) *gin.Engine {
		m := NewAuthMiddleware(tokens)
		r := newEngine()
		g := r.Group("/shops/:shop_id", m.Authenticate(), m.RequireShop())
		g.GET("/x", m.RequireRole(min), func(c *gin.Context) { c.Status(http.StatusNoContent) })
		return r
	}

	do := func(r *gin.Engine, path, header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}
	path := "/shops/" + shopID.String() + "/x"

	t.Run("missing header", func(t *testing.T) {
		w := do(route(staticTokens{claims: claims}, model.RoleClient), path, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("bad scheme", func(t *testing.T) {
		w := do(route(staticTokens{claims: claims}, model.RoleClient), path, "Basic abc")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		w := do(route(staticTokens{err: auth.ErrInvalidToken}, model.RoleClient), path, "Bearer abc")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("other shop", func(t *testing.T) {
		w := do(route(staticTokens{claims: claims}, model.RoleClient), "/shops/"+uuid.NewString()+"/x", "Bearer abc")
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("malformed shop id", func(t *testing.T) {
		w := do(route(staticTokens{claims: claims}, model.RoleClient), "/shops/nope/x", "Bearer abc")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("role too low", func(t *testing.T) {
		w := do(route(staticTokens{claims: claims}, model.RoleOwner), path, "Bearer abc")
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("allowed", func(t *testing.T) {
		w := do(route(staticTokens{claims: claims}, model.RoleStaff), path, "Bearer abc")
		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}

func TestRateLimiterPerClient(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{RPS: 0.001, Burst: 1})
	r := newEngine(rl.RateLimit())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	call := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusNoContent, call("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, call("10.0.0.1"))
	assert.Equal(t, http.StatusNoContent, call("10.0.0.2"))
}

func TestRequestIDEchoesCallerValue(t *testing.T) {
	r := newEngine()
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(ContextRequestID)) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(HeaderXRequestID, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get(HeaderXRequestID))
	assert.Equal(t, "abc-123", w.Body.String())
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), Recovery(logger.Nop()))
	r.GET("/x", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal server error", decodeError(t, w).Message)
}

func TestTimeoutSetsDeadline(t *testing.T) {
	r := newEngine(Timeout(TimeoutConfig{Duration: time.Second}))
	r.GET("/x", func(c *gin.Context) {
		_, ok := c.Request.Context().Deadline()
		c.JSON(http.StatusOK, gin.H{"deadline": ok})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.JSONEq(t, `{"deadline":true}`, w.Body.String())
}

func TestSizeLimit(t *testing.T) {
	r := newEngine(SizeLimit(SizeLimitConfig{MaxBodySize: 4}))
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("too long")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestCORS(t *testing.T) {
	r := newEngine(CORS(CORSConfig{AllowOrigins: []string{"https://shop.example"}, AllowMethods: []string{http.MethodGet}, MaxAge: 60}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://shop.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://shop.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "60", w.Header().Get("Access-Control-Max-Age"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
