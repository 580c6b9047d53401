// Package handlertest wires handlers into a gin engine the way the router does, for tests.
package handlertest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/barber-api/internal/handler"
	"github.com/jwalitptl/barber-api/internal/middleware"
	"github.com/jwalitptl/barber-api/internal/model"
	"github.com/jwalitptl/barber-api/pkg/auth"
	"github.com/jwalitptl/barber-api/pkg/logger"
)

// Caller is the identity injected in place of a verified token.
type Caller struct {
	ShopID  uuid.UUID
	ActorID uuid.UUID
	Role    model.Role
}

func NewCaller(role model.Role) Caller {
	return Caller{ShopID: uuid.New(), ActorID: uuid.New(), Role: role}
}

// Engine mounts h under /shops/:shop_id with the caller's claims preset.
func Engine(h handler.ShopHandler, caller Caller) *gin.Engine {
	gin.SetMode(gin.TestMode)
	if err := middleware.RegisterBindingValidators(); err != nil {
		panic(err)
	}

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.ErrorHandler(logger.Nop()))

	claims := &auth.Claims{ShopID: caller.ShopID, Role: caller.Role}
	claims.Subject = caller.ActorID.String()

	authMW := middleware.NewAuthMiddleware(nil)
	group := r.Group("/shops/:shop_id", func(c *gin.Context) {
		c.Set(middleware.ContextClaims, claims)
		c.Next()
	}, authMW.RequireShop())
	h.RegisterRoutes(group, authMW)
	return r
}

// Do sends body (marshalled to JSON unless nil or a string) and records the response.
func Do(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// Envelope is the success or error body every handler writes.
type Envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Reason  string          `json:"reason"`
	Code    int             `json:"code"`
	Data    json.RawMessage `json:"data"`
}

func Decode(t *testing.T, w *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

// DecodeData unmarshals the data field into out.
func DecodeData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	env := Decode(t, w)
	require.NoError(t, json.Unmarshal(env.Data, out), string(env.Data))
}
