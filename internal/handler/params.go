package handler

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/barber-api/internal/middleware"
	"github.com/jwalitptl/barber-api/pkg/auth"
	apperrors "github.com/jwalitptl/barber-api/pkg/errors"
	"github.com/jwalitptl/barber-api/pkg/validator"
)

const DateLayout = "2006-01-02"

func ShopID(c *gin.Context) (uuid.UUID, error) {
	return UUIDParam(c, middleware.ShopIDParam)
}

func UUIDParam(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperrors.NewBadRequest(fmt.Sprintf("invalid %s", name), err)
	}
	return id, nil
}

func OptionalUUIDQuery(c *gin.Context, name string) (*uuid.UUID, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperrors.NewBadRequest(fmt.Sprintf("invalid %s", name), err)
	}
	return &id, nil
}

// OptionalTimeQuery accepts RFC 3339 timestamps or plain dates (midnight UTC).
func OptionalTimeQuery(c *gin.Context, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return nil, apperrors.NewBadRequest(fmt.Sprintf("invalid %s: want RFC 3339 or YYYY-MM-DD", name), err)
	}
	return &t, nil
}

func OptionalBoolQuery(c *gin.Context, name string) (*bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperrors.NewBadRequest(fmt.Sprintf("invalid %s", name), err)
	}
	return &b, nil
}

// IntQuery returns def when the parameter is absent.
func IntQuery(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperrors.NewBadRequest(fmt.Sprintf("invalid %s", name), err)
	}
	return n, nil
}

// BindJSON decodes the body into obj and runs binding tags. Validation failures come back as
// 422 errors naming each field.
func BindJSON(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindJSON(obj); err != nil {
		return validator.Translate(err)
	}
	return nil
}

// BindOptionalJSON is BindJSON that tolerates an empty body.
func BindOptionalJSON(c *gin.Context, obj interface{}) error {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil
	}
	err := c.ShouldBindJSON(obj)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return validator.Translate(err)
}

func Claims(c *gin.Context) (*auth.Claims, error) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		return nil, apperrors.Unauthorized(errors.New("missing claims"))
	}
	return claims, nil
}
