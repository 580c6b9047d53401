package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/barber-api/internal/model"
	"github.com/jwalitptl/barber-api/pkg/auth"
	apperrors "github.com/jwalitptl/barber-api/pkg/errors"
)

const (
	ContextClaims = "claims"
	ShopIDParam   = "shop_id"
)

type TokenValidator interface {
	ValidateToken(token string) (*auth.Claims, error)
}

type AuthMiddleware struct {
	tokens TokenValidator
}

func NewAuthMiddleware(tokens TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Authenticate verifies the bearer token and stores its claims in the context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, apperrors.Unauthorized(errors.New("missing authorization header")))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortWithError(c, apperrors.Unauthorized(errors.New("invalid authorization format")))
			return
		}

		claims, err := m.tokens.ValidateToken(parts[1])
		if err != nil {
			abortWithError(c, apperrors.Unauthorized(err))
			return
		}

		c.Set(ContextClaims, claims)
		c.Next()
	}
}

// RequireShop rejects callers whose token belongs to a different shop than the :shop_id path segment.
func (m *AuthMiddleware) RequireShop() gin.HandlerFunc {
	return func(c *gin.Context) {
		shopID, err := uuid.Parse(c.Param(ShopIDParam))
		if err != nil {
			abortWithError(c, apperrors.NewBadRequest("invalid shop ID", err))
			return
		}

		claims, ok := ClaimsFrom(c)
		if !ok {
			abortWithError(c, apperrors.Unauthorized(errors.New("missing claims")))
			return
		}
		if claims.ShopID != shopID {
			abortWithError(c, apperrors.Forbidden("token is not valid for this shop"))
			return
		}
		c.Next()
	}
}

// RequireRole admits callers ranked at or above min.
func (m *AuthMiddleware) RequireRole(min model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := ClaimsFrom(c)
		if !ok {
			abortWithError(c, apperrors.Unauthorized(errors.New("missing claims")))
			return
		}
		if !claims.Role.AtLeast(min) {
			abortWithError(c, apperrors.Forbidden("permission denied"))
			return
		}
		c.Next()
	}
}

func ClaimsFrom(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(ContextClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}
