package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/barber-api/internal/model"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := NewJWTService("secret", "barber-auth", time.Hour)
	shopID, actor := uuid.New(), uuid.New()

	token, err := svc.GenerateToken(shopID, actor, model.RoleManager)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, shopID, claims.ShopID)
	assert.Equal(t, model.RoleManager, claims.Role)
	id, err := claims.ActorID()
	require.NoError(t, err)
	assert.Equal(t, actor, id)
}

func TestValidateRejects(t *testing.T) {
	svc := NewJWTService("secret", "barber-auth", time.Hour)
	token, err := svc.GenerateToken(uuid.New(), uuid.New(), model.RoleStaff)
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTService("other", "barber-auth", time.Hour)
		_, err := other.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewJWTService("secret", "someone-else", time.Hour)
		_, err := other.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		later := NewJWTService("secret", "barber-auth", time.Hour)
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := later.ValidateToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("unknown role", func(t *testing.T) {
		claims := Claims{
			ShopID: uuid.New(),
			Role:   "janitor",
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   uuid.NewString(),
				Issuer:    "barber-auth",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
		require.NoError(t, err)
		_, err = svc.ValidateToken(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestRoleRanking(t *testing.T) {
	assert.True(t, model.RoleOwner.AtLeast(model.RoleManager))
	assert.True(t, model.RoleStaff.AtLeast(model.RoleStaff))
	assert.False(t, model.RoleClient.AtLeast(model.RoleStaff))
	assert.False(t, model.Role("").AtLeast(model.RoleClient))
}
