package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/jwalitptl/barber-api/internal/model"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// Claims identifies the caller. Subject holds the actor id.
type Claims struct {
	ShopID uuid.UUID  `json:"shop_id"`
	Role   model.Role `json:"role"`
	jwt.RegisteredClaims
}

// ActorID parses the subject claim.
func (c *Claims) ActorID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

type JWTService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewJWTService(secret, issuer string, ttl time.Duration) *JWTService {
	return &JWTService{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// GenerateToken signs an HS256 token for subject acting in shopID.
func (s *JWTService) GenerateToken(shopID, subject uuid.UUID, role model.Role) (string, error) {
	if !role.Valid() {
		return "", errors.New("unknown role")
	}
	now := s.now()
	claims := Claims{
		ShopID: shopID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject.String(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.ShopID == uuid.Nil || !claims.Role.Valid() {
		return nil, ErrInvalidToken
	}
	if _, err := claims.ActorID(); err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
