package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	apperrors "github.com/jwalitptl/barber-api/pkg/errors"
)

type RateLimiterConfig struct {
	RPS   float64
	Burst int
	// Idle is how long a client's limiter survives without traffic.
	Idle time.Duration
}

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	config   RateLimiterConfig
	limiters *cache.Cache
}

func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.Idle <= 0 {
		config.Idle = 10 * time.Minute
	}
	return &RateLimiter{
		config:   config,
		limiters: cache.New(config.Idle, config.Idle),
	}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	if v, ok := rl.limiters.Get(key); ok {
		rl.limiters.SetDefault(key, v)
		return v.(*rate.Limiter)
	}
	l := rate.NewLimiter(rate.Limit(rl.config.RPS), rl.config.Burst)
	if err := rl.limiters.Add(key, l, cache.DefaultExpiration); err != nil {
		// Lost the race to another request from the same client.
		if v, ok := rl.limiters.Get(key); ok {
			return v.(*rate.Limiter)
		}
	}
	return l
}

func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.limiter(c.ClientIP()).Allow() {
			c.Header("Retry-After", "1")
			abortWithError(c, &apperrors.AppError{
				Code:    apperrors.ErrTooManyRequests,
				Message: "rate limit exceeded",
				Err:     errors.New(http.StatusText(http.StatusTooManyRequests)),
			})
			return
		}
		c.Next()
	}
}
