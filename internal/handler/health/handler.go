package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger is satisfied by *sqlx.DB and by the message brokers.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingFunc adapts a plain function, e.g. broker.Ping, to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }

type Handler struct {
	checks  map[string]Pinger
	timeout time.Duration
}

// NewHandler takes the dependencies readiness depends on, keyed by name.
func NewHandler(checks map[string]Pinger) *Handler {
	return &Handler{
		checks:  checks,
		timeout: 2 * time.Second,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	health := r.Group("/health")
	{
		health.GET("/live", h.LivenessCheck)
		health.GET("/ready", h.ReadinessCheck)
	}
}

func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "UP"})
}

func (h *Handler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	components := make(gin.H, len(h.checks))
	healthy := true
	for name, check := range h.checks {
		if err := check.PingContext(ctx); err != nil {
			components[name] = gin.H{"status": "DOWN", "reason": err.Error()}
			healthy = false
			continue
		}
		components[name] = gin.H{"status": "UP"}
	}

	if !healthy {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "DOWN", "components": components})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "UP", "components": components})
}
