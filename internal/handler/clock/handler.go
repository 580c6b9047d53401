package clock

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/barber-api/internal/handler"
	"github.com/jwalitptl/barber-api/internal/model"
	pkgclock "github.com/jwalitptl/barber-api/pkg/clock"
)

type Advancer interface {
	AdvanceShop(ctx context.Context, shopID uuid.UUID, now time.Time) ([]uuid.UUID, error)
}

type Handler struct {
	advancer Advancer
	clock    pkgclock.Clock
}

func NewHandler(advancer Advancer, clk pkgclock.Clock) *Handler {
	return &Handler{advancer: advancer, clock: clk}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, roles handler.RoleGuard) {
	r.POST("/clock/advance", roles.RequireRole(model.RoleManager), h.Advance)
}

// Advance runs the status clock for the caller's shop now instead of waiting for the sweeper.
func (h *Handler) Advance(c *gin.Context) {
	shopID, err := handler.ShopID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	changed, err := h.advancer.AdvanceShop(c.Request.Context(), shopID, h.clock.Now())
	if err != nil {
		_ = c.Error(err)
		return
	}
	if changed == nil {
		changed = []uuid.UUID{}
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{
		"advanced": changed,
		"count":    len(changed),
	}))
}
