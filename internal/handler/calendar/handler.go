package calendar

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/barber-api/internal/handler"
	"github.com/jwalitptl/barber-api/internal/model"
)

type Service interface {
	ListHours(ctx context.Context, shopID uuid.UUID) ([]*model.BusinessHours, error)
	SetHours(ctx context.Context, shopID uuid.UUID, days []model.BusinessHours) ([]*model.BusinessHours, error)
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, roles handler.RoleGuard) {
	hours := r.Group("/hours")
	{
		hours.GET("", h.ListHours)
		hours.PUT("", roles.RequireRole(model.RoleOwner), h.SetHours)
	}
}

func (h *Handler) ListHours(c *gin.Context) {
	shopID, err := handler.ShopID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	hours, err := h.service.ListHours(c.Request.Context(), shopID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(hours))
}

// SetHours replaces the whole weekly calendar with the days in the body.
func (h *Handler) SetHours(c *gin.Context) {
	shopID, err := handler.ShopID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	var req model.SetHoursRequest
	if err := handler.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	hours, err := h.service.SetHours(c.Request.Context(), shopID, req.Days)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(hours))
}
