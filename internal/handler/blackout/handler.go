package blackout

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/barber-api/internal/handler"
	"github.com/jwalitptl/barber-api/internal/model"
)

type Service interface {
	Create(ctx context.Context, shopID uuid.UUID, req *model.BlackoutRequest) (*model.Blackout, error)
	Get(ctx context.Context, shopID, id uuid.UUID) (*model.Blackout, error)
	Update(ctx context.Context, shopID, id uuid.UUID, req *model.BlackoutRequest) (*model.Blackout, error)
	Deactivate(ctx context.Context, shopID, id uuid.UUID) error
	List(ctx context.Context, filters *model.BlackoutFilters) ([]*model.Blackout, error)
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, roles handler.RoleGuard) {
	blackouts := r.Group("/blackouts")
	{
		blackouts.GET("", h.ListBlackouts)
		blackouts.GET("/:id", h.GetBlackout)
		blackouts.POST("", roles.RequireRole(model.RoleStaff), h.CreateBlackout)
		blackouts.PUT("/:id", roles.RequireRole(model.RoleStaff), h.UpdateBlackout)
		blackouts.DELETE("/:id", roles.RequireRole(model.RoleStaff), h.DeactivateBlackout)
	}
}

func (h *Handler) CreateBlackout(c *gin.Context) {
	shopID, err := handler.ShopID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	var req model.BlackoutRequest
	if err := handler.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	blackout, err := h.service.Create(c.Request.Context(), shopID, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(blackout))
}

func (h *Handler) GetBlackout(c *gin.Context) {
	shopID, err := handler.ShopID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	id, err := handler.UUIDParam(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	blackout, err := h.service.Get(c.Request.Context(), shopID, id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(blackout))
}

func (h *Handler) ListBlackouts(c *gin.Context) {
	shopID, err := handler.ShopID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	filters := &model.BlackoutFilters{ShopID: shopID}
	if filters.StaffID, err = handler.OptionalUUIDQuery(c, "staff_id"); err != nil {
		_ = c.Error(err)
		return
	}
	if filters.From, err = handler.OptionalTimeQuery(c, "from"); err != nil {
		_ = c.Error(err)
		return
	}
	if filters.To, err = handler.OptionalTimeQuery(c, "to"); err != nil {
		_ = c.Error(err)
		return
	}
	activeOnly, err := handler.OptionalBoolQuery(c, "active_only")
	if err != nil {
		_ = c.Error(err)
		return
	}
	filters.ActiveOnly = activeOnly != nil && *activeOnly

	blackouts, err := h.service.List(c.Request.Context(), filters)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(blackouts))
}

func (h *Handler) UpdateBlackout(c *gin.Context) {
	shopID, err := handler.ShopID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	id, err := handler.UUIDParam(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	var req model.BlackoutRequest
	if err := handler.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	blackout, err := h.service.Update(c.Request.Context(), shopID, id, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(blackout))
}

// DeactivateBlackout is a soft delete; the row stays for history.
func (h *Handler) DeactivateBlackout(c *gin.Context) {
	shopID, err := handler.ShopID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	id, err := handler.UUIDParam(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.service.Deactivate(c.Request.Context(), shopID, id); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewMessageResponse("blackout deactivated"))
}
