package slot

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/barber-api/internal/handler"
	"github.com/jwalitptl/barber-api/internal/model"
	slotService "github.com/jwalitptl/barber-api/internal/service/slot"
	apperrors "github.com/jwalitptl/barber-api/pkg/errors"
)

type Service interface {
	ValidateSlot(ctx context.Context, shopID, staffID uuid.UUID, start time.Time, duration time.Duration) (slotService.Decision, error)
	Availability(ctx context.Context, shopID, staffID uuid.UUID, day time.Time, duration, step time.Duration) ([]model.TimeSlot, error)
}

type Handler struct {
	service     Service
	defaultStep time.Duration
}

// NewHandler takes the availability grid step used when the caller does not pass step_minutes.
func NewHandler(service Service, defaultStep time.Duration) *Handler {
	return &Handler{service: service, defaultStep: defaultStep}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, _ handler.RoleGuard) {
	slots := r.Group("/slots")
	{
		slots.POST("/validate", h.ValidateSlot)
		slots.GET("/availability", h.Availability)
	}
}

// ValidateSlot always answers 200; a rejection is a normal decision, not an error.
func (h *Handler) ValidateSlot(c *gin.Context) {
	shopID, err := handler.ShopID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	var req model.SlotRequest
	if err := handler.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	decision, err := h.service.ValidateSlot(c.Request.Context(), shopID, req.StaffID, req.StartTime,
		model.MinutesDuration(req.DurationMinutes))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(decision))
}

func (h *Handler) Availability(c *gin.Context) {
	shopID, err := handler.ShopID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	staffID, err := handler.OptionalUUIDQuery(c, "staff_id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	if staffID == nil {
		_ = c.Error(apperrors.NewBadRequest("staff_id is required", nil))
		return
	}

	day, err := time.Parse(handler.DateLayout, c.Query("date"))
	if err != nil {
		_ = c.Error(apperrors.NewBadRequest("date must be YYYY-MM-DD", err))
		return
	}

	minutes, err := handler.IntQuery(c, "duration_minutes", 0)
	if err != nil {
		_ = c.Error(err)
		return
	}
	stepMinutes, err := handler.IntQuery(c, "step_minutes", 0)
	if err != nil {
		_ = c.Error(err)
		return
	}
	step := h.defaultStep
	if stepMinutes != 0 {
		if step = model.MinutesDuration(stepMinutes); step == 0 {
			_ = c.Error(apperrors.NewBadRequest("step_minutes out of range", nil))
			return
		}
	}

	slots, err := h.service.Availability(c.Request.Context(), shopID, *staffID, day,
		model.MinutesDuration(minutes), step)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{
		"date":  day.Format(handler.DateLayout),
		"slots": slots,
	}))
}
