package appointment

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/barber-api/internal/handler"
	"github.com/jwalitptl/barber-api/internal/model"
	appointmentService "github.com/jwalitptl/barber-api/internal/service/appointment"
	apperrors "github.com/jwalitptl/barber-api/pkg/errors"
)

const defaultListLimit = 100

type Service interface {
	Book(ctx context.Context, shopID uuid.UUID, req *model.CreateAppointmentRequest) (*model.Appointment, error)
	Get(ctx context.Context, shopID, id uuid.UUID) (*model.Appointment, error)
	List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
	Transition(ctx context.Context, shopID, id uuid.UUID, req *model.TransitionRequest) (*appointmentService.TransitionResult, error)
	Cancel(ctx context.Context, shopID, id uuid.UUID, reason string) (*appointmentService.CancelResult, error)
}

type Settler interface {
	SettleIfCompleted(ctx context.Context, shopID, appointmentID uuid.UUID, method model.PaymentMethod) (*model.Settlement, error)
}

type Handler struct {
	service Service
	settler Settler
}

func NewHandler(service Service, settler Settler) *Handler {
	return &Handler{service: service, settler: settler}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, roles handler.RoleGuard) {
	appointments := r.Group("/appointments")
	{
		appointments.POST("", h.CreateAppointment)
		appointments.GET("", h.ListAppointments)
		appointments.GET("/:id", h.GetAppointment)
		appointments.POST("/:id/status", roles.RequireRole(model.RoleStaff), h.UpdateStatus)
		appointments.POST("/:id/cancel", h.CancelAppointment)
		appointments.POST("/:id/settle", roles.RequireRole(model.RoleStaff), h.SettleAppointment)
	}
}

func (h *Handler) CreateAppointment(c *gin.Context) {
	shopID, err := handler.ShopID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	var req model.CreateAppointmentRequest
	if err := handler.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	appointment, err := h.service.Book(c.Request.Context(), shopID, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(appointment))
}

func (h *Handler) GetAppointment(c *gin.Context) {
	shopID, id, ok := ids(c)
	if !ok {
		return
	}

	appointment, err := h.service.Get(c.Request.Context(), shopID, id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(appointment))
}

func (h *Handler) ListAppointments(c *gin.Context) {
	shopID, err := handler.ShopID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	filters, err := parseFilters(c, shopID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	appointments, err := h.service.List(c.Request.Context(), filters)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(appointments))
}

func parseFilters(c *gin.Context, shopID uuid.UUID) (*model.AppointmentFilters, error) {
	filters := &model.AppointmentFilters{ShopID: shopID}

	var err error
	if filters.StaffID, err = handler.OptionalUUIDQuery(c, "staff_id"); err != nil {
		return nil, err
	}
	if filters.ClientID, err = handler.OptionalUUIDQuery(c, "client_id"); err != nil {
		return nil, err
	}
	if status := c.Query("status"); status != "" {
		st := model.AppointmentStatus(status)
		if !st.Valid() {
			return nil, apperrors.NewBadRequest("invalid status", nil)
		}
		filters.Status = &st
	}
	if filters.StartDate, err = handler.OptionalTimeQuery(c, "start_date"); err != nil {
		return nil, err
	}
	if filters.EndDate, err = handler.OptionalTimeQuery(c, "end_date"); err != nil {
		return nil, err
	}

	limit, err := handler.IntQuery(c, "limit", defaultListLimit)
	if err != nil {
		return nil, err
	}
	offset, err := handler.IntQuery(c, "offset", 0)
	if err != nil {
		return nil, err
	}
	filters.Limit, filters.Offset = uint64(limit), uint64(offset)
	return filters, nil
}

// UpdateStatus applies a manual transition. Completing settles in the same request.
func (h *Handler) UpdateStatus(c *gin.Context) {
	shopID, id, ok := ids(c)
	if !ok {
		return
	}

	var req model.TransitionRequest
	if err := handler.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	result, err := h.service.Transition(c.Request.Context(), shopID, id, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(result))
}

// CancelAppointment cancels; cancelling an already cancelled appointment deletes it.
func (h *Handler) CancelAppointment(c *gin.Context) {
	shopID, id, ok := ids(c)
	if !ok {
		return
	}

	var req model.CancelRequest
	if err := handler.BindOptionalJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	result, err := h.service.Cancel(c.Request.Context(), shopID, id, req.Reason)
	if err != nil {
		_ = c.Error(err)
		return
	}

	if result.Deleted {
		c.JSON(http.StatusOK, handler.NewMessageResponse("appointment deleted"))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(result.Appointment))
}

type settleRequest struct {
	PaymentMethod model.PaymentMethod `json:"payment_method"`
}

// SettleAppointment settles a completed appointment that has no sale yet.
func (h *Handler) SettleAppointment(c *gin.Context) {
	shopID, id, ok := ids(c)
	if !ok {
		return
	}

	var req settleRequest
	if err := handler.BindOptionalJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	settlement, err := h.settler.SettleIfCompleted(c.Request.Context(), shopID, id, req.PaymentMethod)
	if err != nil {
		_ = c.Error(err)
		return
	}

	if settlement == nil {
		c.JSON(http.StatusOK, handler.NewMessageResponse("nothing to settle"))
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(settlement))
}

func ids(c *gin.Context) (shopID, id uuid.UUID, ok bool) {
	shopID, err := handler.ShopID(c)
	if err != nil {
		_ = c.Error(err)
		return uuid.Nil, uuid.Nil, false
	}
	id, err = handler.UUIDParam(c, "id")
	if err != nil {
		_ = c.Error(err)
		return uuid.Nil, uuid.Nil, false
	}
	return shopID, id, true
}
