package settlement

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/barber-api/internal/handler"
	"github.com/jwalitptl/barber-api/internal/model"
	apperrors "github.com/jwalitptl/barber-api/pkg/errors"
)

type Service interface {
	MarkCommissionPaid(ctx context.Context, shopID, id uuid.UUID, paidAt *time.Time) (*model.Commission, error)
	ListCommissions(ctx context.Context, filters *model.CommissionFilters) ([]*model.Commission, error)
	ListSales(ctx context.Context, filters *model.SaleFilters) ([]*model.Sale, error)
	StaffPayoutSummary(ctx context.Context, shopID, staffID uuid.UUID) (*model.PayoutSummary, error)
	UpsertRule(ctx context.Context, shopID uuid.UUID, req *model.CommissionRuleRequest) (*model.CommissionRule, error)
	DeleteRule(ctx context.Context, shopID, id uuid.UUID) error
	ListRules(ctx context.Context, shopID uuid.UUID) ([]*model.CommissionRule, error)
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, roles handler.RoleGuard) {
	rules := r.Group("/commission-rules", roles.RequireRole(model.RoleOwner))
	{
		rules.GET("", h.ListRules)
		rules.PUT("", h.UpsertRule)
		rules.DELETE("/:id", h.DeleteRule)
	}

	commissions := r.Group("/commissions")
	{
		commissions.GET("", roles.RequireRole(model.RoleManager), h.ListCommissions)
		commissions.GET("/summary", roles.RequireRole(model.RoleStaff), h.PayoutSummary)
		commissions.POST("/:id/pay", roles.RequireRole(model.RoleOwner), h.MarkPaid)
	}

	r.GET("/sales", roles.RequireRole(model.RoleManager), h.ListSales)
}

func (h *Handler) ListRules(c *gin.Context) {
	shopID, err := handler.ShopID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	rules, err := h.service.ListRules(c.Request.Context(), shopID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(rules))
}

// UpsertRule creates or replaces the rate for one (staff, service) pair.
func (h *Handler) UpsertRule(c *gin.Context) {
	shopID, err := handler.ShopID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	var req model.CommissionRuleRequest
	if err := handler.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	rule, err := h.service.UpsertRule(c.Request.Context(), shopID, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(rule))
}

func (h *Handler) DeleteRule(c *gin.Context) {
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

	if err := h.service.DeleteRule(c.Request.Context(), shopID, id); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewMessageResponse("commission rule deleted"))
}

func (h *Handler) ListCommissions(c *gin.Context) {
	shopID, err := handler.ShopID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	filters := &model.CommissionFilters{ShopID: shopID}
	if filters.StaffID, err = handler.OptionalUUIDQuery(c, "staff_id"); err != nil {
		_ = c.Error(err)
		return
	}
	if filters.Paid, err = handler.OptionalBoolQuery(c, "paid"); err != nil {
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

	commissions, err := h.service.ListCommissions(c.Request.Context(), filters)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(commissions))
}

type payRequest struct {
	PaidAt *time.Time `json:"paid_at"`
}

func (h *Handler) MarkPaid(c *gin.Context) {
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

	var req payRequest
	if err := handler.BindOptionalJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	commission, err := h.service.MarkCommissionPaid(c.Request.Context(), shopID, id, req.PaidAt)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(commission))
}

// PayoutSummary defaults to the caller. Staff may only see their own totals.
func (h *Handler) PayoutSummary(c *gin.Context) {
	shopID, err := handler.ShopID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	claims, err := handler.Claims(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	actorID, err := claims.ActorID()
	if err != nil {
		_ = c.Error(apperrors.Unauthorized(err))
		return
	}

	staffID, err := handler.OptionalUUIDQuery(c, "staff_id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	if staffID == nil {
		staffID = &actorID
	}
	if *staffID != actorID && !claims.Role.AtLeast(model.RoleManager) {
		_ = c.Error(apperrors.Forbidden("staff may only view their own payouts"))
		return
	}

	summary, err := h.service.StaffPayoutSummary(c.Request.Context(), shopID, *staffID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(summary))
}

func (h *Handler) ListSales(c *gin.Context) {
	shopID, err := handler.ShopID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	filters := &model.SaleFilters{ShopID: shopID}
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

	sales, err := h.service.ListSales(c.Request.Context(), filters)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(sales))
}
