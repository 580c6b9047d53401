package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jwalitptl/barber-api/internal/model"
	"github.com/jwalitptl/barber-api/internal/repository"
	"github.com/jwalitptl/barber-api/internal/service/event"
	"github.com/jwalitptl/barber-api/pkg/clock"
	apperrors "github.com/jwalitptl/barber-api/pkg/errors"
	"github.com/jwalitptl/barber-api/pkg/logger"
	"github.com/jwalitptl/barber-api/pkg/metrics"
	"github.com/jwalitptl/barber-api/pkg/validator"
)

// ShopSource resolves shop settings.
type ShopSource interface {
	GetShop(ctx context.Context, shopID uuid.UUID) (*model.Shop, error)
}

type Service struct {
	tx           repository.Transactor
	appointments repository.AppointmentRepository
	sales        repository.SaleRepository
	commissions  repository.CommissionRepository
	rules        repository.CommissionRuleRepository
	services     repository.ServiceRepository
	shops        ShopSource
	events       event.Emitter
	chain        []RateSource
	clock        clock.Clock
	metrics      *metrics.Metrics
	logger       *logger.Logger
	validate     validator.Validator
}

type Deps struct {
	Tx           repository.Transactor
	Appointments repository.AppointmentRepository
	Sales        repository.SaleRepository
	Commissions  repository.CommissionRepository
	Rules        repository.CommissionRuleRepository
	// Services names sale lines. Nil names them by service id.
	Services     repository.ServiceRepository
	Shops        ShopSource
	Events       event.Emitter
	Clock        clock.Clock
	Metrics      *metrics.Metrics
	Logger       *logger.Logger
	// FallbackRate overrides the constant at the end of the rate chain.
	FallbackRate *decimal.Decimal
}

func NewService(d Deps) *Service {
	fallback := FallbackRate
	if d.FallbackRate != nil {
		fallback = *d.FallbackRate
	}
	return &Service{
		tx:           d.Tx,
		appointments: d.Appointments,
		sales:        d.Sales,
		commissions:  d.Commissions,
		rules:        d.Rules,
		services:     d.Services,
		shops:        d.Shops,
		events:       d.Events,
		chain:        DefaultChain(d.Rules, fallback),
		clock:        d.Clock,
		metrics:      d.Metrics,
		logger:       d.Logger.WithComponent("settlement"),
		validate:     validator.New(),
	}
}

// ResolveRate returns the commission percentage for a staff member performing a service.
func (s *Service) ResolveRate(ctx context.Context, shopID, staffID, serviceID uuid.UUID) (Rate, error) {
	shop, err := s.shops.GetShop(ctx, shopID)
	if err != nil {
		return Rate{}, err
	}
	return ResolveRate(ctx, s.chain, RateQuery{Shop: shop, StaffID: staffID, ServiceID: serviceID})
}

// SettleInTx records the sale and commission for a completed appointment. ctx must carry the
// caller's transaction. It returns nil when the appointment was already settled.
func (s *Service) SettleInTx(ctx context.Context, appt *model.Appointment, method model.PaymentMethod) (*model.Settlement, error) {
	existing, err := s.sales.FindByAppointment(ctx, appt.ID)
	switch {
	case err == nil && existing != nil:
		s.metrics.Settlements.WithLabelValues("duplicate", "").Inc()
		return nil, nil
	case err != nil && !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("failed to check existing sale: %w", err)
	}

	if method == "" {
		method = model.PaymentMethodCash
	}
	if !method.Valid() {
		return nil, apperrors.NewValidation("invalid-payment-method", fmt.Sprintf("unknown payment method %q", method))
	}

	total := decimal.Zero
	if appt.Price != nil {
		total = *appt.Price
	}
	description, err := s.lineDescription(ctx, appt)
	if err != nil {
		return nil, err
	}
	apptID := appt.ID
	serviceID := appt.ServiceID

	sale := &model.Sale{
		Base:          model.Base{ID: uuid.New()},
		ShopID:        appt.ShopID,
		ClientID:      appt.ClientID,
		StaffID:       appt.StaffID,
		AppointmentID: &apptID,
		Items: model.SaleItems{{
			Description: description,
			ServiceID:   &serviceID,
			Quantity:    1,
			UnitPrice:   total,
		}},
		Total:         total,
		PaymentMethod: method,
	}
	if err := s.sales.Create(ctx, sale); err != nil {
		return nil, fmt.Errorf("failed to create sale: %w", err)
	}

	result := &model.Settlement{Sale: sale}
	payload := event.SettlementCompleted{
		AppointmentID: appt.ID,
		ShopID:        appt.ShopID,
		SaleID:        sale.ID,
		Total:         total.StringFixed(2),
	}

	if appt.StaffID != uuid.Nil && appt.ServiceID != uuid.Nil {
		rate, err := s.ResolveRate(ctx, appt.ShopID, appt.StaffID, appt.ServiceID)
		if err != nil {
			return nil, err
		}

		commission := &model.Commission{
			Base:    model.Base{ID: uuid.New()},
			ShopID:  appt.ShopID,
			StaffID: appt.StaffID,
			SaleID:  sale.ID,
			Amount:  CommissionAmount(total, rate.Value),
			Rate:    rate.Value,
		}
		if err := s.commissions.Create(ctx, commission); err != nil {
			return nil, fmt.Errorf("failed to create commission: %w", err)
		}

		result.Commission = commission
		result.RateSource = rate.Source
		payload.CommissionID = &commission.ID
		payload.Commission = commission.Amount.StringFixed(2)
		payload.Rate = rate.Value.String()
		payload.RateSource = rate.Source
	}

	if err := s.events.Emit(ctx, appt.ID, model.EventSettlementCompleted, payload); err != nil {
		return nil, err
	}

	s.metrics.Settlements.WithLabelValues("settled", result.RateSource).Inc()
	if result.Commission != nil {
		amount, _ := result.Commission.Amount.Float64()
		s.metrics.CommissionAmount.Add(amount)
	}
	return result, nil
}

// SettleIfCompleted settles an appointment in its own transaction. It returns nil without
// error when the appointment is not completed or already has a sale.
func (s *Service) SettleIfCompleted(ctx context.Context, shopID, appointmentID uuid.UUID, method model.PaymentMethod) (*model.Settlement, error) {
	var result *model.Settlement
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		appt, err := s.appointments.GetForUpdate(ctx, appointmentID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.NewNotFound("appointment", err)
			}
			return err
		}
		if appt.ShopID != shopID {
			return apperrors.NewNotFound("appointment", nil)
		}
		if appt.Status != model.AppointmentStatusCompleted {
			return nil
		}

		result, err = s.SettleInTx(ctx, appt, method)
		return err
	})
	if err != nil {
		s.metrics.Settlements.WithLabelValues("failed", "").Inc()
		return nil, err
	}
	return result, nil
}

// lineDescription names the sale line after the catalog service, or by id when the catalog
// has no row for it.
func (s *Service) lineDescription(ctx context.Context, appt *model.Appointment) (string, error) {
	fallback := "Service " + appt.ServiceID.String()
	if s.services == nil {
		return fallback, nil
	}
	svc, err := s.services.Get(ctx, appt.ShopID, appt.ServiceID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return fallback, nil
	case err != nil:
		return "", fmt.Errorf("failed to load service: %w", err)
	case svc.Name == "":
		return fallback, nil
	}
	return svc.Name, nil
}

// MarkCommissionPaid is the only mutation allowed on a commission record.
func (s *Service) MarkCommissionPaid(ctx context.Context, shopID, id uuid.UUID, paidAt *time.Time) (*model.Commission, error) {
	at := s.clock.Now()
	if paidAt != nil {
		at = paidAt.UTC()
	}

	var commission *model.Commission
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		commission, err = s.commissions.MarkPaid(ctx, shopID, id, at)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.NewNotFound("commission", err)
			}
			return err
		}

		paid := at
		if commission.PaidAt != nil {
			paid = *commission.PaidAt
		}
		return s.events.Emit(ctx, commission.ID, model.EventCommissionPaid, event.CommissionPaid{
			CommissionID: commission.ID,
			ShopID:       commission.ShopID,
			StaffID:      commission.StaffID,
			Amount:       commission.Amount.StringFixed(2),
			PaidAt:       paid.Format(time.RFC3339),
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("commission marked paid", "commission_id", id.String(), "shop_id", shopID.String())
	return commission, nil
}

func (s *Service) ListCommissions(ctx context.Context, filters *model.CommissionFilters) ([]*model.Commission, error) {
	return s.commissions.List(ctx, filters)
}

func (s *Service) ListSales(ctx context.Context, filters *model.SaleFilters) ([]*model.Sale, error) {
	return s.sales.List(ctx, filters)
}

func (s *Service) StaffPayoutSummary(ctx context.Context, shopID, staffID uuid.UUID) (*model.PayoutSummary, error) {
	return s.commissions.Summary(ctx, shopID, staffID)
}

func (s *Service) UpsertRule(ctx context.Context, shopID uuid.UUID, req *model.CommissionRuleRequest) (*model.CommissionRule, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}
	rule := &model.CommissionRule{
		ShopID:    shopID,
		StaffID:   req.StaffID,
		ServiceID: req.ServiceID,
		Rate:      req.Rate,
	}
	if err := s.rules.Upsert(ctx, rule); err != nil {
		return nil, err
	}
	return rule, nil
}

func (s *Service) DeleteRule(ctx context.Context, shopID, id uuid.UUID) error {
	if err := s.rules.Delete(ctx, shopID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("commission rule", err)
		}
		return err
	}
	return nil
}

func (s *Service) ListRules(ctx context.Context, shopID uuid.UUID) ([]*model.CommissionRule, error) {
	return s.rules.List(ctx, shopID)
}
