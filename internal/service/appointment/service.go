package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/barber-api/internal/model"
	"github.com/jwalitptl/barber-api/internal/repository"
	"github.com/jwalitptl/barber-api/internal/service/event"
	"github.com/jwalitptl/barber-api/internal/service/slot"
	"github.com/jwalitptl/barber-api/pkg/clock"
	apperrors "github.com/jwalitptl/barber-api/pkg/errors"
	"github.com/jwalitptl/barber-api/pkg/logger"
	"github.com/jwalitptl/barber-api/pkg/metrics"
	"github.com/jwalitptl/barber-api/pkg/validator"
)

const reasonInvalidTransition = "invalid-transition"

type SlotChecker interface {
	ValidateSlot(ctx context.Context, shopID, staffID uuid.UUID, start time.Time, duration time.Duration) (slot.Decision, error)
}

type Settler interface {
	SettleInTx(ctx context.Context, appt *model.Appointment, method model.PaymentMethod) (*model.Settlement, error)
}

// Advancer brings a shop's appointment statuses up to date before they are read.
type Advancer interface {
	AdvanceShop(ctx context.Context, shopID uuid.UUID, now time.Time) ([]uuid.UUID, error)
}

type Service struct {
	tx       repository.Transactor
	repo     repository.AppointmentRepository
	services repository.ServiceRepository
	slots    SlotChecker
	settler  Settler
	advancer Advancer
	events   event.Emitter
	clock    clock.Clock
	metrics  *metrics.Metrics
	logger   *logger.Logger
	validate validator.Validator
}

type Deps struct {
	Tx       repository.Transactor
	Repo     repository.AppointmentRepository
	Services repository.ServiceRepository
	Slots    SlotChecker
	Settler  Settler
	Advancer Advancer
	Events   event.Emitter
	Clock    clock.Clock
	Metrics  *metrics.Metrics
	Logger   *logger.Logger
}

func NewService(d Deps) *Service {
	return &Service{
		tx:       d.Tx,
		repo:     d.Repo,
		services: d.Services,
		slots:    d.Slots,
		settler:  d.Settler,
		advancer: d.Advancer,
		events:   d.Events,
		clock:    d.Clock,
		metrics:  d.Metrics,
		logger:   d.Logger.WithComponent("appointment"),
		validate: validator.New(),
	}
}

// TransitionResult carries the settlement when a transition completed the appointment.
type TransitionResult struct {
	Appointment *model.Appointment `json:"appointment"`
	Settlement  *model.Settlement  `json:"settlement,omitempty"`
}

// CancelResult reports whether the cancel removed the row instead of flagging it.
type CancelResult struct {
	Appointment *model.Appointment `json:"appointment,omitempty"`
	Deleted     bool               `json:"deleted"`
}

// Book validates the slot and inserts the appointment in one serializable transaction.
// A lost insert race is re-validated once and reported as a slot rejection, never retried.
func (s *Service) Book(ctx context.Context, shopID uuid.UUID, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}

	appt := &model.Appointment{
		Base:            model.Base{ID: uuid.New()},
		ShopID:          shopID,
		StaffID:         req.StaffID,
		ServiceID:       req.ServiceID,
		ClientID:        req.ClientID,
		StartTime:       req.StartTime.UTC(),
		DurationMinutes: req.DurationMinutes,
		Status:          model.AppointmentStatusConfirmed,
		Price:           req.Price,
		Notes:           req.Notes,
	}
	if err := s.fillFromCatalog(ctx, appt); err != nil {
		return nil, err
	}
	if appt.Duration() == 0 {
		return nil, apperrors.NewValidation(string(slot.ReasonInvalidDuration),
			fmt.Sprintf("duration_minutes must be between 1 and %d", model.MaxDurationMinutes))
	}
	appt.EndTime = appt.End()

	err := s.tx.WithinSerializableTx(ctx, func(ctx context.Context) error {
		d, err := s.slots.ValidateSlot(ctx, shopID, appt.StaffID, appt.StartTime, appt.Duration())
		if err != nil {
			return err
		}
		if !d.Accepted {
			return rejection(d)
		}

		if err := s.repo.Create(ctx, appt); err != nil {
			return err
		}
		return s.events.Emit(ctx, appt.ID, model.EventAppointmentBooked, event.AppointmentBooked{
			AppointmentID: appt.ID,
			ShopID:        appt.ShopID,
			StaffID:       appt.StaffID,
			ClientID:      appt.ClientID,
			StartTime:     appt.StartTime.Format(time.RFC3339),
			EndTime:       appt.End().Format(time.RFC3339),
		})
	})
	if err == nil {
		s.logger.Info("appointment booked",
			"appointment_id", appt.ID.String(),
			"shop_id", shopID.String(),
			"staff_id", appt.StaffID.String(),
		)
		return appt, nil
	}
	if !errors.Is(err, repository.ErrConflict) {
		return nil, err
	}

	s.metrics.BookingConflicts.Inc()
	d, verr := s.slots.ValidateSlot(ctx, shopID, appt.StaffID, appt.StartTime, appt.Duration())
	if verr != nil {
		return nil, verr
	}
	if !d.Accepted {
		return nil, rejection(d)
	}
	return nil, rejection(slot.Decision{Reason: slot.ReasonDoubleBooked})
}

// fillFromCatalog defaults duration and price from the service when the request omits them.
func (s *Service) fillFromCatalog(ctx context.Context, appt *model.Appointment) error {
	if appt.DurationMinutes > 0 && appt.Price != nil {
		return nil
	}
	svc, err := s.services.Get(ctx, appt.ShopID, appt.ServiceID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("service", err)
		}
		return fmt.Errorf("failed to load service: %w", err)
	}
	if appt.DurationMinutes <= 0 {
		appt.DurationMinutes = svc.Duration
	}
	if appt.Price == nil {
		price := svc.Price
		appt.Price = &price
	}
	return nil
}

func (s *Service) Get(ctx context.Context, shopID, id uuid.UUID) (*model.Appointment, error) {
	if err := s.advance(ctx, shopID); err != nil {
		return nil, err
	}
	appt, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("appointment", err)
		}
		return nil, err
	}
	if appt.ShopID != shopID {
		return nil, apperrors.NewNotFound("appointment", nil)
	}
	return appt, nil
}

// List runs the status clock for the shop first so callers never see stale statuses.
func (s *Service) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	if err := s.advance(ctx, filters.ShopID); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, filters)
}

func (s *Service) advance(ctx context.Context, shopID uuid.UUID) error {
	changed, err := s.advancer.AdvanceShop(ctx, shopID, s.clock.Now())
	if err != nil {
		return fmt.Errorf("failed to advance statuses: %w", err)
	}
	if len(changed) > 0 {
		s.logger.Debug("statuses advanced before read", "shop_id", shopID.String(), "count", len(changed))
	}
	return nil
}

// Transition applies a manual status change under a row lock. Completing settles in the same tx.
// Unlike Cancel, it never deletes: a terminal appointment rejects every target.
func (s *Service) Transition(ctx context.Context, shopID, id uuid.UUID, req *model.TransitionRequest) (*TransitionResult, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}
	if !req.Status.Valid() {
		return nil, apperrors.NewValidation(reasonInvalidTransition, fmt.Sprintf("unknown status %q", req.Status))
	}

	result := &TransitionResult{}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		appt, err := s.lock(ctx, shopID, id)
		if err != nil {
			return err
		}
		if !CanTransition(appt.Status, req.Status) {
			return apperrors.NewValidation(reasonInvalidTransition,
				fmt.Sprintf("cannot move appointment from %s to %s", appt.Status, req.Status))
		}

		var reason *string
		if req.Status == model.AppointmentStatusCancelled && req.Reason != "" {
			reason = &req.Reason
		}
		if err := s.setStatus(ctx, appt, req.Status, reason); err != nil {
			return err
		}
		result.Appointment = appt

		if req.Status == model.AppointmentStatusCompleted {
			result.Settlement, err = s.settler.SettleInTx(ctx, appt, req.PaymentMethod)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Cancel flags a live appointment as cancelled. Cancelling one that is already cancelled
// deletes the row. Completed and no-show appointments cannot be cancelled.
func (s *Service) Cancel(ctx context.Context, shopID, id uuid.UUID, reason string) (*CancelResult, error) {
	result := &CancelResult{}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		appt, err := s.lock(ctx, shopID, id)
		if err != nil {
			return err
		}

		switch appt.Status {
		case model.AppointmentStatusCancelled:
			if err := s.repo.Delete(ctx, appt.ID); err != nil {
				return err
			}
			result.Deleted = true
			return s.events.Emit(ctx, appt.ID, model.EventAppointmentDeleted, event.AppointmentDeleted{
				AppointmentID: appt.ID,
				ShopID:        appt.ShopID,
			})
		case model.AppointmentStatusCompleted, model.AppointmentStatusNoShow:
			return apperrors.NewValidation(reasonInvalidTransition,
				fmt.Sprintf("cannot cancel a %s appointment", appt.Status))
		}

		var cancelReason *string
		if reason != "" {
			cancelReason = &reason
		}
		if err := s.setStatus(ctx, appt, model.AppointmentStatusCancelled, cancelReason); err != nil {
			return err
		}
		result.Appointment = appt
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) lock(ctx context.Context, shopID, id uuid.UUID) (*model.Appointment, error) {
	appt, err := s.repo.GetForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("appointment", err)
		}
		return nil, err
	}
	if appt.ShopID != shopID {
		return nil, apperrors.NewNotFound("appointment", nil)
	}
	return appt, nil
}

func (s *Service) setStatus(ctx context.Context, appt *model.Appointment, to model.AppointmentStatus, reason *string) error {
	from := appt.Status
	if err := s.repo.UpdateStatus(ctx, appt.ID, to, reason); err != nil {
		return err
	}
	appt.Status = to
	appt.CancelReason = reason
	appt.UpdatedAt = s.clock.Now()

	return s.events.Emit(ctx, appt.ID, model.EventAppointmentStatusChanged, event.StatusChanged{
		AppointmentID: appt.ID,
		ShopID:        appt.ShopID,
		From:          string(from),
		To:            string(to),
		Source:        "manual",
	})
}

// CanTransition reports whether staff may move an appointment from one status to another.
func CanTransition(from, to model.AppointmentStatus) bool {
	if from.IsTerminal() || from == to {
		return false
	}
	switch to {
	case model.AppointmentStatusConfirmed:
		return from == model.AppointmentStatusPending
	case model.AppointmentStatusInProgress:
		return from == model.AppointmentStatusConfirmed
	case model.AppointmentStatusCompleted, model.AppointmentStatusCancelled, model.AppointmentStatusNoShow:
		return true
	}
	return false
}

// rejection maps a slot decision onto the error returned to callers.
func rejection(d slot.Decision) error {
	switch d.Reason {
	case slot.ReasonDoubleBooked:
		return apperrors.NewConflict(string(d.Reason), "staff member already has an appointment in this slot")
	case slot.ReasonStaffBlocked:
		return apperrors.NewConflict(string(d.Reason), "staff member is unavailable in this slot")
	case slot.ReasonShopClosed:
		return apperrors.NewValidation(string(d.Reason), "shop is closed on this day")
	case slot.ReasonOutsideHours:
		return apperrors.NewValidation(string(d.Reason), "slot is outside business hours")
	default:
		return apperrors.NewValidation(string(d.Reason), "slot rejected")
	}
}
