package statusclock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/barber-api/internal/model"
	"github.com/jwalitptl/barber-api/internal/repository"
	"github.com/jwalitptl/barber-api/internal/service/event"
	"github.com/jwalitptl/barber-api/pkg/logger"
	"github.com/jwalitptl/barber-api/pkg/metrics"
)

const defaultBatchSize = 100

// Settler records the sale for an appointment that just completed, inside the caller's tx.
type Settler interface {
	SettleInTx(ctx context.Context, appt *model.Appointment, method model.PaymentMethod) (*model.Settlement, error)
}

type Service struct {
	tx           repository.Transactor
	appointments repository.AppointmentRepository
	settler      Settler
	events       event.Emitter
	metrics      *metrics.Metrics
	logger       *logger.Logger
	batchSize    int
}

func NewService(
	tx repository.Transactor,
	appointments repository.AppointmentRepository,
	settler Settler,
	events event.Emitter,
	m *metrics.Metrics,
	log *logger.Logger,
	batchSize int,
) *Service {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Service{
		tx:           tx,
		appointments: appointments,
		settler:      settler,
		events:       events,
		metrics:      m,
		logger:       log.WithComponent("status_clock"),
		batchSize:    batchSize,
	}
}

// AdvanceStatuses applies Next to every due appointment across all shops and returns the ids
// it changed. The first storage error ends the sweep; ids changed before it are still returned.
func (s *Service) AdvanceStatuses(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	return s.sweep(ctx, nil, now)
}

// AdvanceShop is AdvanceStatuses limited to one shop.
func (s *Service) AdvanceShop(ctx context.Context, shopID uuid.UUID, now time.Time) ([]uuid.UUID, error) {
	return s.sweep(ctx, &shopID, now)
}

func (s *Service) sweep(ctx context.Context, shopID *uuid.UUID, now time.Time) ([]uuid.UUID, error) {
	changed := []uuid.UUID{}
	// Advanced rows leave the due set. Rows left behind (changed concurrently, or deleted)
	// stay at the front of it, so the next page skips past them.
	skip := 0
	for {
		ids, err := s.appointments.ListDueForAdvance(ctx, shopID, now, s.batchSize, skip)
		if err != nil {
			return changed, fmt.Errorf("failed to list due appointments: %w", err)
		}

		for _, id := range ids {
			ok, err := s.advance(ctx, id, now)
			if err != nil {
				return changed, fmt.Errorf("failed to advance appointment %s: %w", id, err)
			}
			if ok {
				changed = append(changed, id)
			} else {
				skip++
			}
		}

		if len(ids) < s.batchSize {
			return changed, nil
		}
	}
}

// advance locks one appointment and re-evaluates it, so a concurrent manual change wins.
func (s *Service) advance(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	var to model.AppointmentStatus
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		appt, err := s.appointments.GetForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil
			}
			return err
		}

		target, ok := Next(appt.Status, appt.StartTime, appt.End(), now)
		if !ok {
			return nil
		}
		from := appt.Status

		if err := s.appointments.UpdateStatus(ctx, appt.ID, target, nil); err != nil {
			return err
		}
		appt.Status = target

		if err := s.events.Emit(ctx, appt.ID, model.EventAppointmentStatusChanged, event.StatusChanged{
			AppointmentID: appt.ID,
			ShopID:        appt.ShopID,
			From:          string(from),
			To:            string(target),
			Source:        "clock",
		}); err != nil {
			return err
		}

		if target == model.AppointmentStatusCompleted {
			if _, err := s.settler.SettleInTx(ctx, appt, model.PaymentMethodCash); err != nil {
				return err
			}
		}

		to = target
		return nil
	})
	if err != nil {
		return false, err
	}
	if to == "" {
		return false, nil
	}
	s.metrics.SweepTransitions.WithLabelValues("clock", string(to)).Inc()
	s.logger.Debug("appointment advanced", "appointment_id", id.String(), "status", string(to))
	return true, nil
}
