package slot

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/barber-api/internal/config"
	"github.com/jwalitptl/barber-api/internal/model"
	"github.com/jwalitptl/barber-api/internal/repository"
	apperrors "github.com/jwalitptl/barber-api/pkg/errors"
	"github.com/jwalitptl/barber-api/pkg/metrics"
)

// CalendarSource supplies shop settings and weekly hours, usually through a cache.
type CalendarSource interface {
	GetShop(ctx context.Context, shopID uuid.UUID) (*model.Shop, error)
	GetHours(ctx context.Context, shopID uuid.UUID, day time.Weekday) (*model.BusinessHours, error)
}

// Service loads what Validate needs from storage.
type Service struct {
	calendar     CalendarSource
	blackouts    repository.BlackoutRepository
	appointments repository.AppointmentRepository
	policy       Policy
	metrics      *metrics.Metrics
}

func NewService(
	calendar CalendarSource,
	blackouts repository.BlackoutRepository,
	appointments repository.AppointmentRepository,
	policy Policy,
	m *metrics.Metrics,
) *Service {
	return &Service{
		calendar:     calendar,
		blackouts:    blackouts,
		appointments: appointments,
		policy:       policy,
		metrics:      m,
	}
}

// PolicyFromConfig builds a Policy from the scheduling section.
func PolicyFromConfig(cfg config.SchedulingConfig) (Policy, error) {
	open, err := model.ParseClockTime(cfg.DefaultOpen)
	if err != nil {
		return Policy{}, fmt.Errorf("scheduling.default_open: %w", err)
	}
	closeAt, err := model.ParseClockTime(cfg.DefaultClose)
	if err != nil {
		return Policy{}, fmt.Errorf("scheduling.default_close: %w", err)
	}
	if open >= closeAt {
		return Policy{}, fmt.Errorf("scheduling default window opens after it closes")
	}
	return Policy{
		ClosedWhenUnconfigured: cfg.MissingHoursPolicy == config.MissingHoursClosed,
		DefaultOpen:            open,
		DefaultClose:           closeAt,
		RequireEndWithinHours:  cfg.RequireEndWithinHours,
		MaxDuration:            cfg.MaxAppointmentLength,
	}, nil
}

func (s *Service) Policy() Policy {
	return s.policy
}

// ValidateSlot checks one (staff, start, duration) request against the shop's current state.
// Data is loaded stage by stage so a closed day never touches the appointment table.
func (s *Service) ValidateSlot(ctx context.Context, shopID, staffID uuid.UUID, start time.Time, duration time.Duration) (Decision, error) {
	d, err := s.validate(ctx, shopID, staffID, start, duration)
	if err != nil {
		return Decision{}, err
	}
	s.metrics.SlotDecisions.WithLabelValues(string(d.Reason)).Inc()
	return d, nil
}

func (s *Service) validate(ctx context.Context, shopID, staffID uuid.UUID, start time.Time, duration time.Duration) (Decision, error) {
	shop, err := s.calendar.GetShop(ctx, shopID)
	if err != nil {
		return Decision{}, err
	}
	loc := shop.Location()

	hours, err := s.calendar.GetHours(ctx, shopID, start.In(loc).Weekday())
	if err != nil {
		return Decision{}, fmt.Errorf("failed to load business hours: %w", err)
	}

	in := Input{Start: start, Duration: duration, Location: loc, Hours: hours}
	if d := Validate(in, s.policy); !d.Accepted {
		return d, nil
	}

	in.Blackouts, err = s.blackouts.ListActive(ctx, shopID, staffID)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to load blackouts: %w", err)
	}
	if d := Validate(in, s.policy); !d.Accepted {
		return d, nil
	}

	// Any booking that overlaps must start no earlier than start minus the longest allowed duration.
	from := start.Add(-s.policy.MaxDuration)
	in.Existing, err = s.appointments.ListOverlapCandidates(ctx, staffID, from, start.Add(duration))
	if err != nil {
		return Decision{}, fmt.Errorf("failed to load appointments: %w", err)
	}
	return Validate(in, s.policy), nil
}

// Availability lists the accepted slots of the given length on a shop-local calendar day,
// walking from opening time in step increments. Only day's year, month and day are used.
func (s *Service) Availability(ctx context.Context, shopID, staffID uuid.UUID, day time.Time, duration, step time.Duration) ([]model.TimeSlot, error) {
	if duration <= 0 || (s.policy.MaxDuration > 0 && duration > s.policy.MaxDuration) {
		return nil, apperrors.NewValidation(string(ReasonInvalidDuration), "duration must be positive and within the maximum length")
	}
	if step <= 0 {
		step = duration
	}

	shop, err := s.calendar.GetShop(ctx, shopID)
	if err != nil {
		return nil, err
	}
	loc := shop.Location()
	y, m, dd := day.Date()
	midnight := time.Date(y, m, dd, 0, 0, 0, 0, loc)

	hours, err := s.calendar.GetHours(ctx, shopID, midnight.Weekday())
	if err != nil {
		return nil, fmt.Errorf("failed to load business hours: %w", err)
	}
	open, closeAt, closed := s.policy.window(hours)
	if closed {
		return []model.TimeSlot{}, nil
	}

	blackouts, err := s.blackouts.ListActive(ctx, shopID, staffID)
	if err != nil {
		return nil, fmt.Errorf("failed to load blackouts: %w", err)
	}
	first := onDay(y, m, dd, open, loc)
	last := onDay(y, m, dd, closeAt, loc)
	existing, err := s.appointments.ListOverlapCandidates(ctx, staffID, first.Add(-s.policy.MaxDuration), last.Add(duration))
	if err != nil {
		return nil, fmt.Errorf("failed to load appointments: %w", err)
	}

	// The grid steps through wall-clock offsets so it agrees with Validate on DST days.
	slots := []model.TimeSlot{}
	for offset := open; offset < closeAt; offset += step {
		t := onDay(y, m, dd, offset, loc)
		d := Validate(Input{
			Start:     t,
			Duration:  duration,
			Location:  loc,
			Hours:     hours,
			Blackouts: blackouts,
			Existing:  existing,
		}, s.policy)
		if d.Accepted {
			slots = append(slots, model.TimeSlot{Start: t, End: t.Add(duration)})
		}
	}
	return slots, nil
}

// onDay places a time-of-day offset on a civil date in loc, by wall clock.
func onDay(y int, m time.Month, d int, offset time.Duration, loc *time.Location) time.Time {
	return time.Date(y, m, d, int(offset/time.Hour), int(offset%time.Hour/time.Minute), 0, 0, loc)
}
