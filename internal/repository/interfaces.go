package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jwalitptl/barber-api/internal/model"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("repository: not found")
	// ErrConflict covers exclusion, uniqueness and serialization failures.
	ErrConflict = errors.New("repository: conflict")
)

// All repository interfaces in one file
type (
	// Transactor runs fn with a transaction bound to the returned context.
	// Repositories called with that context join the transaction; nested calls reuse it.
	Transactor interface {
		WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
		WithinSerializableTx(ctx context.Context, fn func(ctx context.Context) error) error
	}

	ShopRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Shop, error)
	}

	ServiceRepository interface {
		Get(ctx context.Context, shopID, id uuid.UUID) (*model.Service, error)
	}

	CalendarRepository interface {
		GetHours(ctx context.Context, shopID uuid.UUID, dayOfWeek int) (*model.BusinessHours, error)
		ListHours(ctx context.Context, shopID uuid.UUID) ([]*model.BusinessHours, error)
		ReplaceHours(ctx context.Context, shopID uuid.UUID, days []model.BusinessHours) error
	}

	BlackoutRepository interface {
		Create(ctx context.Context, blackout *model.Blackout) error
		Get(ctx context.Context, shopID, id uuid.UUID) (*model.Blackout, error)
		Update(ctx context.Context, blackout *model.Blackout) error
		Deactivate(ctx context.Context, shopID, id uuid.UUID) error
		ListActive(ctx context.Context, shopID, staffID uuid.UUID) ([]*model.Blackout, error)
		List(ctx context.Context, filters *model.BlackoutFilters) ([]*model.Blackout, error)
	}

	AppointmentRepository interface {
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus, cancelReason *string) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
		// ListOverlapCandidates returns calendar-blocking appointments of staffID starting in [from, to).
		ListOverlapCandidates(ctx context.Context, staffID uuid.UUID, from, to time.Time) ([]*model.Appointment, error)
		// ListDueForAdvance returns ids whose status the clock would change at now, ordered by
		// (start_time, id) and skipping the first offset. shopID nil means all shops.
		ListDueForAdvance(ctx context.Context, shopID *uuid.UUID, now time.Time, limit, offset int) ([]uuid.UUID, error)
	}

	CommissionRuleRepository interface {
		GetRate(ctx context.Context, shopID, staffID, serviceID uuid.UUID) (decimal.Decimal, error)
		Upsert(ctx context.Context, rule *model.CommissionRule) error
		Delete(ctx context.Context, shopID, id uuid.UUID) error
		List(ctx context.Context, shopID uuid.UUID) ([]*model.CommissionRule, error)
	}

	SaleRepository interface {
		FindByAppointment(ctx context.Context, appointmentID uuid.UUID) (*model.Sale, error)
		Create(ctx context.Context, sale *model.Sale) error
		List(ctx context.Context, filters *model.SaleFilters) ([]*model.Sale, error)
	}

	CommissionRepository interface {
		Create(ctx context.Context, commission *model.Commission) error
		GetBySale(ctx context.Context, saleID uuid.UUID) (*model.Commission, error)
		MarkPaid(ctx context.Context, shopID, id uuid.UUID, paidAt time.Time) (*model.Commission, error)
		List(ctx context.Context, filters *model.CommissionFilters) ([]*model.Commission, error)
		Summary(ctx context.Context, shopID, staffID uuid.UUID) (*model.PayoutSummary, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage *string) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)
