package postgres

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/barber-api/internal/model"
	"github.com/jwalitptl/barber-api/internal/repository"
)

var appointmentColumns = []string{
	"id", "shop_id", "staff_id", "service_id", "client_id",
	"start_time", "duration_minutes", "end_time", "status", "price",
	"notes", "cancel_reason", "created_at", "updated_at",
}

type appointmentRepository struct {
	BaseRepository
}

func NewAppointmentRepository(db *sqlx.DB) repository.AppointmentRepository {
	return &appointmentRepository{NewBaseRepository(db)}
}

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	if appointment.ID == uuid.Nil {
		appointment.ID = uuid.New()
	}
	now := time.Now().UTC()
	appointment.CreatedAt = now
	appointment.UpdatedAt = now
	appointment.EndTime = appointment.End()

	query, args, err := psql.Insert("appointments").
		Columns(appointmentColumns...).
		Values(
			appointment.ID,
			appointment.ShopID,
			appointment.StaffID,
			appointment.ServiceID,
			appointment.ClientID,
			appointment.StartTime,
			appointment.DurationMinutes,
			appointment.EndTime,
			appointment.Status,
			appointment.Price,
			appointment.Notes,
			appointment.CancelReason,
			appointment.CreatedAt,
			appointment.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build appointment insert: %w", err)
	}

	if _, err := r.ext(ctx).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to create appointment: %w", classify(err))
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return r.get(ctx, id, false)
}

// GetForUpdate locks the row until the surrounding transaction ends.
func (r *appointmentRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return r.get(ctx, id, true)
}

func (r *appointmentRepository) get(ctx context.Context, id uuid.UUID, lock bool) (*model.Appointment, error) {
	b := psql.Select(appointmentColumns...).
		From("appointments").
		Where(sq.Eq{"id": id})
	if lock {
		b = b.Suffix("FOR UPDATE")
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build appointment select: %w", err)
	}

	var appointment model.Appointment
	if err := sqlx.GetContext(ctx, r.ext(ctx), &appointment, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", classify(err))
	}
	return &appointment, nil
}

func (r *appointmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus, cancelReason *string) error {
	b := psql.Update("appointments").
		Set("status", status).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": id})
	if cancelReason != nil {
		b = b.Set("cancel_reason", *cancelReason)
	}

	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build appointment update: %w", err)
	}

	res, err := r.ext(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update appointment status: %w", classify(err))
	}
	if err := expectOne(res); err != nil {
		return fmt.Errorf("failed to update appointment status: %w", err)
	}
	return nil
}

func (r *appointmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `
		DELETE FROM appointments
		WHERE id = $1
	`
	res, err := r.ext(ctx).ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete appointment: %w", classify(err))
	}
	if err := expectOne(res); err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	b := psql.Select(appointmentColumns...).
		From("appointments").
		Where(sq.Eq{"shop_id": filters.ShopID}).
		OrderBy("start_time ASC")

	if filters.StaffID != nil {
		b = b.Where(sq.Eq{"staff_id": *filters.StaffID})
	}
	if filters.ClientID != nil {
		b = b.Where(sq.Eq{"client_id": *filters.ClientID})
	}
	if filters.Status != nil {
		b = b.Where(sq.Eq{"status": *filters.Status})
	}
	if filters.StartDate != nil {
		b = b.Where(sq.GtOrEq{"start_time": *filters.StartDate})
	}
	if filters.EndDate != nil {
		b = b.Where(sq.Lt{"start_time": *filters.EndDate})
	}
	if filters.Limit > 0 {
		b = b.Limit(filters.Limit).Offset(filters.Offset)
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build appointment list: %w", err)
	}

	var appointments []*model.Appointment
	if err := sqlx.SelectContext(ctx, r.ext(ctx), &appointments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", classify(err))
	}
	return appointments, nil
}

func (r *appointmentRepository) ListOverlapCandidates(ctx context.Context, staffID uuid.UUID, from, to time.Time) ([]*model.Appointment, error) {
	query, args, err := psql.Select(appointmentColumns...).
		From("appointments").
		Where(sq.Eq{"staff_id": staffID}).
		Where(sq.GtOrEq{"start_time": from}).
		Where(sq.Lt{"start_time": to}).
		Where(sq.NotEq{"status": []string{
			string(model.AppointmentStatusCancelled),
			string(model.AppointmentStatusNoShow),
		}}).
		OrderBy("start_time ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build overlap query: %w", err)
	}

	var appointments []*model.Appointment
	if err := sqlx.SelectContext(ctx, r.ext(ctx), &appointments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list overlap candidates: %w", classify(err))
	}
	return appointments, nil
}

func (r *appointmentRepository) ListDueForAdvance(ctx context.Context, shopID *uuid.UUID, now time.Time, limit, offset int) ([]uuid.UUID, error) {
	b := psql.Select("id").
		From("appointments").
		Where(sq.Or{
			sq.And{
				sq.Eq{"status": model.AppointmentStatusConfirmed},
				sq.LtOrEq{"start_time": now},
			},
			sq.And{
				sq.Eq{"status": model.AppointmentStatusInProgress},
				sq.LtOrEq{"end_time": now},
			},
		}).
		OrderBy("start_time ASC", "id ASC").
		Limit(uint64(limit)).
		Offset(uint64(offset))
	if shopID != nil {
		b = b.Where(sq.Eq{"shop_id": *shopID})
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build due query: %w", err)
	}

	var ids []uuid.UUID
	if err := sqlx.SelectContext(ctx, r.ext(ctx), &ids, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list due appointments: %w", classify(err))
	}
	return ids, nil
}
