package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/barber-api/internal/model"
	"github.com/jwalitptl/barber-api/internal/repository"
)

type calendarRepository struct {
	BaseRepository
}

func NewCalendarRepository(db *sqlx.DB) repository.CalendarRepository {
	return &calendarRepository{NewBaseRepository(db)}
}

func (r *calendarRepository) GetHours(ctx context.Context, shopID uuid.UUID, dayOfWeek int) (*model.BusinessHours, error) {
	query := `
		SELECT shop_id, day_of_week, closed, open_time, close_time, updated_at
		FROM business_hours
		WHERE shop_id = $1 AND day_of_week = $2
	`
	var hours model.BusinessHours
	if err := sqlx.GetContext(ctx, r.ext(ctx), &hours, query, shopID, dayOfWeek); err != nil {
		return nil, fmt.Errorf("failed to get business hours: %w", classify(err))
	}
	return &hours, nil
}

func (r *calendarRepository) ListHours(ctx context.Context, shopID uuid.UUID) ([]*model.BusinessHours, error) {
	query := `
		SELECT shop_id, day_of_week, closed, open_time, close_time, updated_at
		FROM business_hours
		WHERE shop_id = $1
		ORDER BY day_of_week ASC
	`
	var hours []*model.BusinessHours
	if err := sqlx.SelectContext(ctx, r.ext(ctx), &hours, query, shopID); err != nil {
		return nil, fmt.Errorf("failed to list business hours: %w", classify(err))
	}
	return hours, nil
}

// ReplaceHours upserts the given days. Days not listed keep their current row.
func (r *calendarRepository) ReplaceHours(ctx context.Context, shopID uuid.UUID, days []model.BusinessHours) error {
	query := `
		INSERT INTO business_hours (shop_id, day_of_week, closed, open_time, close_time, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (shop_id, day_of_week) DO UPDATE
		SET closed = EXCLUDED.closed,
			open_time = EXCLUDED.open_time,
			close_time = EXCLUDED.close_time,
			updated_at = EXCLUDED.updated_at
	`
	now := time.Now().UTC()
	for _, d := range days {
		if _, err := r.ext(ctx).ExecContext(ctx, query, shopID, d.DayOfWeek, d.Closed, d.OpenTime, d.CloseTime, now); err != nil {
			return fmt.Errorf("failed to upsert business hours for day %d: %w", d.DayOfWeek, classify(err))
		}
	}
	return nil
}
