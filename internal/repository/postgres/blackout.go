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

var blackoutColumns = []string{
	"id", "shop_id", "staff_id", "title", "start_time", "end_time",
	"all_day", "category", "active", "created_at", "updated_at",
}

type blackoutRepository struct {
	BaseRepository
}

func NewBlackoutRepository(db *sqlx.DB) repository.BlackoutRepository {
	return &blackoutRepository{NewBaseRepository(db)}
}

func (r *blackoutRepository) Create(ctx context.Context, blackout *model.Blackout) error {
	if blackout.ID == uuid.Nil {
		blackout.ID = uuid.New()
	}
	now := time.Now().UTC()
	blackout.CreatedAt = now
	blackout.UpdatedAt = now

	query, args, err := psql.Insert("blackouts").
		Columns(blackoutColumns...).
		Values(
			blackout.ID,
			blackout.ShopID,
			blackout.StaffID,
			blackout.Title,
			blackout.StartTime,
			blackout.EndTime,
			blackout.AllDay,
			blackout.Category,
			blackout.Active,
			blackout.CreatedAt,
			blackout.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build blackout insert: %w", err)
	}

	if _, err := r.ext(ctx).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to create blackout: %w", classify(err))
	}
	return nil
}

func (r *blackoutRepository) Get(ctx context.Context, shopID, id uuid.UUID) (*model.Blackout, error) {
	query, args, err := psql.Select(blackoutColumns...).
		From("blackouts").
		Where(sq.Eq{"id": id, "shop_id": shopID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build blackout select: %w", err)
	}

	var blackout model.Blackout
	if err := sqlx.GetContext(ctx, r.ext(ctx), &blackout, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get blackout: %w", classify(err))
	}
	return &blackout, nil
}

func (r *blackoutRepository) Update(ctx context.Context, blackout *model.Blackout) error {
	blackout.UpdatedAt = time.Now().UTC()

	query, args, err := psql.Update("blackouts").
		SetMap(map[string]interface{}{
			"staff_id":   blackout.StaffID,
			"title":      blackout.Title,
			"start_time": blackout.StartTime,
			"end_time":   blackout.EndTime,
			"all_day":    blackout.AllDay,
			"category":   blackout.Category,
			"updated_at": blackout.UpdatedAt,
		}).
		Where(sq.Eq{"id": blackout.ID, "shop_id": blackout.ShopID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build blackout update: %w", err)
	}

	res, err := r.ext(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update blackout: %w", classify(err))
	}
	if err := expectOne(res); err != nil {
		return fmt.Errorf("failed to update blackout: %w", err)
	}
	return nil
}

// Deactivate is the only removal path; rows are kept for history.
func (r *blackoutRepository) Deactivate(ctx context.Context, shopID, id uuid.UUID) error {
	query := `
		UPDATE blackouts
		SET active = FALSE, updated_at = $1
		WHERE id = $2 AND shop_id = $3
	`
	res, err := r.ext(ctx).ExecContext(ctx, query, time.Now().UTC(), id, shopID)
	if err != nil {
		return fmt.Errorf("failed to deactivate blackout: %w", classify(err))
	}
	if err := expectOne(res); err != nil {
		return fmt.Errorf("failed to deactivate blackout: %w", err)
	}
	return nil
}

func (r *blackoutRepository) ListActive(ctx context.Context, shopID, staffID uuid.UUID) ([]*model.Blackout, error) {
	query, args, err := psql.Select(blackoutColumns...).
		From("blackouts").
		Where(sq.Eq{"shop_id": shopID, "active": true}).
		Where(sq.Or{
			sq.Eq{"staff_id": nil},
			sq.Eq{"staff_id": staffID},
		}).
		OrderBy("start_time ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build active blackout query: %w", err)
	}

	var blackouts []*model.Blackout
	if err := sqlx.SelectContext(ctx, r.ext(ctx), &blackouts, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list active blackouts: %w", classify(err))
	}
	return blackouts, nil
}

func (r *blackoutRepository) List(ctx context.Context, filters *model.BlackoutFilters) ([]*model.Blackout, error) {
	b := psql.Select(blackoutColumns...).
		From("blackouts").
		Where(sq.Eq{"shop_id": filters.ShopID}).
		OrderBy("start_time ASC")

	if filters.StaffID != nil {
		b = b.Where(sq.Eq{"staff_id": *filters.StaffID})
	}
	if filters.ActiveOnly {
		b = b.Where(sq.Eq{"active": true})
	}
	if filters.From != nil {
		b = b.Where(sq.Gt{"end_time": *filters.From})
	}
	if filters.To != nil {
		b = b.Where(sq.Lt{"start_time": *filters.To})
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build blackout list: %w", err)
	}

	var blackouts []*model.Blackout
	if err := sqlx.SelectContext(ctx, r.ext(ctx), &blackouts, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list blackouts: %w", classify(err))
	}
	return blackouts, nil
}
