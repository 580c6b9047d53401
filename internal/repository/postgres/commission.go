package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/barber-api/internal/model"
	"github.com/jwalitptl/barber-api/internal/repository"
)

var commissionColumns = []string{
	"id", "shop_id", "staff_id", "sale_id", "amount", "rate",
	"paid", "paid_at", "created_at", "updated_at",
}

type commissionRepository struct {
	BaseRepository
}

func NewCommissionRepository(db *sqlx.DB) repository.CommissionRepository {
	return &commissionRepository{NewBaseRepository(db)}
}

func (r *commissionRepository) Create(ctx context.Context, commission *model.Commission) error {
	if commission.ID == uuid.Nil {
		commission.ID = uuid.New()
	}
	now := time.Now().UTC()
	commission.CreatedAt = now
	commission.UpdatedAt = now

	query, args, err := psql.Insert("commissions").
		Columns(commissionColumns...).
		Values(
			commission.ID,
			commission.ShopID,
			commission.StaffID,
			commission.SaleID,
			commission.Amount,
			commission.Rate,
			commission.Paid,
			commission.PaidAt,
			commission.CreatedAt,
			commission.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build commission insert: %w", err)
	}

	if _, err := r.ext(ctx).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to create commission: %w", classify(err))
	}
	return nil
}

func (r *commissionRepository) GetBySale(ctx context.Context, saleID uuid.UUID) (*model.Commission, error) {
	query, args, err := psql.Select(commissionColumns...).
		From("commissions").
		Where(sq.Eq{"sale_id": saleID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build commission lookup: %w", err)
	}

	var commission model.Commission
	if err := sqlx.GetContext(ctx, r.ext(ctx), &commission, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get commission: %w", classify(err))
	}
	return &commission, nil
}

// MarkPaid flips the paid flag, keeping the first paid_at. Amount and rate are never updated.
func (r *commissionRepository) MarkPaid(ctx context.Context, shopID, id uuid.UUID, paidAt time.Time) (*model.Commission, error) {
	query, args, err := psql.Update("commissions").
		Set("paid", true).
		Set("paid_at", sq.Expr("COALESCE(paid_at, ?)", paidAt)).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": id, "shop_id": shopID}).
		Suffix("RETURNING " + strings.Join(commissionColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build commission update: %w", err)
	}

	var commission model.Commission
	if err := sqlx.GetContext(ctx, r.ext(ctx), &commission, query, args...); err != nil {
		return nil, fmt.Errorf("failed to mark commission paid: %w", classify(err))
	}
	return &commission, nil
}

func (r *commissionRepository) List(ctx context.Context, filters *model.CommissionFilters) ([]*model.Commission, error) {
	b := psql.Select(commissionColumns...).
		From("commissions").
		Where(sq.Eq{"shop_id": filters.ShopID}).
		OrderBy("created_at DESC")

	if filters.StaffID != nil {
		b = b.Where(sq.Eq{"staff_id": *filters.StaffID})
	}
	if filters.Paid != nil {
		b = b.Where(sq.Eq{"paid": *filters.Paid})
	}
	if filters.From != nil {
		b = b.Where(sq.GtOrEq{"created_at": *filters.From})
	}
	if filters.To != nil {
		b = b.Where(sq.Lt{"created_at": *filters.To})
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build commission list: %w", err)
	}

	var commissions []*model.Commission
	if err := sqlx.SelectContext(ctx, r.ext(ctx), &commissions, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list commissions: %w", classify(err))
	}
	return commissions, nil
}

func (r *commissionRepository) Summary(ctx context.Context, shopID, staffID uuid.UUID) (*model.PayoutSummary, error) {
	query := `
		SELECT $2::uuid AS staff_id,
			COALESCE(SUM(amount) FILTER (WHERE paid), 0) AS paid_total,
			COALESCE(SUM(amount) FILTER (WHERE NOT paid), 0) AS unpaid_total,
			COUNT(*) AS count
		FROM commissions
		WHERE shop_id = $1 AND staff_id = $2
	`
	var summary model.PayoutSummary
	if err := sqlx.GetContext(ctx, r.ext(ctx), &summary, query, shopID, staffID); err != nil {
		return nil, fmt.Errorf("failed to summarize commissions: %w", classify(err))
	}
	return &summary, nil
}
