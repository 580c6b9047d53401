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

var saleColumns = []string{
	"id", "shop_id", "client_id", "staff_id", "appointment_id",
	"items", "total", "payment_method", "created_at", "updated_at",
}

type saleRepository struct {
	BaseRepository
}

func NewSaleRepository(db *sqlx.DB) repository.SaleRepository {
	return &saleRepository{NewBaseRepository(db)}
}

func (r *saleRepository) FindByAppointment(ctx context.Context, appointmentID uuid.UUID) (*model.Sale, error) {
	query, args, err := psql.Select(saleColumns...).
		From("sales").
		Where(sq.Eq{"appointment_id": appointmentID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build sale lookup: %w", err)
	}

	var sale model.Sale
	if err := sqlx.GetContext(ctx, r.ext(ctx), &sale, query, args...); err != nil {
		return nil, fmt.Errorf("failed to find sale by appointment: %w", classify(err))
	}
	return &sale, nil
}

func (r *saleRepository) Create(ctx context.Context, sale *model.Sale) error {
	if sale.ID == uuid.Nil {
		sale.ID = uuid.New()
	}
	now := time.Now().UTC()
	sale.CreatedAt = now
	sale.UpdatedAt = now

	query, args, err := psql.Insert("sales").
		Columns(saleColumns...).
		Values(
			sale.ID,
			sale.ShopID,
			sale.ClientID,
			sale.StaffID,
			sale.AppointmentID,
			sale.Items,
			sale.Total,
			sale.PaymentMethod,
			sale.CreatedAt,
			sale.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build sale insert: %w", err)
	}

	if _, err := r.ext(ctx).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to create sale: %w", classify(err))
	}
	return nil
}

func (r *saleRepository) List(ctx context.Context, filters *model.SaleFilters) ([]*model.Sale, error) {
	b := psql.Select(saleColumns...).
		From("sales").
		Where(sq.Eq{"shop_id": filters.ShopID}).
		OrderBy("created_at DESC")

	if filters.StaffID != nil {
		b = b.Where(sq.Eq{"staff_id": *filters.StaffID})
	}
	if filters.From != nil {
		b = b.Where(sq.GtOrEq{"created_at": *filters.From})
	}
	if filters.To != nil {
		b = b.Where(sq.Lt{"created_at": *filters.To})
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build sale list: %w", err)
	}

	var sales []*model.Sale
	if err := sqlx.SelectContext(ctx, r.ext(ctx), &sales, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", classify(err))
	}
	return sales, nil
}
