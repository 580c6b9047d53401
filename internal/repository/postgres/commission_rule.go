package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/jwalitptl/barber-api/internal/model"
	"github.com/jwalitptl/barber-api/internal/repository"
)

type commissionRuleRepository struct {
	BaseRepository
}

func NewCommissionRuleRepository(db *sqlx.DB) repository.CommissionRuleRepository {
	return &commissionRuleRepository{NewBaseRepository(db)}
}

func (r *commissionRuleRepository) GetRate(ctx context.Context, shopID, staffID, serviceID uuid.UUID) (decimal.Decimal, error) {
	query := `
		SELECT rate
		FROM commission_rules
		WHERE shop_id = $1 AND staff_id = $2 AND service_id = $3 AND deleted_at IS NULL
	`
	var rate decimal.Decimal
	if err := sqlx.GetContext(ctx, r.ext(ctx), &rate, query, shopID, staffID, serviceID); err != nil {
		return decimal.Zero, fmt.Errorf("failed to get commission rate: %w", classify(err))
	}
	return rate, nil
}

func (r *commissionRuleRepository) Upsert(ctx context.Context, rule *model.CommissionRule) error {
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	now := time.Now().UTC()
	rule.CreatedAt = now
	rule.UpdatedAt = now

	query := `
		INSERT INTO commission_rules (id, shop_id, staff_id, service_id, rate, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (shop_id, staff_id, service_id) DO UPDATE
		SET rate = EXCLUDED.rate, updated_at = EXCLUDED.updated_at, deleted_at = NULL
		RETURNING id, created_at
	`
	row := r.ext(ctx).QueryRowxContext(ctx, query,
		rule.ID, rule.ShopID, rule.StaffID, rule.ServiceID, rule.Rate, rule.CreatedAt, rule.UpdatedAt)
	if err := row.Scan(&rule.ID, &rule.CreatedAt); err != nil {
		return fmt.Errorf("failed to upsert commission rule: %w", classify(err))
	}
	return nil
}

func (r *commissionRuleRepository) Delete(ctx context.Context, shopID, id uuid.UUID) error {
	query := `
		UPDATE commission_rules
		SET deleted_at = $1
		WHERE id = $2 AND shop_id = $3 AND deleted_at IS NULL
	`
	res, err := r.ext(ctx).ExecContext(ctx, query, time.Now().UTC(), id, shopID)
	if err != nil {
		return fmt.Errorf("failed to delete commission rule: %w", classify(err))
	}
	if err := expectOne(res); err != nil {
		return fmt.Errorf("failed to delete commission rule: %w", err)
	}
	return nil
}

func (r *commissionRuleRepository) List(ctx context.Context, shopID uuid.UUID) ([]*model.CommissionRule, error) {
	query := `
		SELECT id, shop_id, staff_id, service_id, rate, created_at, updated_at
		FROM commission_rules
		WHERE shop_id = $1 AND deleted_at IS NULL
		ORDER BY staff_id, service_id
	`
	var rules []*model.CommissionRule
	if err := sqlx.SelectContext(ctx, r.ext(ctx), &rules, query, shopID); err != nil {
		return nil, fmt.Errorf("failed to list commission rules: %w", classify(err))
	}
	return rules, nil
}
