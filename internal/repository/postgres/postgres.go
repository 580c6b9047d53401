package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/barber-api/internal/model"
	"github.com/jwalitptl/barber-api/internal/repository"
)

type shopRepository struct {
	BaseRepository
}

type serviceRepository struct {
	BaseRepository
}

func NewShopRepository(db *sqlx.DB) repository.ShopRepository {
	return &shopRepository{NewBaseRepository(db)}
}

func NewServiceRepository(db *sqlx.DB) repository.ServiceRepository {
	return &serviceRepository{NewBaseRepository(db)}
}

func (r *shopRepository) Get(ctx context.Context, id uuid.UUID) (*model.Shop, error) {
	query := `
		SELECT id, name, timezone, default_commission_rate, created_at, updated_at
		FROM shops
		WHERE id = $1 AND deleted_at IS NULL
	`
	var shop model.Shop
	if err := sqlx.GetContext(ctx, r.ext(ctx), &shop, query, id); err != nil {
		return nil, fmt.Errorf("failed to get shop: %w", classify(err))
	}
	return &shop, nil
}

func (r *serviceRepository) Get(ctx context.Context, shopID, id uuid.UUID) (*model.Service, error) {
	query := `
		SELECT id, shop_id, name, duration, price, status, created_at, updated_at
		FROM services
		WHERE id = $1 AND shop_id = $2 AND deleted_at IS NULL
	`
	var svc model.Service
	if err := sqlx.GetContext(ctx, r.ext(ctx), &svc, query, id, shopID); err != nil {
		return nil, fmt.Errorf("failed to get service: %w", classify(err))
	}
	return &svc, nil
}
