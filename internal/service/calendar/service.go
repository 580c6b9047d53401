package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/barber-api/internal/model"
	"github.com/jwalitptl/barber-api/internal/repository"
	apperrors "github.com/jwalitptl/barber-api/pkg/errors"
	"github.com/jwalitptl/barber-api/pkg/validator"
)

// Service is a read-through cache over shop settings and weekly hours.
type Service struct {
	shops    repository.ShopRepository
	repo     repository.CalendarRepository
	cache    *cache.Cache
	validate validator.Validator
}

func NewService(shops repository.ShopRepository, repo repository.CalendarRepository, ttl, cleanup time.Duration) *Service {
	return &Service{
		shops:    shops,
		repo:     repo,
		cache:    cache.New(ttl, cleanup),
		validate: validator.New(),
	}
}

func shopKey(id uuid.UUID) string { return "shop:" + id.String() }

func hoursKey(id uuid.UUID, day time.Weekday) string {
	return fmt.Sprintf("hours:%s:%d", id, int(day))
}

func (s *Service) GetShop(ctx context.Context, shopID uuid.UUID) (*model.Shop, error) {
	if v, ok := s.cache.Get(shopKey(shopID)); ok {
		return v.(*model.Shop), nil
	}

	shop, err := s.shops.Get(ctx, shopID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("shop", err)
		}
		return nil, err
	}
	s.cache.Set(shopKey(shopID), shop, cache.DefaultExpiration)
	return shop, nil
}

// GetHours returns nil without error when the shop has no row for the weekday.
func (s *Service) GetHours(ctx context.Context, shopID uuid.UUID, day time.Weekday) (*model.BusinessHours, error) {
	key := hoursKey(shopID, day)
	if v, ok := s.cache.Get(key); ok {
		return v.(*model.BusinessHours), nil
	}

	hours, err := s.repo.GetHours(ctx, shopID, int(day))
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	// absence is cached as a typed nil
	s.cache.Set(key, hours, cache.DefaultExpiration)
	return hours, nil
}

func (s *Service) ListHours(ctx context.Context, shopID uuid.UUID) ([]*model.BusinessHours, error) {
	return s.repo.ListHours(ctx, shopID)
}

// SetHours upserts the listed days and drops their cache entries.
func (s *Service) SetHours(ctx context.Context, shopID uuid.UUID, days []model.BusinessHours) ([]*model.BusinessHours, error) {
	if len(days) == 0 {
		return nil, apperrors.NewValidation("invalid-input", "at least one day is required")
	}

	seen := make(map[int]bool, len(days))
	for i := range days {
		d := &days[i]
		d.ShopID = shopID
		if err := s.validate.Validate(d); err != nil {
			return nil, err
		}
		if seen[d.DayOfWeek] {
			return nil, apperrors.NewValidation("invalid-input", fmt.Sprintf("day %d listed twice", d.DayOfWeek))
		}
		seen[d.DayOfWeek] = true

		if d.Closed {
			continue
		}
		open, closeAt, err := d.Window()
		if err != nil {
			return nil, apperrors.NewValidation("invalid-input", err.Error())
		}
		if open >= closeAt {
			return nil, apperrors.NewValidation("invalid-range", fmt.Sprintf("day %d opens after it closes", d.DayOfWeek))
		}
	}

	if err := s.repo.ReplaceHours(ctx, shopID, days); err != nil {
		return nil, err
	}
	for _, d := range days {
		s.cache.Delete(hoursKey(shopID, d.Weekday()))
	}

	return s.repo.ListHours(ctx, shopID)
}

// Invalidate drops every cached entry for a shop.
func (s *Service) Invalidate(shopID uuid.UUID) {
	s.cache.Delete(shopKey(shopID))
	for d := time.Sunday; d <= time.Saturday; d++ {
		s.cache.Delete(hoursKey(shopID, d))
	}
}
