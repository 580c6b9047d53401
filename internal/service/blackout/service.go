package blackout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/barber-api/internal/model"
	"github.com/jwalitptl/barber-api/internal/repository"
	apperrors "github.com/jwalitptl/barber-api/pkg/errors"
	"github.com/jwalitptl/barber-api/pkg/validator"
)

// LocationSource resolves a shop's timezone.
type LocationSource interface {
	GetShop(ctx context.Context, shopID uuid.UUID) (*model.Shop, error)
}

type Service struct {
	repo     repository.BlackoutRepository
	shops    LocationSource
	validate validator.Validator
}

func NewService(repo repository.BlackoutRepository, shops LocationSource) *Service {
	return &Service{
		repo:     repo,
		shops:    shops,
		validate: validator.New(),
	}
}

func (s *Service) Create(ctx context.Context, shopID uuid.UUID, req *model.BlackoutRequest) (*model.Blackout, error) {
	b := &model.Blackout{
		Base:     model.Base{ID: uuid.New()},
		ShopID:   shopID,
		Active:   true,
		Category: model.BlackoutCategoryOther,
	}
	if err := s.apply(ctx, b, req); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to create blackout: %w", err)
	}
	return b, nil
}

func (s *Service) Get(ctx context.Context, shopID, id uuid.UUID) (*model.Blackout, error) {
	b, err := s.repo.Get(ctx, shopID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("blackout", err)
		}
		return nil, err
	}
	return b, nil
}

func (s *Service) Update(ctx context.Context, shopID, id uuid.UUID, req *model.BlackoutRequest) (*model.Blackout, error) {
	b, err := s.Get(ctx, shopID, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, b, req); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, b); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("blackout", err)
		}
		return nil, fmt.Errorf("failed to update blackout: %w", err)
	}
	return b, nil
}

// Deactivate hides a blackout from slot checks. Rows are never removed.
func (s *Service) Deactivate(ctx context.Context, shopID, id uuid.UUID) error {
	if err := s.repo.Deactivate(ctx, shopID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("blackout", err)
		}
		return fmt.Errorf("failed to deactivate blackout: %w", err)
	}
	return nil
}

func (s *Service) List(ctx context.Context, filters *model.BlackoutFilters) ([]*model.Blackout, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) ListActive(ctx context.Context, shopID, staffID uuid.UUID) ([]*model.Blackout, error) {
	return s.repo.ListActive(ctx, shopID, staffID)
}

func (s *Service) apply(ctx context.Context, b *model.Blackout, req *model.BlackoutRequest) error {
	if err := s.validate.Validate(req); err != nil {
		return err
	}

	start, end := req.StartTime, req.EndTime
	if req.AllDay {
		shop, err := s.shops.GetShop(ctx, b.ShopID)
		if err != nil {
			return err
		}
		start, end = wholeDays(start, end, shop.Location())
	}
	if !start.Before(end) {
		return apperrors.NewValidation("invalid-range", "start_time must be before end_time")
	}

	b.StaffID = req.StaffID
	b.Title = req.Title
	b.StartTime = start.UTC()
	b.EndTime = end.UTC()
	b.AllDay = req.AllDay
	if req.Category != "" {
		b.Category = req.Category
	}
	return nil
}

// wholeDays widens [start, end] to cover full local days. A zero end means the start day only.
func wholeDays(start, end time.Time, loc *time.Location) (time.Time, time.Time) {
	y, m, d := start.In(loc).Date()
	from := time.Date(y, m, d, 0, 0, 0, 0, loc)

	last := from
	if !end.IsZero() {
		y, m, d = end.In(loc).Date()
		last = time.Date(y, m, d, 0, 0, 0, 0, loc)
		// an end exactly at midnight already closes the previous day
		if end.Equal(last) && last.After(from) {
			last = last.AddDate(0, 0, -1)
		}
	}
	return from, last.AddDate(0, 0, 1)
}
