package settlement

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jwalitptl/barber-api/internal/model"
	"github.com/jwalitptl/barber-api/internal/repository"
)

// Rate source names, also used as metric labels.
const (
	SourceRule        = "rule"
	SourceShopDefault = "shop_default"
	SourceDefault     = "default"
)

// FallbackRate applies when neither a rule nor a shop default exists.
var FallbackRate = decimal.NewFromInt(50)

var hundred = decimal.NewFromInt(100)

// RateQuery identifies the sale a rate is resolved for.
type RateQuery struct {
	Shop      *model.Shop
	StaffID   uuid.UUID
	ServiceID uuid.UUID
}

// RateSource is one link of the resolution chain. ok=false passes to the next link.
type RateSource interface {
	Name() string
	Rate(ctx context.Context, q RateQuery) (rate decimal.Decimal, ok bool, err error)
}

// Rate is a resolved percentage and the link that produced it.
type Rate struct {
	Value  decimal.Decimal `json:"value"`
	Source string          `json:"source"`
}

type ruleSource struct {
	rules repository.CommissionRuleRepository
}

func (ruleSource) Name() string { return SourceRule }

func (s ruleSource) Rate(ctx context.Context, q RateQuery) (decimal.Decimal, bool, error) {
	if q.Shop == nil || q.StaffID == uuid.Nil || q.ServiceID == uuid.Nil {
		return decimal.Zero, false, nil
	}
	rate, err := s.rules.GetRate(ctx, q.Shop.ID, q.StaffID, q.ServiceID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return decimal.Zero, false, nil
		}
		return decimal.Zero, false, err
	}
	return rate, true, nil
}

type shopDefaultSource struct{}

func (shopDefaultSource) Name() string { return SourceShopDefault }

func (shopDefaultSource) Rate(_ context.Context, q RateQuery) (decimal.Decimal, bool, error) {
	if q.Shop == nil || q.Shop.DefaultCommissionRate == nil {
		return decimal.Zero, false, nil
	}
	return *q.Shop.DefaultCommissionRate, true, nil
}

type constantSource struct {
	rate decimal.Decimal
}

func (constantSource) Name() string { return SourceDefault }

func (s constantSource) Rate(context.Context, RateQuery) (decimal.Decimal, bool, error) {
	return s.rate, true, nil
}

// DefaultChain is rule, then shop default, then the constant.
func DefaultChain(rules repository.CommissionRuleRepository, fallback decimal.Decimal) []RateSource {
	return []RateSource{
		ruleSource{rules: rules},
		shopDefaultSource{},
		constantSource{rate: fallback},
	}
}

// ResolveRate walks the chain and returns the first rate found.
func ResolveRate(ctx context.Context, chain []RateSource, q RateQuery) (Rate, error) {
	for _, src := range chain {
		rate, ok, err := src.Rate(ctx, q)
		if err != nil {
			return Rate{}, fmt.Errorf("failed to resolve %s rate: %w", src.Name(), err)
		}
		if ok {
			return Rate{Value: rate, Source: src.Name()}, nil
		}
	}
	return Rate{Value: FallbackRate, Source: SourceDefault}, nil
}

// CommissionAmount is total × rate / 100 rounded to cents, half away from zero.
func CommissionAmount(total, rate decimal.Decimal) decimal.Decimal {
	return total.Mul(rate).Div(hundred).Round(2)
}
