package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Shop is the tenant boundary. Only the fields the scheduling core reads are mapped.
type Shop struct {
	Base
	Name                  string           `db:"name" json:"name"`
	Timezone              string           `db:"timezone" json:"timezone"`
	DefaultCommissionRate *decimal.Decimal `db:"default_commission_rate" json:"default_commission_rate,omitempty"`
}

// Location resolves the shop timezone, falling back to UTC on unknown names.
func (s *Shop) Location() *time.Location {
	if s == nil || s.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
