package model

import (
	"time"

	"github.com/google/uuid"
)

type BlackoutCategory string

const (
	BlackoutCategoryVacation    BlackoutCategory = "vacation"
	BlackoutCategoryMaintenance BlackoutCategory = "maintenance"
	BlackoutCategoryHoliday     BlackoutCategory = "holiday"
	BlackoutCategoryOther       BlackoutCategory = "other"
)

// Blackout is an explicit unavailability window. A nil StaffID applies to every staff member.
type Blackout struct {
	Base
	ShopID    uuid.UUID        `db:"shop_id" json:"shop_id"`
	StaffID   *uuid.UUID       `db:"staff_id" json:"staff_id,omitempty"`
	Title     string           `db:"title" json:"title"`
	StartTime time.Time        `db:"start_time" json:"start_time"`
	EndTime   time.Time        `db:"end_time" json:"end_time"`
	AllDay    bool             `db:"all_day" json:"all_day"`
	Category  BlackoutCategory `db:"category" json:"category"`
	Active    bool             `db:"active" json:"active"`
}

// Overlaps applies the half-open interval test.
func (b *Blackout) Overlaps(start, end time.Time) bool {
	return start.Before(b.EndTime) && end.After(b.StartTime)
}

type BlackoutRequest struct {
	StaffID   *uuid.UUID       `json:"staff_id"`
	Title     string           `json:"title" binding:"required" validate:"required,max=200"`
	StartTime time.Time        `json:"start_time" binding:"required"`
	EndTime   time.Time        `json:"end_time"`
	AllDay    bool             `json:"all_day"`
	Category  BlackoutCategory `json:"category" validate:"omitempty,oneof=vacation maintenance holiday other"`
}

type BlackoutFilters struct {
	ShopID     uuid.UUID
	StaffID    *uuid.UUID
	From       *time.Time
	To         *time.Time
	ActiveOnly bool
}
