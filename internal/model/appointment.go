package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AppointmentStatus string

const (
	AppointmentStatusPending    AppointmentStatus = "pending"
	AppointmentStatusConfirmed  AppointmentStatus = "confirmed"
	AppointmentStatusInProgress AppointmentStatus = "in_progress"
	AppointmentStatusCompleted  AppointmentStatus = "completed"
	AppointmentStatusCancelled  AppointmentStatus = "cancelled"
	AppointmentStatusNoShow     AppointmentStatus = "no_show"
)

// IsTerminal reports whether no further transition is allowed.
func (s AppointmentStatus) IsTerminal() bool {
	switch s {
	case AppointmentStatusCompleted, AppointmentStatusCancelled, AppointmentStatusNoShow:
		return true
	}
	return false
}

// BlocksCalendar reports whether an appointment in this status occupies its slot.
func (s AppointmentStatus) BlocksCalendar() bool {
	return s != AppointmentStatusCancelled && s != AppointmentStatusNoShow
}

func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusPending, AppointmentStatusConfirmed, AppointmentStatusInProgress,
		AppointmentStatusCompleted, AppointmentStatusCancelled, AppointmentStatusNoShow:
		return true
	}
	return false
}

type Appointment struct {
	Base
	ShopID          uuid.UUID         `db:"shop_id" json:"shop_id"`
	StaffID         uuid.UUID         `db:"staff_id" json:"staff_id"`
	ServiceID       uuid.UUID         `db:"service_id" json:"service_id"`
	ClientID        uuid.UUID         `db:"client_id" json:"client_id"`
	StartTime       time.Time         `db:"start_time" json:"start_time"`
	DurationMinutes int               `db:"duration_minutes" json:"duration_minutes"`
	EndTime         time.Time         `db:"end_time" json:"end_time"`
	Status          AppointmentStatus `db:"status" json:"status"`
	Price           *decimal.Decimal  `db:"price" json:"price,omitempty"`
	Notes           string            `db:"notes" json:"notes,omitempty"`
	CancelReason    *string           `db:"cancel_reason" json:"cancel_reason,omitempty"`
}

// End is always recomputed from start and duration; the stored end_time only feeds indexes.
func (a *Appointment) End() time.Time {
	return a.StartTime.Add(a.Duration())
}

func (a *Appointment) Duration() time.Duration {
	return MinutesDuration(a.DurationMinutes)
}

// MaxDurationMinutes bounds every duration_minutes input. Longer values could wrap time.Duration.
const MaxDurationMinutes = 24 * 60

// MinutesDuration converts a minute count from input. Counts outside (0, MaxDurationMinutes]
// give 0, which validation reports as an invalid duration.
func MinutesDuration(minutes int) time.Duration {
	if minutes <= 0 || minutes > MaxDurationMinutes {
		return 0
	}
	return time.Duration(minutes) * time.Minute
}

type CreateAppointmentRequest struct {
	StaffID         uuid.UUID        `json:"staff_id" binding:"required" validate:"required"`
	ServiceID       uuid.UUID        `json:"service_id" binding:"required" validate:"required"`
	ClientID        uuid.UUID        `json:"client_id" binding:"required" validate:"required"`
	StartTime       time.Time        `json:"start_time" binding:"required" validate:"required"`
	DurationMinutes int              `json:"duration_minutes" validate:"gte=0,lte=1440"`
	Price           *decimal.Decimal `json:"price" validate:"omitempty,nonnegative"`
	Notes           string           `json:"notes" validate:"max=1000"`
}

type TransitionRequest struct {
	Status        AppointmentStatus `json:"status" binding:"required"`
	PaymentMethod PaymentMethod     `json:"payment_method"`
	Reason        string            `json:"reason" validate:"max=500"`
}

type CancelRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type SlotRequest struct {
	StaffID         uuid.UUID `json:"staff_id" form:"staff_id" binding:"required"`
	StartTime       time.Time `json:"start_time" form:"start_time" binding:"required"`
	DurationMinutes int       `json:"duration_minutes" form:"duration_minutes"`
}

type TimeSlot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type AppointmentFilters struct {
	ShopID    uuid.UUID
	StaffID   *uuid.UUID
	ClientID  *uuid.UUID
	Status    *AppointmentStatus
	StartDate *time.Time
	EndDate   *time.Time
	Limit     uint64
	Offset    uint64
}
