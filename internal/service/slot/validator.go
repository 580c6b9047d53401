package slot

import (
	"time"

	"github.com/jwalitptl/barber-api/internal/model"
)

// Reason is the machine-readable outcome of a slot check.
type Reason string

const (
	ReasonAccepted        Reason = "accepted"
	ReasonShopClosed      Reason = "shop-closed"
	ReasonOutsideHours    Reason = "outside-hours"
	ReasonStaffBlocked    Reason = "staff-blocked"
	ReasonDoubleBooked    Reason = "double-booked"
	ReasonInvalidDuration Reason = "invalid-duration"
)

// Decision is the result of validating one slot.
type Decision struct {
	Accepted bool   `json:"accepted"`
	Reason   Reason `json:"reason"`
}

func accept() Decision            { return Decision{Accepted: true, Reason: ReasonAccepted} }
func reject(r Reason) Decision    { return Decision{Reason: r} }
func (d Decision) String() string { return string(d.Reason) }

// Policy holds the tunables that are not stored per shop.
type Policy struct {
	// ClosedWhenUnconfigured treats a day without hours as closed instead of using the defaults.
	ClosedWhenUnconfigured bool
	DefaultOpen            time.Duration
	DefaultClose           time.Duration
	// RequireEndWithinHours also rejects slots that run past closing.
	RequireEndWithinHours bool
	MaxDuration           time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		DefaultOpen:  8 * time.Hour,
		DefaultClose: 18 * time.Hour,
		MaxDuration:  8 * time.Hour,
	}
}

// Input is everything Validate needs. Hours nil means the shop has no row for that weekday;
// callers must load Hours for the weekday of Start in Location.
type Input struct {
	Start     time.Time
	Duration  time.Duration
	Location  *time.Location
	Hours     *model.BusinessHours
	Blackouts []*model.Blackout
	Existing  []*model.Appointment
}

// Validate decides whether the slot can be booked. Checks run in a fixed order and stop at the
// first failure: calendar day, opening hours, blackouts, existing bookings.
func Validate(in Input, p Policy) Decision {
	if in.Duration <= 0 || (p.MaxDuration > 0 && in.Duration > p.MaxDuration) {
		return reject(ReasonInvalidDuration)
	}

	loc := in.Location
	if loc == nil {
		loc = time.UTC
	}
	local := in.Start.In(loc)
	end := in.Start.Add(in.Duration)

	open, closeAt, closed := p.window(in.Hours)
	if closed {
		return reject(ReasonShopClosed)
	}

	offset := sinceMidnight(local)
	if offset < open || offset >= closeAt {
		return reject(ReasonOutsideHours)
	}
	if p.RequireEndWithinHours && offset+in.Duration > closeAt {
		return reject(ReasonOutsideHours)
	}

	for _, b := range in.Blackouts {
		if b == nil || !b.Active {
			continue
		}
		if b.Overlaps(in.Start, end) {
			return reject(ReasonStaffBlocked)
		}
	}

	for _, a := range in.Existing {
		if a == nil || !a.Status.BlocksCalendar() {
			continue
		}
		if Overlaps(in.Start, end, a.StartTime, a.End()) {
			return reject(ReasonDoubleBooked)
		}
	}

	return accept()
}

// Overlaps is the half-open interval test [aStart, aEnd) against [bStart, bEnd).
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// window resolves the opening window for a day. Unparseable stored hours count as closed.
func (p Policy) window(h *model.BusinessHours) (open, closeAt time.Duration, closed bool) {
	if h == nil {
		if p.ClosedWhenUnconfigured {
			return 0, 0, true
		}
		return p.DefaultOpen, p.DefaultClose, false
	}
	if h.Closed {
		return 0, 0, true
	}
	open, closeAt, err := h.Window()
	if err != nil || open >= closeAt {
		return 0, 0, true
	}
	return open, closeAt, false
}

func sinceMidnight(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second +
		time.Duration(t.Nanosecond())
}
