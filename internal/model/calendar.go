package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// BusinessHours is one day of a shop's weekly calendar. Times are "HH:MM" in shop local time.
type BusinessHours struct {
	ShopID    uuid.UUID `db:"shop_id" json:"shop_id"`
	DayOfWeek int       `db:"day_of_week" json:"day_of_week" validate:"gte=0,lte=6"`
	Closed    bool      `db:"closed" json:"closed"`
	OpenTime  string    `db:"open_time" json:"open_time" validate:"required_if=Closed false,omitempty,clocktime"`
	CloseTime string    `db:"close_time" json:"close_time" validate:"required_if=Closed false,omitempty,clocktime"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

func (h *BusinessHours) Weekday() time.Weekday {
	return time.Weekday(h.DayOfWeek)
}

// Window returns open and close as offsets from local midnight.
func (h *BusinessHours) Window() (open, close time.Duration, err error) {
	open, err = ParseClockTime(h.OpenTime)
	if err != nil {
		return 0, 0, fmt.Errorf("open_time: %w", err)
	}
	close, err = ParseClockTime(h.CloseTime)
	if err != nil {
		return 0, 0, fmt.Errorf("close_time: %w", err)
	}
	return open, close, nil
}

// ParseClockTime parses "HH:MM" into an offset from midnight.
func ParseClockTime(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

type SetHoursRequest struct {
	Days []BusinessHours `json:"days" binding:"required,min=1,max=7,dive"`
}
