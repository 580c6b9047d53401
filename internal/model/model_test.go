package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppointmentStatusPredicates(t *testing.T) {
	assert.True(t, AppointmentStatusCompleted.IsTerminal())
	assert.True(t, AppointmentStatusCancelled.IsTerminal())
	assert.True(t, AppointmentStatusNoShow.IsTerminal())
	assert.False(t, AppointmentStatusConfirmed.IsTerminal())
	assert.False(t, AppointmentStatusInProgress.IsTerminal())

	assert.False(t, AppointmentStatusCancelled.BlocksCalendar())
	assert.False(t, AppointmentStatusNoShow.BlocksCalendar())
	assert.True(t, AppointmentStatusCompleted.BlocksCalendar())

	assert.False(t, AppointmentStatus("scheduled").Valid())
}

func TestAppointmentEndIsDerived(t *testing.T) {
	start := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	a := Appointment{StartTime: start, DurationMinutes: 30, EndTime: start}
	assert.Equal(t, start.Add(30*time.Minute), a.End())
}

func TestMinutesDurationBounds(t *testing.T) {
	assert.Equal(t, 30*time.Minute, MinutesDuration(30))
	assert.Equal(t, 24*time.Hour, MinutesDuration(MaxDurationMinutes))
	assert.Zero(t, MinutesDuration(0))
	assert.Zero(t, MinutesDuration(-5))
	assert.Zero(t, MinutesDuration(MaxDurationMinutes+1))
	// 2^53 minutes wraps int64 nanoseconds back to exactly 30m when multiplied unchecked.
	assert.Zero(t, MinutesDuration(30+1<<53))

	a := Appointment{DurationMinutes: 30 + 1<<53}
	assert.Zero(t, a.Duration())
}

func TestBlackoutOverlapIsHalfOpen(t *testing.T) {
	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	b := Blackout{StartTime: day.Add(9 * time.Hour), EndTime: day.Add(12 * time.Hour)}

	assert.True(t, b.Overlaps(day.Add(10*time.Hour), day.Add(10*time.Hour+30*time.Minute)))
	assert.False(t, b.Overlaps(day.Add(12*time.Hour), day.Add(12*time.Hour+30*time.Minute)))
	assert.False(t, b.Overlaps(day.Add(8*time.Hour+30*time.Minute), day.Add(9*time.Hour)))
	assert.True(t, b.Overlaps(day.Add(8*time.Hour), day.Add(13*time.Hour)))
}

func TestParseClockTime(t *testing.T) {
	d, err := ParseClockTime("09:30")
	require.NoError(t, err)
	assert.Equal(t, 9*time.Hour+30*time.Minute, d)

	_, err = ParseClockTime("25:00")
	assert.Error(t, err)

	h := BusinessHours{OpenTime: "08:00", CloseTime: "18:00"}
	open, closeAt, err := h.Window()
	require.NoError(t, err)
	assert.Equal(t, 8*time.Hour, open)
	assert.Equal(t, 18*time.Hour, closeAt)
}

func TestShopLocationFallsBackToUTC(t *testing.T) {
	assert.Equal(t, time.UTC, (&Shop{Timezone: "Not/AZone"}).Location())
	assert.Equal(t, time.UTC, (*Shop)(nil).Location())
}

func TestSaleItemsRoundTripThroughDriver(t *testing.T) {
	svc := uuid.New()
	items := SaleItems{{Description: "Fade", ServiceID: &svc, Quantity: 1, UnitPrice: decimal.RequireFromString("25.50")}}

	v, err := items.Value()
	require.NoError(t, err)

	var scanned SaleItems
	require.NoError(t, scanned.Scan(v))
	require.Len(t, scanned, 1)
	assert.Equal(t, "Fade", scanned[0].Description)
	assert.True(t, scanned[0].UnitPrice.Equal(decimal.RequireFromString("25.5")))

	var empty SaleItems
	v, err = empty.Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), v)
}
