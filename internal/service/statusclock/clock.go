package statusclock

import (
	"time"

	"github.com/jwalitptl/barber-api/internal/model"
)

// Next returns the status an appointment should hold at now. Only confirmed and
// in_progress advance; pending waits for a manual confirmation and terminal states never move.
// A confirmed appointment first observed after its end goes straight to completed.
func Next(status model.AppointmentStatus, start, end, now time.Time) (model.AppointmentStatus, bool) {
	switch status {
	case model.AppointmentStatusConfirmed:
		if !now.Before(end) {
			return model.AppointmentStatusCompleted, true
		}
		if !now.Before(start) {
			return model.AppointmentStatusInProgress, true
		}
	case model.AppointmentStatusInProgress:
		if !now.Before(end) {
			return model.AppointmentStatusCompleted, true
		}
	}
	return status, false
}
