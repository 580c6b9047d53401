package event

import (
	"context"

	"github.com/google/uuid"
)

// Emitter writes domain events to the outbox. Callers pass a context bound to their
// transaction so the event commits or rolls back with the change it describes.
type Emitter interface {
	Emit(ctx context.Context, aggregateID uuid.UUID, eventType string, payload interface{}) error
}

// Payloads carried by the outbox, keyed by event type.

type AppointmentBooked struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	ShopID        uuid.UUID `json:"shop_id"`
	StaffID       uuid.UUID `json:"staff_id"`
	ClientID      uuid.UUID `json:"client_id"`
	StartTime     string    `json:"start_time"`
	EndTime       string    `json:"end_time"`
}

type StatusChanged struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	ShopID        uuid.UUID `json:"shop_id"`
	From          string    `json:"from"`
	To            string    `json:"to"`
	// Source is "clock" for automatic transitions and "manual" otherwise.
	Source string `json:"source"`
}

type AppointmentDeleted struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	ShopID        uuid.UUID `json:"shop_id"`
}

type SettlementCompleted struct {
	AppointmentID uuid.UUID  `json:"appointment_id"`
	ShopID        uuid.UUID  `json:"shop_id"`
	SaleID        uuid.UUID  `json:"sale_id"`
	CommissionID  *uuid.UUID `json:"commission_id,omitempty"`
	Total         string     `json:"total"`
	Commission    string     `json:"commission,omitempty"`
	Rate          string     `json:"rate,omitempty"`
	RateSource    string     `json:"rate_source,omitempty"`
}

type CommissionPaid struct {
	CommissionID uuid.UUID `json:"commission_id"`
	ShopID       uuid.UUID `json:"shop_id"`
	StaffID      uuid.UUID `json:"staff_id"`
	Amount       string    `json:"amount"`
	PaidAt       string    `json:"paid_at"`
}
