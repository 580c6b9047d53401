package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "cash"
	PaymentMethodCard     PaymentMethod = "card"
	PaymentMethodTransfer PaymentMethod = "transfer"
	PaymentMethodOther    PaymentMethod = "other"
)

func (p PaymentMethod) Valid() bool {
	switch p {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodTransfer, PaymentMethodOther:
		return true
	}
	return false
}

type SaleItem struct {
	Description string          `json:"description"`
	ServiceID   *uuid.UUID      `json:"service_id,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// SaleItems is stored as JSONB.
type SaleItems []SaleItem

func (s SaleItems) Value() (driver.Value, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s)
}

func (s *SaleItems) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*s = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported sale items type %T", src)
	}
	return json.Unmarshal(data, s)
}

// Sale is only ever created by settlement. Amounts are immutable once written.
type Sale struct {
	Base
	ShopID        uuid.UUID       `db:"shop_id" json:"shop_id"`
	ClientID      uuid.UUID       `db:"client_id" json:"client_id"`
	StaffID       uuid.UUID       `db:"staff_id" json:"staff_id"`
	AppointmentID *uuid.UUID      `db:"appointment_id" json:"appointment_id,omitempty"`
	Items         SaleItems       `db:"items" json:"items"`
	Total         decimal.Decimal `db:"total" json:"total"`
	PaymentMethod PaymentMethod   `db:"payment_method" json:"payment_method"`
}

type SaleFilters struct {
	ShopID  uuid.UUID
	StaffID *uuid.UUID
	From    *time.Time
	To      *time.Time
}

// Settlement is the pair of records produced for one completed appointment.
type Settlement struct {
	Sale       *Sale       `json:"sale"`
	Commission *Commission `json:"commission,omitempty"`
	RateSource string      `json:"rate_source,omitempty"`
}
