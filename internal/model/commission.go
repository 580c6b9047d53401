package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CommissionRule overrides the commission percentage for one (staff, service) pair.
type CommissionRule struct {
	Base
	ShopID    uuid.UUID       `db:"shop_id" json:"shop_id"`
	StaffID   uuid.UUID       `db:"staff_id" json:"staff_id"`
	ServiceID uuid.UUID       `db:"service_id" json:"service_id"`
	Rate      decimal.Decimal `db:"rate" json:"rate"`
}

type Commission struct {
	Base
	ShopID  uuid.UUID       `db:"shop_id" json:"shop_id"`
	StaffID uuid.UUID       `db:"staff_id" json:"staff_id"`
	SaleID  uuid.UUID       `db:"sale_id" json:"sale_id"`
	Amount  decimal.Decimal `db:"amount" json:"amount"`
	Rate    decimal.Decimal `db:"rate" json:"rate"`
	Paid    bool            `db:"paid" json:"paid"`
	PaidAt  *time.Time      `db:"paid_at" json:"paid_at,omitempty"`
}

type CommissionRuleRequest struct {
	StaffID   uuid.UUID       `json:"staff_id" binding:"required"`
	ServiceID uuid.UUID       `json:"service_id" binding:"required"`
	Rate      decimal.Decimal `json:"rate" validate:"percent"`
}

type CommissionFilters struct {
	ShopID  uuid.UUID
	StaffID *uuid.UUID
	Paid    *bool
	From    *time.Time
	To      *time.Time
}

type PayoutSummary struct {
	StaffID     uuid.UUID       `db:"staff_id" json:"staff_id"`
	PaidTotal   decimal.Decimal `db:"paid_total" json:"paid_total"`
	UnpaidTotal decimal.Decimal `db:"unpaid_total" json:"unpaid_total"`
	Count       int             `db:"count" json:"count"`
}
