package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service is a bookable catalog entry. The catalog itself is managed elsewhere.
type Service struct {
	Base
	ShopID   uuid.UUID       `db:"shop_id" json:"shop_id"`
	Name     string          `db:"name" json:"name"`
	Duration int             `db:"duration" json:"duration"` // in minutes
	Price    decimal.Decimal `db:"price" json:"price"`
	Status   string          `db:"status" json:"status"`
}
