package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReturnedRental is one row from the rental feed: a rental marked returned,
// together with the deposit amounts recorded on the rental itself. The feed is
// an external stream with no referential-integrity guarantee against deposits.
type ReturnedRental struct {
	RentalID        int             `json:"rental_id"`
	Code            string          `json:"code"`
	RequiredDeposit decimal.Decimal `json:"required_deposit"`
	ReturnedDeposit decimal.Decimal `json:"returned_deposit"`
	RetainedDeposit decimal.Decimal `json:"retained_deposit"`
	ReturnedAt      time.Time       `json:"returned_at"`
}

// RentalInfo is the minimal rental lookup the deposit engine needs at creation
type RentalInfo struct {
	RentalID    int    `json:"rental_id"`
	Code        string `json:"code"`
	WarehouseID int    `json:"warehouse_id"`
}
