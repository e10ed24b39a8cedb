package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MoneyTotal is a count plus an exact sum
type MoneyTotal struct {
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// AmountByMethod breaks a sum down by payment method
type AmountByMethod map[PaymentMethod]decimal.Decimal

// Add accumulates amount under method, allocating the map if needed
func (m AmountByMethod) Add(method PaymentMethod, amount decimal.Decimal) {
	m[method] = m[method].Add(amount)
}

// SummarySection is one flow bucket of the accounting summary
type SummarySection struct {
	Count    int             `json:"count"`
	Amount   decimal.Decimal `json:"amount"`
	ByMethod AmountByMethod  `json:"by_method"`
}

// PartialSection tracks partial retentions: the retained and released
// sub-amounts move in opposite directions and are reported separately
type PartialSection struct {
	Count    int             `json:"count"`
	Retained decimal.Decimal `json:"retained"`
	Released decimal.Decimal `json:"released"`
	ByMethod AmountByMethod  `json:"by_method"` // retained portion by method
}

// AccountingSummary is the period accounting report (§ accounting aggregator)
type AccountingSummary struct {
	TenantID    int        `json:"tenant_id"`
	PeriodStart time.Time  `json:"period_start"`
	PeriodEnd   time.Time  `json:"period_end"`
	WarehouseID *int       `json:"warehouse_id,omitempty"`

	Received          SummarySection `json:"received"`
	Released          SummarySection `json:"released"`
	Retained          SummarySection `json:"retained"`
	PartiallyRetained PartialSection `json:"partially_retained"`

	// Outstanding is a point-in-time balance at period end, not a period flow
	Outstanding SummarySection `json:"outstanding"`

	// ByReason groups all retained amounts by reason code prefix
	ByReason map[string]decimal.Decimal `json:"by_reason"`

	// NetChange = received - (released + partially_retained.released)
	NetChange decimal.Decimal `json:"net_change"`
}

// DepositLine is one deposit listed on the daily report for manual audit
type DepositLine struct {
	DepositID  int             `json:"deposit_id"`
	Reference  string          `json:"reference"`
	RentalCode string          `json:"rental_code"`
	Amount     decimal.Decimal `json:"amount"`
	Method     PaymentMethod   `json:"method"`
	Timestamp  time.Time       `json:"timestamp"`
}

// Movement is money through a till for one day
type Movement struct {
	In  decimal.Decimal `json:"in"`
	Out decimal.Decimal `json:"out"`
}

// DailyReport covers one calendar day of deposit activity
type DailyReport struct {
	TenantID    int        `json:"tenant_id"`
	Date        time.Time  `json:"date"`
	WarehouseID *int       `json:"warehouse_id,omitempty"`

	OpeningBalance MoneyTotal `json:"opening_balance"`
	ClosingBalance MoneyTotal `json:"closing_balance"`

	Received []DepositLine `json:"received"`
	Released []DepositLine `json:"released"`
	Retained []DepositLine `json:"retained"`

	CashMovement Movement `json:"cash_movement"`
	CardMovement Movement `json:"card_movement"`
}

// MissingDeposit flags a returned rental that required a deposit none was recorded for
type MissingDeposit struct {
	RentalID       int             `json:"rental_id"`
	RentalCode     string          `json:"rental_code"`
	ExpectedAmount decimal.Decimal `json:"expected_amount"`
	ReturnedAt     time.Time       `json:"returned_at"`
}

// AmountMismatch flags a deposit whose amount disagrees with the rental record
type AmountMismatch struct {
	RentalID       int             `json:"rental_id"`
	RentalCode     string          `json:"rental_code"`
	DepositID      int             `json:"deposit_id"`
	ExpectedAmount decimal.Decimal `json:"expected_amount"`
	ActualAmount   decimal.Decimal `json:"actual_amount"`
}

// MissingReturn flags an open deposit held past its rental's return
type MissingReturn struct {
	DepositID  int             `json:"deposit_id"`
	Reference  string          `json:"reference"`
	RentalID   int             `json:"rental_id"`
	RentalCode string          `json:"rental_code"`
	Amount     decimal.Decimal `json:"amount"`
	Status     DepositStatus   `json:"status"`
	ReceivedAt time.Time       `json:"received_at"`
	DaysHeld   int             `json:"days_held"`
}

// ReconciliationResult cross-checks settled rentals against deposit records.
// It is purely informational; nothing is auto-corrected.
type ReconciliationResult struct {
	TenantID    int       `json:"tenant_id"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`

	Matched         int              `json:"matched"`
	MissingDeposits []MissingDeposit `json:"missing_deposits"`
	AmountMismatches []AmountMismatch `json:"amount_mismatches"`
	MissingReturns  []MissingReturn  `json:"missing_returns"`
}

// AgingBucket accumulates open deposits of one age band
type AgingBucket struct {
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// AgingDetail is one open deposit on the aging drill-down list
type AgingDetail struct {
	DepositID  int             `json:"deposit_id"`
	Reference  string          `json:"reference"`
	RentalCode string          `json:"rental_code"`
	Amount     decimal.Decimal `json:"amount"`
	Status     DepositStatus   `json:"status"`
	ReceivedAt time.Time       `json:"received_at"`
	DaysHeld   int             `json:"days_held"`
}

// AgingReport buckets currently open deposits by days held
type AgingReport struct {
	TenantID int       `json:"tenant_id"`
	AsOf     time.Time `json:"as_of"`

	Current AgingBucket `json:"current"` // 0-7 days
	Week1   AgingBucket `json:"week1"`   // 8-14
	Week2   AgingBucket `json:"week2"`   // 15-21
	Week3   AgingBucket `json:"week3"`   // 22-28
	Over28  AgingBucket `json:"over28"`  // 29+

	Total   AgingBucket   `json:"total"`
	Details []AgingDetail `json:"details"` // sorted by days held desc, capped at 100
}
