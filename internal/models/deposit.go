package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DepositStatus is the canonical lifecycle status of a deposit
type DepositStatus string

const (
	DepositStatusPending           DepositStatus = "PENDING"
	DepositStatusCollected         DepositStatus = "COLLECTED"
	DepositStatusHeld              DepositStatus = "HELD"
	DepositStatusReleased          DepositStatus = "RELEASED"
	DepositStatusRetained          DepositStatus = "RETAINED"
	DepositStatusPartiallyRetained DepositStatus = "PARTIALLY_RETAINED"
)

// IsTerminal reports whether the status has no outgoing transitions
func (s DepositStatus) IsTerminal() bool {
	switch s {
	case DepositStatusReleased, DepositStatusRetained, DepositStatusPartiallyRetained:
		return true
	}
	return false
}

// IsOpen reports whether money is still held against the deposit
func (s DepositStatus) IsOpen() bool {
	switch s {
	case DepositStatusPending, DepositStatusCollected, DepositStatusHeld:
		return true
	}
	return false
}

// OpenStatuses lists the non-terminal statuses, for store filters
func OpenStatuses() []DepositStatus {
	return []DepositStatus{DepositStatusPending, DepositStatusCollected, DepositStatusHeld}
}

// statusAliases maps the legacy status names that accumulated in older storage
// schemas to the canonical set. Alias handling stays at this boundary; business
// logic only ever sees canonical statuses.
var statusAliases = map[string]DepositStatus{
	"PENDING":            DepositStatusPending,
	"COLLECTED":          DepositStatusCollected,
	"PAID":               DepositStatusCollected,
	"RECEIVED":           DepositStatusCollected,
	"HELD":               DepositStatusHeld,
	"AUTHORIZED":         DepositStatusHeld,
	"PREAUTH":            DepositStatusHeld,
	"RELEASED":           DepositStatusReleased,
	"REFUNDED":           DepositStatusReleased,
	"RETURNED":           DepositStatusReleased,
	"RETAINED":           DepositStatusRetained,
	"FORFEITED":          DepositStatusRetained,
	"PARTIALLY_RETAINED": DepositStatusPartiallyRetained,
	"PARTIAL":            DepositStatusPartiallyRetained,
	"PARTIAL_REFUND":     DepositStatusPartiallyRetained,
}

// CanonicalStatus resolves a stored status string (possibly a legacy alias) to
// the canonical enumeration. The second return value is false for unknown names.
func CanonicalStatus(raw string) (DepositStatus, bool) {
	s, ok := statusAliases[raw]
	return s, ok
}

// PaymentMethod is how the deposit was secured
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodCard         PaymentMethod = "CARD"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodCardPreauth  PaymentMethod = "CARD_PREAUTH"
)

// ValidPaymentMethod reports whether m is one of the known methods
func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodBankTransfer, PaymentMethodCardPreauth:
		return true
	}
	return false
}

// Retention reason codes. A stored reason may carry a free-form suffix after a
// colon ("EQUIPMENT_DAMAGE:crate lid broken"); reporting groups by the code part.
const (
	RetentionReasonEquipmentDamage = "EQUIPMENT_DAMAGE"
	RetentionReasonLateReturn      = "LATE_RETURN"
	RetentionReasonCleaning        = "CLEANING"
	RetentionReasonLoss            = "LOSS"
	RetentionReasonOther           = "OTHER"
)

// Deposit is the current snapshot of one rental deposit obligation. It is a
// projection of the latest DepositTransaction; the transaction log is the
// source of truth for reporting.
type Deposit struct {
	ID          int           `json:"id"`
	TenantID    int           `json:"tenant_id"`
	RentalID    int           `json:"rental_id"`
	RentalCode  string        `json:"rental_code"`
	WarehouseID int           `json:"warehouse_id"`
	Reference   string        `json:"reference"` // DEP-000042, from sequence

	Amount        decimal.Decimal `json:"amount"`
	Status        DepositStatus   `json:"status"`
	PaymentMethod PaymentMethod   `json:"payment_method"`

	// Set when the deposit is secured via card pre-authorization
	ExternalPaymentReference string `json:"external_payment_reference,omitempty"`

	// Settlement fields: nil until a terminal status is reached, then both set.
	// RetainedAmount + ReturnedAmount == Amount.
	RetainedAmount  *decimal.Decimal `json:"retained_amount,omitempty"`
	ReturnedAmount  *decimal.Decimal `json:"returned_amount,omitempty"`
	RetentionReason string           `json:"retention_reason,omitempty"`
	RetentionNote   string           `json:"retention_note,omitempty"`

	ReceivedAt time.Time  `json:"received_at"`
	SettledAt  *time.Time `json:"settled_at,omitempty"`
	ReceivedBy int        `json:"received_by"`
	SettledBy  *int       `json:"settled_by,omitempty"`

	// Version guards concurrent transitions (optimistic write check)
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DepositFilter is used for store queries. Zero/nil fields are ignored.
type DepositFilter struct {
	Statuses     []DepositStatus
	ReceivedFrom *time.Time
	ReceivedTo   *time.Time // inclusive upper bound
	SettledFrom  *time.Time
	SettledTo    *time.Time // inclusive upper bound
	WarehouseID  *int
}

// CreateDepositRequest is the HTTP payload for creating a deposit
type CreateDepositRequest struct {
	RentalID      int             `json:"rental_id"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
}

// HoldDepositRequest carries the card-terminal reference for a pre-authorization
type HoldDepositRequest struct {
	ExternalReference string `json:"external_reference"`
}

// RetainDepositRequest settles a deposit by withholding part or all of it
type RetainDepositRequest struct {
	Reason         string          `json:"reason"`
	Description    string          `json:"description"`
	RetainedAmount decimal.Decimal `json:"retained_amount"`
}
