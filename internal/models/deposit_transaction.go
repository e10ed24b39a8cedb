package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DepositTransactionType names the lifecycle action a ledger entry records
type DepositTransactionType string

const (
	DepositTxReceive DepositTransactionType = "RECEIVE"
	DepositTxCollect DepositTransactionType = "COLLECT"
	DepositTxHold    DepositTransactionType = "HOLD"
	DepositTxRelease DepositTransactionType = "RELEASE"
	DepositTxRetain  DepositTransactionType = "RETAIN"
)

// DepositTransaction is one immutable ledger entry. Exactly one is appended per
// successful transition; entries are never updated or deleted.
type DepositTransaction struct {
	ID              int                    `json:"id"`
	TenantID        int                    `json:"tenant_id"`
	DepositID       int                    `json:"deposit_id"`
	Type            DepositTransactionType `json:"type"`
	Amount          decimal.Decimal        `json:"amount"`
	PaymentMethod   PaymentMethod          `json:"payment_method"`
	Actor           int                    `json:"actor"`
	Note            string                 `json:"note,omitempty"`
	ExternalReference string               `json:"external_reference,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
}

// ReplayDeposit rebuilds a deposit projection by applying the transaction
// stream in order onto a freshly received deposit. Reporting never depends on
// it at runtime; tests use it to check that the snapshot and the ledger agree.
func ReplayDeposit(seed Deposit, txs []*DepositTransaction) Deposit {
	d := seed
	d.Status = DepositStatusPending
	d.RetainedAmount = nil
	d.ReturnedAmount = nil
	d.SettledAt = nil
	d.SettledBy = nil

	for _, tx := range txs {
		switch tx.Type {
		case DepositTxReceive:
			d.Status = DepositStatusPending
			d.ReceivedAt = tx.CreatedAt
			d.ReceivedBy = tx.Actor
		case DepositTxCollect:
			d.Status = DepositStatusCollected
		case DepositTxHold:
			d.Status = DepositStatusHeld
			d.ExternalPaymentReference = tx.ExternalReference
		case DepositTxRelease:
			returned := d.Amount
			retained := decimal.Zero
			d.Status = DepositStatusReleased
			d.ReturnedAmount = &returned
			d.RetainedAmount = &retained
			at := tx.CreatedAt
			actor := tx.Actor
			d.SettledAt = &at
			d.SettledBy = &actor
		case DepositTxRetain:
			retained := tx.Amount
			returned := d.Amount.Sub(tx.Amount)
			if retained.Equal(d.Amount) {
				d.Status = DepositStatusRetained
			} else {
				d.Status = DepositStatusPartiallyRetained
			}
			d.RetainedAmount = &retained
			d.ReturnedAmount = &returned
			d.RetentionNote = tx.Note
			at := tx.CreatedAt
			actor := tx.Actor
			d.SettledAt = &at
			d.SettledBy = &actor
		}
	}
	return d
}
