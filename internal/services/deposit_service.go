package services

import (
	"context"
	"errors"
	"log"

	"deposit-backend/internal/metrics"
	"deposit-backend/internal/models"
	"deposit-backend/internal/timeutil"

	"github.com/shopspring/decimal"
)

// transitionGuards maps each operation to the statuses it is allowed from.
// Terminal statuses appear in no list, so every transition is decidable from
// (current status, operation) alone.
var transitionGuards = map[string][]models.DepositStatus{
	"collect": {models.DepositStatusPending},
	"hold":    {models.DepositStatusPending, models.DepositStatusCollected},
	"release": {models.DepositStatusCollected, models.DepositStatusHeld},
	"retain":  {models.DepositStatusCollected, models.DepositStatusHeld},
}

// DepositService runs the deposit lifecycle state machine. Every successful
// transition writes the updated snapshot, appends exactly one ledger entry,
// then re-reads and returns the deposit. Guard failures mutate nothing.
type DepositService struct {
	Deposits DepositStore
	Ledger   TransactionLog
	Rentals  RentalFeed
	Clock    timeutil.Clock
}

func NewDepositService(deposits DepositStore, ledger TransactionLog, rentals RentalFeed, clock timeutil.Clock) *DepositService {
	return &DepositService{
		Deposits: deposits,
		Ledger:   ledger,
		Rentals:  rentals,
		Clock:    clock,
	}
}

// Create records a new deposit obligation in status PENDING and appends the
// RECEIVE ledger entry. A rental can have at most one deposit.
func (s *DepositService) Create(ctx context.Context, tenantID, rentalID int, amount decimal.Decimal, method models.PaymentMethod, actor int) (*models.Deposit, error) {
	if !amount.IsPositive() {
		return nil, &models.ValidationError{Field: "amount", Reason: "must be greater than zero"}
	}
	if !models.ValidPaymentMethod(method) {
		return nil, &models.ValidationError{Field: "payment_method", Reason: "unknown payment method " + string(method)}
	}

	if existing, err := s.Deposits.GetByRentalID(ctx, tenantID, rentalID); err == nil && existing != nil {
		return nil, &models.DuplicateDepositError{RentalID: rentalID}
	} else if err != nil {
		var nf *models.NotFoundError
		if !errors.As(err, &nf) {
			return nil, err
		}
	}

	// The rental feed has no integrity guarantee; a deposit taken for a
	// rental the feed cannot resolve is still recorded.
	rentalCode := ""
	warehouseID := 0
	if info, err := s.Rentals.FindByID(ctx, tenantID, rentalID); err == nil && info != nil {
		rentalCode = info.Code
		warehouseID = info.WarehouseID
	} else if err != nil {
		var nf *models.NotFoundError
		if !errors.As(err, &nf) {
			return nil, err
		}
		log.Printf("[Deposit] rental %d not found in feed, recording deposit without code", rentalID)
	}

	now := s.Clock.Now()
	deposit := &models.Deposit{
		TenantID:      tenantID,
		RentalID:      rentalID,
		RentalCode:    rentalCode,
		WarehouseID:   warehouseID,
		Amount:        amount,
		Status:        models.DepositStatusPending,
		PaymentMethod: method,
		ReceivedAt:    now,
		ReceivedBy:    actor,
	}

	if err := s.Deposits.Create(ctx, deposit); err != nil {
		return nil, err
	}

	if err := s.appendTx(ctx, deposit, models.DepositTxReceive, amount, actor, "", ""); err != nil {
		return nil, err
	}

	metrics.DepositTransitionsTotal.WithLabelValues("create", "ok").Inc()
	return s.Deposits.GetByID(ctx, tenantID, deposit.ID)
}

// Collect marks a pending cash/card deposit as physically collected
func (s *DepositService) Collect(ctx context.Context, tenantID, depositID, actor int) (*models.Deposit, error) {
	return s.transition(ctx, tenantID, depositID, "collect", func(d *models.Deposit) error {
		d.Status = models.DepositStatusCollected
		return nil
	}, func(d *models.Deposit) *models.DepositTransaction {
		return s.newTx(d, models.DepositTxCollect, d.Amount, actor, "", "")
	})
}

// Hold records a card pre-authorization securing the deposit
func (s *DepositService) Hold(ctx context.Context, tenantID, depositID int, externalRef string, actor int) (*models.Deposit, error) {
	return s.transition(ctx, tenantID, depositID, "hold", func(d *models.Deposit) error {
		d.Status = models.DepositStatusHeld
		d.ExternalPaymentReference = externalRef
		return nil
	}, func(d *models.Deposit) *models.DepositTransaction {
		return s.newTx(d, models.DepositTxHold, d.Amount, actor, "", externalRef)
	})
}

// Release returns the full deposit to the customer
func (s *DepositService) Release(ctx context.Context, tenantID, depositID, actor int) (*models.Deposit, error) {
	return s.transition(ctx, tenantID, depositID, "release", func(d *models.Deposit) error {
		returned := d.Amount
		retained := decimal.Zero
		now := s.Clock.Now()
		d.Status = models.DepositStatusReleased
		d.ReturnedAmount = &returned
		d.RetainedAmount = &retained
		d.SettledAt = &now
		d.SettledBy = &actor
		return nil
	}, func(d *models.Deposit) *models.DepositTransaction {
		return s.newTx(d, models.DepositTxRelease, d.Amount, actor, "", "")
	})
}

// Retain settles the deposit by withholding retainedAmount and returning the
// rest. It is the single settlement entry point for both full and partial
// retentions; the terminal status is derived from the amount.
func (s *DepositService) Retain(ctx context.Context, tenantID, depositID int, reason, description string, retainedAmount decimal.Decimal, actor int) (*models.Deposit, error) {
	if retainedAmount.IsNegative() {
		return nil, &models.ValidationError{Field: "retained_amount", Reason: "must not be negative"}
	}
	if retainedAmount.IsPositive() && reason == "" {
		return nil, &models.ValidationError{Field: "reason", Reason: "required when retaining money"}
	}

	return s.transition(ctx, tenantID, depositID, "retain", func(d *models.Deposit) error {
		if retainedAmount.GreaterThan(d.Amount) {
			return &models.ValidationError{Field: "retained_amount", Reason: "exceeds deposit amount"}
		}
		retained := retainedAmount
		returned := d.Amount.Sub(retainedAmount)
		now := s.Clock.Now()
		if retainedAmount.Equal(d.Amount) {
			d.Status = models.DepositStatusRetained
		} else {
			d.Status = models.DepositStatusPartiallyRetained
		}
		d.RetainedAmount = &retained
		d.ReturnedAmount = &returned
		d.RetentionReason = reason
		d.RetentionNote = description
		d.SettledAt = &now
		d.SettledBy = &actor
		return nil
	}, func(d *models.Deposit) *models.DepositTransaction {
		return s.newTx(d, models.DepositTxRetain, retainedAmount, actor, description, "")
	})
}

// Get returns one deposit
func (s *DepositService) Get(ctx context.Context, tenantID, depositID int) (*models.Deposit, error) {
	return s.Deposits.GetByID(ctx, tenantID, depositID)
}

// List returns deposits matching the filter
func (s *DepositService) List(ctx context.Context, tenantID int, filter models.DepositFilter) ([]*models.Deposit, error) {
	return s.Deposits.List(ctx, tenantID, filter)
}

// ListTransactions returns the deposit's ledger entries, oldest first
func (s *DepositService) ListTransactions(ctx context.Context, tenantID, depositID int) ([]*models.DepositTransaction, error) {
	if _, err := s.Deposits.GetByID(ctx, tenantID, depositID); err != nil {
		return nil, err
	}
	return s.Ledger.ListByDeposit(ctx, tenantID, depositID)
}

// transition runs one guarded state change: read, validate, write the snapshot
// with the optimistic version check, append the ledger entry, re-read
func (s *DepositService) transition(
	ctx context.Context,
	tenantID, depositID int,
	operation string,
	apply func(*models.Deposit) error,
	buildTx func(*models.Deposit) *models.DepositTransaction,
) (*models.Deposit, error) {
	deposit, err := s.Deposits.GetByID(ctx, tenantID, depositID)
	if err != nil {
		metrics.DepositTransitionsTotal.WithLabelValues(operation, "error").Inc()
		return nil, err
	}

	allowed := transitionGuards[operation]
	if !statusAllowed(deposit.Status, allowed) {
		metrics.DepositTransitionsTotal.WithLabelValues(operation, "rejected").Inc()
		return nil, &models.InvalidTransitionError{
			Current:   deposit.Status,
			Operation: operation,
			Allowed:   allowed,
		}
	}

	if err := apply(deposit); err != nil {
		metrics.DepositTransitionsTotal.WithLabelValues(operation, "rejected").Inc()
		return nil, err
	}

	if err := s.Deposits.UpdateStatus(ctx, deposit); err != nil {
		metrics.DepositTransitionsTotal.WithLabelValues(operation, "error").Inc()
		return nil, err
	}

	if err := s.Ledger.Append(ctx, buildTx(deposit)); err != nil {
		return nil, err
	}

	metrics.DepositTransitionsTotal.WithLabelValues(operation, "ok").Inc()
	return s.Deposits.GetByID(ctx, tenantID, depositID)
}

func (s *DepositService) newTx(d *models.Deposit, txType models.DepositTransactionType, amount decimal.Decimal, actor int, note, externalRef string) *models.DepositTransaction {
	return &models.DepositTransaction{
		TenantID:          d.TenantID,
		DepositID:         d.ID,
		Type:              txType,
		Amount:            amount,
		PaymentMethod:     d.PaymentMethod,
		Actor:             actor,
		Note:              note,
		ExternalReference: externalRef,
		CreatedAt:         s.Clock.Now(),
	}
}

func (s *DepositService) appendTx(ctx context.Context, d *models.Deposit, txType models.DepositTransactionType, amount decimal.Decimal, actor int, note, externalRef string) error {
	return s.Ledger.Append(ctx, s.newTx(d, txType, amount, actor, note, externalRef))
}

func statusAllowed(status models.DepositStatus, allowed []models.DepositStatus) bool {
	for _, a := range allowed {
		if status == a {
			return true
		}
	}
	return false
}
