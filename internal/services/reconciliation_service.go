package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"deposit-backend/internal/models"
	"deposit-backend/internal/timeutil"
)

// ReconciliationService cross-checks rentals returned in a period against the
// deposit store. It is read-only: discrepancies are reported for a human to
// resolve, never auto-corrected.
type ReconciliationService struct {
	Deposits DepositStore
	Rentals  RentalFeed
	Clock    timeutil.Clock
}

func NewReconciliationService(deposits DepositStore, rentals RentalFeed, clock timeutil.Clock) *ReconciliationService {
	return &ReconciliationService{Deposits: deposits, Rentals: rentals, Clock: clock}
}

// Reconcile checks returned rentals against deposits for [start, end) and
// surfaces stale open deposits whose rental returned before the period start.
func (s *ReconciliationService) Reconcile(ctx context.Context, tenantID int, start, end time.Time) (*models.ReconciliationResult, error) {
	result := &models.ReconciliationResult{
		TenantID:         tenantID,
		PeriodStart:      start,
		PeriodEnd:        end,
		MissingDeposits:  []models.MissingDeposit{},
		AmountMismatches: []models.AmountMismatch{},
		MissingReturns:   []models.MissingReturn{},
	}

	returned, err := s.Rentals.FindReturnedInPeriod(ctx, tenantID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch returned rentals: %w", err)
	}

	for _, rental := range returned {
		deposit, err := s.Deposits.GetByRentalID(ctx, tenantID, rental.RentalID)
		if err != nil {
			var nf *models.NotFoundError
			if !errors.As(err, &nf) {
				return nil, fmt.Errorf("failed to look up deposit for rental %d: %w", rental.RentalID, err)
			}
			if rental.RequiredDeposit.IsPositive() {
				result.MissingDeposits = append(result.MissingDeposits, models.MissingDeposit{
					RentalID:       rental.RentalID,
					RentalCode:     rental.Code,
					ExpectedAmount: rental.RequiredDeposit,
					ReturnedAt:     rental.ReturnedAt,
				})
			} else {
				// No deposit required, none exists: that matches
				result.Matched++
			}
			continue
		}

		if !deposit.Amount.Equal(rental.RequiredDeposit) {
			result.AmountMismatches = append(result.AmountMismatches, models.AmountMismatch{
				RentalID:       rental.RentalID,
				RentalCode:     rental.Code,
				DepositID:      deposit.ID,
				ExpectedAmount: rental.RequiredDeposit,
				ActualAmount:   deposit.Amount,
			})
			continue
		}

		result.Matched++
	}

	// Stale holds: open deposits whose rental returned before the period
	// start. Deliberately not limited to the reconciliation window, so a
	// later period's run keeps flagging holds nobody settled.
	staleReturns, err := s.Rentals.FindReturnedInPeriod(ctx, tenantID, time.Time{}, start)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch prior returns: %w", err)
	}
	returnedBefore := make(map[int]models.ReturnedRental, len(staleReturns))
	for _, rental := range staleReturns {
		returnedBefore[rental.RentalID] = rental
	}

	open, err := s.Deposits.List(ctx, tenantID, models.DepositFilter{Statuses: models.OpenStatuses()})
	if err != nil {
		return nil, fmt.Errorf("failed to list open deposits: %w", err)
	}

	now := s.Clock.Now()
	for _, d := range open {
		rental, ok := returnedBefore[d.RentalID]
		if !ok {
			continue
		}
		result.MissingReturns = append(result.MissingReturns, models.MissingReturn{
			DepositID:  d.ID,
			Reference:  d.Reference,
			RentalID:   d.RentalID,
			RentalCode: rental.Code,
			Amount:     d.Amount,
			Status:     d.Status,
			ReceivedAt: d.ReceivedAt,
			DaysHeld:   timeutil.DaysBetween(d.ReceivedAt, now),
		})
	}

	return result, nil
}
