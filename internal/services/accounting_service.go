package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"deposit-backend/internal/models"

	"github.com/shopspring/decimal"
)

// AccountingService builds the period accounting summary: deposits received
// and settled within [start, end), grouped by payment method and retention
// reason, plus the outstanding point-in-time balance at period end.
type AccountingService struct {
	Deposits DepositStore
}

func NewAccountingService(deposits DepositStore) *AccountingService {
	return &AccountingService{Deposits: deposits}
}

// GetSummary computes the accounting summary for a tenant and period.
// An empty period yields zero-filled totals, never an error.
func (s *AccountingService) GetSummary(ctx context.Context, tenantID int, start, end time.Time, warehouseID *int) (*models.AccountingSummary, error) {
	summary := &models.AccountingSummary{
		TenantID:    tenantID,
		PeriodStart: start,
		PeriodEnd:   end,
		WarehouseID: warehouseID,
		Received:    newSection(),
		Released:    newSection(),
		Retained:    newSection(),
		PartiallyRetained: models.PartialSection{
			ByMethod: models.AmountByMethod{},
		},
		Outstanding: newSection(),
		ByReason:    map[string]decimal.Decimal{},
	}

	// The upper bounds below are exclusive: List treats ReceivedTo/SettledTo
	// as inclusive, so back the period end off by a nanosecond.
	inclusiveEnd := end.Add(-time.Nanosecond)

	received, err := s.Deposits.List(ctx, tenantID, models.DepositFilter{
		ReceivedFrom: &start,
		ReceivedTo:   &inclusiveEnd,
		WarehouseID:  warehouseID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list received deposits: %w", err)
	}
	for _, d := range received {
		summary.Received.Count++
		summary.Received.Amount = summary.Received.Amount.Add(d.Amount)
		summary.Received.ByMethod.Add(d.PaymentMethod, d.Amount)
	}

	settled, err := s.Deposits.List(ctx, tenantID, models.DepositFilter{
		SettledFrom: &start,
		SettledTo:   &inclusiveEnd,
		WarehouseID: warehouseID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list settled deposits: %w", err)
	}
	for _, d := range settled {
		switch d.Status {
		case models.DepositStatusReleased:
			summary.Released.Count++
			summary.Released.Amount = summary.Released.Amount.Add(d.Amount)
			summary.Released.ByMethod.Add(d.PaymentMethod, d.Amount)
		case models.DepositStatusRetained:
			summary.Retained.Count++
			summary.Retained.Amount = summary.Retained.Amount.Add(d.Amount)
			summary.Retained.ByMethod.Add(d.PaymentMethod, d.Amount)
			s.addReason(summary, d)
		case models.DepositStatusPartiallyRetained:
			summary.PartiallyRetained.Count++
			if d.RetainedAmount != nil {
				summary.PartiallyRetained.Retained = summary.PartiallyRetained.Retained.Add(*d.RetainedAmount)
				summary.PartiallyRetained.ByMethod.Add(d.PaymentMethod, *d.RetainedAmount)
			}
			if d.ReturnedAmount != nil {
				summary.PartiallyRetained.Released = summary.PartiallyRetained.Released.Add(*d.ReturnedAmount)
			}
			s.addReason(summary, d)
		}
	}

	// Outstanding is independent of the period's lower bound: everything
	// still open that was received on or before period end.
	open, err := s.Deposits.List(ctx, tenantID, models.DepositFilter{
		Statuses:    models.OpenStatuses(),
		ReceivedTo:  &inclusiveEnd,
		WarehouseID: warehouseID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list open deposits: %w", err)
	}
	for _, d := range open {
		summary.Outstanding.Count++
		summary.Outstanding.Amount = summary.Outstanding.Amount.Add(d.Amount)
		summary.Outstanding.ByMethod.Add(d.PaymentMethod, d.Amount)
	}

	summary.NetChange = summary.Received.Amount.
		Sub(summary.Released.Amount).
		Sub(summary.PartiallyRetained.Released)

	return summary, nil
}

func (s *AccountingService) addReason(summary *models.AccountingSummary, d *models.Deposit) {
	if d.RetainedAmount == nil || d.RetainedAmount.IsZero() {
		return
	}
	key := ReasonCode(d.RetentionReason)
	summary.ByReason[key] = summary.ByReason[key].Add(*d.RetainedAmount)
}

// ReasonCode strips the free-form suffix from a retention reason, leaving the
// code the by-reason breakdown groups on ("EQUIPMENT_DAMAGE:crate lid" ->
// "EQUIPMENT_DAMAGE"). An empty reason groups under OTHER.
func ReasonCode(reason string) string {
	if reason == "" {
		return models.RetentionReasonOther
	}
	if idx := strings.Index(reason, ":"); idx != -1 {
		return reason[:idx]
	}
	return reason
}

func newSection() models.SummarySection {
	return models.SummarySection{ByMethod: models.AmountByMethod{}}
}
