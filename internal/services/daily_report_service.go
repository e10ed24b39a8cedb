package services

import (
	"context"
	"fmt"
	"time"

	"deposit-backend/internal/models"
	"deposit-backend/internal/timeutil"

	"github.com/shopspring/decimal"
)

// DailyReportService computes opening/closing balances and same-day cash and
// card movement for one calendar day, with each deposit listed individually
// for manual audit against the till.
type DailyReportService struct {
	Deposits DepositStore
}

func NewDailyReportService(deposits DepositStore) *DailyReportService {
	return &DailyReportService{Deposits: deposits}
}

// GetDailyReport builds the report for the calendar day containing date
func (s *DailyReportService) GetDailyReport(ctx context.Context, tenantID int, date time.Time, warehouseID *int) (*models.DailyReport, error) {
	dayStart := timeutil.StartOfDay(date)
	dayEnd := timeutil.EndOfDay(date)

	report := &models.DailyReport{
		TenantID:    tenantID,
		Date:        dayStart,
		WarehouseID: warehouseID,
	}

	// One scan of everything received up to day end covers the opening
	// balance, the day's receipts and the closing balance.
	all, err := s.Deposits.List(ctx, tenantID, models.DepositFilter{
		ReceivedTo:  &dayEnd,
		WarehouseID: warehouseID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list deposits: %w", err)
	}

	for _, d := range all {
		receivedToday := !d.ReceivedAt.Before(dayStart) && !d.ReceivedAt.After(dayEnd)
		settledToday := d.SettledAt != nil && !d.SettledAt.Before(dayStart) && !d.SettledAt.After(dayEnd)

		// Alive at day start: received before the day and either still open
		// or settled on/after the day started
		if d.ReceivedAt.Before(dayStart) && (d.Status.IsOpen() || (d.SettledAt != nil && !d.SettledAt.Before(dayStart))) {
			report.OpeningBalance.Count++
			report.OpeningBalance.Amount = report.OpeningBalance.Amount.Add(d.Amount)
		}

		// Alive at day end: still open, or settled only after the day closed
		if d.Status.IsOpen() || (d.SettledAt != nil && d.SettledAt.After(dayEnd)) {
			report.ClosingBalance.Count++
			report.ClosingBalance.Amount = report.ClosingBalance.Amount.Add(d.Amount)
		}

		if receivedToday {
			report.Received = append(report.Received, depositLine(d, d.ReceivedAt))
			s.addMovementIn(report, d)
		}

		if settledToday {
			switch d.Status {
			case models.DepositStatusReleased:
				report.Released = append(report.Released, depositLine(d, *d.SettledAt))
				s.addMovementOut(report, d, d.Amount)
			case models.DepositStatusRetained:
				report.Retained = append(report.Retained, depositLine(d, *d.SettledAt))
				// Fully retained money never leaves the till
			case models.DepositStatusPartiallyRetained:
				report.Retained = append(report.Retained, depositLine(d, *d.SettledAt))
				// Only the returned portion is money paid out; the
				// retained portion is money kept
				if d.ReturnedAmount != nil {
					s.addMovementOut(report, d, *d.ReturnedAmount)
				}
			}
		}
	}

	return report, nil
}

func (s *DailyReportService) addMovementIn(report *models.DailyReport, d *models.Deposit) {
	switch d.PaymentMethod {
	case models.PaymentMethodCash:
		report.CashMovement.In = report.CashMovement.In.Add(d.Amount)
	case models.PaymentMethodCard, models.PaymentMethodCardPreauth:
		report.CardMovement.In = report.CardMovement.In.Add(d.Amount)
	}
	// Bank transfers move through neither till
}

func (s *DailyReportService) addMovementOut(report *models.DailyReport, d *models.Deposit, amount decimal.Decimal) {
	switch d.PaymentMethod {
	case models.PaymentMethodCash:
		report.CashMovement.Out = report.CashMovement.Out.Add(amount)
	case models.PaymentMethodCard, models.PaymentMethodCardPreauth:
		report.CardMovement.Out = report.CardMovement.Out.Add(amount)
	}
}

func depositLine(d *models.Deposit, ts time.Time) models.DepositLine {
	return models.DepositLine{
		DepositID:  d.ID,
		Reference:  d.Reference,
		RentalCode: d.RentalCode,
		Amount:     d.Amount,
		Method:     d.PaymentMethod,
		Timestamp:  ts,
	}
}
