package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"deposit-backend/internal/models"
	"deposit-backend/internal/timeutil"
)

// agingDetailCap bounds the drill-down list; buckets always cover everything
const agingDetailCap = 100

// AgingService buckets currently open deposits by days held, for operational
// follow-up on money that should have been settled.
type AgingService struct {
	Deposits DepositStore
}

func NewAgingService(deposits DepositStore) *AgingService {
	return &AgingService{Deposits: deposits}
}

// GetAgingReport places every open deposit received on or before asOf into
// exactly one age bucket. Total always equals the sum of the buckets.
func (s *AgingService) GetAgingReport(ctx context.Context, tenantID int, asOf time.Time) (*models.AgingReport, error) {
	report := &models.AgingReport{
		TenantID: tenantID,
		AsOf:     asOf,
		Details:  []models.AgingDetail{},
	}

	open, err := s.Deposits.List(ctx, tenantID, models.DepositFilter{
		Statuses:   models.OpenStatuses(),
		ReceivedTo: &asOf,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list open deposits: %w", err)
	}

	for _, d := range open {
		daysHeld := timeutil.DaysBetween(d.ReceivedAt, asOf)
		if daysHeld < 0 {
			continue
		}

		bucket := bucketFor(daysHeld, report)
		bucket.Count++
		bucket.Amount = bucket.Amount.Add(d.Amount)

		report.Total.Count++
		report.Total.Amount = report.Total.Amount.Add(d.Amount)

		report.Details = append(report.Details, models.AgingDetail{
			DepositID:  d.ID,
			Reference:  d.Reference,
			RentalCode: d.RentalCode,
			Amount:     d.Amount,
			Status:     d.Status,
			ReceivedAt: d.ReceivedAt,
			DaysHeld:   daysHeld,
		})
	}

	sort.Slice(report.Details, func(i, j int) bool {
		return report.Details[i].DaysHeld > report.Details[j].DaysHeld
	})
	if len(report.Details) > agingDetailCap {
		report.Details = report.Details[:agingDetailCap]
	}

	return report, nil
}

func bucketFor(daysHeld int, report *models.AgingReport) *models.AgingBucket {
	switch {
	case daysHeld <= 7:
		return &report.Current
	case daysHeld <= 14:
		return &report.Week1
	case daysHeld <= 21:
		return &report.Week2
	case daysHeld <= 28:
		return &report.Week3
	default:
		return &report.Over28
	}
}
