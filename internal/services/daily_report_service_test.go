package services

import (
	"context"
	"testing"
	"time"

	"deposit-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDailyReport(t *testing.T) {
	store := newMemDepositStore()
	svc := NewDailyReportService(store)
	day := ist(time.March, 6, 0)

	// Released during the day: in the opening balance, out of the closing one
	store.seed(settle(&models.Deposit{TenantID: testTenant, RentalID: 1, Amount: money(15000),
		Status: models.DepositStatusReleased, PaymentMethod: models.PaymentMethodCash,
		ReceivedAt: ist(time.March, 2, 10)},
		money(0), money(15000), ist(time.March, 6, 11), ""))

	// Partially retained during the day: only the returned 5000 leaves the card till
	store.seed(settle(&models.Deposit{TenantID: testTenant, RentalID: 2, Amount: money(8000),
		Status: models.DepositStatusPartiallyRetained, PaymentMethod: models.PaymentMethodCard,
		ReceivedAt: ist(time.March, 3, 10)},
		money(3000), money(5000), ist(time.March, 6, 12), models.RetentionReasonCleaning))

	// Open throughout: in both balances, no movement
	store.seed(&models.Deposit{TenantID: testTenant, RentalID: 3, Amount: money(20000),
		Status: models.DepositStatusCollected, PaymentMethod: models.PaymentMethodBankTransfer,
		ReceivedAt: ist(time.March, 4, 10)})

	// Received during the day
	store.seed(&models.Deposit{TenantID: testTenant, RentalID: 4, Amount: money(5000),
		Status: models.DepositStatusPending, PaymentMethod: models.PaymentMethodCash,
		ReceivedAt: ist(time.March, 6, 9)})

	// Fully retained during the day: the money never leaves the till
	store.seed(settle(&models.Deposit{TenantID: testTenant, RentalID: 5, Amount: money(9000),
		Status: models.DepositStatusRetained, PaymentMethod: models.PaymentMethodCash,
		ReceivedAt: ist(time.March, 5, 10)},
		money(9000), money(0), ist(time.March, 6, 13), models.RetentionReasonLoss))

	// Settled the day before: gone before the day opened
	store.seed(settle(&models.Deposit{TenantID: testTenant, RentalID: 6, Amount: money(4000),
		Status: models.DepositStatusReleased, PaymentMethod: models.PaymentMethodCard,
		ReceivedAt: ist(time.March, 1, 10)},
		money(0), money(4000), ist(time.March, 5, 12), ""))

	// Settled the day after: alive through the whole day
	store.seed(settle(&models.Deposit{TenantID: testTenant, RentalID: 7, Amount: money(6000),
		Status: models.DepositStatusReleased, PaymentMethod: models.PaymentMethodCash,
		ReceivedAt: ist(time.March, 5, 15)},
		money(0), money(6000), ist(time.March, 7, 12), ""))

	report, err := svc.GetDailyReport(context.Background(), testTenant, day, nil)
	require.NoError(t, err)

	assert.Equal(t, 5, report.OpeningBalance.Count)
	assert.True(t, report.OpeningBalance.Amount.Equal(money(58000)))
	assert.Equal(t, 3, report.ClosingBalance.Count)
	assert.True(t, report.ClosingBalance.Amount.Equal(money(31000)))

	require.Len(t, report.Received, 1)
	assert.True(t, report.Received[0].Amount.Equal(money(5000)))

	require.Len(t, report.Released, 1)
	assert.True(t, report.Released[0].Amount.Equal(money(15000)))

	// Both the full and the partial retention appear, oldest received first
	require.Len(t, report.Retained, 2)
	assert.True(t, report.Retained[0].Amount.Equal(money(8000)))
	assert.True(t, report.Retained[1].Amount.Equal(money(9000)))

	assert.True(t, report.CashMovement.In.Equal(money(5000)))
	assert.True(t, report.CashMovement.Out.Equal(money(15000)))
	assert.True(t, report.CardMovement.In.IsZero())
	assert.True(t, report.CardMovement.Out.Equal(money(5000)))

	// Balance identity: closing = opening + received today - settled today
	received := money(5000)
	settledToday := money(15000 + 8000 + 9000)
	assert.True(t, report.ClosingBalance.Amount.Equal(
		report.OpeningBalance.Amount.Add(received).Sub(settledToday)))
}

func TestDailyReportEmptyDay(t *testing.T) {
	store := newMemDepositStore()
	svc := NewDailyReportService(store)

	report, err := svc.GetDailyReport(context.Background(), testTenant, ist(time.March, 6, 0), nil)
	require.NoError(t, err)

	assert.Equal(t, 0, report.OpeningBalance.Count)
	assert.True(t, report.ClosingBalance.Amount.IsZero())
	assert.Empty(t, report.Received)
	assert.True(t, report.CashMovement.In.IsZero())
}

func TestDailyReportBankTransferMovesNoTill(t *testing.T) {
	store := newMemDepositStore()
	svc := NewDailyReportService(store)

	store.seed(&models.Deposit{TenantID: testTenant, RentalID: 1, Amount: money(10000),
		Status: models.DepositStatusPending, PaymentMethod: models.PaymentMethodBankTransfer,
		ReceivedAt: ist(time.March, 6, 10)})

	report, err := svc.GetDailyReport(context.Background(), testTenant, ist(time.March, 6, 0), nil)
	require.NoError(t, err)

	require.Len(t, report.Received, 1)
	assert.True(t, report.CashMovement.In.IsZero())
	assert.True(t, report.CardMovement.In.IsZero())
}
