package services

import (
	"context"
	"testing"
	"time"

	"deposit-backend/internal/models"
	"deposit-backend/internal/timeutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcile(t *testing.T) {
	store := newMemDepositStore()
	feed := newMemRentalFeed()
	svc := NewReconciliationService(store, feed, timeutil.FixedClock{T: testNow})

	start := ist(time.March, 1, 0)
	end := ist(time.March, 8, 0)

	// Returned with a matching deposit
	feed.returned = append(feed.returned, models.ReturnedRental{
		RentalID: 1, Code: "RNT-001", RequiredDeposit: money(10000), ReturnedAt: ist(time.March, 2, 10)})
	store.seed(settle(&models.Deposit{TenantID: testTenant, RentalID: 1, Amount: money(10000),
		Status: models.DepositStatusReleased, PaymentMethod: models.PaymentMethodCash,
		ReceivedAt: ist(time.February, 10, 10)},
		money(0), money(10000), ist(time.March, 2, 11), ""))

	// No deposit required, none recorded: matches
	feed.returned = append(feed.returned, models.ReturnedRental{
		RentalID: 2, Code: "RNT-002", RequiredDeposit: money(0), ReturnedAt: ist(time.March, 3, 10)})

	// Deposit required but never recorded
	feed.returned = append(feed.returned, models.ReturnedRental{
		RentalID: 3, Code: "RNT-003", RequiredDeposit: money(20000), ReturnedAt: ist(time.March, 4, 10)})

	// Deposit recorded with the wrong amount
	feed.returned = append(feed.returned, models.ReturnedRental{
		RentalID: 4, Code: "RNT-004", RequiredDeposit: money(15000), ReturnedAt: ist(time.March, 5, 10)})
	store.seed(&models.Deposit{TenantID: testTenant, RentalID: 4, Amount: money(12000),
		Status: models.DepositStatusCollected, PaymentMethod: models.PaymentMethodCash,
		ReceivedAt: ist(time.February, 12, 10)})

	// Rental returned before the period, deposit still held
	feed.returned = append(feed.returned, models.ReturnedRental{
		RentalID: 5, Code: "RNT-005", RequiredDeposit: money(8000), ReturnedAt: ist(time.February, 20, 10)})
	store.seed(&models.Deposit{TenantID: testTenant, RentalID: 5, Amount: money(8000),
		Status: models.DepositStatusHeld, PaymentMethod: models.PaymentMethodCardPreauth,
		ReceivedAt: ist(time.February, 15, 10)})

	// Open deposit whose rental has not returned: nothing to flag
	store.seed(&models.Deposit{TenantID: testTenant, RentalID: 6, Amount: money(3000),
		Status: models.DepositStatusPending, PaymentMethod: models.PaymentMethodCash,
		ReceivedAt: ist(time.March, 6, 10)})

	result, err := svc.Reconcile(context.Background(), testTenant, start, end)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Matched)

	require.Len(t, result.MissingDeposits, 1)
	assert.Equal(t, 3, result.MissingDeposits[0].RentalID)
	assert.True(t, result.MissingDeposits[0].ExpectedAmount.Equal(money(20000)))

	require.Len(t, result.AmountMismatches, 1)
	assert.Equal(t, 4, result.AmountMismatches[0].RentalID)
	assert.True(t, result.AmountMismatches[0].ExpectedAmount.Equal(money(15000)))
	assert.True(t, result.AmountMismatches[0].ActualAmount.Equal(money(12000)))

	require.Len(t, result.MissingReturns, 1)
	stale := result.MissingReturns[0]
	assert.Equal(t, 5, stale.RentalID)
	assert.Equal(t, "RNT-005", stale.RentalCode)
	assert.Equal(t, models.DepositStatusHeld, stale.Status)
	assert.Equal(t, 23, stale.DaysHeld)

	// Read-only: a second run reports the same discrepancies
	again, err := svc.Reconcile(context.Background(), testTenant, start, end)
	require.NoError(t, err)
	assert.Equal(t, result.Matched, again.Matched)
	assert.Equal(t, result.MissingDeposits, again.MissingDeposits)
	assert.Equal(t, result.AmountMismatches, again.AmountMismatches)
	assert.Equal(t, result.MissingReturns, again.MissingReturns)
}

func TestReconcileEmptyPeriod(t *testing.T) {
	store := newMemDepositStore()
	feed := newMemRentalFeed()
	svc := NewReconciliationService(store, feed, timeutil.FixedClock{T: testNow})

	result, err := svc.Reconcile(context.Background(), testTenant, ist(time.March, 1, 0), ist(time.March, 8, 0))
	require.NoError(t, err)

	assert.Equal(t, 0, result.Matched)
	assert.Empty(t, result.MissingDeposits)
	assert.Empty(t, result.AmountMismatches)
	assert.Empty(t, result.MissingReturns)
	assert.NotNil(t, result.MissingDeposits, "empty slices serialize as [], not null")
}
