package services

import (
	"context"
	"testing"
	"time"

	"deposit-backend/internal/models"
	"deposit-backend/internal/timeutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ist(month time.Month, day, hour int) time.Time {
	return time.Date(2026, month, day, hour, 0, 0, 0, timeutil.IST)
}

// settle fills the settlement fields a terminal deposit carries
func settle(d *models.Deposit, retained, returned decimal.Decimal, at time.Time, reason string) *models.Deposit {
	by := 9
	d.RetainedAmount = &retained
	d.ReturnedAmount = &returned
	d.SettledAt = &at
	d.SettledBy = &by
	d.RetentionReason = reason
	return d
}

func TestAccountingSummary(t *testing.T) {
	store := newMemDepositStore()
	svc := NewAccountingService(store)

	start := ist(time.March, 1, 0)
	end := ist(time.March, 8, 0)

	// Open since before the period: outstanding only
	store.seed(&models.Deposit{TenantID: testTenant, RentalID: 1, Amount: money(12000),
		Status: models.DepositStatusPending, PaymentMethod: models.PaymentMethodCash,
		ReceivedAt: ist(time.February, 20, 10)})

	// Received in period, still open
	store.seed(&models.Deposit{TenantID: testTenant, RentalID: 2, Amount: money(50000),
		Status: models.DepositStatusCollected, PaymentMethod: models.PaymentMethodCash,
		ReceivedAt: ist(time.March, 2, 10)})

	// Received and released within the period
	store.seed(settle(&models.Deposit{TenantID: testTenant, RentalID: 3, Amount: money(30000),
		Status: models.DepositStatusReleased, PaymentMethod: models.PaymentMethodCard,
		ReceivedAt: ist(time.March, 3, 10)},
		money(0), money(30000), ist(time.March, 4, 12), ""))

	// Received before the period, fully retained within it
	store.seed(settle(&models.Deposit{TenantID: testTenant, RentalID: 4, Amount: money(10000),
		Status: models.DepositStatusRetained, PaymentMethod: models.PaymentMethodBankTransfer,
		ReceivedAt: ist(time.February, 25, 10)},
		money(10000), money(0), ist(time.March, 5, 12), models.RetentionReasonLoss))

	// Partial retention within the period
	store.seed(settle(&models.Deposit{TenantID: testTenant, RentalID: 5, Amount: money(10000),
		Status: models.DepositStatusPartiallyRetained, PaymentMethod: models.PaymentMethodCash,
		ReceivedAt: ist(time.March, 4, 10)},
		money(4000), money(6000), ist(time.March, 6, 12), models.RetentionReasonEquipmentDamage+":crate lid"))

	// Received in period, settled after it: counts as received only
	store.seed(settle(&models.Deposit{TenantID: testTenant, RentalID: 6, Amount: money(7000),
		Status: models.DepositStatusReleased, PaymentMethod: models.PaymentMethodCard,
		ReceivedAt: ist(time.March, 5, 10)},
		money(0), money(7000), ist(time.March, 10, 12), ""))

	// Received exactly at period end: excluded, the bound is exclusive
	store.seed(&models.Deposit{TenantID: testTenant, RentalID: 7, Amount: money(5000),
		Status: models.DepositStatusPending, PaymentMethod: models.PaymentMethodCash,
		ReceivedAt: end})

	summary, err := svc.GetSummary(context.Background(), testTenant, start, end, nil)
	require.NoError(t, err)

	assert.Equal(t, 4, summary.Received.Count)
	assert.True(t, summary.Received.Amount.Equal(money(97000)))
	assert.True(t, summary.Received.ByMethod[models.PaymentMethodCash].Equal(money(60000)))
	assert.True(t, summary.Received.ByMethod[models.PaymentMethodCard].Equal(money(37000)))

	assert.Equal(t, 1, summary.Released.Count)
	assert.True(t, summary.Released.Amount.Equal(money(30000)))

	assert.Equal(t, 1, summary.Retained.Count)
	assert.True(t, summary.Retained.Amount.Equal(money(10000)))
	assert.True(t, summary.Retained.ByMethod[models.PaymentMethodBankTransfer].Equal(money(10000)))

	assert.Equal(t, 1, summary.PartiallyRetained.Count)
	assert.True(t, summary.PartiallyRetained.Retained.Equal(money(4000)))
	assert.True(t, summary.PartiallyRetained.Released.Equal(money(6000)))
	assert.True(t, summary.PartiallyRetained.ByMethod[models.PaymentMethodCash].Equal(money(4000)))

	assert.Equal(t, 2, summary.Outstanding.Count)
	assert.True(t, summary.Outstanding.Amount.Equal(money(62000)))

	// Free-form suffix is stripped, grouping stays on the code
	assert.True(t, summary.ByReason[models.RetentionReasonLoss].Equal(money(10000)))
	assert.True(t, summary.ByReason[models.RetentionReasonEquipmentDamage].Equal(money(4000)))

	// 97000 received - 30000 released - 6000 partially released
	assert.True(t, summary.NetChange.Equal(money(61000)))
}

func TestAccountingSummaryEmptyPeriod(t *testing.T) {
	store := newMemDepositStore()
	svc := NewAccountingService(store)

	summary, err := svc.GetSummary(context.Background(), testTenant, ist(time.March, 1, 0), ist(time.March, 8, 0), nil)
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Received.Count)
	assert.True(t, summary.Received.Amount.IsZero())
	assert.True(t, summary.NetChange.IsZero())
	assert.Empty(t, summary.ByReason)
	assert.NotNil(t, summary.Received.ByMethod)
}

func TestAccountingSummaryWarehouseFilter(t *testing.T) {
	store := newMemDepositStore()
	svc := NewAccountingService(store)

	store.seed(&models.Deposit{TenantID: testTenant, RentalID: 1, WarehouseID: 1, Amount: money(1000),
		Status: models.DepositStatusPending, PaymentMethod: models.PaymentMethodCash,
		ReceivedAt: ist(time.March, 2, 10)})
	store.seed(&models.Deposit{TenantID: testTenant, RentalID: 2, WarehouseID: 2, Amount: money(2000),
		Status: models.DepositStatusPending, PaymentMethod: models.PaymentMethodCash,
		ReceivedAt: ist(time.March, 3, 10)})

	warehouse := 1
	summary, err := svc.GetSummary(context.Background(), testTenant, ist(time.March, 1, 0), ist(time.March, 8, 0), &warehouse)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Received.Count)
	assert.True(t, summary.Received.Amount.Equal(money(1000)))
	assert.Equal(t, 1, summary.Outstanding.Count)
}

func TestReasonCode(t *testing.T) {
	assert.Equal(t, "EQUIPMENT_DAMAGE", ReasonCode("EQUIPMENT_DAMAGE:crate lid broken"))
	assert.Equal(t, "LATE_RETURN", ReasonCode("LATE_RETURN"))
	assert.Equal(t, models.RetentionReasonOther, ReasonCode(""))
}
