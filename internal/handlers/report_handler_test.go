package handlers

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"deposit-backend/internal/models"
	"deposit-backend/internal/timeutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeriodFromQuery(t *testing.T) {
	h := &ReportHandler{}

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/api/reports/summary?from=2026-03-01&to=2026-03-07", nil)
	start, end, ok := h.periodFromQuery(w, r)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, timeutil.IST), start)
	// to is inclusive: the window runs to the start of the next day
	assert.Equal(t, time.Date(2026, 3, 8, 0, 0, 0, 0, timeutil.IST), end)

	// Single-day period
	w = httptest.NewRecorder()
	r = httptest.NewRequest("GET", "/api/reports/summary?from=2026-03-01&to=2026-03-01", nil)
	start, end, ok = h.periodFromQuery(w, r)
	require.True(t, ok)
	assert.Equal(t, 24*time.Hour, end.Sub(start))
}

func TestPeriodFromQueryRejectsBadInput(t *testing.T) {
	h := &ReportHandler{}

	cases := []string{
		"/api/reports/summary",
		"/api/reports/summary?from=2026-03-01",
		"/api/reports/summary?from=03/01/2026&to=2026-03-07",
		"/api/reports/summary?from=2026-03-07&to=2026-03-01",
	}
	for _, url := range cases {
		w := httptest.NewRecorder()
		_, _, ok := h.periodFromQuery(w, httptest.NewRequest("GET", url, nil))
		assert.False(t, ok, url)
		assert.Equal(t, 400, w.Code, url)
	}
}

func TestWarehouseFromQuery(t *testing.T) {
	w := httptest.NewRecorder()
	id, ok := warehouseFromQuery(w, httptest.NewRequest("GET", "/x?warehouse_id=3", nil))
	require.True(t, ok)
	require.NotNil(t, id)
	assert.Equal(t, 3, *id)

	w = httptest.NewRecorder()
	id, ok = warehouseFromQuery(w, httptest.NewRequest("GET", "/x", nil))
	require.True(t, ok)
	assert.Nil(t, id)

	w = httptest.NewRecorder()
	_, ok = warehouseFromQuery(w, httptest.NewRequest("GET", "/x?warehouse_id=abc", nil))
	assert.False(t, ok)
	assert.Equal(t, 400, w.Code)
}

func TestDepositsCSV(t *testing.T) {
	retained := decimal.NewFromInt(20000)
	returned := decimal.NewFromInt(30000)
	settledAt := time.Date(2026, 3, 6, 13, 0, 0, 0, timeutil.IST)

	deposits := []*models.Deposit{
		{
			Reference:     "DEP-000001",
			RentalCode:    "RNT-010",
			Status:        models.DepositStatusPartiallyRetained,
			PaymentMethod: models.PaymentMethodCash,
			Amount:        decimal.NewFromInt(50000),
			RetainedAmount:  &retained,
			ReturnedAmount:  &returned,
			RetentionReason: "EQUIPMENT_DAMAGE:crate lid",
			ReceivedAt:      time.Date(2026, 3, 2, 10, 30, 0, 0, timeutil.IST),
			SettledAt:       &settledAt,
		},
		{
			Reference:     "DEP-000002",
			RentalCode:    "RNT-011",
			Status:        models.DepositStatusPending,
			PaymentMethod: models.PaymentMethodCard,
			Amount:        decimal.New(125050, -2), // 1250.50
			ReceivedAt:    time.Date(2026, 3, 5, 9, 0, 0, 0, timeutil.IST),
		},
	}

	data, err := depositsCSV(deposits)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "reference,rental_code,status,payment_method,amount,retained_amount,returned_amount,retention_reason,received_at,settled_at", lines[0])
	assert.Equal(t, "DEP-000001,RNT-010,PARTIALLY_RETAINED,CASH,50000.00,20000.00,30000.00,EQUIPMENT_DAMAGE:crate lid,2026-03-02 10:30:00,2026-03-06 13:00:00", lines[1])
	// Open deposit: settlement columns stay empty
	assert.Equal(t, "DEP-000002,RNT-011,PENDING,CARD,1250.50,,,,2026-03-05 09:00:00,", lines[2])
}

func TestWarehouseKey(t *testing.T) {
	assert.Equal(t, "all", warehouseKey(nil))
	three := 3
	assert.Equal(t, "3", warehouseKey(&three))
}
