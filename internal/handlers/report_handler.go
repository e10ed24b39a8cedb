package handlers

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"deposit-backend/internal/archive"
	"deposit-backend/internal/cache"
	"deposit-backend/internal/metrics"
	"deposit-backend/internal/models"
	"deposit-backend/internal/services"
	"deposit-backend/internal/timeutil"
	"deposit-backend/pkg/utils"

	"github.com/prometheus/client_golang/prometheus"
)

// ReportHandler serves the four financial reports. Responses are cached in
// Redis per tenant; any deposit transition invalidates the whole tenant's
// report keys.
type ReportHandler struct {
	Accounting     *services.AccountingService
	Daily          *services.DailyReportService
	Reconciliation *services.ReconciliationService
	Aging          *services.AgingService
	Deposits       *services.DepositService
	Clock          timeutil.Clock
	Archive        *archive.Uploader
}

func NewReportHandler(
	accounting *services.AccountingService,
	daily *services.DailyReportService,
	reconciliation *services.ReconciliationService,
	aging *services.AgingService,
	deposits *services.DepositService,
	clock timeutil.Clock,
	uploader *archive.Uploader,
) *ReportHandler {
	return &ReportHandler{
		Accounting:     accounting,
		Daily:          daily,
		Reconciliation: reconciliation,
		Aging:          aging,
		Deposits:       deposits,
		Clock:          clock,
		Archive:        uploader,
	}
}

// periodFromQuery reads from/to date params and widens them to IST day
// bounds: [start of from, start of day after to).
func (h *ReportHandler) periodFromQuery(w http.ResponseWriter, r *http.Request) (start, end time.Time, ok bool) {
	fromRaw := r.URL.Query().Get("from")
	toRaw := r.URL.Query().Get("to")
	if fromRaw == "" || toRaw == "" {
		utils.Error(w, http.StatusBadRequest, "from and to date parameters required")
		return time.Time{}, time.Time{}, false
	}

	from, err := timeutil.ParseInIST(timeutil.DateLayout, fromRaw)
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid from date, want YYYY-MM-DD")
		return time.Time{}, time.Time{}, false
	}
	to, err := timeutil.ParseInIST(timeutil.DateLayout, toRaw)
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid to date, want YYYY-MM-DD")
		return time.Time{}, time.Time{}, false
	}

	start = timeutil.StartOfDay(from)
	end = timeutil.StartOfDay(to).AddDate(0, 0, 1)
	if !start.Before(end) {
		utils.Error(w, http.StatusBadRequest, "from must not be after to")
		return time.Time{}, time.Time{}, false
	}

	return start, end, true
}

func warehouseFromQuery(w http.ResponseWriter, r *http.Request) (*int, bool) {
	raw := r.URL.Query().Get("warehouse_id")
	if raw == "" {
		return nil, true
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid warehouse_id")
		return nil, false
	}
	return &id, true
}

// serveCachedJSON writes the cached payload if present, otherwise builds the
// report, caches it and writes it. The build is timed per report type.
func serveCachedJSON(w http.ResponseWriter, r *http.Request, key, reportType string, build func() (interface{}, error)) {
	if data, ok := cache.GetCached(r.Context(), key); ok {
		metrics.CacheHits.WithLabelValues("hit").Inc()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(data)
		return
	}
	metrics.CacheHits.WithLabelValues("miss").Inc()

	timer := prometheus.NewTimer(metrics.ReportDuration.WithLabelValues(reportType))
	report, err := build()
	timer.ObserveDuration()
	if err != nil {
		writeDomainError(w, err)
		return
	}

	data, err := json.Marshal(report)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	cache.SetCached(r.Context(), key, data, cache.ReportTTL)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *ReportHandler) GetAccountingSummary(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := requestIdentity(w, r)
	if !ok {
		return
	}
	start, end, ok := h.periodFromQuery(w, r)
	if !ok {
		return
	}
	warehouseID, ok := warehouseFromQuery(w, r)
	if !ok {
		return
	}

	key := fmt.Sprintf("reports:%d:summary:%s:%s:%s", tenantID,
		start.Format(timeutil.DateLayout), end.Format(timeutil.DateLayout), warehouseKey(warehouseID))
	serveCachedJSON(w, r, key, "summary", func() (interface{}, error) {
		return h.Accounting.GetSummary(r.Context(), tenantID, start, end, warehouseID)
	})
}

func (h *ReportHandler) GetDailyReport(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := requestIdentity(w, r)
	if !ok {
		return
	}
	warehouseID, ok := warehouseFromQuery(w, r)
	if !ok {
		return
	}

	date := h.Clock.Now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := timeutil.ParseInIST(timeutil.DateLayout, raw)
		if err != nil {
			utils.Error(w, http.StatusBadRequest, "Invalid date, want YYYY-MM-DD")
			return
		}
		date = parsed
	}

	key := fmt.Sprintf("reports:%d:daily:%s:%s", tenantID,
		date.Format(timeutil.DateLayout), warehouseKey(warehouseID))
	serveCachedJSON(w, r, key, "daily", func() (interface{}, error) {
		return h.Daily.GetDailyReport(r.Context(), tenantID, date, warehouseID)
	})
}

func (h *ReportHandler) GetReconciliation(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := requestIdentity(w, r)
	if !ok {
		return
	}
	start, end, ok := h.periodFromQuery(w, r)
	if !ok {
		return
	}

	key := fmt.Sprintf("reports:%d:reconciliation:%s:%s", tenantID,
		start.Format(timeutil.DateLayout), end.Format(timeutil.DateLayout))
	serveCachedJSON(w, r, key, "reconciliation", func() (interface{}, error) {
		return h.Reconciliation.Reconcile(r.Context(), tenantID, start, end)
	})
}

func (h *ReportHandler) GetAgingReport(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	asOf := h.Clock.Now()
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		parsed, err := timeutil.ParseInIST(timeutil.DateLayout, raw)
		if err != nil {
			utils.Error(w, http.StatusBadRequest, "Invalid as_of date, want YYYY-MM-DD")
			return
		}
		asOf = timeutil.EndOfDay(parsed)
	}

	key := fmt.Sprintf("reports:%d:aging:%s", tenantID, asOf.Format(timeutil.DateLayout))
	serveCachedJSON(w, r, key, "aging", func() (interface{}, error) {
		return h.Aging.GetAgingReport(r.Context(), tenantID, asOf)
	})
}

// ExportDeposits streams the period's deposits as CSV and archives a copy
func (h *ReportHandler) ExportDeposits(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := requestIdentity(w, r)
	if !ok {
		return
	}
	start, end, ok := h.periodFromQuery(w, r)
	if !ok {
		return
	}
	warehouseID, ok := warehouseFromQuery(w, r)
	if !ok {
		return
	}

	inclusiveEnd := end.Add(-time.Nanosecond)
	deposits, err := h.Deposits.List(r.Context(), tenantID, models.DepositFilter{
		ReceivedFrom: &start,
		ReceivedTo:   &inclusiveEnd,
		WarehouseID:  warehouseID,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	data, err := depositsCSV(deposits)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	filename := fmt.Sprintf("deposits_%s_%s.csv",
		start.Format(timeutil.DateLayout), inclusiveEnd.Format(timeutil.DateLayout))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	w.WriteHeader(http.StatusOK)
	w.Write(data)

	h.Archive.UploadExport(r.Context(), tenantID, filename, "text/csv", data)
}

func depositsCSV(deposits []*models.Deposit) ([]byte, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	header := []string{
		"reference", "rental_code", "status", "payment_method", "amount",
		"retained_amount", "returned_amount", "retention_reason",
		"received_at", "settled_at",
	}
	if err := cw.Write(header); err != nil {
		return nil, err
	}

	for _, d := range deposits {
		retained, returned := "", ""
		if d.RetainedAmount != nil {
			retained = d.RetainedAmount.StringFixed(2)
		}
		if d.ReturnedAmount != nil {
			returned = d.ReturnedAmount.StringFixed(2)
		}
		settledAt := ""
		if d.SettledAt != nil {
			settledAt = timeutil.ToIST(*d.SettledAt).Format(timeutil.DateTimeLayout)
		}

		row := []string{
			d.Reference,
			d.RentalCode,
			string(d.Status),
			string(d.PaymentMethod),
			d.Amount.StringFixed(2),
			retained,
			returned,
			d.RetentionReason,
			timeutil.ToIST(d.ReceivedAt).Format(timeutil.DateTimeLayout),
			settledAt,
		}
		if err := cw.Write(row); err != nil {
			return nil, err
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func warehouseKey(warehouseID *int) string {
	if warehouseID == nil {
		return "all"
	}
	return strconv.Itoa(*warehouseID)
}
