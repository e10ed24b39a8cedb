package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"deposit-backend/internal/cache"
	"deposit-backend/internal/middleware"
	"deposit-backend/internal/models"
	"deposit-backend/internal/services"
	"deposit-backend/internal/timeutil"
	"deposit-backend/pkg/utils"

	"github.com/gorilla/mux"
)

type DepositHandler struct {
	Service *services.DepositService
}

func NewDepositHandler(service *services.DepositService) *DepositHandler {
	return &DepositHandler{Service: service}
}

// writeDomainError maps domain errors to HTTP status codes. Anything not in
// the domain error set is a 500 with a generic body; details go to the log
// via the panic/error middleware, not to the client.
func writeDomainError(w http.ResponseWriter, err error) {
	var notFound *models.NotFoundError
	var validation *models.ValidationError
	var invalidTransition *models.InvalidTransitionError
	var conflict *models.ConcurrentModificationError
	var duplicate *models.DuplicateDepositError

	switch {
	case errors.As(err, &notFound):
		utils.Error(w, http.StatusNotFound, err.Error())
	case errors.As(err, &validation):
		utils.Error(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &invalidTransition):
		utils.Error(w, http.StatusConflict, err.Error())
	case errors.As(err, &conflict):
		utils.Error(w, http.StatusConflict, err.Error())
	case errors.As(err, &duplicate):
		utils.Error(w, http.StatusConflict, err.Error())
	default:
		utils.Error(w, http.StatusInternalServerError, "internal error")
	}
}

func requestIdentity(w http.ResponseWriter, r *http.Request) (tenantID, userID int, ok bool) {
	tenantID, ok = middleware.GetTenantIDFromContext(r.Context())
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "Tenant not found in context")
		return 0, 0, false
	}
	userID, ok = middleware.GetUserIDFromContext(r.Context())
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "User ID not found in context")
		return 0, 0, false
	}
	return tenantID, userID, true
}

func depositIDFromPath(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid deposit ID")
		return 0, false
	}
	return id, true
}

func (h *DepositHandler) CreateDeposit(w http.ResponseWriter, r *http.Request) {
	tenantID, userID, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	var req models.CreateDepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	deposit, err := h.Service.Create(r.Context(), tenantID, req.RentalID, req.Amount, req.PaymentMethod, userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	cache.InvalidateReportCaches(r.Context(), tenantID)
	utils.JSON(w, http.StatusCreated, deposit)
}

func (h *DepositHandler) GetDeposit(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := requestIdentity(w, r)
	if !ok {
		return
	}
	id, ok := depositIDFromPath(w, r)
	if !ok {
		return
	}

	deposit, err := h.Service.Get(r.Context(), tenantID, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, deposit)
}

func (h *DepositHandler) ListDeposits(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := requestIdentity(w, r)
	if !ok {
		return
	}

	filter := models.DepositFilter{}

	if raw := r.URL.Query().Get("status"); raw != "" {
		status, known := models.CanonicalStatus(raw)
		if !known {
			utils.Error(w, http.StatusBadRequest, "Unknown status "+raw)
			return
		}
		filter.Statuses = []models.DepositStatus{status}
	}

	if raw := r.URL.Query().Get("from"); raw != "" {
		from, err := timeutil.ParseInIST(timeutil.DateLayout, raw)
		if err != nil {
			utils.Error(w, http.StatusBadRequest, "Invalid from date, want YYYY-MM-DD")
			return
		}
		start := timeutil.StartOfDay(from)
		filter.ReceivedFrom = &start
	}

	if raw := r.URL.Query().Get("to"); raw != "" {
		to, err := timeutil.ParseInIST(timeutil.DateLayout, raw)
		if err != nil {
			utils.Error(w, http.StatusBadRequest, "Invalid to date, want YYYY-MM-DD")
			return
		}
		end := timeutil.EndOfDay(to)
		filter.ReceivedTo = &end
	}

	if raw := r.URL.Query().Get("warehouse_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			utils.Error(w, http.StatusBadRequest, "Invalid warehouse_id")
			return
		}
		filter.WarehouseID = &id
	}

	deposits, err := h.Service.List(r.Context(), tenantID, filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if deposits == nil {
		deposits = []*models.Deposit{}
	}

	utils.JSON(w, http.StatusOK, deposits)
}

func (h *DepositHandler) CollectDeposit(w http.ResponseWriter, r *http.Request) {
	tenantID, userID, ok := requestIdentity(w, r)
	if !ok {
		return
	}
	id, ok := depositIDFromPath(w, r)
	if !ok {
		return
	}

	deposit, err := h.Service.Collect(r.Context(), tenantID, id, userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	cache.InvalidateReportCaches(r.Context(), tenantID)
	utils.JSON(w, http.StatusOK, deposit)
}

func (h *DepositHandler) HoldDeposit(w http.ResponseWriter, r *http.Request) {
	tenantID, userID, ok := requestIdentity(w, r)
	if !ok {
		return
	}
	id, ok := depositIDFromPath(w, r)
	if !ok {
		return
	}

	var req models.HoldDepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ExternalReference == "" {
		utils.Error(w, http.StatusBadRequest, "external_reference is required")
		return
	}

	deposit, err := h.Service.Hold(r.Context(), tenantID, id, req.ExternalReference, userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	cache.InvalidateReportCaches(r.Context(), tenantID)
	utils.JSON(w, http.StatusOK, deposit)
}

func (h *DepositHandler) ReleaseDeposit(w http.ResponseWriter, r *http.Request) {
	tenantID, userID, ok := requestIdentity(w, r)
	if !ok {
		return
	}
	id, ok := depositIDFromPath(w, r)
	if !ok {
		return
	}

	deposit, err := h.Service.Release(r.Context(), tenantID, id, userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	cache.InvalidateReportCaches(r.Context(), tenantID)
	utils.JSON(w, http.StatusOK, deposit)
}

func (h *DepositHandler) RetainDeposit(w http.ResponseWriter, r *http.Request) {
	tenantID, userID, ok := requestIdentity(w, r)
	if !ok {
		return
	}
	id, ok := depositIDFromPath(w, r)
	if !ok {
		return
	}

	var req models.RetainDepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	deposit, err := h.Service.Retain(r.Context(), tenantID, id, req.Reason, req.Description, req.RetainedAmount, userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	cache.InvalidateReportCaches(r.Context(), tenantID)
	utils.JSON(w, http.StatusOK, deposit)
}

func (h *DepositHandler) GetDepositTransactions(w http.ResponseWriter, r *http.Request) {
	tenantID, _, ok := requestIdentity(w, r)
	if !ok {
		return
	}
	id, ok := depositIDFromPath(w, r)
	if !ok {
		return
	}

	txs, err := h.Service.ListTransactions(r.Context(), tenantID, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if txs == nil {
		txs = []*models.DepositTransaction{}
	}

	utils.JSON(w, http.StatusOK, txs)
}
