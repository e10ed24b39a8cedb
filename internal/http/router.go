package http

import (
	"net/http"

	"deposit-backend/internal/handlers"
	"deposit-backend/internal/middleware"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(
	depositHandler *handlers.DepositHandler,
	reportHandler *handlers.ReportHandler,
	healthHandler *handlers.HealthHandler,
	authMiddleware *middleware.AuthMiddleware,
) *mux.Router {
	r := mux.NewRouter()

	// Protected API routes - Deposits
	// Viewing needs any authenticated user; lifecycle transitions need desk
	// staff (employee/admin), settlement ones also allow accountants.
	depositsAPI := r.PathPrefix("/api/deposits").Subrouter()
	depositsAPI.Use(authMiddleware.Authenticate)
	depositsAPI.HandleFunc("", depositHandler.ListDeposits).Methods("GET")
	depositsAPI.HandleFunc("", authMiddleware.RequireRole("employee", "admin")(http.HandlerFunc(depositHandler.CreateDeposit)).ServeHTTP).Methods("POST")
	depositsAPI.HandleFunc("/{id}", depositHandler.GetDeposit).Methods("GET")
	depositsAPI.HandleFunc("/{id}/transactions", depositHandler.GetDepositTransactions).Methods("GET")
	depositsAPI.HandleFunc("/{id}/collect", authMiddleware.RequireRole("employee", "admin")(http.HandlerFunc(depositHandler.CollectDeposit)).ServeHTTP).Methods("POST")
	depositsAPI.HandleFunc("/{id}/hold", authMiddleware.RequireRole("employee", "admin")(http.HandlerFunc(depositHandler.HoldDeposit)).ServeHTTP).Methods("POST")
	depositsAPI.HandleFunc("/{id}/release", authMiddleware.RequireRole("employee", "admin", "accountant")(http.HandlerFunc(depositHandler.ReleaseDeposit)).ServeHTTP).Methods("POST")
	depositsAPI.HandleFunc("/{id}/retain", authMiddleware.RequireRole("employee", "admin", "accountant")(http.HandlerFunc(depositHandler.RetainDeposit)).ServeHTTP).Methods("POST")

	// Protected API routes - Reports (accountants, admins, and employees with accountant access)
	reportsAPI := r.PathPrefix("/api/reports").Subrouter()
	reportsAPI.Use(authMiddleware.RequireAccountantAccess)
	reportsAPI.HandleFunc("/summary", reportHandler.GetAccountingSummary).Methods("GET")
	reportsAPI.HandleFunc("/daily", reportHandler.GetDailyReport).Methods("GET")
	reportsAPI.HandleFunc("/reconciliation", reportHandler.GetReconciliation).Methods("GET")
	reportsAPI.HandleFunc("/aging", reportHandler.GetAgingReport).Methods("GET")
	reportsAPI.HandleFunc("/deposits/export", reportHandler.ExportDeposits).Methods("GET")

	// Health endpoints (no auth required - for Kubernetes probes)
	r.HandleFunc("/health", healthHandler.BasicHealth).Methods("GET")
	r.HandleFunc("/health/ready", healthHandler.ReadinessHealth).Methods("GET")
	r.HandleFunc("/health/detailed", healthHandler.DetailedHealth).Methods("GET")

	// Metrics endpoint (Prometheus format)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
