package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"deposit-backend/internal/archive"
	"deposit-backend/internal/auth"
	"deposit-backend/internal/cache"
	"deposit-backend/internal/config"
	"deposit-backend/internal/database"
	"deposit-backend/internal/db"
	"deposit-backend/internal/handlers"
	"deposit-backend/internal/health"
	h "deposit-backend/internal/http"
	"deposit-backend/internal/middleware"
	"deposit-backend/internal/repositories"
	"deposit-backend/internal/services"
	"deposit-backend/internal/timeutil"
)

func main() {
	port := flag.Int("port", 0, "Server port (overrides config)")
	flag.Parse()

	cfg := config.Load()
	if *port != 0 {
		cfg.Server.Port = *port
	}

	pool := db.Connect(cfg)
	defer pool.Close()

	// Initialize Redis cache (optional - graceful fallback if unavailable)
	if err := cache.Init(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB); err != nil {
		log.Printf("[Redis] Cache unavailable: %v (reports will hit the database)", err)
	} else if cfg.Redis.Addr != "" {
		log.Println("[Redis] Cache connected successfully")
	}

	// Run database migrations
	migrator := database.NewMigrator(pool)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := migrator.RunMigrations(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	healthChecker := health.NewHealthChecker(pool)
	jwtManager := auth.NewJWTManager(cfg)
	clock := timeutil.SystemClock{}

	// Repositories
	depositRepo := repositories.NewDepositRepository(pool)
	transactionRepo := repositories.NewDepositTransactionRepository(pool)
	rentalFeedRepo := repositories.NewRentalFeedRepository(pool)

	// Services
	depositService := services.NewDepositService(depositRepo, transactionRepo, rentalFeedRepo, clock)
	accountingService := services.NewAccountingService(depositRepo)
	dailyReportService := services.NewDailyReportService(depositRepo)
	reconciliationService := services.NewReconciliationService(depositRepo, rentalFeedRepo, clock)
	agingService := services.NewAgingService(depositRepo)

	// Archive uploader for report exports (nil when disabled)
	uploader := archive.NewUploader(cfg)
	if uploader != nil {
		log.Println("[Archive] Export uploads enabled")
	}

	// Handlers and middleware
	depositHandler := handlers.NewDepositHandler(depositService)
	reportHandler := handlers.NewReportHandler(
		accountingService,
		dailyReportService,
		reconciliationService,
		agingService,
		depositService,
		clock,
		uploader,
	)
	healthHandler := handlers.NewHealthHandler(healthChecker)
	authMiddleware := middleware.NewAuthMiddleware(jwtManager)
	corsMiddleware := middleware.NewCORS(cfg)

	router := h.NewRouter(depositHandler, reportHandler, healthHandler, authMiddleware)

	handler := middleware.PanicRecovery(
		middleware.MetricsMiddleware(
			middleware.APILogging(
				corsMiddleware(router),
			),
		),
	)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Server running on %s", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
