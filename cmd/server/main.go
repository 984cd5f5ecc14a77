package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	appbilling "github.com/tradelane/backend/internal/application/billing"
	appdocument "github.com/tradelane/backend/internal/application/document"
	appgovernance "github.com/tradelane/backend/internal/application/governance"
	"github.com/tradelane/backend/internal/infrastructure/cache"
	"github.com/tradelane/backend/internal/infrastructure/config"
	"github.com/tradelane/backend/internal/infrastructure/logger"
	"github.com/tradelane/backend/internal/infrastructure/persistence"
	"github.com/tradelane/backend/internal/infrastructure/scheduler"
	"github.com/tradelane/backend/internal/infrastructure/telemetry"
	"github.com/tradelane/backend/internal/interfaces/http/handler"
	"github.com/tradelane/backend/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Tradelane Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Telemetry
	meterProvider, err := telemetry.NewMeterProvider(context.Background(), telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.ExportInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	defer func() {
		if err := meterProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down metrics", zap.Error(err))
		}
	}()

	businessMetrics, err := telemetry.NewBusinessMetrics(meterProvider.Meter("tradelane"), log)
	if err != nil {
		log.Fatal("Failed to create business metrics", zap.Error(err))
	}

	// Database
	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Repositories
	documentRepo := persistence.NewGormDocumentRepository(db.DB)
	accountRepo := persistence.NewGormAccountRepository(db.DB)
	quarterRepo := persistence.NewGormQuarterRepository(db.DB)
	ruleRepo := persistence.NewGormGovernanceRepository(db.DB)

	// Settlement dedupe store (Redis with in-memory fallback)
	storeFactory := cache.NewIdempotencyStoreFactory(cfg.Redis, cache.WithLogger(log))
	dedupeStore, err := storeFactory.CreateStore()
	if err != nil {
		log.Fatal("Failed to create settlement dedupe store", zap.Error(err))
	}
	defer func() {
		if err := dedupeStore.Close(); err != nil {
			log.Error("Error closing dedupe store", zap.Error(err))
		}
	}()

	// Application services
	feeSchedule := appbilling.FeeScheduleFromConfig(cfg.Billing, log)
	billingService := appbilling.NewService(accountRepo, quarterRepo, feeSchedule, log,
		appbilling.WithDedupeStore(dedupeStore, cfg.Billing.SettlementDedupeTTL),
		appbilling.WithDefaultTimezone(cfg.Billing.DefaultTimezone),
	)
	documentService := appdocument.NewService(documentRepo, log,
		appdocument.WithVolumeRecorder(billingService),
		appdocument.WithMetrics(businessMetrics),
	)
	governanceService := appgovernance.NewService(ruleRepo, log,
		appgovernance.WithMetrics(businessMetrics),
	)

	// Quarter-close scheduler
	if cfg.Billing.QuarterCloseEnabled {
		billingScheduler := scheduler.NewBillingScheduler(billingService, cfg.Billing.QuarterCloseSchedule, log)
		if err := billingScheduler.Start(); err != nil {
			log.Fatal("Failed to start billing scheduler", zap.Error(err))
		}
		defer billingScheduler.Stop()
	}

	// HTTP layer
	engine := router.New(cfg, log, router.Handlers{
		Document:   handler.NewDocumentHandler(documentService),
		Billing:    handler.NewBillingHandler(billingService),
		Governance: handler.NewGovernanceHandler(governanceService),
		System:     handler.NewSystemHandler(db),
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
