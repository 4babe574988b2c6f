package main

import (
	"fmt"
	"os"
	"time"

	"hotelmetrics/internal/delivery"
	"hotelmetrics/internal/domain"
	"hotelmetrics/internal/infrastructure"
	"hotelmetrics/internal/usecase"
	"hotelmetrics/pkg/config"
	"hotelmetrics/pkg/logger"
	"hotelmetrics/pkg/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level)
	log.Component("server").Info("Starting server")

	m := metrics.New()

	store, err := infrastructure.Open(cfg.Store.Path, log)
	if err != nil {
		log.WithError(err).Error("Failed to open store")
		os.Exit(1)
	}
	defer store.Close()

	cache := infrastructure.NewSummaryCache(store)
	fetchers := infrastructure.PlatformFetchers(
		cfg.Ads.MetaAPIURL, cfg.Ads.GoogleAPIURL, cfg.Ads.AccessToken,
		cfg.Ads.RequestTimeout, log, m,
	)

	policy := usecase.NewFreshnessPolicy(cfg.Cache.DefaultTTL, map[domain.Platform]time.Duration{
		domain.PlatformMeta:   cfg.Cache.MetaTTL,
		domain.PlatformGoogle: cfg.Cache.GoogleTTL,
	})

	summaryService := usecase.NewSummaryService(store, cache, policy, log, m)
	reconciler := usecase.NewReconciler(cfg.Cache.Tolerance, log, m)
	auditService := usecase.NewAuditService(store, cache, fetchers, reconciler, log)
	orchestrator := usecase.NewBackfillOrchestrator(
		store, cache, store, store, fetchers, policy, log, m,
		cfg.Backfill.FetchesPerSecond, cfg.Backfill.MaxRetries, cfg.Backfill.RetryBackoff,
	)

	handlers := delivery.NewHTTPHandlers(summaryService, auditService, orchestrator, log, m)
	router := delivery.NewHTTPRouter(handlers, log, m)

	engine := router.SetupRoutes()
	log.WithField("port", cfg.Server.Port).Info("Listening")
	if err := engine.Run(":" + cfg.Server.Port); err != nil {
		log.WithError(err).Error("Server stopped")
		os.Exit(1)
	}
}
