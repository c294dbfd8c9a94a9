package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/taufikraden29/moneymoo-api/internal/config"
	"github.com/taufikraden29/moneymoo-api/internal/domain"
	"github.com/taufikraden29/moneymoo-api/internal/handler"
	"github.com/taufikraden29/moneymoo-api/internal/infra/cache"
	"github.com/taufikraden29/moneymoo-api/internal/infra/observability"
	"github.com/taufikraden29/moneymoo-api/internal/infra/resilience"
	"github.com/taufikraden29/moneymoo-api/internal/infra/supabase"
	"github.com/taufikraden29/moneymoo-api/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("list_cache_ttl", cfg.ListCacheTTL),
		zap.Duration("summary_cache_ttl", cfg.SummaryCacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.String("currency", cfg.Currency),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(context.Background(), "moneymoo-api", cfg.OTLPEndpoint)
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Caches ---
	listCache := cache.New[*domain.TransactionList](cfg.CacheSweepInterval)
	summaryCache := cache.New[*domain.FinancialSummary](cfg.CacheSweepInterval)
	defer listCache.Close()
	defer summaryCache.Close()

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("supabase")

	// --- Storage ---
	if cfg.SupabaseURL == "" || cfg.SupabaseServiceKey == "" {
		logger.Fatal("SUPABASE_URL and SUPABASE_SERVICE_KEY are required")
	}
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	store := supabase.NewClient(
		httpClient,
		cfg.SupabaseURL,
		cfg.SupabaseAnonKey,
		cfg.SupabaseServiceKey,
		cb,
		resilienceCfg,
		metrics,
		logger,
	)
	logger.Info("supabase store configured", zap.String("supabase_url", cfg.SupabaseURL))

	// --- Services ---
	reconciler := service.NewReconciler(store, metrics, logger)
	svcs := handler.Services{
		Transactions: service.NewTransactionsService(
			store, store, reconciler,
			listCache, summaryCache,
			cfg.ListCacheTTL, cfg.SummaryCacheTTL,
			metrics, logger,
		),
		Accounts:   service.NewAccountsService(store, logger),
		Categories: service.NewCategoriesService(store, logger),
		Debts:      service.NewDebtsService(store, store, reconciler, metrics, logger),
	}

	// --- Router ---
	router := handler.NewRouter(svcs, store, metrics, cfg.JWTSecret, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
