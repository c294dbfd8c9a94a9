package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/taufikraden29/moneymoo-api/internal/domain"
	"github.com/taufikraden29/moneymoo-api/internal/infra/observability"
	"github.com/taufikraden29/moneymoo-api/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Pinger reports whether the storage backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services bundles everything the router serves.
type Services struct {
	Transactions *service.TransactionsService
	Accounts     *service.AccountsService
	Categories   *service.CategoriesService
	Debts        *service.DebtsService
}

// NewRouter creates the HTTP router with all routes and middleware.
// All /v1 routes require a bearer token; the token subject scopes every
// operation to its owner.
func NewRouter(svcs Services, storage Pinger, metrics *observability.Metrics, jwtSecret string, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger, metrics))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(storage, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		r.Use(JWTAuthMiddleware(jwtSecret, logger))

		// =============================================
		// Transactions
		// =============================================
		r.Get("/transactions", listTransactionsHandler(svcs.Transactions, logger))
		r.Get("/transactions/summary", transactionSummaryHandler(svcs.Transactions, logger))
		r.Get("/summary", transactionSummaryHandler(svcs.Transactions, logger))
		r.Post("/transactions", createTransactionHandler(svcs.Transactions, logger))
		r.Get("/transactions/{txID}", getTransactionHandler(svcs.Transactions, logger))
		r.Put("/transactions/{txID}", updateTransactionHandler(svcs.Transactions, logger))
		r.Delete("/transactions/{txID}", deleteTransactionHandler(svcs.Transactions, logger))

		// =============================================
		// Accounts
		// =============================================
		r.Get("/accounts", listAccountsHandler(svcs.Accounts, logger))
		r.Post("/accounts", createAccountHandler(svcs.Accounts, logger))
		r.Get("/accounts/{accountID}", getAccountHandler(svcs.Accounts, logger))
		r.Delete("/accounts/{accountID}", deleteAccountHandler(svcs.Accounts, logger))

		// =============================================
		// Categories
		// =============================================
		r.Get("/categories", listCategoriesHandler(svcs.Categories, logger))
		r.Post("/categories", createCategoryHandler(svcs.Categories, logger))
		r.Delete("/categories/{categoryID}", deleteCategoryHandler(svcs.Categories, logger))

		// =============================================
		// Debts & Payments
		// =============================================
		r.Get("/debts", listDebtsHandler(svcs.Debts, logger))
		r.Post("/debts", createDebtHandler(svcs.Debts, logger))
		r.Get("/debts/{debtID}", getDebtHandler(svcs.Debts, logger))
		r.Delete("/debts/{debtID}", deleteDebtHandler(svcs.Debts, logger))
		r.Get("/debts/{debtID}/payments", listDebtPaymentsHandler(svcs.Debts, logger))
		r.Post("/debts/{debtID}/payments", createDebtPaymentHandler(svcs.Debts, logger))
		r.Delete("/debts/{debtID}/payments/{paymentID}", deleteDebtPaymentHandler(svcs.Debts, logger))

		// =============================================
		// Engine metrics
		// =============================================
		r.Get("/metrics/engine", engineMetricsHandler(metrics, logger))
	})

	return r
}

// ============================================================
// Health & Metrics
// ============================================================

func healthzHandler(storage Pinger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "moneymoo-api", Status: "healthy", LatencyMs: 0, LastChecked: now},
		}

		if storage != nil {
			start := time.Now()
			err := storage.Ping(ctx)
			latency := time.Since(start).Milliseconds()
			status := "healthy"
			if err != nil {
				logger.Warn("health: storage ping failed", zap.Error(err))
				status = "degraded"
			}
			services = append(services, domain.ServiceHealth{
				Name: "supabase", Status: status, LatencyMs: latency, LastChecked: now,
			})
		}

		overallStatus := "healthy"
		for _, s := range services {
			if s.Status == "unhealthy" {
				overallStatus = "unhealthy"
				break
			}
			if s.Status == "degraded" {
				overallStatus = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overallStatus,
			Services: services,
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func engineMetricsHandler(metrics *observability.Metrics, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot := metrics.GetEngineSnapshot()
		writeJSON(w, http.StatusOK, snapshot)
	}
}
