package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"

	"github.com/taufikraden29/moneymoo-api/internal/domain"
)

// Metrics holds all Prometheus metrics for the ledger engine.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	storageErrors   *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	driftTotal      *prometheus.CounterVec
	requestsTotal   *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "moneymoo_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		storageErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moneymoo_storage_errors_total",
				Help: "Total errors from the storage backend.",
			},
			[]string{"store"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moneymoo_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moneymoo_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		driftTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moneymoo_reconciliation_drift_total",
				Help: "Ledger writes whose balance adjustment failed and could not be compensated.",
			},
			[]string{"operation"},
		),
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moneymoo_requests_total",
				Help: "Total requests processed.",
			},
			[]string{"status"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrStorageError increments the storage error counter.
func (m *Metrics) IncrStorageError(store string) {
	m.storageErrors.WithLabelValues(store).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrDrift records a write whose compensation failed, leaving an account
// balance out of step with the transaction log until the next manual
// reconciliation.
func (m *Metrics) IncrDrift(operation string) {
	m.driftTotal.WithLabelValues(operation).Inc()
}

// IncrRequest increments the request counter with a status label.
func (m *Metrics) IncrRequest(status string) {
	m.requestsTotal.WithLabelValues(status).Inc()
}

// GetEngineSnapshot returns a snapshot of engine metrics suitable for the
// GET /v1/metrics/engine endpoint.
func (m *Metrics) GetEngineSnapshot() *domain.EngineMetrics {
	// Prometheus counters expose cumulative values.
	totalRequests := getCounterValue(m.requestsTotal, "success") +
		getCounterValue(m.requestsTotal, "error")
	errorCount := getCounterValue(m.requestsTotal, "error")
	cacheHits := getCounterValue(m.cacheHits, "transactions") +
		getCounterValue(m.cacheHits, "summary")
	cacheMisses := getCounterValue(m.cacheMisses, "transactions") +
		getCounterValue(m.cacheMisses, "summary")
	drift := getCounterValue(m.driftTotal, "create") +
		getCounterValue(m.driftTotal, "update") +
		getCounterValue(m.driftTotal, "delete") +
		getCounterValue(m.driftTotal, "payment")

	errorRate := float64(0)
	cacheHitRate := float64(0)
	if totalRequests > 0 {
		errorRate = errorCount / totalRequests
	}
	if cacheHits+cacheMisses > 0 {
		cacheHitRate = cacheHits / (cacheHits + cacheMisses)
	}

	return &domain.EngineMetrics{
		TotalRequests: int64(totalRequests),
		ErrorRate:     errorRate,
		CacheHitRate:  cacheHitRate,
		DriftTotal:    int64(drift),
		Period:        "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
