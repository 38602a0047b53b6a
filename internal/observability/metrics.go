// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Analytics cycle metrics
	CyclesTotal        *prometheus.CounterVec
	CycleDuration      prometheus.Histogram
	CyclesSuperseded   prometheus.Counter
	TriggersTotal      *prometheus.CounterVec
	PriceFetchFailures *prometheus.CounterVec

	// Cache metrics
	CacheLookups *prometheus.CounterVec

	// Tax metrics
	DisposalsRealized    prometheus.Counter
	TaxIntegrityFailures prometheus.Counter

	// Upstream metrics
	RPCCallLatency   *prometheus.HistogramVec
	WSMessages       prometheus.Counter
	WSReconnects     prometheus.Counter
	ProviderRequests *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulCycle prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "wallet_analytics"
	}

	return &Metrics{
		CyclesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analytics",
			Name:      "cycles_total",
			Help:      "Total number of analytics cycles by status",
		}, []string{"status"}),
		CycleDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analytics",
			Name:      "cycle_duration_seconds",
			Help:      "Analytics cycle duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}),
		CyclesSuperseded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analytics",
			Name:      "cycles_superseded_total",
			Help:      "Total number of cycles discarded because a newer trigger arrived",
		}),
		TriggersTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analytics",
			Name:      "triggers_total",
			Help:      "Total number of recomputation triggers by source",
		}, []string{"source"}),
		PriceFetchFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analytics",
			Name:      "price_fetch_failures_total",
			Help:      "Total number of isolated per-asset price fetch failures",
		}, []string{"asset"}),

		CacheLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Total number of price cache lookups by backend and result",
		}, []string{"backend", "result"}),

		DisposalsRealized: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tax",
			Name:      "disposals_realized_total",
			Help:      "Total number of realized disposals produced by replays",
		}),
		TaxIntegrityFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tax",
			Name:      "integrity_failures_total",
			Help:      "Total number of replays failing on insufficient lot balance",
		}),

		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		WSMessages: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "ws_messages_total",
			Help:      "Total number of wallet activity notifications received",
		}),
		WSReconnects: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "ws_reconnects_total",
			Help:      "Total number of WebSocket reconnections",
		}),
		ProviderRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pricefeed",
			Name:      "requests_total",
			Help:      "Total number of price provider requests by status",
		}, []string{"status"}),

		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		LastSuccessfulCycle: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_cycle_timestamp",
			Help:      "Unix timestamp of last successful analytics cycle",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordCycle records a finished analytics cycle.
func RecordCycle(status string, durationSeconds float64) {
	DefaultMetrics.CyclesTotal.WithLabelValues(status).Inc()
	DefaultMetrics.CycleDuration.Observe(durationSeconds)
	if status == "success" {
		DefaultMetrics.LastSuccessfulCycle.Set(float64(time.Now().Unix()))
	}
}

// RecordSuperseded increments the superseded cycles counter.
func RecordSuperseded() {
	DefaultMetrics.CyclesSuperseded.Inc()
}

// RecordTrigger records a recomputation trigger.
func RecordTrigger(source string) {
	DefaultMetrics.TriggersTotal.WithLabelValues(source).Inc()
}

// RecordPriceFetchFailure records an isolated price fetch failure.
func RecordPriceFetchFailure(asset string) {
	DefaultMetrics.PriceFetchFailures.WithLabelValues(asset).Inc()
}

// RecordCacheLookup records a cache hit or miss.
func RecordCacheLookup(backend string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	DefaultMetrics.CacheLookups.WithLabelValues(backend, result).Inc()
}

// RecordDisposals adds realized disposals.
func RecordDisposals(n int) {
	DefaultMetrics.DisposalsRealized.Add(float64(n))
}

// RecordTaxIntegrityFailure increments the integrity failure counter.
func RecordTaxIntegrityFailure() {
	DefaultMetrics.TaxIntegrityFailures.Inc()
}

// RecordRPCLatency records RPC call latency.
func RecordRPCLatency(method string, seconds float64) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
}

// RecordWSMessage increments the WebSocket notification counter.
func RecordWSMessage() {
	DefaultMetrics.WSMessages.Inc()
}

// RecordWSReconnect increments the WebSocket reconnect counter.
func RecordWSReconnect() {
	DefaultMetrics.WSReconnects.Inc()
}

// RecordProviderRequest records a price provider request outcome.
func RecordProviderRequest(status string) {
	DefaultMetrics.ProviderRequests.WithLabelValues(status).Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
