package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce        sync.Once
	httpRequestsTotal   *prometheus.CounterVec
	httpLatencySeconds  *prometheus.HistogramVec
	httpErrorsTotal     *prometheus.CounterVec
	ledgerCreditsTotal  *prometheus.CounterVec
	ledgerPointsTotal   *prometheus.CounterVec
	transitionsTotal    *prometheus.CounterVec
	notificationsTotal  *prometheus.CounterVec
	summaryCacheLookups *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used across the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "points_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "points_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "points_http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		ledgerCreditsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "points_ledger_credits_total",
			Help: "Number of committed society ledger credits.",
		}, []string{"kind"})

		ledgerPointsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "points_ledger_points_total",
			Help: "Sum of points credited to society ledgers.",
		}, []string{"kind"})

		transitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "points_workflow_transitions_total",
			Help: "Committed lifecycle transitions by entity and target status.",
		}, []string{"entity", "to"})

		notificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "points_notifications_total",
			Help: "Notification events by outcome.",
		}, []string{"outcome"})

		summaryCacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "points_summary_cache_lookups_total",
			Help: "User points summary cache lookups by result.",
		}, []string{"result"})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			ledgerCreditsTotal,
			ledgerPointsTotal,
			transitionsTotal,
			notificationsTotal,
			summaryCacheLookups,
		)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for API error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// LedgerCredits counts credits applied to a society ledger.
func LedgerCredits() *prometheus.CounterVec {
	RegisterMetrics()
	return ledgerCreditsTotal
}

// LedgerPoints sums the points credited to society ledgers.
func LedgerPoints() *prometheus.CounterVec {
	RegisterMetrics()
	return ledgerPointsTotal
}

// Transitions counts lifecycle status changes.
func Transitions() *prometheus.CounterVec {
	RegisterMetrics()
	return transitionsTotal
}

// Notifications counts notification events by outcome
// (enqueued, dropped, published, publish_failed, delivered, delivery_failed).
func Notifications() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationsTotal
}

// SummaryCacheLookups counts cache hits and misses for user summaries.
func SummaryCacheLookups() *prometheus.CounterVec {
	RegisterMetrics()
	return summaryCacheLookups
}
