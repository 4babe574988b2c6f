package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Backfill metrics
	BackfillRunsTotal    *prometheus.CounterVec
	BackfillRunDuration  *prometheus.HistogramVec
	BackfillPeriodsTotal *prometheus.CounterVec

	// Cache metrics
	CacheLookupsTotal *prometheus.CounterVec

	// Ads platform metrics
	FetchCalls    *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec
	FetchFailures *prometheus.CounterVec
	FetchRetries  *prometheus.CounterVec

	// Reconciliation metrics
	DiscrepanciesTotal *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
		),

		BackfillRunsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backfill_runs_total",
				Help: "Total number of backfill batch runs",
			},
			[]string{"status"},
		),

		BackfillRunDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "backfill_run_duration_seconds",
				Help:    "Backfill batch duration in seconds",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
			},
			[]string{"status"},
		),

		BackfillPeriodsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backfill_periods_total",
				Help: "Total number of periods processed by backfill",
			},
			[]string{"status"},
		),

		CacheLookupsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_lookups_total",
				Help: "Total number of summary cache lookups",
			},
			[]string{"platform", "result"},
		),

		FetchCalls: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ads_fetch_calls_total",
				Help: "Total number of ads platform API calls",
			},
			[]string{"platform", "status"},
		),

		FetchDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ads_fetch_duration_seconds",
				Help:    "Ads platform API call duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"platform"},
		),

		FetchFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ads_fetch_failures_total",
				Help: "Total number of ads platform API failures",
			},
			[]string{"platform", "error_type"},
		),

		FetchRetries: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ads_fetch_retries_total",
				Help: "Total number of rate-limited fetches retried",
			},
			[]string{"account"},
		),

		DiscrepanciesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reconciliation_discrepancies_total",
				Help: "Total number of reconciliation discrepancies found",
			},
			[]string{"platform", "severity"},
		),
	}
}

// HTTP request metrics
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// Backfill batch metrics
func (m *Metrics) RecordBackfillRun(status string, duration time.Duration) {
	m.BackfillRunsTotal.WithLabelValues(status).Inc()
	m.BackfillRunDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// Per-period outcome metrics
func (m *Metrics) RecordBackfillPeriod(status string) {
	m.BackfillPeriodsTotal.WithLabelValues(status).Inc()
}

// Cache lookup metrics
func (m *Metrics) RecordCacheLookup(platform, result string) {
	m.CacheLookupsTotal.WithLabelValues(platform, result).Inc()
}

// Ads platform call metrics
func (m *Metrics) RecordFetchCall(platform, status string, duration time.Duration) {
	m.FetchCalls.WithLabelValues(platform, status).Inc()
	m.FetchDuration.WithLabelValues(platform).Observe(duration.Seconds())
}

// Ads platform failure metrics
func (m *Metrics) RecordFetchFailure(platform, errorType string) {
	m.FetchFailures.WithLabelValues(platform, errorType).Inc()
}

// Rate-limit retry metrics
func (m *Metrics) RecordFetchRetry(account string) {
	m.FetchRetries.WithLabelValues(account).Inc()
}

// Reconciliation discrepancy metrics
func (m *Metrics) RecordDiscrepancy(platform, severity string) {
	m.DiscrepanciesTotal.WithLabelValues(platform, severity).Inc()
}

// HTTP requests in flight counter
func (m *Metrics) IncHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Inc()
}

// HTTP requests in flight counter
func (m *Metrics) DecHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Dec()
}
