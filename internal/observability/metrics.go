package observability

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce           sync.Once
	httpRequestsTotal      *prometheus.CounterVec
	httpLatencySeconds     *prometheus.HistogramVec
	httpErrorsTotal        *prometheus.CounterVec
	submissionsTotal       *prometheus.CounterVec
	verdictsTotal          *prometheus.CounterVec
	leaderboardBuildSecond prometheus.Histogram
	excludedRecordsTotal   prometheus.Counter
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		submissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "submissions_total",
			Help: "Submission attempts by activity kind and outcome.",
		}, []string{"kind", "outcome"})

		verdictsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "verdicts_total",
			Help: "Judge verdicts applied, by status.",
		}, []string{"status"})

		leaderboardBuildSecond = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "leaderboard_build_seconds",
			Help:    "Time spent loading, aggregating and ranking a leaderboard.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		})

		excludedRecordsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "leaderboard_excluded_records_total",
			Help: "Submission records skipped because they reference problems outside their activity.",
		})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			submissionsTotal,
			verdictsTotal,
			leaderboardBuildSecond,
			excludedRecordsTotal,
		)
	})
}

// HTTPRequests exposes the request counter.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the request latency histogram.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the error response counter.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// Submissions exposes the submission outcome counter.
func Submissions() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionsTotal
}

// Verdicts exposes the verdict counter.
func Verdicts() *prometheus.CounterVec {
	RegisterMetrics()
	return verdictsTotal
}

// LeaderboardBuild exposes the leaderboard build histogram.
func LeaderboardBuild() prometheus.Histogram {
	RegisterMetrics()
	return leaderboardBuildSecond
}

// ExcludedRecords exposes the data-integrity counter for skipped records.
func ExcludedRecords() prometheus.Counter {
	RegisterMetrics()
	return excludedRecordsTotal
}

// MetricsHandler exposes the Prometheus scrape endpoint via Fiber.
func MetricsHandler() fiber.Handler {
	RegisterMetrics()
	return adaptor.HTTPHandler(promhttp.Handler())
}
