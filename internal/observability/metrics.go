package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every grocerybi collector. It is separate from the
// prometheus default registry so tests can read values without interference.
var Registry = prometheus.NewRegistry()

var (
	RecordsLoaded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "grocerybi_records_loaded_total",
			Help: "Sales records read from a CSV file or warehouse table",
		},
	)

	ReportBuilds = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grocerybi_report_builds_total",
			Help: "Report builds by outcome",
		},
		[]string{"outcome"},
	)

	ViewDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "grocerybi_view_duration_seconds",
			Help:    "Time spent evaluating one aggregation view",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		},
		[]string{"view"},
	)

	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grocerybi_http_requests_total",
			Help: "HTTP API requests by route and status code",
		},
		[]string{"route", "code"},
	)

	CacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "grocerybi_cache_hits_total",
			Help: "Report cache hits",
		},
	)

	CacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "grocerybi_cache_misses_total",
			Help: "Report cache misses",
		},
	)
)

func init() {
	Registry.MustRegister(
		RecordsLoaded,
		ReportBuilds,
		ViewDuration,
		HTTPRequests,
		CacheHits,
		CacheMisses,
		prometheus.NewGoCollector(),
	)
}

// MetricsHandler exposes Registry in the prometheus text format
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}
