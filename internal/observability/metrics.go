package observability

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~20s
		},
		[]string{"method", "route", "status"},
	)

	upstreamLatencySeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_latency_seconds",
			Help:    "Latency of upstream registry calls in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"source"},
	)

	sourceResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "source_results_total",
			Help: "Per-source outcomes of aggregated requests.",
		},
		[]string{"source", "outcome"},
	)

	cacheOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_ops_total",
			Help: "Cache operations by op and outcome.",
		},
		[]string{"op", "outcome"},
	)

	cacheResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_results_total",
			Help: "Cache lookups by outcome.",
		},
		[]string{"outcome"},
	)

	buildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_build_info",
			Help: "Build information for the binary.",
		},
		[]string{"version"},
	)
)

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	st := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, st).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, st).Observe(durationSeconds)
}

func ObserveUpstreamLatency(source string, durationSeconds float64) {
	upstreamLatencySeconds.WithLabelValues(source).Observe(durationSeconds)
}

func IncSourceResult(source string, ok bool) {
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	sourceResults.WithLabelValues(source, outcome).Inc()
}

func ObserveCacheOp(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	cacheOps.WithLabelValues(op, outcome).Inc()
}

func IncCacheHit()  { cacheResults.WithLabelValues("hit").Inc() }
func IncCacheMiss() { cacheResults.WithLabelValues("miss").Inc() }

func ExposeBuildInfo(version string) {
	if version == "" {
		version = "dev"
	}
	buildInfo.WithLabelValues(version).Set(1)
}
