package prometheus

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var registry = prometheus.NewRegistry()

var registerer = prometheus.WrapRegistererWith(nil, registry)

var (
	// Latency buckets in milliseconds
	latencyBuckets = []float64{
		5, 10, 25, // Fast responses (5-25ms)
		50, 100, 250, // Normal responses (50-250ms)
		500, 1000, 2500, // Slower responses (500ms-2.5s)
		5000, 10000, 30000, // Very slow/timeout (5s-30s)
	}

	RequestTotal = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "envolveai_requests_total",
			Help: "Total number of requests processed",
		},
		[]string{"method", "status"},
	)

	RequestLatency = promauto.With(registerer).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "envolveai_latency_ms",
			Help:    "Request latency in milliseconds",
			Buckets: latencyBuckets,
		},
	)

	OriginRejectedTotal = promauto.With(registerer).NewCounter(
		prometheus.CounterOpts{
			Name: "envolveai_origin_rejected_total",
			Help: "Requests rejected by the origin allow list",
		},
	)

	RateLimitedTotal = promauto.With(registerer).NewCounter(
		prometheus.CounterOpts{
			Name: "envolveai_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
	)

	UpstreamLatency = promauto.With(registerer).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "envolveai_upstream_latency_ms",
			Help:    "Generative API call latency in milliseconds",
			Buckets: latencyBuckets,
		},
	)

	UpstreamErrorsTotal = promauto.With(registerer).NewCounterVec(
		prometheus.CounterOpts{
			Name: "envolveai_upstream_errors_total",
			Help: "Generative API non-success responses by status code",
		},
		[]string{"status"},
	)
)

var initializeOnce sync.Once

func Initialize() {
	initializeOnce.Do(func() {
		registry.MustRegister(
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)

		prometheus.DefaultRegisterer = registry
		prometheus.DefaultGatherer = registry
	})
}
