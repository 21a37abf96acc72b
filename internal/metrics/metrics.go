package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherrag_http_requests_total",
			Help: "Total HTTP requests by route, method and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "weatherrag_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	HTTPActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "weatherrag_http_active_requests",
			Help: "Number of in-flight HTTP requests",
		},
	)

	UpstreamCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherrag_upstream_calls_total",
			Help: "Total calls to weather providers by endpoint and outcome",
		},
		[]string{"provider", "endpoint", "status"},
	)

	UpstreamLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "weatherrag_upstream_latency_seconds",
			Help:    "Weather provider call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider", "endpoint"},
	)

	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherrag_predictions_total",
			Help: "Total predictions by outcome",
		},
		[]string{"outcome"},
	)

	RetrievalTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherrag_retrievals_total",
			Help: "Knowledge retrievals by outcome (ok, failed, skipped)",
		},
		[]string{"outcome"},
	)

	IndexBuildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherrag_index_builds_total",
			Help: "Knowledge index initialisations by source (loaded, built, failed)",
		},
		[]string{"source"},
	)

	IndexChunks = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "weatherrag_index_chunks",
			Help: "Number of chunks in the active knowledge index",
		},
	)

	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "weatherrag_generation_duration_seconds",
			Help:    "Response generation latency by backend",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"backend", "status"},
	)
)
