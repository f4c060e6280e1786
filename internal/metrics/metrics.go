package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docqa_http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "docqa_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"method", "path"},
	)

	// Outcome is "ok" or "error".
	CompletionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docqa_completions_total",
			Help: "Completion calls by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	CompletionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "docqa_completion_duration_seconds",
			Help:    "Latency of completion calls in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"provider"},
	)

	// The whole document is resent on every query, so this tracks prompt cost.
	ExtractedBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "docqa_extracted_bytes",
			Help:    "Size of extracted document text per query",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
		},
	)

	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "docqa_sessions_active",
			Help: "Number of live in-memory sessions",
		},
	)
)
