package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "search_request_duration_seconds",
			Help: "Duration of search request handling in seconds",
		},
		[]string{"tenant_id"},
	)

	FusedCandidates = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fusion_candidates_total",
			Help:    "Number of candidates produced by rank fusion per request",
			Buckets: prometheus.LinearBuckets(0, 25, 9),
		},
	)

	PredictionOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trajectory_prediction_outcomes_total",
			Help: "Prediction client outcomes by result",
		},
		[]string{"outcome"}, // success, timeout, http_error, bad_payload, circuit_open, disabled
	)

	BreakerOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "trajectory_breaker_open",
			Help: "1 when the prediction circuit breaker is open",
		},
	)

	ShadowComparisons = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shadow_comparisons_total",
			Help: "Total shadow comparisons recorded",
		},
	)

	ShadowFlushFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shadow_flush_failures_total",
			Help: "Shadow batch flushes that failed",
		},
	)

	ShadowBatchesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shadow_batches_dropped_total",
			Help: "Shadow batches dropped after exhausting flush retries",
		},
	)

	SelectionEventsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "selection_events_emitted_total",
			Help: "Selection events emitted to the fairness sink",
		},
		[]string{"event_type"},
	)
)
