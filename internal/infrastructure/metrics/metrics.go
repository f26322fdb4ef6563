package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Slide-image pipeline metrics
var (
	// Generation outcomes, labeled success / failed / rate_limited
	GenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "presentation",
			Subsystem: "slide_image",
			Name:      "generations_total",
			Help:      "Total image generation attempts by outcome",
		},
		[]string{"outcome"},
	)

	// Provider call duration
	GenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "presentation",
			Subsystem: "slide_image",
			Name:      "generation_duration_seconds",
			Help:      "Image generation call duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		},
	)

	// Dedup cache outcomes, labeled hit / miss / negative
	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "presentation",
			Subsystem: "slide_image",
			Name:      "cache_lookups_total",
			Help:      "Dedup cache lookups by outcome",
		},
		[]string{"outcome"},
	)

	// Store lookups, labeled hit / miss / error
	StoreLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "presentation",
			Subsystem: "slide_image",
			Name:      "store_lookups_total",
			Help:      "Persistent image store lookups by outcome",
		},
		[]string{"outcome"},
	)

	// Store writes, labeled success / failed
	StoreWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "presentation",
			Subsystem: "slide_image",
			Name:      "store_writes_total",
			Help:      "Persistent image store writes by outcome",
		},
		[]string{"outcome"},
	)

	// Current generation queue depth
	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "presentation",
			Subsystem: "slide_image",
			Name:      "queue_depth",
			Help:      "Slides currently waiting in the generation queue",
		},
	)

	// Time items spend queued before dispatch
	QueueWaitDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "presentation",
			Subsystem: "slide_image",
			Name:      "queue_wait_seconds",
			Help:      "Time between enqueue and dispatch in seconds",
			Buckets:   []float64{0.5, 1, 3, 6, 12, 30, 60},
		},
	)
)

// RecordGeneration records one generation attempt.
func RecordGeneration(outcome string, durationSec float64) {
	GenerationsTotal.WithLabelValues(outcome).Inc()
	GenerationDuration.Observe(durationSec)
}

// RecordCacheLookup records a dedup cache lookup outcome.
func RecordCacheLookup(outcome string) {
	CacheLookupsTotal.WithLabelValues(outcome).Inc()
}

// RecordStoreLookup records a store lookup outcome.
func RecordStoreLookup(outcome string) {
	StoreLookupsTotal.WithLabelValues(outcome).Inc()
}

// RecordStoreWrite records a store write outcome.
func RecordStoreWrite(outcome string) {
	StoreWritesTotal.WithLabelValues(outcome).Inc()
}
