// Package metrics exposes the worker's Prometheus counters, histograms
// and gauges.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	EventsProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventpipe_events_processed_total",
			Help: "Total number of events successfully persisted, by event type",
		},
		[]string{"event_type"},
	)

	EventsDuplicateTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventpipe_events_duplicate_total",
			Help: "Total number of events short-circuited by the dedupe gate, by event type",
		},
		[]string{"event_type"},
	)

	EventsFailedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventpipe_events_failed_total",
			Help: "Total number of events dead-lettered, by error kind",
		},
		[]string{"error_kind"},
	)

	EventsTimedOutTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "eventpipe_events_timed_out_total",
			Help: "Total number of events abandoned after exceeding the per-event deadline",
		},
	)

	ProcessingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eventpipe_processing_duration_seconds",
			Help:    "Time taken to process a single event end to end",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"event_type"},
	)

	QueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "eventpipe_queue_depth",
			Help: "Stream length as last observed by the dispatcher",
		},
	)

	PendingCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "eventpipe_pending_count",
			Help: "Unacknowledged messages in the consumer group as last observed",
		},
	)

	BatchSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "eventpipe_batch_size",
			Help:    "Number of messages read per batch",
			Buckets: []float64{1, 2, 5, 10, 20, 50, 100},
		},
	)

	ReadErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "eventpipe_read_errors_total",
			Help: "Total number of unhandled errors from the broker read path",
		},
	)
)

func init() {
	prometheus.MustRegister(
		EventsProcessedTotal,
		EventsDuplicateTotal,
		EventsFailedTotal,
		EventsTimedOutTotal,
		ProcessingDuration,
		QueueDepth,
		PendingCount,
		BatchSize,
		ReadErrorsTotal,
	)
}

// Handler returns the Prometheus scrape endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer times a single operation for later observation into a
// histogram.
type Timer struct {
	start time.Time
}

// NewTimer starts a timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDurationVec records the elapsed time into histogram under the
// given label values.
func (t *Timer) ObserveDurationVec(histogram *prometheus.HistogramVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}
