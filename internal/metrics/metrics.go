// Package metrics exposes the Prometheus collectors shared by the API
// and worker processes.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	UploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "visionq_uploads_total",
			Help: "Total number of image uploads accepted by status",
		},
		[]string{"status"},
	)

	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "visionq_api_requests_total",
			Help: "Total number of API requests by route and status",
		},
		[]string{"route", "status"},
	)

	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "visionq_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	TasksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "visionq_tasks_total",
			Help: "Total number of tasks processed by terminal status",
		},
		[]string{"status"},
	)

	ProcessingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "visionq_processing_duration_seconds",
			Help:    "Detection pipeline processing duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"status"},
	)

	QRDecodeStrategyAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "visionq_qr_decode_strategy_attempts_total",
			Help: "Total QR decode strategy attempts by strategy and outcome",
		},
		[]string{"strategy", "outcome"},
	)

	QueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "visionq_queue_depth",
			Help: "Approximate number of in-flight jobs this worker has accepted",
		},
	)

	ModelCacheRebuilds = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "visionq_model_cache_rebuilds_total",
			Help: "Total number of times the model cache slot was rebuilt for a new key",
		},
	)

	CacheErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "visionq_cache_errors_total",
			Help: "Total number of transient cache errors by operation",
		},
		[]string{"operation"},
	)

	StoreErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "visionq_store_errors_total",
			Help: "Total number of result store errors by operation",
		},
		[]string{"operation"},
	)
)

func init() {
	prometheus.MustRegister(
		UploadsTotal,
		APIRequestsTotal,
		APIRequestDuration,
		TasksTotal,
		ProcessingDuration,
		QRDecodeStrategyAttempts,
		QueueDepth,
		ModelCacheRebuilds,
		CacheErrorsTotal,
		StoreErrorsTotal,
	)
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer measures elapsed wall time for a single operation.
type Timer struct {
	start time.Time
}

func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
