package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	evaluations *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	lastScore   *prometheus.GaugeVec
	latency     *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		evaluations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowsentry_evaluations_total",
				Help: "Completed evaluations by symbol and emitted signal",
			},
			[]string{"symbol", "signal"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowsentry_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastScore: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "flowsentry_last_pump_score",
				Help: "Last confirmed pump score for a symbol",
			},
			[]string{"symbol"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "flowsentry_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordEvaluation records a completed evaluation and its signal.
func (r *Recorder) RecordEvaluation(symbol, signal string) {
	r.evaluations.WithLabelValues(symbol, signal).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastScore records the last confirmed pump score for a symbol.
func (r *Recorder) RecordLastScore(symbol string, score float64) {
	r.lastScore.WithLabelValues(symbol).Set(score)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
