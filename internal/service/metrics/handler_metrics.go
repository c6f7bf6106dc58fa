package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	HandlerLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "flowsentry",
			Subsystem: "api",
			Name:      "latency_seconds",
			Help:      "Latency of API endpoints",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	HandlerErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "flowsentry",
			Subsystem: "api",
			Name:      "errors_total",
			Help:      "Errors by API endpoint",
		},
		[]string{"endpoint"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(HandlerLatency, HandlerErrors)
	})
}
