package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	EndpointLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sumreport",
			Subsystem: "api",
			Name:      "latency_seconds",
			Help:      "Latency of report endpoints",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	EndpointErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sumreport",
			Subsystem: "api",
			Name:      "errors_total",
			Help:      "Errors by report endpoint and code",
		},
		[]string{"endpoint", "code"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(EndpointLatency, EndpointErrors)
	})
}

// Observe records the latency of endpoint since start.
func Observe(endpoint string, start time.Time) {
	EndpointLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

// Fail counts an error response for endpoint.
func Fail(endpoint, code string) {
	EndpointErrors.WithLabelValues(endpoint, code).Inc()
}
