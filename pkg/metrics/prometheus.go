package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	fits        *prometheus.CounterVec
	scenarios   *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	tableRows   prometheus.Gauge
	rowFailures prometheus.Gauge
	refresh     prometheus.Histogram
	latency     *prometheus.HistogramVec
}

// New creates a recorder registered on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		fits: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sumreport_fits_total",
				Help: "Trendline fits by method and outcome",
			},
			[]string{"method", "outcome"},
		),
		scenarios: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sumreport_scenarios_total",
				Help: "Scenario computations by source",
			},
			[]string{"source"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sumreport_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		tableRows: f.NewGauge(prometheus.GaugeOpts{
			Name: "sumreport_table_rows",
			Help: "Rows in the fund table after the last refresh",
		}),
		rowFailures: f.NewGauge(prometheus.GaugeOpts{
			Name: "sumreport_table_row_failures",
			Help: "Report files that failed during the last refresh",
		}),
		refresh: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "sumreport_refresh_duration_seconds",
			Help:    "Duration of fund table refreshes",
			Buckets: prometheus.DefBuckets,
		}),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sumreport_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordFit counts a fit. ok=false marks a rejected input.
func (r *Recorder) RecordFit(method string, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	r.fits.WithLabelValues(method, outcome).Inc()
}

func (r *Recorder) RecordScenario(source string) {
	r.scenarios.WithLabelValues(source).Inc()
}

// RecordRefresh records a completed table refresh.
func (r *Recorder) RecordRefresh(seconds float64, rows, failed int) {
	r.refresh.Observe(seconds)
	r.tableRows.Set(float64(rows))
	r.rowFailures.Set(float64(failed))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
