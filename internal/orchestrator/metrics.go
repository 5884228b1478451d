package orchestrator

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Run statuses used as the status label.
const (
	statusSuccess = "success"
	statusFailure = "failure"
)

// Metrics holds the analyzer run metrics on a private registry, so several
// orchestrators (and tests) never collide on the default registerer.
type Metrics struct {
	registry *prometheus.Registry

	// runs counts analyzer runs.
	// Labels: analyzer, status (success, failure)
	runs *prometheus.CounterVec

	// duration measures wall time of scan plus analyze.
	// Labels: analyzer
	duration *prometheus.HistogramVec

	// records counts records produced by scanners.
	// Labels: analyzer
	records *prometheus.CounterVec
}

// NewMetrics creates and registers the analyzer metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "assetprof",
			Subsystem: "analyzer",
			Name:      "runs_total",
			Help:      "Total analyzer runs by status",
		}, []string{"analyzer", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "assetprof",
			Subsystem: "analyzer",
			Name:      "duration_seconds",
			Help:      "Analyzer scan and analyze duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"analyzer"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "assetprof",
			Subsystem: "analyzer",
			Name:      "records_total",
			Help:      "Total asset records scanned",
		}, []string{"analyzer"}),
	}
	m.registry.MustRegister(m.runs, m.duration, m.records)
	return m
}

// Registry exposes the private registry for gathering.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteToTextfile writes the current metrics in the text exposition format,
// for pickup by a node_exporter textfile collector.
func (m *Metrics) WriteToTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

func (m *Metrics) observe(analyzer string, err error, elapsed time.Duration, records int) {
	if m == nil {
		return
	}
	status := statusSuccess
	if err != nil {
		status = statusFailure
	}
	m.runs.WithLabelValues(analyzer, status).Inc()
	m.duration.WithLabelValues(analyzer).Observe(elapsed.Seconds())
	m.records.WithLabelValues(analyzer).Add(float64(records))
}
