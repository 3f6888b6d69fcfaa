package fhsweep

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts what a sweep did, exported once at its end in the textfile format
type Metrics struct {
	Registry     *prometheus.Registry
	Runs         *prometheus.CounterVec
	RunSeconds   prometheus.Histogram
	ArchiveBytes prometheus.Counter

	ArchiveFailures prometheus.Counter
}

// NewMetrics registers the sweep metrics on a fresh registry
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fhsweep",
			Name:      "runs_total",
			Help:      "Simulator runs by outcome.",
		}, []string{"status"}),
		RunSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "fhsweep",
			Name:      "run_duration_seconds",
			Help:      "Wall time of one simulator run.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 14),
		}),
		ArchiveBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fhsweep",
			Name:      "archive_bytes_total",
			Help:      "Bytes written to result archives.",
		}),
		ArchiveFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fhsweep",
			Name:      "archive_failures_total",
			Help:      "Result folders that could not be archived.",
		}),
	}
	m.Registry.MustRegister(m.Runs, m.RunSeconds, m.ArchiveBytes, m.ArchiveFailures)
	return m
}

// observe records a finished run
func (m *Metrics) observe(status string, seconds float64) {
	m.Runs.WithLabelValues(status).Inc()
	if status != StatusDryRun {
		m.RunSeconds.Observe(seconds)
	}
}

// WriteToFile exports the registry in the node-exporter textfile format
func (m *Metrics) WriteToFile(filename string) error {
	return prometheus.WriteToTextfile(filename, m.Registry)
}
