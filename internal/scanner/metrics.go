package scanner

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors updated by a Scanner. They are
// registered on their own registry so tests and the textfile export do not
// depend on the global default registry.
type Metrics struct {
	Registry *prometheus.Registry

	TickersScanned *prometheus.CounterVec
	ScanDuration   prometheus.Histogram
	ActiveWorkers  prometheus.Gauge
	TotalScans     prometheus.Counter
}

// NewMetrics creates and registers the scanner collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),

		TickersScanned: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "equitylens_scanner_tickers_total",
				Help: "Tickers processed by the golden cross scanner by outcome",
			},
			[]string{"outcome"},
		),

		ScanDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "equitylens_scanner_duration_seconds",
				Help:    "Wall time of a full scan",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
			},
		),

		ActiveWorkers: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "equitylens_scanner_active_workers",
				Help: "Tickers currently being processed",
			},
		),

		TotalScans: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "equitylens_scans_total",
				Help: "Total number of scans run",
			},
		),
	}

	m.Registry.MustRegister(m.TickersScanned, m.ScanDuration, m.ActiveWorkers, m.TotalScans)
	return m
}

// WriteToTextfile dumps the current values in the node_exporter textfile
// format so a cron-driven scan can be picked up by a local collector.
func (m *Metrics) WriteToTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}
