// Package metrics exposes Prometheus counters for a link-check run.
// All methods are safe to call on a nil *Metrics, which records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors for one run.
// Uses an isolated prometheus.Registry so runs (and tests) never collide
// with the global default registry.
type Metrics struct {
	Registry *prometheus.Registry

	// External probe metrics
	ProbesTotal          *prometheus.CounterVec
	ProbeDurationSeconds *prometheus.HistogramVec
	ProbesInFlight       prometheus.Gauge
	CacheHitsTotal       prometheus.Counter

	// Validation metrics
	LinksValidatedTotal *prometheus.CounterVec

	// Extraction metrics
	FilesExtractedTotal *prometheus.CounterVec
	LinksExtractedTotal prometheus.Counter

	// Build info
	BuildInfo *prometheus.GaugeVec
}

// New creates a Metrics instance with all collectors registered on an
// isolated registry.
func New(version string) *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,

		ProbesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "doclinks_probes_total",
				Help: "Total number of external link probes by result.",
			},
			[]string{"result"},
		),
		ProbeDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "doclinks_probe_duration_seconds",
				Help:    "Duration of external link probes in seconds.",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~20s
			},
			[]string{"result"},
		),
		ProbesInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "doclinks_probes_in_flight",
				Help: "Number of external probes currently waiting on the network.",
			},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "doclinks_probe_cache_hits_total",
				Help: "Total number of external links answered from the run cache.",
			},
		),

		LinksValidatedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "doclinks_links_validated_total",
				Help: "Total number of validated links by outcome.",
			},
			[]string{"outcome"},
		),

		FilesExtractedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "doclinks_files_extracted_total",
				Help: "Total number of files processed by the link extractor.",
			},
			[]string{"status"},
		),
		LinksExtractedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "doclinks_links_extracted_total",
				Help: "Total number of links extracted from documents.",
			},
		),

		BuildInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "doclinks_info",
				Help: "Build information for the running doclinks binary.",
			},
			[]string{"version"},
		),
	}

	reg.MustRegister(
		m.ProbesTotal,
		m.ProbeDurationSeconds,
		m.ProbesInFlight,
		m.CacheHitsTotal,
		m.LinksValidatedTotal,
		m.FilesExtractedTotal,
		m.LinksExtractedTotal,
		m.BuildInfo,
	)

	m.BuildInfo.WithLabelValues(version).Set(1)

	return m
}

// ProbeStarted marks a network probe as in flight.
func (m *Metrics) ProbeStarted() {
	if m == nil {
		return
	}
	m.ProbesInFlight.Inc()
}

// ProbeFinished records a completed probe.
func (m *Metrics) ProbeFinished(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.ProbesInFlight.Dec()
	m.ProbesTotal.WithLabelValues(result).Inc()
	m.ProbeDurationSeconds.WithLabelValues(result).Observe(d.Seconds())
}

// ProbeSkipped records a probe answered without a request.
func (m *Metrics) ProbeSkipped() {
	if m == nil {
		return
	}
	m.ProbesTotal.WithLabelValues("skipped").Inc()
}

// CacheHit records a probe answered from the cache.
func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.CacheHitsTotal.Inc()
}

// LinkValidated records the outcome of one validated link.
func (m *Metrics) LinkValidated(outcome string) {
	if m == nil {
		return
	}
	m.LinksValidatedTotal.WithLabelValues(outcome).Inc()
}

// FileExtracted records one processed file and the number of links it produced.
func (m *Metrics) FileExtracted(links int, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.FilesExtractedTotal.WithLabelValues(status).Inc()
	m.LinksExtractedTotal.Add(float64(links))
}

// WriteTextfile writes all metrics in the Prometheus text exposition
// format, suitable for the node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.Registry)
}
