package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain repository.Metrics using Prometheus.
type Recorder struct {
	passesTotal          *prometheus.CounterVec
	interpretationsTotal *prometheus.CounterVec
	corruptPointsTotal   *prometheus.CounterVec
	detectorSeconds      *prometheus.HistogramVec
	lastPrice            *prometheus.GaugeVec
	snapshotVersion      prometheus.Gauge
}

// New creates a Prometheus metrics recorder for the detection engine.
func New() *Recorder {
	return &Recorder{
		passesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "forcefield_passes_total",
				Help: "Detection passes by result (ok, partial, error)",
			},
			[]string{"result"},
		),
		interpretationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "forcefield_interpretations_total",
				Help: "Interpretations appended to the codex by type",
			},
			[]string{"tipo"},
		),
		corruptPointsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "forcefield_corrupt_points_total",
				Help: "Price points dropped during ingestion by reason",
			},
			[]string{"reason"},
		),
		detectorSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "forcefield_detector_duration_seconds",
				Help:    "Per-detector duration within a pass",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"detector"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "forcefield_last_price",
				Help: "Last ingested close price per symbol",
			},
			[]string{"symbol"},
		),
		snapshotVersion: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "forcefield_snapshot_version",
				Help: "Latest published snapshot version",
			},
		),
	}
}

func (r *Recorder) RecordPass(result string) {
	r.passesTotal.WithLabelValues(result).Inc()
}

func (r *Recorder) RecordInterpretation(tipo string) {
	r.interpretationsTotal.WithLabelValues(tipo).Inc()
}

func (r *Recorder) RecordCorruptPoint(reason string) {
	r.corruptPointsTotal.WithLabelValues(reason).Inc()
}

func (r *Recorder) RecordDetectorLatency(detector string, seconds float64) {
	r.detectorSeconds.WithLabelValues(detector).Observe(seconds)
}

func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

func (r *Recorder) RecordSnapshotVersion(version uint64) {
	r.snapshotVersion.Set(float64(version))
}

// Nop is a no-op metrics recorder for tests and optional wiring.
type Nop struct{}

func (Nop) RecordPass(string)                     {}
func (Nop) RecordInterpretation(string)           {}
func (Nop) RecordCorruptPoint(string)             {}
func (Nop) RecordDetectorLatency(string, float64) {}
func (Nop) RecordLastPrice(string, float64)       {}
func (Nop) RecordSnapshotVersion(uint64)          {}
