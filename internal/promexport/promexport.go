// Package promexport exposes HRV snapshots as Prometheus metrics.
package promexport

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/cwbudde/algo-hrv/hrv"
	"github.com/cwbudde/algo-hrv/sensor"
)

const namespace = "hrv"

// Exporter holds the metric vectors. All vectors are labelled by session.
type Exporter struct {
	coherence *prometheus.GaugeVec
	rmssd     *prometheus.GaugeVec
	meanHR    *prometheus.GaugeVec
	lfPower   *prometheus.GaugeVec
	hfPower   *prometheus.GaugeVec
	lfhfRatio *prometheus.GaugeVec
	rrCount   *prometheus.GaugeVec
	artifacts *prometheus.GaugeVec
	timestamp *prometheus.GaugeVec

	batches    *prometheus.CounterVec
	snapshots  *prometheus.CounterVec
	connection *prometheus.GaugeVec
	battery    *prometheus.GaugeVec
}

// NewExporter registers the vectors with reg.
func NewExporter(reg prometheus.Registerer) *Exporter {
	factory := promauto.With(reg)
	session := []string{"session"}

	gauge := func(name, help string) *prometheus.GaugeVec {
		return factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, session)
	}

	return &Exporter{
		coherence: gauge("coherence_score", "Share of spectral power around the dominant 0.04-0.26 Hz peak (0-1)."),
		rmssd:     gauge("rmssd_ms", "Root mean square of successive RR differences in milliseconds."),
		meanHR:    gauge("mean_heart_rate_bpm", "Mean heart rate over the analysis window in beats per minute."),
		lfPower:   gauge("lf_power_ms2", "Low-frequency (0.04-0.15 Hz) band power in ms²."),
		hfPower:   gauge("hf_power_ms2", "High-frequency (0.15-0.40 Hz) band power in ms²."),
		lfhfRatio: gauge("lf_hf_ratio", "Ratio of LF to HF band power."),
		rrCount:   gauge("rr_intervals", "Number of RR intervals in the analysis window."),
		artifacts: gauge("artifacts_corrected", "Number of RR intervals replaced by spline correction."),
		timestamp: gauge("snapshot_timestamp_seconds", "Unix time the latest snapshot was computed."),
		batches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rr_batches_total",
			Help:      "Number of RR batches received from the sensor.",
		}, session),
		snapshots: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_total",
			Help:      "Number of fresh metric snapshots computed.",
		}, session),
		connection: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sensor_connection_state",
			Help:      "Sensor connection state (0=disconnected, 1=connecting, 2=connected, 3=disconnecting).",
		}, session),
		battery: gauge("sensor_battery_percent", "Last battery level reported by the sensor."),
	}
}

// ObserveMetrics records a fresh snapshot.
func (e *Exporter) ObserveMetrics(session string, m hrv.Metrics) {
	e.coherence.WithLabelValues(session).Set(m.CoherenceScore)
	e.rmssd.WithLabelValues(session).Set(m.RMSSD)
	e.meanHR.WithLabelValues(session).Set(m.MeanHR)
	e.lfPower.WithLabelValues(session).Set(m.LFPower)
	e.hfPower.WithLabelValues(session).Set(m.HFPower)
	e.rrCount.WithLabelValues(session).Set(float64(m.RRCount))
	e.artifacts.WithLabelValues(session).Set(float64(m.ArtifactsRemoved))
	e.timestamp.WithLabelValues(session).Set(float64(m.Timestamp.UnixNano()) / 1e9)
	e.snapshots.WithLabelValues(session).Inc()

	ratio := 0.0
	if m.HFPower > 0 {
		ratio = m.LFPower / m.HFPower
	}
	e.lfhfRatio.WithLabelValues(session).Set(ratio)
}

// ObserveHeartRate counts a sensor notification carrying RR intervals.
func (e *Exporter) ObserveHeartRate(session string, hr sensor.HeartRate) {
	if len(hr.RR) == 0 {
		return
	}
	e.batches.WithLabelValues(session).Inc()
}

// ObserveState records a connection state transition. A disconnect drops
// the battery series, since the level is unknown until the next report.
func (e *Exporter) ObserveState(session string, s sensor.ConnectionState) {
	e.connection.WithLabelValues(session).Set(float64(s))
	if s == sensor.Disconnected {
		e.battery.DeleteLabelValues(session)
	}
}

// ObserveBattery records a battery level in percent.
func (e *Exporter) ObserveBattery(session string, level int) {
	e.battery.WithLabelValues(session).Set(float64(level))
}

// Hooks returns pump hooks that feed the exporter.
func (e *Exporter) Hooks(session string) sensor.PumpHooks {
	return sensor.PumpHooks{
		OnHeartRate: func(hr sensor.HeartRate) { e.ObserveHeartRate(session, hr) },
		OnMetrics:   func(m hrv.Metrics) { e.ObserveMetrics(session, m) },
		OnState:     func(s sensor.ConnectionState) { e.ObserveState(session, s) },
		OnBattery:   func(level int) { e.ObserveBattery(session, level) },
	}
}

// Forget drops every series of session.
func (e *Exporter) Forget(session string) {
	for _, v := range []*prometheus.MetricVec{
		e.coherence.MetricVec, e.rmssd.MetricVec, e.meanHR.MetricVec,
		e.lfPower.MetricVec, e.hfPower.MetricVec, e.lfhfRatio.MetricVec,
		e.rrCount.MetricVec, e.artifacts.MetricVec, e.timestamp.MetricVec,
		e.batches.MetricVec, e.snapshots.MetricVec, e.connection.MetricVec,
		e.battery.MetricVec,
	} {
		v.DeleteLabelValues(session)
	}
}
