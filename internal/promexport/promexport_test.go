package promexport

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/cwbudde/algo-hrv/hrv"
	"github.com/cwbudde/algo-hrv/sensor"
)

func TestObserveMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	e := NewExporter(reg)

	ts := time.Unix(1700000000, 500_000_000)
	m := hrv.Metrics{
		CoherenceScore:   0.42,
		RMSSD:            52.6,
		MeanHR:           61.2,
		LFPower:          300,
		HFPower:          150,
		RRCount:          306,
		ArtifactsRemoved: 2,
		Timestamp:        ts,
	}
	e.ObserveMetrics("s1", m)
	e.ObserveMetrics("s1", m)

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"coherence", promtest.ToFloat64(e.coherence.WithLabelValues("s1")), 0.42},
		{"rmssd", promtest.ToFloat64(e.rmssd.WithLabelValues("s1")), 52.6},
		{"mean hr", promtest.ToFloat64(e.meanHR.WithLabelValues("s1")), 61.2},
		{"lf", promtest.ToFloat64(e.lfPower.WithLabelValues("s1")), 300},
		{"hf", promtest.ToFloat64(e.hfPower.WithLabelValues("s1")), 150},
		{"ratio", promtest.ToFloat64(e.lfhfRatio.WithLabelValues("s1")), 2},
		{"rr", promtest.ToFloat64(e.rrCount.WithLabelValues("s1")), 306},
		{"artifacts", promtest.ToFloat64(e.artifacts.WithLabelValues("s1")), 2},
		{"timestamp", promtest.ToFloat64(e.timestamp.WithLabelValues("s1")), 1700000000.5},
		{"snapshots", promtest.ToFloat64(e.snapshots.WithLabelValues("s1")), 2},
	}
	for _, c := range checks {
		if math.Abs(c.got-c.want) > 1e-6 {
			t.Fatalf("%s=%g want %g", c.name, c.got, c.want)
		}
	}
}

func TestRatioWithoutHFPower(t *testing.T) {
	e := NewExporter(prometheus.NewRegistry())
	e.ObserveMetrics("s", hrv.Metrics{LFPower: 10})
	if got := promtest.ToFloat64(e.lfhfRatio.WithLabelValues("s")); got != 0 {
		t.Fatalf("ratio=%g want 0", got)
	}
}

func TestHooks(t *testing.T) {
	e := NewExporter(prometheus.NewRegistry())
	hooks := e.Hooks("s2")

	hooks.OnHeartRate(sensor.HeartRate{HR: 60})
	hooks.OnHeartRate(sensor.HeartRate{HR: 60, RR: []int{1000}})
	hooks.OnHeartRate(sensor.HeartRate{HR: 60, RR: []int{1000, 1000}})
	hooks.OnState(sensor.Connected)
	hooks.OnMetrics(hrv.Metrics{RMSSD: 12})

	if got := promtest.ToFloat64(e.batches.WithLabelValues("s2")); got != 2 {
		t.Fatalf("batches=%g want 2", got)
	}
	if got := promtest.ToFloat64(e.connection.WithLabelValues("s2")); got != float64(sensor.Connected) {
		t.Fatalf("connection=%g", got)
	}
	if got := promtest.ToFloat64(e.rmssd.WithLabelValues("s2")); got != 12 {
		t.Fatalf("rmssd=%g", got)
	}
}

func TestBatteryFollowsConnection(t *testing.T) {
	e := NewExporter(prometheus.NewRegistry())
	hooks := e.Hooks("s3")

	hooks.OnState(sensor.Connected)
	hooks.OnBattery(76)
	if got := promtest.ToFloat64(e.battery.WithLabelValues("s3")); got != 76 {
		t.Fatalf("battery=%g want 76", got)
	}

	hooks.OnState(sensor.Disconnected)
	if n := promtest.CollectAndCount(e.battery); n != 0 {
		t.Fatalf("battery series=%d after disconnect, want 0", n)
	}
}

func TestForget(t *testing.T) {
	reg := prometheus.NewRegistry()
	e := NewExporter(reg)

	e.ObserveMetrics("gone", hrv.Metrics{RMSSD: 1})
	e.ObserveMetrics("kept", hrv.Metrics{RMSSD: 2})
	e.Forget("gone")

	if n := promtest.CollectAndCount(e.rmssd); n != 1 {
		t.Fatalf("rmssd series=%d want 1", n)
	}

	expected := `
# HELP hrv_rmssd_ms Root mean square of successive RR differences in milliseconds.
# TYPE hrv_rmssd_ms gauge
hrv_rmssd_ms{session="kept"} 2
`
	if err := promtest.GatherAndCompare(reg, strings.NewReader(expected), "hrv_rmssd_ms"); err != nil {
		t.Fatal(err)
	}
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewExporter(reg)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate registration")
		}
	}()
	NewExporter(reg)
}
