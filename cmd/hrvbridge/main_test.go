package main

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cwbudde/algo-hrv/hrv"
	"github.com/cwbudde/algo-hrv/internal/config"
	"github.com/cwbudde/algo-hrv/internal/promexport"
	"github.com/cwbudde/algo-hrv/internal/testutil"
	"github.com/cwbudde/algo-hrv/sensor"
	"github.com/cwbudde/algo-hrv/sensor/replay"
)

type recordingPublisher struct {
	mu  sync.Mutex
	got []hrv.Metrics
}

func (p *recordingPublisher) Publish(m hrv.Metrics) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.got = append(p.got, m)
	return nil
}

func (p *recordingPublisher) Topic() string { return "test/metrics" }

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.got)
}

func TestPublishLoopForwardsFreshSnapshots(t *testing.T) {
	sess := hrv.NewSession()
	defer sess.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, unsubscribe := sess.Subscribe()
	defer unsubscribe()

	pub := &recordingPublisher{}
	done := make(chan struct{})
	go func() {
		publishLoop(ctx, ch, pub, time.Minute)
		close(done)
	}()

	sess.Push(testutil.ConstantRR(800, 10))
	sess.Push(testutil.ConstantRR(800, 30))
	sess.Push(testutil.ConstantRR(800, 5))

	deadline := time.Now().Add(5 * time.Second)
	for pub.count() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("published %d snapshots, want 2", pub.count())
		}
		time.Sleep(time.Millisecond)
	}

	cancel()
	<-done
	if pub.count() != 2 {
		t.Fatalf("published %d snapshots, want 2", pub.count())
	}
}

func TestChainHooks(t *testing.T) {
	var calls []string
	a := sensor.PumpHooks{OnState: func(sensor.ConnectionState) { calls = append(calls, "a") }}
	b := sensor.PumpHooks{
		OnState:   func(sensor.ConnectionState) { calls = append(calls, "b") },
		OnMetrics: func(hrv.Metrics) { calls = append(calls, "m") },
	}

	b.OnBattery = func(int) { calls = append(calls, "battery") }

	h := chainHooks(a, b)
	h.OnState(sensor.Connected)
	h.OnMetrics(hrv.Metrics{})
	h.OnHeartRate(sensor.HeartRate{})
	h.OnBattery(80)

	if strings.Join(calls, ",") != "a,b,m,battery" {
		t.Fatalf("calls=%v", calls)
	}
}

func TestBridgeStopsWhenReplayEnds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rr.txt")
	if err := os.WriteFile(path, []byte(strings.Repeat("800\n", 12)), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Replay.File = path
	cfg.Replay.BatchSize = 5

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := run(ctx, cfg)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("run err=%v want context.Canceled", err)
	}
	if ctx.Err() != nil {
		t.Fatal("bridge ran until the deadline instead of stopping after the replay")
	}
}

func TestStopAfterReplay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := stopAfterReplay(cancel)
	h.OnState(sensor.Connected)
	if ctx.Err() != nil {
		t.Fatal("canceled on connect")
	}
	h.OnState(sensor.Disconnected)
	if ctx.Err() == nil {
		t.Fatal("not canceled after the replay ended")
	}
}

func TestMetricsMux(t *testing.T) {
	reg := prometheus.NewRegistry()
	promexport.NewExporter(reg).ObserveMetrics("s", hrv.Metrics{RMSSD: 33})

	srv := httptest.NewServer(metricsMux(reg))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if !strings.Contains(string(body), `hrv_rmssd_ms{session="s"} 33`) {
		t.Fatalf("metrics body:\n%s", body)
	}
}

func TestConnectScansForDevice(t *testing.T) {
	src := replay.New(testutil.ConstantRR(800, 4), replay.Config{})
	defer src.Shutdown()

	if err := connect(context.Background(), src, ""); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := connect(context.Background(), src, "missing"); err == nil {
		t.Fatal("expected error for unknown device")
	}
}

func TestRegistryReplayMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rr.txt")
	if err := os.WriteFile(path, []byte("800 810 790\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Replay.File = path

	reg := newRegistry(cfg)
	defer reg.Shutdown()

	src, err := reg.Source(config.ModeReplay)
	if err != nil {
		t.Fatalf("Source: %v", err)
	}
	if rs, ok := src.(*replay.Source); !ok || rs.Len() != 3 {
		t.Fatalf("source=%T", src)
	}

	cfg.Replay.File = ""
	if _, err := newRegistry(cfg).Source(config.ModeReplay); err == nil {
		t.Fatal("expected error without replay file")
	}
}
