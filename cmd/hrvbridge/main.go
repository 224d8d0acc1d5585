// Command hrvbridge connects a heart-rate source to an HRV session and
// republishes every fresh snapshot over MQTT and Prometheus.
//
// Usage:
//
//	hrvbridge [flags]
//
// Examples:
//
//	hrvbridge -config hrv.yaml
//	hrvbridge -mode replay -replay rr.txt -speed 1 -metrics-addr :9464
//	hrvbridge -mode mqtt -broker tcp://localhost:1883 -device polar-h10
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cwbudde/algo-hrv/hrv"
	"github.com/cwbudde/algo-hrv/internal/config"
	"github.com/cwbudde/algo-hrv/internal/promexport"
	"github.com/cwbudde/algo-hrv/sensor"
	"github.com/cwbudde/algo-hrv/sensor/mqttsrc"
	"github.com/cwbudde/algo-hrv/sensor/replay"
)

func main() {
	configFile := flag.String("config", "", "YAML configuration file")
	mode := flag.String("mode", "", "source mode: mqtt or replay (overrides the config file)")
	device := flag.String("device", "", "device id to connect to (overrides the config file)")
	broker := flag.String("broker", "", "MQTT broker URL (overrides the config file)")
	replayFile := flag.String("replay", "", "RR file for replay mode (overrides the config file)")
	speed := flag.Float64("speed", -1, "replay pacing factor, 0 disables pacing (overrides the config file)")
	metricsAddr := flag.String("metrics-addr", "", "serve Prometheus metrics on this address")
	flag.Parse()

	cfg := config.Default()
	if *configFile != "" {
		var err error
		cfg, err = config.LoadConfig(*configFile)
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	if *mode != "" {
		cfg.Source.Mode = *mode
	}
	if *device != "" {
		cfg.Source.Device = *device
	}
	if *broker != "" {
		cfg.MQTT.Broker = *broker
	}
	if *replayFile != "" {
		cfg.Replay.File = *replayFile
	}
	if *speed >= 0 {
		cfg.Replay.Speed = *speed
	}
	if *metricsAddr != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Listen = *metricsAddr
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Bridge stopped: %v", err)
	}
	log.Printf("Bridge stopped")
}

// newRegistry registers the transports the bridge can use.
func newRegistry(cfg *config.Config) *sensor.Registry {
	reg := sensor.NewRegistry()
	reg.Register(config.ModeMQTT, func() (sensor.Source, error) {
		return mqttsrc.Dial(cfg.MQTTSource())
	})
	reg.Register(config.ModeReplay, func() (sensor.Source, error) {
		if cfg.Replay.File == "" {
			return nil, errors.New("replay mode needs an RR file")
		}
		return replay.Open(cfg.Replay.File, cfg.ReplaySource())
	})
	return reg
}

func run(ctx context.Context, cfg *config.Config) error {
	registry := newRegistry(cfg)
	defer func() {
		if err := registry.Shutdown(); err != nil {
			log.Printf("Failed to shut down source: %v", err)
		}
	}()

	src, err := registry.Source(sensor.Mode(cfg.Source.Mode))
	if err != nil {
		return err
	}

	sess := hrv.NewSession(cfg.ProcessorOptions()...)
	defer sess.Close()
	id := sess.ID().String()
	log.Printf("Session %s using %s source", id, cfg.Source.Mode)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	hooks := sensor.PumpHooks{
		OnState:   func(s sensor.ConnectionState) { log.Printf("Source %s", s) },
		OnBattery: func(level int) { log.Printf("Sensor battery %d%%", level) },
	}
	if cfg.Source.Mode == config.ModeReplay {
		hooks = chainHooks(hooks, stopAfterReplay(cancel))
	}

	if cfg.Metrics.Enabled {
		promReg := prometheus.NewRegistry()
		exporter := promexport.NewExporter(promReg)
		hooks = chainHooks(hooks, exporter.Hooks(id))

		srv := &http.Server{
			Addr:              cfg.Metrics.Listen,
			Handler:           metricsMux(promReg),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			log.Printf("Prometheus metrics on %s/metrics", cfg.Metrics.Listen)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("Metrics server failed: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	if mq, ok := src.(*mqttsrc.Source); ok && cfg.MQTT.PublishTopic != "" {
		pub := mqttsrc.NewPublisher(mq.Client(), cfg.MQTT.PublishTopic, cfg.MQTT.QoS, cfg.MQTT.Retain)
		ch, cancel := sess.Subscribe()
		defer cancel()
		go publishLoop(ctx, ch, pub, cfg.StaleAfter)
	}
	logCh, cancelLog := sess.Subscribe()
	defer cancelLog()
	go logLoop(ctx, logCh)

	if err := connect(ctx, src, cfg.Source.Device); err != nil {
		return err
	}

	return sensor.Pump(ctx, src, sess, hooks)
}

// connect picks the configured device, or the first one a scan reports.
func connect(ctx context.Context, src sensor.Source, device string) error {
	if device == "" {
		devices, err := src.Scan(ctx)
		if err != nil {
			return fmt.Errorf("failed to scan for devices: %w", err)
		}
		if len(devices) == 0 {
			return errors.New("no heart-rate devices found")
		}
		device = devices[0].ID
		log.Printf("Found %d device(s), connecting to %s", len(devices), device)
	}

	if err := src.Connect(ctx, device); err != nil {
		return fmt.Errorf("failed to connect to %s: %w", device, err)
	}
	return nil
}

func metricsMux(reg *prometheus.Registry) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	return mux
}

func chainHooks(a, b sensor.PumpHooks) sensor.PumpHooks {
	return sensor.PumpHooks{
		OnHeartRate: func(hr sensor.HeartRate) {
			if a.OnHeartRate != nil {
				a.OnHeartRate(hr)
			}
			if b.OnHeartRate != nil {
				b.OnHeartRate(hr)
			}
		},
		OnMetrics: func(m hrv.Metrics) {
			if a.OnMetrics != nil {
				a.OnMetrics(m)
			}
			if b.OnMetrics != nil {
				b.OnMetrics(m)
			}
		},
		OnState: func(s sensor.ConnectionState) {
			if a.OnState != nil {
				a.OnState(s)
			}
			if b.OnState != nil {
				b.OnState(s)
			}
		},
		OnBattery: func(level int) {
			if a.OnBattery != nil {
				a.OnBattery(level)
			}
			if b.OnBattery != nil {
				b.OnBattery(level)
			}
		},
	}
}

// stopAfterReplay cancels the bridge once a replay source reports
// Disconnected, which it does when the recording is exhausted.
func stopAfterReplay(cancel context.CancelFunc) sensor.PumpHooks {
	return sensor.PumpHooks{
		OnState: func(s sensor.ConnectionState) {
			if s == sensor.Disconnected {
				log.Printf("Replay finished, stopping")
				cancel()
			}
		},
	}
}

// snapshotPublisher is satisfied by *mqttsrc.Publisher.
type snapshotPublisher interface {
	Publish(m hrv.Metrics) error
	Topic() string
}

// publishLoop forwards fresh snapshots, skipping any that are already older
// than staleAfter when they are dequeued.
func publishLoop(ctx context.Context, ch <-chan hrv.Metrics, pub snapshotPublisher, staleAfter time.Duration) {
	log.Printf("MQTT: Publishing snapshots to %s", pub.Topic())
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-ch:
			if !ok {
				return
			}
			if staleAfter > 0 && m.IsStale(time.Now(), staleAfter) {
				continue
			}
			if err := pub.Publish(m); err != nil {
				log.Printf("MQTT ERROR: %v", err)
			}
		}
	}
}

func logLoop(ctx context.Context, ch <-chan hrv.Metrics) {
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-ch:
			if !ok {
				return
			}
			log.Printf("Snapshot %d: HR %.1f bpm, RMSSD %.1f ms, coherence %.2f, LF %.0f ms², HF %.0f ms² (%d beats, %d corrected)",
				m.Sequence, m.MeanHR, m.RMSSD, m.CoherenceScore, m.LFPower, m.HFPower, m.RRCount, m.ArtifactsRemoved)
		}
	}
}
