// Package config loads the YAML configuration shared by the executables.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-hrv/hrv"
	"github.com/cwbudde/algo-hrv/hrv/artifact"
	"github.com/cwbudde/algo-hrv/hrv/spectral"
	"github.com/cwbudde/algo-hrv/sensor/mqttsrc"
	"github.com/cwbudde/algo-hrv/sensor/replay"
)

// Source modes.
const (
	ModeMQTT   = "mqtt"
	ModeReplay = "replay"
)

// Config is the top-level configuration file.
type Config struct {
	WindowSeconds int           `yaml:"window_seconds"`
	StaleAfter    time.Duration `yaml:"stale_after"`

	Artifact ArtifactConfig `yaml:"artifact"`
	Spectral SpectralConfig `yaml:"spectral"`
	Source   SourceConfig   `yaml:"source"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Replay   ReplayConfig   `yaml:"replay"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ArtifactConfig tunes the artifact corrector.
type ArtifactConfig struct {
	MinRR        float64 `yaml:"min_rr"`
	MaxRR        float64 `yaml:"max_rr"`
	MaxDeviation float64 `yaml:"max_deviation"`
	HalfWindow   int     `yaml:"half_window"`
}

// BandConfig is a frequency band in Hz.
type BandConfig struct {
	Low  float64 `yaml:"low"`
	High float64 `yaml:"high"`
}

// SpectralConfig tunes the spectral analyzer.
type SpectralConfig struct {
	SampleRate    float64    `yaml:"sample_rate"`
	MaxSegment    int        `yaml:"max_segment"`
	MinSamples    int        `yaml:"min_samples"`
	PeakHalfWidth float64    `yaml:"peak_half_width"`
	Coherence     BandConfig `yaml:"coherence"`
	LF            BandConfig `yaml:"lf"`
	HF            BandConfig `yaml:"hf"`
}

// SourceConfig selects the transport.
type SourceConfig struct {
	Mode   string `yaml:"mode"`
	Device string `yaml:"device"`
}

// MQTTConfig contains the broker settings for the MQTT transport and the
// snapshot publisher.
type MQTTConfig struct {
	Broker       string        `yaml:"broker"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	ClientID     string        `yaml:"client_id"`
	TopicPrefix  string        `yaml:"topic_prefix"`
	QoS          byte          `yaml:"qos"`
	Format       string        `yaml:"format"`
	ScanWindow   time.Duration `yaml:"scan_window"`
	PublishTopic string        `yaml:"publish_topic"`
	Retain       bool          `yaml:"retain"`
}

// ReplayConfig contains the settings for file playback.
type ReplayConfig struct {
	File      string  `yaml:"file"`
	BatchSize int     `yaml:"batch_size"`
	Speed     float64 `yaml:"speed"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	art := artifact.DefaultConfig()
	spec := spectral.DefaultConfig()

	return &Config{
		WindowSeconds: 64,
		StaleAfter:    10 * time.Second,
		Artifact: ArtifactConfig{
			MinRR:        art.MinRR,
			MaxRR:        art.MaxRR,
			MaxDeviation: art.MaxDeviation,
			HalfWindow:   art.HalfWindow,
		},
		Spectral: SpectralConfig{
			SampleRate:    spec.SampleRate,
			MaxSegment:    spec.MaxSegment,
			MinSamples:    spec.MinSamples,
			PeakHalfWidth: spec.PeakHalfWidth,
			Coherence:     BandConfig(spec.Coherence),
			LF:            BandConfig(spec.LF),
			HF:            BandConfig(spec.HF),
		},
		Source: SourceConfig{Mode: ModeReplay, Device: replay.DeviceID},
		MQTT: MQTTConfig{
			Broker:       "tcp://localhost:1883",
			TopicPrefix:  "hrv",
			Format:       mqttsrc.FormatJSON,
			ScanWindow:   2 * time.Second,
			PublishTopic: "hrv/metrics",
		},
		Replay: ReplayConfig{BatchSize: 4},
		Metrics: MetricsConfig{
			Listen: ":9464",
		},
	}
}

// LoadConfig reads filename on top of Default and validates the result.
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}

	return config, nil
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error

	if c.WindowSeconds <= 0 {
		errs = append(errs, fmt.Errorf("window_seconds must be positive, got %d", c.WindowSeconds))
	}
	if c.StaleAfter < 0 {
		errs = append(errs, fmt.Errorf("stale_after must not be negative, got %s", c.StaleAfter))
	}
	if c.Artifact.MinRR <= 0 || c.Artifact.MaxRR < c.Artifact.MinRR {
		errs = append(errs, fmt.Errorf("artifact range [%g, %g] is invalid", c.Artifact.MinRR, c.Artifact.MaxRR))
	}
	if c.Artifact.MaxDeviation <= 0 {
		errs = append(errs, fmt.Errorf("artifact.max_deviation must be positive, got %g", c.Artifact.MaxDeviation))
	}
	if c.Spectral.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("spectral.sample_rate must be positive, got %g", c.Spectral.SampleRate))
	}
	for name, b := range map[string]BandConfig{
		"coherence": c.Spectral.Coherence,
		"lf":        c.Spectral.LF,
		"hf":        c.Spectral.HF,
	} {
		if b.Low < 0 || b.High <= b.Low {
			errs = append(errs, fmt.Errorf("spectral.%s band [%g, %g] is invalid", name, b.Low, b.High))
		}
	}

	switch c.Source.Mode {
	case ModeMQTT:
		if c.MQTT.Broker == "" {
			errs = append(errs, errors.New("mqtt.broker is required in mqtt mode"))
		}
	case ModeReplay:
		if c.Replay.Speed < 0 {
			errs = append(errs, fmt.Errorf("replay.speed must not be negative, got %g", c.Replay.Speed))
		}
	default:
		errs = append(errs, fmt.Errorf("source.mode must be %q or %q, got %q", ModeMQTT, ModeReplay, c.Source.Mode))
	}

	if c.MQTT.QoS > 2 {
		errs = append(errs, fmt.Errorf("mqtt.qos must be 0, 1 or 2, got %d", c.MQTT.QoS))
	}
	switch c.MQTT.Format {
	case mqttsrc.FormatJSON, mqttsrc.FormatGATT:
	default:
		errs = append(errs, fmt.Errorf("mqtt.format must be %q or %q, got %q", mqttsrc.FormatJSON, mqttsrc.FormatGATT, c.MQTT.Format))
	}

	if c.Metrics.Enabled && c.Metrics.Listen == "" {
		errs = append(errs, errors.New("metrics.listen is required when metrics are enabled"))
	}

	return errors.Join(errs...)
}

// ArtifactCorrector returns the corrector described by the artifact section.
func (c *Config) ArtifactCorrector() *artifact.Corrector {
	return artifact.NewCorrector(artifact.Config{
		MinRR:        c.Artifact.MinRR,
		MaxRR:        c.Artifact.MaxRR,
		MaxDeviation: c.Artifact.MaxDeviation,
		HalfWindow:   c.Artifact.HalfWindow,
	})
}

// SpectralAnalyzer returns the analyzer described by the spectral section.
func (c *Config) SpectralAnalyzer() *spectral.Analyzer {
	return spectral.NewAnalyzer(spectral.Config{
		SampleRate:    c.Spectral.SampleRate,
		MaxSegment:    c.Spectral.MaxSegment,
		MinSamples:    c.Spectral.MinSamples,
		PeakHalfWidth: c.Spectral.PeakHalfWidth,
		Coherence:     spectral.Band(c.Spectral.Coherence),
		LF:            spectral.Band(c.Spectral.LF),
		HF:            spectral.Band(c.Spectral.HF),
	})
}

// ProcessorOptions returns the options for an [hrv.Processor] or
// [hrv.Session].
func (c *Config) ProcessorOptions() []hrv.Option {
	return []hrv.Option{
		hrv.WithWindowSeconds(c.WindowSeconds),
		hrv.WithCorrector(c.ArtifactCorrector()),
		hrv.WithAnalyzer(c.SpectralAnalyzer()),
	}
}

// MQTTSource returns the transport configuration.
func (c *Config) MQTTSource() mqttsrc.Config {
	return mqttsrc.Config{
		Broker:      c.MQTT.Broker,
		Username:    c.MQTT.Username,
		Password:    c.MQTT.Password,
		ClientID:    c.MQTT.ClientID,
		TopicPrefix: c.MQTT.TopicPrefix,
		QoS:         c.MQTT.QoS,
		Format:      c.MQTT.Format,
		ScanWindow:  c.MQTT.ScanWindow,
	}
}

// ReplaySource returns the playback configuration.
func (c *Config) ReplaySource() replay.Config {
	return replay.Config{
		BatchSize: c.Replay.BatchSize,
		Speed:     c.Replay.Speed,
	}
}
