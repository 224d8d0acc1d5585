package hrv

import (
	"time"

	"github.com/cwbudde/algo-hrv/hrv/artifact"
	"github.com/cwbudde/algo-hrv/hrv/spectral"
)

const (
	defaultWindowSeconds = 64

	minDurationMs = 30000
	minBeats      = 30
	minCleaned    = 20
)

// ProcessorConfig defines configuration for a [Processor].
type ProcessorConfig struct {
	// WindowSeconds caps the total duration of buffered beats.
	WindowSeconds int
	Clock         func() time.Time
	Corrector     *artifact.Corrector
	Analyzer      *spectral.Analyzer
}

// Option mutates a ProcessorConfig.
type Option func(*ProcessorConfig)

// DefaultProcessorConfig returns a 64 s window with the default corrector
// and analyzer.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		WindowSeconds: defaultWindowSeconds,
		Clock:         time.Now,
		Corrector:     artifact.NewCorrector(artifact.DefaultConfig()),
		Analyzer:      spectral.NewAnalyzer(spectral.DefaultConfig()),
	}
}

// WithWindowSeconds sets the sliding window length. Non-positive values are
// ignored.
func WithWindowSeconds(seconds int) Option {
	return func(cfg *ProcessorConfig) {
		if seconds > 0 {
			cfg.WindowSeconds = seconds
		}
	}
}

// WithClock sets the time source used to stamp snapshots.
func WithClock(clock func() time.Time) Option {
	return func(cfg *ProcessorConfig) {
		if clock != nil {
			cfg.Clock = clock
		}
	}
}

// WithCorrector replaces the artifact corrector.
func WithCorrector(c *artifact.Corrector) Option {
	return func(cfg *ProcessorConfig) {
		if c != nil {
			cfg.Corrector = c
		}
	}
}

// WithAnalyzer replaces the spectral analyzer.
func WithAnalyzer(a *spectral.Analyzer) Option {
	return func(cfg *ProcessorConfig) {
		if a != nil {
			cfg.Analyzer = a
		}
	}
}

// ApplyOptions applies zero or more options to the default config.
func ApplyOptions(opts ...Option) ProcessorConfig {
	cfg := DefaultProcessorConfig()

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return cfg
}
