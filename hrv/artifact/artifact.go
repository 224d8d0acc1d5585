package artifact

import (
	"math"

	"github.com/cwbudde/algo-hrv/dsp/interp"
	timestats "github.com/cwbudde/algo-hrv/stats/time"
)

const (
	defaultMinRR        = 300.0
	defaultMaxRR        = 2000.0
	defaultMaxDeviation = 0.25
	defaultHalfWindow   = 10

	// minNeighbours is the number of in-range samples a window must hold
	// before the median deviation test applies.
	minNeighbours = 3
	// minSeries is the shortest series that is inspected at all.
	minSeries = 3
)

// Config holds artifact detection parameters.
type Config struct {
	// MinRR and MaxRR bound the physiological range in ms. Corrected values
	// are clamped into it as well.
	MinRR float64
	MaxRR float64
	// MaxDeviation is the largest accepted relative deviation from the
	// local median, e.g. 0.25 for 25%.
	MaxDeviation float64
	// HalfWindow is the number of neighbours on each side of a sample that
	// form its median window. The sample itself is part of the window.
	HalfWindow int
}

// DefaultConfig returns the [300, 2000] ms, 25%, ±10 beat configuration.
func DefaultConfig() Config {
	return Config{
		MinRR:        defaultMinRR,
		MaxRR:        defaultMaxRR,
		MaxDeviation: defaultMaxDeviation,
		HalfWindow:   defaultHalfWindow,
	}
}

// Result is the outcome of one correction pass.
type Result struct {
	// Cleaned has the same length as the input.
	Cleaned []float64
	// ArtifactsRemoved counts replaced beats. It is 0 when correction was
	// not possible.
	ArtifactsRemoved int
}

// Corrector classifies and corrects RR-interval series. It is stateless and
// safe for concurrent use.
type Corrector struct {
	cfg Config
}

// NewCorrector creates a corrector. Invalid fields fall back to defaults.
func NewCorrector(cfg Config) *Corrector {
	return &Corrector{cfg: normalizeConfig(cfg)}
}

// Clean corrects rr with the default configuration.
func Clean(rr []int) Result {
	return NewCorrector(DefaultConfig()).Clean(rr)
}

// Config returns the effective configuration.
func (c *Corrector) Config() Config {
	return c.cfg
}

// Clean returns rr with every artifact replaced by the spline estimate at its
// index, clamped to the physiological range. Series shorter than three beats,
// series without artifacts and series with fewer than two good beats are
// returned unchanged with ArtifactsRemoved == 0.
func (c *Corrector) Clean(rr []int) Result {
	cleaned := toFloat(rr)
	if len(rr) < minSeries {
		return Result{Cleaned: cleaned}
	}

	artifacts := c.Classify(rr)

	count := 0
	for _, bad := range artifacts {
		if bad {
			count++
		}
	}
	if count == 0 || len(rr)-count < 2 {
		return Result{Cleaned: cleaned}
	}

	goodX := make([]float64, 0, len(rr)-count)
	goodY := make([]float64, 0, len(rr)-count)
	for i, bad := range artifacts {
		if !bad {
			goodX = append(goodX, float64(i))
			goodY = append(goodY, cleaned[i])
		}
	}

	spline := interp.FitNaturalSpline(goodX, goodY)
	for i, bad := range artifacts {
		if bad {
			cleaned[i] = c.clamp(spline.Eval(float64(i)))
		}
	}

	return Result{Cleaned: cleaned, ArtifactsRemoved: count}
}

// Classify flags every index of rr that is out of range or deviates more than
// MaxDeviation from the median of the in-range samples in its window. The
// deviation test is skipped when fewer than three in-range samples are
// available. Series shorter than three beats are never flagged.
func (c *Corrector) Classify(rr []int) []bool {
	flags := make([]bool, len(rr))
	if len(rr) < minSeries {
		return flags
	}

	window := make([]float64, 0, 2*c.cfg.HalfWindow+1)
	for i, v := range rr {
		val := float64(v)
		if !c.inRange(val) {
			flags[i] = true
			continue
		}

		lo := max(0, i-c.cfg.HalfWindow)
		hi := min(len(rr)-1, i+c.cfg.HalfWindow)

		window = window[:0]
		for _, n := range rr[lo : hi+1] {
			if fn := float64(n); c.inRange(fn) {
				window = append(window, fn)
			}
		}
		if len(window) < minNeighbours {
			continue
		}

		med := timestats.Median(window)
		if med > 0 && math.Abs(val-med)/med > c.cfg.MaxDeviation {
			flags[i] = true
		}
	}

	return flags
}

func (c *Corrector) inRange(v float64) bool {
	return v >= c.cfg.MinRR && v <= c.cfg.MaxRR
}

func (c *Corrector) clamp(v float64) float64 {
	return min(max(v, c.cfg.MinRR), c.cfg.MaxRR)
}

func toFloat(rr []int) []float64 {
	out := make([]float64, len(rr))
	for i, v := range rr {
		out[i] = float64(v)
	}
	return out
}

func normalizeConfig(cfg Config) Config {
	def := DefaultConfig()

	if cfg.MinRR <= 0 {
		cfg.MinRR = def.MinRR
	}
	if cfg.MaxRR <= 0 {
		cfg.MaxRR = def.MaxRR
	}
	if cfg.MaxRR < cfg.MinRR {
		cfg.MaxRR = cfg.MinRR
	}
	if cfg.MaxDeviation <= 0 {
		cfg.MaxDeviation = def.MaxDeviation
	}
	if cfg.HalfWindow <= 0 {
		cfg.HalfWindow = def.HalfWindow
	}

	return cfg
}
