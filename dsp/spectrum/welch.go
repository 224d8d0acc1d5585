package spectrum

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-hrv/dsp/fft"
	"github.com/cwbudde/algo-hrv/dsp/window"
)

const (
	defaultSampleRate = 4.0
	defaultMaxSegment = 256
)

// ErrInsufficientData indicates fewer than two input samples.
var ErrInsufficientData = errors.New("spectrum: at least 2 samples required")

// WelchConfig holds Welch estimator parameters.
type WelchConfig struct {
	// SampleRate of the input signal in Hz.
	SampleRate float64
	// MaxSegment caps the segment length before rounding up to a power of two.
	MaxSegment int
	// Window applied to every segment.
	Window window.Type
}

// DefaultWelchConfig returns the 4 Hz / 256-sample / Hann configuration used
// for RR-interval spectra.
func DefaultWelchConfig() WelchConfig {
	return WelchConfig{
		SampleRate: defaultSampleRate,
		MaxSegment: defaultMaxSegment,
		Window:     window.TypeHann,
	}
}

func normalizeWelchConfig(cfg WelchConfig) WelchConfig {
	def := DefaultWelchConfig()
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = def.SampleRate
	}
	if cfg.MaxSegment <= 0 {
		cfg.MaxSegment = def.MaxSegment
	}
	return cfg
}

// SegmentLength returns the FFT segment length used for n input samples:
// the next power of two of min(n, maxSegment).
func SegmentLength(n, maxSegment int) int {
	return fft.NextPowerOf2(min(n, maxSegment))
}

// Welch estimates the one-sided power spectral density of x.
//
// Segments of [SegmentLength] samples overlap by 50%, are windowed, transformed
// and their power spectra averaged. Every bin is scaled by 2/(fs*sum(w²)); the
// DC bin is not corrected for the one-sided doubling. When x is shorter than
// one segment a single window of len(x) samples is applied and zero-padded to
// the segment length, with the same scaling.
func Welch(x []float64, cfg WelchConfig) (PSD, error) {
	if len(x) < 2 {
		return PSD{}, fmt.Errorf("%w: %d", ErrInsufficientData, len(x))
	}

	cfg = normalizeWelchConfig(cfg)
	segLen := SegmentLength(len(x), cfg.MaxSegment)

	if len(x) < segLen {
		return singleSegment(x, segLen, cfg)
	}

	overlap := segLen / 2
	step := segLen - overlap
	segments := (len(x) - overlap) / step

	coeffs := window.Generate(cfg.Window, segLen)
	norm := 2 / (cfg.SampleRate * window.EnergySum(coeffs))

	avg := make([]float64, segLen/2)
	im := make([]float64, segLen)

	for seg := range segments {
		start := seg * step
		re, err := window.ApplyCoefficients(x[start:start+segLen], coeffs)
		if err != nil {
			return PSD{}, err
		}
		clear(im)

		fft.Transform(re, im)
		for k, p := range fft.PowerSpectrum(re, im) {
			avg[k] += p
		}
	}

	for k := range avg {
		avg[k] = avg[k] / float64(segments) * norm
	}

	return PSD{
		Bins:          avg,
		SampleRate:    cfg.SampleRate,
		SegmentLength: segLen,
		Segments:      segments,
	}, nil
}

func singleSegment(x []float64, fftLen int, cfg WelchConfig) (PSD, error) {
	coeffs := window.Generate(cfg.Window, len(x))
	norm := 2 / (cfg.SampleRate * window.EnergySum(coeffs))

	re := make([]float64, fftLen)
	im := make([]float64, fftLen)
	copy(re, x)
	if err := window.ApplyCoefficientsInPlace(re[:len(x)], coeffs); err != nil {
		return PSD{}, err
	}

	fft.Transform(re, im)
	bins := fft.PowerSpectrum(re, im)
	for k := range bins {
		bins[k] *= norm
	}

	return PSD{
		Bins:          bins,
		SampleRate:    cfg.SampleRate,
		SegmentLength: fftLen,
		Segments:      1,
	}, nil
}
