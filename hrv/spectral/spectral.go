package spectral

import (
	"github.com/cwbudde/algo-hrv/dsp/resample"
	"github.com/cwbudde/algo-hrv/dsp/spectrum"
	"github.com/cwbudde/algo-hrv/dsp/window"
	timestats "github.com/cwbudde/algo-hrv/stats/time"
)

const (
	defaultSampleRate    = 4.0
	defaultMaxSegment    = 256
	defaultMinSamples    = 30
	defaultPeakHalfWidth = 0.015
)

// Band is a closed frequency range in Hz.
type Band struct {
	Low  float64
	High float64
}

// Standard HRV bands.
var (
	CoherenceBand = Band{Low: 0.04, High: 0.26}
	LFBand        = Band{Low: 0.04, High: 0.15}
	HFBand        = Band{Low: 0.15, High: 0.40}
)

// Config holds spectral analysis parameters.
type Config struct {
	// SampleRate of the uniform resampling grid in Hz.
	SampleRate float64
	// MaxSegment caps the Welch segment length.
	MaxSegment int
	// MinSamples is the shortest cleaned series that is analyzed.
	MinSamples int
	// Coherence is the band searched for the coherence peak.
	Coherence Band
	// PeakHalfWidth is the half-width in Hz of the window integrated around
	// the coherence peak. At least one bin on each side is always used.
	PeakHalfWidth float64
	LF            Band
	HF            Band
}

// DefaultConfig returns the 4 Hz / 256-sample configuration with the
// standard coherence, LF and HF bands.
func DefaultConfig() Config {
	return Config{
		SampleRate:    defaultSampleRate,
		MaxSegment:    defaultMaxSegment,
		MinSamples:    defaultMinSamples,
		Coherence:     CoherenceBand,
		PeakHalfWidth: defaultPeakHalfWidth,
		LF:            LFBand,
		HF:            HFBand,
	}
}

// Result holds frequency-domain HRV metrics. Powers are in ms².
type Result struct {
	// Coherence is the share (0..1) of total spectral power inside the
	// window around the dominant peak of the coherence band.
	Coherence float64
	// PeakFrequency is the frequency of that peak in Hz, 0 when no peak
	// was located.
	PeakFrequency float64
	LFPower       float64
	HFPower       float64
}

// LFHFRatio returns LFPower / HFPower, or 0 when HFPower is not positive.
func (r Result) LFHFRatio() float64 {
	if r.HFPower <= 0 {
		return 0
	}
	return r.LFPower / r.HFPower
}

// Analyzer computes coherence and band powers. It is stateless and safe for
// concurrent use.
type Analyzer struct {
	cfg Config
}

// NewAnalyzer creates an analyzer. Invalid fields fall back to defaults.
func NewAnalyzer(cfg Config) *Analyzer {
	return &Analyzer{cfg: normalizeConfig(cfg)}
}

// Calculate is a one-shot analysis with the default configuration.
func Calculate(clean []float64) Result {
	return NewAnalyzer(DefaultConfig()).Calculate(clean)
}

// Config returns the effective configuration.
func (a *Analyzer) Config() Config {
	return a.cfg
}

// Calculate returns the coherence score and LF/HF powers of clean, a series
// of RR intervals in ms. Series shorter than MinSamples, or too short to
// yield two resampled points, produce a zero Result.
func (a *Analyzer) Calculate(clean []float64) Result {
	psd, ok := a.PSD(clean)
	if !ok {
		return Result{}
	}

	res := Result{
		LFPower: psd.IntegrateBand(a.cfg.LF.Low, a.cfg.LF.High),
		HFPower: psd.IntegrateBand(a.cfg.HF.Low, a.cfg.HF.High),
	}

	peak, found := psd.PeakInBand(a.cfg.Coherence.Low, a.cfg.Coherence.High)
	if !found {
		return res
	}

	total := psd.TotalPower()
	if total <= 0 {
		return res
	}

	res.Coherence = psd.WindowSum(peak, a.cfg.PeakHalfWidth) / total
	res.PeakFrequency = psd.Frequency(peak)

	return res
}

// PSD resamples and detrends clean and returns its Welch estimate. ok is
// false when the series is too short to analyze.
func (a *Analyzer) PSD(clean []float64) (psd spectrum.PSD, ok bool) {
	if len(clean) < a.cfg.MinSamples {
		return spectrum.PSD{}, false
	}

	uniform, err := resample.Uniform(clean, a.cfg.SampleRate)
	if err != nil || len(uniform) < 2 {
		return spectrum.PSD{}, false
	}

	mean := timestats.Mean(uniform)
	for i := range uniform {
		uniform[i] -= mean
	}

	psd, err = spectrum.Welch(uniform, spectrum.WelchConfig{
		SampleRate: a.cfg.SampleRate,
		MaxSegment: a.cfg.MaxSegment,
		Window:     window.TypeHann,
	})
	if err != nil {
		return spectrum.PSD{}, false
	}

	return psd, true
}

func normalizeConfig(cfg Config) Config {
	def := DefaultConfig()

	if cfg.SampleRate <= 0 {
		cfg.SampleRate = def.SampleRate
	}
	if cfg.MaxSegment <= 0 {
		cfg.MaxSegment = def.MaxSegment
	}
	if cfg.MinSamples <= 0 {
		cfg.MinSamples = def.MinSamples
	}
	if cfg.PeakHalfWidth <= 0 {
		cfg.PeakHalfWidth = def.PeakHalfWidth
	}
	if cfg.Coherence == (Band{}) {
		cfg.Coherence = def.Coherence
	}
	if cfg.LF == (Band{}) {
		cfg.LF = def.LF
	}
	if cfg.HF == (Band{}) {
		cfg.HF = def.HF
	}

	return cfg
}
