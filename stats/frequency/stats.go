package frequency

import (
	"github.com/cwbudde/algo-hrv/dsp/spectrum"
)

// Band edges in Hz of the conventional short-term HRV bands.
var (
	VLF = Band{Low: 0.0033, High: 0.04}
	LF  = Band{Low: 0.04, High: 0.15}
	HF  = Band{Low: 0.15, High: 0.40}
)

// Band is a frequency interval in Hz.
type Band struct {
	Low  float64
	High float64
}

// Stats holds frequency-domain HRV statistics of a PSD. Powers are band
// integrals in the PSD's units (ms² for RR series).
type Stats struct {
	TotalPower float64 // integral over VLF.Low .. HF.High
	VLFPower   float64
	LFPower    float64
	HFPower    float64
	LFnu       float64 // LF / (LF + HF) in percent
	HFnu       float64 // HF / (LF + HF) in percent
	LFHF       float64
	LFPeak     float64 // Hz, 0 when the band has no interior bin
	HFPeak     float64
	Centroid   float64 // power-weighted mean frequency over LF and HF (Hz)
}

// Calculate computes all statistics of psd.
func Calculate(psd spectrum.PSD) Stats {
	if len(psd.Bins) < 2 || psd.Resolution() <= 0 {
		return Stats{}
	}

	s := Stats{
		TotalPower: psd.IntegrateBand(VLF.Low, HF.High),
		VLFPower:   psd.IntegrateBand(VLF.Low, VLF.High),
		LFPower:    psd.IntegrateBand(LF.Low, LF.High),
		HFPower:    psd.IntegrateBand(HF.Low, HF.High),
		LFPeak:     peak(psd, LF),
		HFPeak:     peak(psd, HF),
		Centroid:   Centroid(psd, LF.Low, HF.High),
	}

	if sum := s.LFPower + s.HFPower; sum > 0 {
		s.LFnu = 100 * s.LFPower / sum
		s.HFnu = 100 * s.HFPower / sum
	}
	if s.HFPower > 0 {
		s.LFHF = s.LFPower / s.HFPower
	}

	return s
}

// Centroid returns the power-weighted mean frequency of the bins within
// [lowHz, highHz].
//
//	centroid = sum(f_k * P_k) / sum(P_k)
func Centroid(psd spectrum.PSD, lowHz, highHz float64) float64 {
	lo := max(psd.Bin(lowHz), 0)
	hi := min(psd.Bin(highHz), len(psd.Bins)-1)

	weighted, total := 0.0, 0.0
	for k := lo; k <= hi; k++ {
		weighted += psd.Frequency(k) * psd.Bins[k]
		total += psd.Bins[k]
	}
	if total <= 0 {
		return 0
	}
	return weighted / total
}

func peak(psd spectrum.PSD, b Band) float64 {
	bin, ok := psd.PeakInBand(b.Low, b.High)
	if !ok {
		return 0
	}
	return psd.Frequency(bin)
}
