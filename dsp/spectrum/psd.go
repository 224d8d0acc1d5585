package spectrum

import "math"

// PSD is a one-sided power spectral density. Bin k sits at frequency
// k * SampleRate / SegmentLength.
type PSD struct {
	Bins          []float64
	SampleRate    float64
	SegmentLength int
	Segments      int
}

// Resolution returns the bin spacing in Hz.
func (p PSD) Resolution() float64 {
	if p.SegmentLength <= 0 {
		return 0
	}
	return p.SampleRate / float64(p.SegmentLength)
}

// Frequency returns the center frequency of bin k in Hz.
func (p PSD) Frequency(k int) float64 {
	return float64(k) * p.Resolution()
}

// Bin returns round(freq / resolution), not clamped.
func (p PSD) Bin(freq float64) int {
	res := p.Resolution()
	if res <= 0 {
		return 0
	}
	return int(math.Round(freq / res))
}

// TotalPower returns the plain sum of all bins, DC included.
func (p PSD) TotalPower() float64 {
	return p.SumBins(0, len(p.Bins)-1)
}

// SumBins returns the sum of bins in [from, to], clamped to the valid range.
func (p PSD) SumBins(from, to int) float64 {
	from = max(from, 0)
	to = min(to, len(p.Bins)-1)

	sum := 0.0
	for k := from; k <= to; k++ {
		sum += p.Bins[k]
	}
	return sum
}

// IntegrateBand integrates the density over [lowHz, highHz] with the
// trapezoidal rule and returns power in squared input units. Band edges are
// rounded to the nearest bin and clamped; a band that collapses to fewer
// than two bins yields 0.
func (p PSD) IntegrateBand(lowHz, highHz float64) float64 {
	if len(p.Bins) == 0 {
		return 0
	}

	lo := max(p.Bin(lowHz), 0)
	hi := min(p.Bin(highHz), len(p.Bins)-1)
	if lo >= hi {
		return 0
	}

	sum := 0.0
	for k := lo; k < hi; k++ {
		sum += (p.Bins[k] + p.Bins[k+1]) / 2
	}
	return sum * p.Resolution()
}

// PeakInBand returns the bin of maximum power in [lowHz, highHz]. The first
// bin wins ties. ok is false when the band covers fewer than two bins.
func (p PSD) PeakInBand(lowHz, highHz float64) (bin int, ok bool) {
	lo := p.Bin(lowHz)
	hi := min(p.Bin(highHz), len(p.Bins)-1)
	if lo < 0 || lo >= hi || lo >= len(p.Bins) {
		return 0, false
	}

	bin = lo
	for k := lo; k <= hi; k++ {
		if p.Bins[k] > p.Bins[bin] {
			bin = k
		}
	}
	return bin, true
}

// WindowSum sums the bins within halfWidthHz of center. The half-width is
// rounded to whole bins and is at least one bin on each side.
func (p PSD) WindowSum(center int, halfWidthHz float64) float64 {
	half := max(p.Bin(halfWidthHz), 1)
	return p.SumBins(center-half, center+half)
}
