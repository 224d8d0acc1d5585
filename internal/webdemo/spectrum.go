package webdemo

// SpectrumPoint is one PSD bin for plotting.
type SpectrumPoint struct {
	FreqHz float64
	Power  float64
}

// Spectrum returns the Welch PSD of the current window up to maxHz. It is
// empty while the window is too short to analyze.
func (e *Engine) Spectrum(maxHz float64) []SpectrumPoint {
	e.mu.Lock()
	rr := e.session.Intervals()
	e.mu.Unlock()

	res := e.corrector.Clean(rr)
	psd, ok := e.analyzer.PSD(res.Cleaned)
	if !ok {
		return nil
	}

	last := len(psd.Bins) - 1
	if maxHz > 0 {
		last = min(psd.Bin(maxHz), last)
	}

	points := make([]SpectrumPoint, 0, last+1)
	for k := 0; k <= last; k++ {
		points = append(points, SpectrumPoint{FreqHz: psd.Frequency(k), Power: psd.Bins[k]})
	}

	return points
}
