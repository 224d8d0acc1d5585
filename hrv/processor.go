package hrv

import (
	"time"

	"github.com/cwbudde/algo-hrv/hrv/artifact"
	"github.com/cwbudde/algo-hrv/hrv/spectral"
	timestats "github.com/cwbudde/algo-hrv/stats/time"
)

// Processor maintains the sliding RR window and its latest snapshot.
type Processor struct {
	windowMs  int
	clock     func() time.Time
	corrector *artifact.Corrector
	analyzer  *spectral.Analyzer

	buf   []int
	bufMs int

	last    Metrics
	hasLast bool
	seq     uint64
}

// NewProcessor creates a processor with the given options.
func NewProcessor(opts ...Option) *Processor {
	cfg := ApplyOptions(opts...)

	return &Processor{
		windowMs:  cfg.WindowSeconds * 1000,
		clock:     cfg.Clock,
		corrector: cfg.Corrector,
		analyzer:  cfg.Analyzer,
	}
}

// WindowSeconds returns the configured window length.
func (p *Processor) WindowSeconds() int {
	return p.windowMs / 1000
}

// AddRRIntervals appends batch (ms) to the window, trims the window to its
// configured duration and recomputes the snapshot when enough data is
// buffered. It returns the latest snapshot, which is the previous one when
// the window is still too short. ok is false while no snapshot exists.
func (p *Processor) AddRRIntervals(batch []int) (m Metrics, ok bool) {
	p.buf = append(p.buf, batch...)
	for _, rr := range batch {
		p.bufMs += rr
	}
	p.trim()

	return p.compute()
}

// CurrentMetrics returns the latest snapshot without recomputing.
func (p *Processor) CurrentMetrics() (m Metrics, ok bool) {
	return p.last, p.hasLast
}

// Reset clears the window and the snapshot.
func (p *Processor) Reset() {
	p.buf = p.buf[:0]
	p.bufMs = 0
	p.last = Metrics{}
	p.hasLast = false
	p.seq = 0
}

// BufferDurationSeconds returns the summed duration of the buffered beats.
func (p *Processor) BufferDurationSeconds() float64 {
	return float64(p.bufMs) / 1000
}

// Intervals returns a copy of the buffered beats in arrival order.
func (p *Processor) Intervals() []int {
	return append([]int(nil), p.buf...)
}

// BufferLen returns the number of buffered beats.
func (p *Processor) BufferLen() int {
	return len(p.buf)
}

// trim keeps the longest suffix whose duration does not exceed the window.
func (p *Processor) trim() {
	if p.bufMs <= p.windowMs {
		return
	}

	total := 0
	for i := len(p.buf) - 1; i >= 0; i-- {
		total += p.buf[i]
		if total > p.windowMs {
			p.bufMs = total - p.buf[i]
			kept := copy(p.buf, p.buf[i+1:])
			p.buf = p.buf[:kept]
			return
		}
	}
}

func (p *Processor) compute() (Metrics, bool) {
	if p.bufMs < minDurationMs || len(p.buf) < minBeats {
		return p.last, p.hasLast
	}

	res := p.corrector.Clean(p.buf)
	if len(res.Cleaned) < minCleaned {
		return p.last, p.hasLast
	}

	spec := p.analyzer.Calculate(res.Cleaned)

	meanHR := 0.0
	if mean := timestats.Mean(res.Cleaned); mean > 0 {
		meanHR = 60000 / mean
	}

	p.seq++
	p.last = Metrics{
		CoherenceScore:   spec.Coherence,
		RMSSD:            timestats.RMSSD(res.Cleaned),
		MeanHR:           meanHR,
		LFPower:          spec.LFPower,
		HFPower:          spec.HFPower,
		RRCount:          len(res.Cleaned),
		ArtifactsRemoved: res.ArtifactsRemoved,
		Timestamp:        p.clock(),
		Sequence:         p.seq,
	}
	p.hasLast = true

	return p.last, true
}
