// Package webdemo holds the state behind the browser demo. It is kept free
// of syscall/js so it can be tested natively.
package webdemo

import (
	"fmt"
	"sync"

	"github.com/cwbudde/algo-hrv/hrv"
	"github.com/cwbudde/algo-hrv/hrv/artifact"
	"github.com/cwbudde/algo-hrv/hrv/spectral"
)

// Engine feeds browser-supplied RR batches into a session.
type Engine struct {
	mu        sync.Mutex
	session   *hrv.Session
	corrector *artifact.Corrector
	analyzer  *spectral.Analyzer
	window    int
}

// NewEngine creates an engine with a sliding window of windowSeconds.
func NewEngine(windowSeconds int) (*Engine, error) {
	if windowSeconds <= 0 {
		return nil, fmt.Errorf("window must be > 0 s: %d", windowSeconds)
	}

	corrector := artifact.NewCorrector(artifact.DefaultConfig())
	analyzer := spectral.NewAnalyzer(spectral.DefaultConfig())

	return &Engine{
		session: hrv.NewSession(
			hrv.WithWindowSeconds(windowSeconds),
			hrv.WithCorrector(corrector),
			hrv.WithAnalyzer(analyzer),
		),
		corrector: corrector,
		analyzer:  analyzer,
		window:    windowSeconds,
	}, nil
}

// WindowSeconds returns the configured window length.
func (e *Engine) WindowSeconds() int { return e.window }

// AddRR pushes one batch of intervals (ms). Non-positive values are dropped
// before they reach the window.
func (e *Engine) AddRR(batch []int) (hrv.Metrics, bool) {
	valid := batch[:0:0]
	for _, rr := range batch {
		if rr > 0 {
			valid = append(valid, rr)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	return e.session.Push(valid)
}

// Current returns the latest snapshot.
func (e *Engine) Current() (hrv.Metrics, bool) {
	return e.session.Snapshot()
}

// Reset clears the window.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.session.Reset()
}

// BufferSeconds returns the buffered duration.
func (e *Engine) BufferSeconds() float64 {
	return e.session.BufferDurationSeconds()
}
