package sensor

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
)

// ErrUnknownMode is returned for a mode without a registered factory.
var ErrUnknownMode = errors.New("sensor: unknown transport mode")

// Mode tags a transport implementation, e.g. "mqtt" or "replay".
type Mode string

// Factory creates the source for a mode.
type Factory func() (Source, error)

// Registry maps transport modes to lazily created sources. At most one
// source is live; requesting another mode shuts the current one down first.
// It is safe for concurrent use.
type Registry struct {
	mu        sync.Mutex
	factories map[Mode]Factory
	mode      Mode
	current   Source
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[Mode]Factory)}
}

// Register adds or replaces the factory for mode.
func (r *Registry) Register(mode Mode, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[mode] = f
}

// Modes returns the registered modes in lexical order.
func (r *Registry) Modes() []Mode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Sorted(maps.Keys(r.factories))
}

// Source returns the live source for mode, creating it on first use. When a
// source of another mode is live it is shut down and replaced.
func (r *Registry) Source(mode Mode) (Source, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current != nil && r.mode == mode {
		return r.current, nil
	}

	f, ok := r.factories[mode]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}

	if err := r.shutdownLocked(); err != nil {
		return nil, fmt.Errorf("failed to shut down %q source: %w", r.mode, err)
	}

	src, err := f()
	if err != nil {
		return nil, fmt.Errorf("failed to create %q source: %w", mode, err)
	}

	r.mode = mode
	r.current = src
	return src, nil
}

// Current returns the live source and its mode.
func (r *Registry) Current() (Source, Mode, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current, r.mode, r.current != nil
}

// Shutdown shuts the live source down.
func (r *Registry) Shutdown() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.shutdownLocked()
}

func (r *Registry) shutdownLocked() error {
	if r.current == nil {
		return nil
	}
	err := r.current.Shutdown()
	r.current = nil
	r.mode = ""
	return err
}
