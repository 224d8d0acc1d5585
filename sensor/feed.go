package sensor

import (
	"context"
	"errors"
	"sync"
)

const defaultFeedBuffer = 16

// ErrClosed is returned when emitting into a shut-down feed.
var ErrClosed = errors.New("sensor: source closed")

// Feed implements the observable half of a [Source]: state tracking, the
// state, heart-rate and battery streams and the sticky last error.
// Transports embed it.
type Feed struct {
	mu         sync.Mutex
	state      ConnectionState
	lastErr    error
	battery    int
	hasBattery bool

	states    chan ConnectionState
	rates     chan HeartRate
	batteries chan int
	done      chan struct{}
	once      sync.Once
}

// NewFeed creates a feed whose streams buffer up to buffer items. A
// non-positive buffer selects the default of 16.
func NewFeed(buffer int) *Feed {
	if buffer <= 0 {
		buffer = defaultFeedBuffer
	}
	return &Feed{
		states:    make(chan ConnectionState, buffer),
		rates:     make(chan HeartRate, buffer),
		batteries: make(chan int, buffer),
		done:      make(chan struct{}),
	}
}

// State returns the current connection state.
func (f *Feed) State() ConnectionState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// SetState records a transition and publishes it. When the state stream is
// full the oldest pending transition is dropped. Entering Disconnected
// forgets the battery level.
func (f *Feed) SetState(s ConnectionState) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state == s {
		return
	}
	f.state = s
	if s == Disconnected {
		f.battery, f.hasBattery = 0, false
	}

	publishLatest(f.done, f.states, s)
}

// SetBattery records a battery level in percent, clamped to 0..100, and
// publishes it when it changed.
func (f *Feed) SetBattery(level int) {
	level = min(max(level, 0), 100)

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.hasBattery && f.battery == level {
		return
	}
	f.battery, f.hasBattery = level, true

	publishLatest(f.done, f.batteries, level)
}

// Battery returns the last reported battery level. ok is false until the
// sensor reported one and again after a disconnect.
func (f *Feed) Battery() (level int, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.battery, f.hasBattery
}

// publishLatest sends v without blocking, dropping the oldest pending value
// of a full channel.
func publishLatest[T any](done <-chan struct{}, ch chan T, v T) {
	select {
	case <-done:
		return
	default:
	}

	select {
	case ch <- v:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- v:
	default:
	}
}

// Emit delivers hr, blocking until it is consumed into the buffer, ctx is
// done or the feed is closed.
func (f *Feed) Emit(ctx context.Context, hr HeartRate) error {
	select {
	case <-f.done:
		return ErrClosed
	default:
	}

	select {
	case f.rates <- hr:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-f.done:
		return ErrClosed
	}
}

// Fail records err as the last error. A nil err is ignored.
func (f *Feed) Fail(err error) {
	if err == nil {
		return
	}
	f.mu.Lock()
	f.lastErr = err
	f.mu.Unlock()
}

// LastError returns the error recorded by Fail.
func (f *Feed) LastError() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

// ClearError forgets the last error.
func (f *Feed) ClearError() {
	f.mu.Lock()
	f.lastErr = nil
	f.mu.Unlock()
}

// States returns the state stream.
func (f *Feed) States() <-chan ConnectionState { return f.states }

// HeartRates returns the heart-rate stream.
func (f *Feed) HeartRates() <-chan HeartRate { return f.rates }

// Batteries returns the battery level stream.
func (f *Feed) Batteries() <-chan int { return f.batteries }

// Done is closed by Close.
func (f *Feed) Done() <-chan struct{} { return f.done }

// Close marks the feed as shut down. It is safe to call more than once.
func (f *Feed) Close() {
	f.once.Do(func() {
		f.mu.Lock()
		close(f.done)
		f.mu.Unlock()
	})
}
