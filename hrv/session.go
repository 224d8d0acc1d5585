package hrv

import (
	"sync"

	"github.com/google/uuid"
)

const subscriberBuffer = 8

// Session serializes access to one [Processor] and publishes every freshly
// computed snapshot to its subscribers. It is safe for concurrent use.
type Session struct {
	id uuid.UUID

	mu          sync.Mutex
	proc        *Processor
	subscribers map[chan Metrics]struct{}
	closed      bool
}

// NewSession creates a session around a new processor.
func NewSession(opts ...Option) *Session {
	return &Session{
		id:          uuid.New(),
		proc:        NewProcessor(opts...),
		subscribers: make(map[chan Metrics]struct{}),
	}
}

// ID returns the session identifier.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// Push feeds a batch of RR intervals (ms) and returns the latest snapshot.
// fresh reports whether the batch produced a new snapshot; only fresh
// snapshots are published.
func (s *Session) Push(batch []int) (m Metrics, fresh bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.lastSequence()
	m, ok := s.proc.AddRRIntervals(batch)
	fresh = ok && m.Sequence != prev

	if fresh {
		s.publish(m)
	}

	return m, fresh
}

// Snapshot returns the latest snapshot. ok is false while none exists.
func (s *Session) Snapshot() (m Metrics, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.proc.CurrentMetrics()
}

// BufferDurationSeconds returns the duration of the buffered window.
func (s *Session) BufferDurationSeconds() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.proc.BufferDurationSeconds()
}

// Intervals returns a copy of the buffered beats.
func (s *Session) Intervals() []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.proc.Intervals()
}

// Reset clears the window and the snapshot, e.g. after the sensor
// disconnected.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.proc.Reset()
}

// Subscribe registers a listener for fresh snapshots. A slow subscriber
// loses its oldest pending snapshot rather than blocking Push. The returned
// cancel function unregisters and closes the channel.
func (s *Session) Subscribe() (<-chan Metrics, func()) {
	ch := make(chan Metrics, subscriberBuffer)

	s.mu.Lock()
	if s.closed {
		close(ch)
		s.mu.Unlock()
		return ch, func() {}
	}
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if _, ok := s.subscribers[ch]; ok {
				delete(s.subscribers, ch)
				close(ch)
			}
		})
	}

	return ch, cancel
}

// Close closes every subscriber channel. Later subscriptions receive a
// closed channel; Push keeps working without publishing.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
	s.closed = true
}

func (s *Session) lastSequence() uint64 {
	m, ok := s.proc.CurrentMetrics()
	if !ok {
		return 0
	}
	return m.Sequence
}

func (s *Session) publish(m Metrics) {
	for ch := range s.subscribers {
		select {
		case ch <- m:
			continue
		default:
		}

		// Drop the oldest pending snapshot to make room.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- m:
		default:
		}
	}
}
