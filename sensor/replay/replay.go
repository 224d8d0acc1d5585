// Package replay implements a [sensor.Source] that plays back a recorded RR
// interval series, optionally paced in real time.
package replay

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cwbudde/algo-hrv/sensor"
)

// DeviceID identifies the single device a replay source exposes.
const DeviceID = "replay"

const (
	defaultBatchSize = 4
	defaultName      = "RR replay"
)

// ErrUnknownDevice is returned by Connect for an id other than DeviceID.
var ErrUnknownDevice = errors.New("replay: unknown device")

// Config controls playback.
type Config struct {
	// BatchSize is the number of intervals per notification.
	BatchSize int
	// Speed scales real-time pacing. Zero or negative disables pacing.
	Speed float64
	// Name is reported by Scan.
	Name string
}

// DefaultConfig returns unpaced playback in batches of 4.
func DefaultConfig() Config {
	return Config{BatchSize: defaultBatchSize, Name: defaultName}
}

// ReadIntervals parses RR intervals in milliseconds. Values are separated by
// whitespace or commas; everything after '#' on a line is ignored.
func ReadIntervals(r io.Reader) ([]int, error) {
	var out []int

	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		fields := strings.FieldsFunc(text, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t' || r == '\r'
		})
		for _, f := range fields {
			v, err := strconv.Atoi(f)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid interval %q: %w", line, f, err)
			}
			out = append(out, v)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read intervals: %w", err)
	}

	return out, nil
}

// Source replays a fixed series. Connect starts playback from the
// beginning; the source reports Disconnected once the series is exhausted.
type Source struct {
	*sensor.Feed

	cfg Config
	rr  []int

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a source over rr.
func New(rr []int, cfg Config) *Source {
	return &Source{
		Feed: sensor.NewFeed(0),
		cfg:  normalizeConfig(cfg),
		rr:   rr,
	}
}

// Open reads the intervals in path and creates a source over them.
func Open(path string, cfg Config) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open replay file: %w", err)
	}
	defer f.Close()

	rr, err := ReadIntervals(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse replay file: %w", err)
	}

	return New(rr, cfg), nil
}

// Len returns the number of intervals in the series.
func (s *Source) Len() int { return len(s.rr) }

// Scan reports the replay device.
func (s *Source) Scan(context.Context) ([]sensor.Device, error) {
	return []sensor.Device{{
		ID:          DeviceID,
		Name:        s.cfg.Name,
		Connectable: true,
	}}, nil
}

// Connect starts playback. Connecting while playing is a no-op.
func (s *Source) Connect(_ context.Context, id string) error {
	if id != DeviceID {
		err := fmt.Errorf("%w: %q", ErrUnknownDevice, id)
		s.Fail(err)
		return err
	}

	select {
	case <-s.Done():
		return sensor.ErrClosed
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return nil
	}

	s.SetState(sensor.Connecting)

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.SetState(sensor.Connected)

	s.wg.Add(1)
	go s.run(ctx)

	return nil
}

// Disconnect stops playback and waits for it to finish.
func (s *Source) Disconnect() error {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		s.SetState(sensor.Disconnecting)
		cancel()
	}
	s.wg.Wait()
	s.SetState(sensor.Disconnected)

	return nil
}

// Shutdown stops playback and closes the source.
func (s *Source) Shutdown() error {
	err := s.Disconnect()
	s.Close()
	return err
}

func (s *Source) run(ctx context.Context) {
	defer s.wg.Done()

	for start := 0; start < len(s.rr); start += s.cfg.BatchSize {
		batch := s.rr[start:min(start+s.cfg.BatchSize, len(s.rr))]

		if err := s.pace(ctx, batch); err != nil {
			return
		}

		hr := sensor.HeartRate{
			HR:        heartRate(batch),
			RR:        append([]int(nil), batch...),
			Contact:   true,
			Timestamp: time.Now(),
		}
		if err := s.Emit(ctx, hr); err != nil {
			if !errors.Is(err, context.Canceled) {
				s.Fail(err)
			}
			return
		}
	}

	s.mu.Lock()
	finished := s.cancel != nil
	if finished {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()

	if finished {
		s.SetState(sensor.Disconnected)
	}
}

func (s *Source) pace(ctx context.Context, batch []int) error {
	if s.cfg.Speed <= 0 {
		return ctx.Err()
	}

	total := 0
	for _, rr := range batch {
		total += rr
	}
	d := time.Duration(float64(total) / s.cfg.Speed * float64(time.Millisecond))

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func heartRate(batch []int) int {
	total := 0
	for _, rr := range batch {
		total += rr
	}
	if total <= 0 {
		return 0
	}
	return int(math.Round(60000 * float64(len(batch)) / float64(total)))
}

func normalizeConfig(cfg Config) Config {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.Name == "" {
		cfg.Name = defaultName
	}
	return cfg
}
