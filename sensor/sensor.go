package sensor

import (
	"context"
	"time"
)

// ConnectionState is the link state of a [Source].
type ConnectionState int

const (
	Disconnected ConnectionState = iota
	Connecting
	Connected
	Disconnecting
)

func (s ConnectionState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Disconnecting:
		return "disconnecting"
	default:
		return "unknown"
	}
}

// HeartRate is one notification from a heart-rate sensor.
type HeartRate struct {
	// HR in beats per minute as reported by the sensor.
	HR int `json:"hr"`
	// RR holds the intervals (ms) completed since the previous notification.
	// It may be empty.
	RR []int `json:"rr"`
	// Contact reports skin contact. Sensors without contact detection
	// always report true.
	Contact   bool      `json:"contact"`
	Timestamp time.Time `json:"timestamp"`
}

// Device is a sensor found during a scan.
type Device struct {
	ID          string
	Name        string
	RSSI        int
	Connectable bool
}

// Source is a heart-rate transport.
type Source interface {
	// Scan lists devices until ctx is done or the transport has a complete
	// answer.
	Scan(ctx context.Context) ([]Device, error)
	// Connect starts streaming from the device with the given id.
	Connect(ctx context.Context, deviceID string) error
	// Disconnect stops streaming. The source can be connected again.
	Disconnect() error

	State() ConnectionState
	// States delivers every state transition.
	States() <-chan ConnectionState
	// HeartRates delivers sensor notifications while connected.
	HeartRates() <-chan HeartRate
	// Battery returns the last battery level in percent. ok is false when
	// the sensor has not reported one since connecting.
	Battery() (level int, ok bool)
	// Batteries delivers battery level changes.
	Batteries() <-chan int
	// Done is closed by Shutdown.
	Done() <-chan struct{}

	// LastError returns the most recent transport error until ClearError.
	LastError() error
	ClearError()

	// Shutdown disconnects and releases the transport for good.
	Shutdown() error
}
