// Package blehr decodes the Bluetooth Heart Rate Measurement (GATT 0x2A37)
// and Battery Level (GATT 0x2A19) characteristics as relayed by gateways
// that forward raw characteristic values. It does not talk to Bluetooth
// hardware.
package blehr

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/cwbudde/algo-hrv/sensor"
)

// Flag bits of the first measurement byte.
const (
	FlagHRUint16        = 0x01
	FlagContactDetected = 0x02
	FlagContactSupport  = 0x04
	FlagEnergyExpended  = 0x08
	FlagRRPresent       = 0x10
)

var (
	// ErrShortPacket indicates a measurement that ends inside a mandatory field.
	ErrShortPacket = errors.New("blehr: measurement too short")
	// ErrBatteryRange indicates a battery level above 100 %.
	ErrBatteryRange = errors.New("blehr: battery level out of range")
)

// Parse decodes one measurement. RR intervals are transmitted in 1/1024 s
// units and converted to whole milliseconds, truncating. A trailing odd byte
// in the RR section is ignored. Sensors that do not support contact
// detection are reported as in contact.
func Parse(data []byte, ts time.Time) (sensor.HeartRate, error) {
	if len(data) < 2 {
		return sensor.HeartRate{}, fmt.Errorf("%w: %d bytes", ErrShortPacket, len(data))
	}

	flags := data[0]
	off := 1

	var hr int
	if flags&FlagHRUint16 != 0 {
		if len(data) < off+2 {
			return sensor.HeartRate{}, fmt.Errorf("%w: 16-bit heart rate", ErrShortPacket)
		}
		hr = int(binary.LittleEndian.Uint16(data[off:]))
		off += 2
	} else {
		hr = int(data[off])
		off++
	}

	if flags&FlagEnergyExpended != 0 {
		off += 2
	}

	var rr []int
	if flags&FlagRRPresent != 0 {
		for ; off+1 < len(data); off += 2 {
			raw := int(binary.LittleEndian.Uint16(data[off:]))
			rr = append(rr, raw*1000/1024)
		}
	}

	contact := true
	if flags&FlagContactSupport != 0 {
		contact = flags&FlagContactDetected != 0 || hr > 0
	}

	return sensor.HeartRate{
		HR:        hr,
		RR:        rr,
		Contact:   contact,
		Timestamp: ts,
	}, nil
}

// Encode builds a measurement with an 8-bit heart rate (16-bit above 255),
// contact detection supported and the given RR intervals (ms) converted to
// 1/1024 s units. Units are rounded up so that Parse recovers the exact
// millisecond values.
func Encode(hr int, rrMs []int, contact bool) []byte {
	flags := byte(FlagContactSupport)
	if contact {
		flags |= FlagContactDetected
	}
	if len(rrMs) > 0 {
		flags |= FlagRRPresent
	}

	out := []byte{flags}
	if hr > 0xFF {
		out[0] |= FlagHRUint16
		out = binary.LittleEndian.AppendUint16(out, uint16(hr))
	} else {
		out = append(out, byte(hr))
	}

	for _, ms := range rrMs {
		out = binary.LittleEndian.AppendUint16(out, uint16((ms*1024+999)/1000))
	}

	return out
}

// ParseBattery decodes a Battery Level value: one byte holding 0..100 %.
// Trailing bytes are ignored.
func ParseBattery(data []byte) (int, error) {
	if len(data) == 0 {
		return 0, fmt.Errorf("%w: empty battery level", ErrShortPacket)
	}
	if data[0] > 100 {
		return 0, fmt.Errorf("%w: %d", ErrBatteryRange, data[0])
	}
	return int(data[0]), nil
}
