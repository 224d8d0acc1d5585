package hrv

import "time"

// Metrics is one HRV snapshot computed over the buffered window.
type Metrics struct {
	// CoherenceScore is the share (0..1) of spectral power in the dominant
	// 0.04-0.26 Hz peak.
	CoherenceScore float64 `json:"coherenceScore"`
	// RMSSD in ms.
	RMSSD float64 `json:"rmssd"`
	// MeanHR in beats per minute.
	MeanHR float64 `json:"meanHr"`
	// LFPower and HFPower in ms².
	LFPower float64 `json:"lfPower"`
	HFPower float64 `json:"hfPower"`
	// RRCount is the number of beats the snapshot was computed from.
	RRCount          int `json:"rrCount"`
	ArtifactsRemoved int `json:"artifactsRemoved"`
	// Timestamp is the processor clock at computation time.
	Timestamp time.Time `json:"timestamp"`
	// Sequence numbers snapshots of one processor from 1. It restarts after
	// Reset.
	Sequence uint64 `json:"sequence"`
}

// Age returns how long ago the snapshot was computed.
func (m Metrics) Age(now time.Time) time.Duration {
	return now.Sub(m.Timestamp)
}

// IsStale reports whether the snapshot is older than maxAge.
func (m Metrics) IsStale(now time.Time, maxAge time.Duration) bool {
	return m.Age(now) > maxAge
}
