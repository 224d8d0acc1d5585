package resample

import (
	"errors"
	"math"

	"github.com/cwbudde/algo-hrv/dsp/interp"
)

// ErrInvalidRate indicates a non-positive or non-finite output sample rate.
var ErrInvalidRate = errors.New("resample: invalid sample rate")

// CumulativeTimes returns the time stamp in seconds of every interval in
// intervalsMs. The first interval is anchored at t = 0 and contributes no
// duration.
func CumulativeTimes(intervalsMs []float64) []float64 {
	if len(intervalsMs) == 0 {
		return nil
	}

	times := make([]float64, len(intervalsMs))
	for i := 1; i < len(intervalsMs); i++ {
		times[i] = times[i-1] + intervalsMs[i]/1000
	}
	return times
}

// PredictOutputLen returns the number of uniform samples [Uniform] produces
// for intervalsMs at rate, before the minimum-length check.
func PredictOutputLen(intervalsMs []float64, rate float64) int {
	times := CumulativeTimes(intervalsMs)
	if len(times) == 0 || rate <= 0 {
		return 0
	}
	return int(math.Floor(times[len(times)-1] * rate))
}

// Uniform resamples intervalsMs onto a uniform grid of the given rate (Hz).
//
// It returns nil when fewer than two output samples would be produced.
func Uniform(intervalsMs []float64, rate float64) ([]float64, error) {
	if !(rate > 0) || math.IsInf(rate, 0) {
		return nil, ErrInvalidRate
	}

	times := CumulativeTimes(intervalsMs)
	if len(times) == 0 {
		return nil, nil
	}

	n := int(math.Floor(times[len(times)-1] * rate))
	if n < 2 {
		return nil, nil
	}

	last := len(times) - 1
	out := make([]float64, n)
	src := 0

	for i := range out {
		t := float64(i) / rate

		for src < last-1 && times[src+1] < t {
			src++
		}

		next := min(src+1, last)
		out[i] = interp.LinearAt(t, times[src], times[next], intervalsMs[src], intervalsMs[next])
	}

	return out, nil
}
