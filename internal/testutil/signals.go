package testutil

import (
	"math"
	"math/rand"
)

// DeterministicSine generates a deterministic sine wave.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out
}

// SinusoidalRR generates RR intervals (ms) whose value follows
// base + amplitude*sin(2π·freq·t), where t is the elapsed time at the start
// of each beat. Beats are generated until durationSec is covered.
func SinusoidalRR(base, amplitude, freqHz, durationSec float64) []float64 {
	var out []float64
	target := durationSec * 1000
	for elapsed := 0.0; elapsed < target; {
		rr := base + amplitude*math.Sin(2*math.Pi*freqHz*elapsed/1000)
		out = append(out, rr)
		elapsed += rr
	}
	return out
}

// Truncate converts a series to whole milliseconds, dropping the fraction.
func Truncate(series []float64) []int {
	out := make([]int, len(series))
	for i, v := range series {
		out[i] = int(v)
	}
	return out
}

// GaussianRR generates n normally distributed RR intervals with a fixed seed.
func GaussianRR(seed int64, mean, stddev float64, n int) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	for i := range out {
		out[i] = mean + rng.NormFloat64()*stddev
	}
	return out
}

// ConstantRR returns n intervals of value ms.
func ConstantRR(value, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = value
	}
	return out
}
