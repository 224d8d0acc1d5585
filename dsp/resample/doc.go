// Package resample converts irregularly spaced interval series (for example
// RR intervals in milliseconds) into uniformly sampled signals suitable for
// FFT-based spectral estimation.
//
// The time axis is cumulative and anchored at the first interval:
//
//	t[0] = 0
//	t[i] = t[i-1] + x[i]/1000   (seconds)
//
// and each interval value is placed at its own time stamp. The uniform grid
// starts at t = 0 and holds floor(t[last]*rate) samples obtained by
// piecewise-linear interpolation. Linear interpolation is used instead of a
// spline because it cannot overshoot between irregular knots.
package resample
