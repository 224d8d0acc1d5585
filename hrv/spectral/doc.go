// Package spectral derives frequency-domain HRV metrics from a cleaned
// RR-interval series: a cardiac coherence score and the integrated power of
// the low-frequency (0.04-0.15 Hz) and high-frequency (0.15-0.40 Hz) bands.
//
// The irregular series is resampled to a uniform 4 Hz grid, detrended by its
// mean and passed through a Welch estimator. Every frequency index is derived
// from the Welch segment length, never from the length of the resampled
// series.
package spectral
