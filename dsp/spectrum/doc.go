// Package spectrum estimates and evaluates power spectral densities.
//
// [Welch] averages Hann-windowed periodograms of half-overlapping segments
// and scales them as a one-sided density (units²/Hz), matching
// scipy.signal.welch(scaling="density") for the non-DC bins. The returned
// [PSD] carries its own frequency grid so band edges, peak windows and
// integrals are always computed with the resolution of the segment that was
// actually transformed.
package spectrum
