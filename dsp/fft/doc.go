// Package fft provides an in-place, iterative radix-2 Cooley-Tukey transform
// over split real/imaginary slices, plus the one-sided power spectrum and
// power-of-two sizing helpers used by the spectral estimators.
//
// The transform is deterministic: identical input always yields bit-identical
// output, which keeps downstream metrics reproducible for golden-value tests.
//
// Length preconditions are programmer errors and panic:
//
//	re := make([]float64, 256)
//	im := make([]float64, 256)
//	fft.Transform(re, im)          // ok
//	fft.Transform(re[:200], im)    // panics: lengths differ
//	fft.Transform(re[:200], im[:200]) // panics: not a power of two
package fft
