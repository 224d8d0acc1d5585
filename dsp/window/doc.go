// Package window generates tapering windows for spectral estimation.
//
// Windows are symmetric by default (sample i at position i/(N-1)), which is
// the form used for Welch periodograms; [WithPeriodic] selects the FFT-framing
// variant. [EnergySum] returns sum(w^2), the normalization term of a
// one-sided power spectral density.
package window
