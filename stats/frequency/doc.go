// Package frequency provides frequency-domain HRV statistics over a Welch
// power spectral density: VLF/LF/HF band powers, normalized units, band
// peaks and the spectral centroid.
package frequency
