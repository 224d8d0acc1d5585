package fft

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// Transform computes the forward DFT of (re, im) in place.
//
// Both slices must have the same, power-of-two length; anything else panics.
// The result is the full, unnormalized complex spectrum X[k] = sum x[n] e^{-2πikn/N}.
func Transform(re, im []float64) {
	n := len(re)
	if n != len(im) {
		panic(fmt.Sprintf("fft: real/imag length mismatch: %d != %d", n, len(im)))
	}
	if !IsPowerOf2(n) {
		panic(fmt.Sprintf("fft: length must be a power of 2: %d", n))
	}

	bitReverse(re, im)

	for size := 2; size <= n; size <<= 1 {
		half := size >> 1
		angle := -2 * math.Pi / float64(size)
		wRe, wIm := math.Cos(angle), math.Sin(angle)

		for start := 0; start < n; start += size {
			curRe, curIm := 1.0, 0.0

			for k := range half {
				p := start + k
				q := p + half

				vRe := re[q]*curRe - im[q]*curIm
				vIm := re[q]*curIm + im[q]*curRe
				uRe, uIm := re[p], im[p]

				re[p], im[p] = uRe+vRe, uIm+vIm
				re[q], im[q] = uRe-vRe, uIm-vIm

				curRe, curIm = curRe*wRe-curIm*wIm, curRe*wIm+curIm*wRe
			}
		}
	}
}

func bitReverse(re, im []float64) {
	n := len(re)
	j := 0
	for i := 1; i < n; i++ {
		bit := n >> 1
		for j&bit != 0 {
			j ^= bit
			bit >>= 1
		}
		j ^= bit

		if i < j {
			re[i], re[j] = re[j], re[i]
			im[i], im[j] = im[j], im[i]
		}
	}
}

// PowerSpectrum returns |X[k]|^2 for the first half (k < N/2) of a transformed
// spectrum. No scaling is applied.
func PowerSpectrum(re, im []float64) []float64 {
	if len(re) != len(im) {
		panic(fmt.Sprintf("fft: real/imag length mismatch: %d != %d", len(re), len(im)))
	}

	half := len(re) / 2
	out := make([]float64, half)
	if half == 0 {
		return out
	}

	vecmath.Power(out, re[:half], im[:half])
	return out
}

// NextPowerOf2 returns the smallest power of two >= n. Values below 1 yield 1.
func NextPowerOf2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// IsPowerOf2 reports whether n is a positive power of two.
func IsPowerOf2(n int) bool {
	return n > 0 && n&(n-1) == 0
}
