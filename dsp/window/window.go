package window

import (
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// Type identifies a tapering window.
type Type int

const (
	TypeRectangular Type = iota
	TypeHann
	TypeHamming
	TypeBlackman
)

// cosineTerms holds the generalized cosine-sum coefficients a_k of
// w(x) = sum a_k cos(2*pi*k*x).
var cosineTerms = map[Type][]float64{
	TypeHann:     {0.5, -0.5},
	TypeHamming:  {0.54, -0.46},
	TypeBlackman: {0.42, -0.5, 0.08},
}

var names = [...]string{"rectangular", "hann", "hamming", "blackman"}

func (t Type) String() string {
	if t < 0 || int(t) >= len(names) {
		return "unknown"
	}
	return names[t]
}

// Option modifies window generation.
type Option func(*options)

type options struct {
	periodic bool
}

// WithPeriodic divides positions by N instead of N-1.
func WithPeriodic() Option {
	return func(o *options) { o.periodic = true }
}

// Generate returns length coefficients of window t, or nil for length <= 0.
// Unknown types yield a rectangular window.
func Generate(t Type, length int, opts ...Option) []float64 {
	if length <= 0 {
		return nil
	}

	var o options
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	out := make([]float64, length)
	terms, ok := cosineTerms[t]
	if !ok {
		for i := range out {
			out[i] = 1
		}
		return out
	}

	den := float64(length - 1)
	if o.periodic {
		den = float64(length)
	}
	for i := range out {
		var x float64
		if den > 0 {
			x = float64(i) / den
		}
		for k, a := range terms {
			out[i] += a * math.Cos(2*math.Pi*float64(k)*x)
		}
	}

	return out
}

// Hann returns symmetric Hann coefficients, the taper used by the Welch
// estimator.
func Hann(size int) ([]float64, error) {
	if err := validateLength(size); err != nil {
		return nil, err
	}
	return Generate(TypeHann, size), nil
}

// EnergySum returns sum(w[i]^2).
func EnergySum(coeffs []float64) float64 {
	var sum float64
	for _, c := range coeffs {
		sum += c * c
	}
	return sum
}

// ApplyCoefficients returns samples[i]*coeffs[i] in a new slice.
func ApplyCoefficients(samples, coeffs []float64) ([]float64, error) {
	if len(samples) != len(coeffs) {
		return nil, errMismatchedLength
	}

	out := make([]float64, len(samples))
	vecmath.MulBlock(out, samples, coeffs)

	return out, nil
}

// ApplyCoefficientsInPlace scales samples by coeffs.
func ApplyCoefficientsInPlace(samples, coeffs []float64) error {
	if len(samples) != len(coeffs) {
		return errMismatchedLength
	}

	vecmath.MulBlockInPlace(samples, coeffs)

	return nil
}
