package interp

import (
	"fmt"
	"sort"
)

// Spline is a fitted natural cubic spline. Segment i covers
// [knots[i], knots[i+1]] and evaluates
//
//	S_i(x) = a[i] + b[i]*dx + c[i]*dx^2 + d[i]*dx^3, dx = x - knots[i].
//
// A Spline is immutable after fitting and safe for concurrent Eval calls.
type Spline struct {
	knots []float64
	a     []float64
	b     []float64
	c     []float64
	d     []float64
}

// FitNaturalSpline fits a natural cubic spline (S'' = 0 at both ends) through
// the points (x[i], y[i]).
//
// x must be strictly increasing and have the same length as y, and at least
// two knots are required. Violations are programmer errors and panic.
func FitNaturalSpline(x, y []float64) *Spline {
	if len(x) != len(y) {
		panic(fmt.Sprintf("interp: spline x/y length mismatch: %d != %d", len(x), len(y)))
	}
	if len(x) < 2 {
		panic(fmt.Sprintf("interp: spline needs at least 2 knots: %d", len(x)))
	}

	n := len(x) - 1
	h := make([]float64, n)
	for i := range h {
		h[i] = x[i+1] - x[i]
		if !(h[i] > 0) {
			panic(fmt.Sprintf("interp: spline knots must be strictly increasing at index %d", i+1))
		}
	}

	a := append([]float64(nil), y...)

	alpha := make([]float64, n+1)
	for i := 1; i < n; i++ {
		alpha[i] = 3/h[i]*(a[i+1]-a[i]) - 3/h[i-1]*(a[i]-a[i-1])
	}

	// Forward sweep of the tridiagonal system; l[0] = 1, mu[0] = z[0] = 0
	// encode the natural boundary at the first knot.
	l := make([]float64, n+1)
	mu := make([]float64, n+1)
	z := make([]float64, n+1)
	l[0] = 1
	for i := 1; i < n; i++ {
		l[i] = 2*(x[i+1]-x[i-1]) - h[i-1]*mu[i-1]
		mu[i] = h[i] / l[i]
		z[i] = (alpha[i] - h[i-1]*z[i-1]) / l[i]
	}
	l[n] = 1

	c := make([]float64, n+1)
	b := make([]float64, n)
	d := make([]float64, n)
	for j := n - 1; j >= 0; j-- {
		c[j] = z[j] - mu[j]*c[j+1]
		b[j] = (a[j+1]-a[j])/h[j] - h[j]*(c[j+1]+2*c[j])/3
		d[j] = (c[j+1] - c[j]) / (3 * h[j])
	}

	return &Spline{
		knots: append([]float64(nil), x...),
		a:     a,
		b:     b,
		c:     c,
		d:     d,
	}
}

// Eval evaluates the spline at x. Values outside the knot range use the
// nearest boundary segment's polynomial.
func (s *Spline) Eval(x float64) float64 {
	i := s.segment(x)
	dx := x - s.knots[i]
	return s.a[i] + dx*(s.b[i]+dx*(s.c[i]+dx*s.d[i]))
}

// Knots returns a copy of the knot positions.
func (s *Spline) Knots() []float64 {
	return append([]float64(nil), s.knots...)
}

// Segments returns the number of cubic segments (knots - 1).
func (s *Spline) Segments() int {
	return len(s.knots) - 1
}

func (s *Spline) segment(x float64) int {
	last := len(s.knots) - 1
	switch {
	case x <= s.knots[0]:
		return 0
	case x >= s.knots[last]:
		return last - 1
	}

	// First knot strictly greater than x, minus one: knots[i] <= x < knots[i+1].
	return sort.Search(len(s.knots), func(k int) bool { return s.knots[k] > x }) - 1
}
