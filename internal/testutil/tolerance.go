package testutil

import (
	"math"
	"testing"
)

// RequireSliceNearlyEqual fails t if got and want differ in length or if
// any element pair exceeds eps (absolute tolerance).
func RequireSliceNearlyEqual(t *testing.T, got, want []float64, eps float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	for i := range got {
		diff := math.Abs(got[i] - want[i])
		if diff > eps {
			t.Fatalf("index %d: got %v, want %v (diff %v > eps %v)", i, got[i], want[i], diff, eps)
		}
	}
}

// RequireFinite fails t if any element is NaN or Inf.
func RequireFinite(t *testing.T, data []float64) {
	t.Helper()
	for i, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("index %d: non-finite value %v", i, v)
		}
	}
}

// RequireIntervalsEqual fails t unless got and want hold the same RR
// intervals in the same order.
func RequireIntervalsEqual(t *testing.T, got, want []int) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("index %d: got %d, want %d (%v vs %v)", i, got[i], want[i], got, want)
		}
	}
}

// RelativeError returns |got-want| / |want|. A zero reference yields the
// absolute difference.
func RelativeError(got, want float64) float64 {
	if want == 0 {
		return math.Abs(got)
	}
	return math.Abs(got-want) / math.Abs(want)
}

// RequireRelativeError fails t when got deviates from the reference want by
// tol (a fraction, e.g. 0.15) or more.
func RequireRelativeError(t *testing.T, name string, got, want, tol float64) {
	t.Helper()
	if e := RelativeError(got, want); e >= tol {
		t.Fatalf("%s=%f ref=%f (%.1f%% error, limit %.1f%%)", name, got, want, 100*e, 100*tol)
	}
}
