package resample

import (
	"errors"
	"math"
	"testing"
)

func TestCumulativeTimes(t *testing.T) {
	got := CumulativeTimes([]float64{800, 1000, 500})
	want := []float64{0, 1.0, 1.5}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Fatalf("times[%d]=%v want=%v", i, got[i], want[i])
		}
	}
	if CumulativeTimes(nil) != nil {
		t.Fatalf("expected nil for empty input")
	}
}

func TestUniformConstantSeries(t *testing.T) {
	rr := make([]float64, 75)
	for i := range rr {
		rr[i] = 800
	}

	out, err := Uniform(rr, 4)
	if err != nil {
		t.Fatalf("Uniform: %v", err)
	}

	// 74 intervals of 0.8s after the anchor: 59.2s at 4 Hz.
	if want := PredictOutputLen(rr, 4); len(out) != want || want != 236 {
		t.Fatalf("len(out)=%d predicted=%d want 236", len(out), want)
	}
	for i, v := range out {
		if math.Abs(v-800) > 1e-9 {
			t.Fatalf("out[%d]=%v want 800", i, v)
		}
	}
}

func TestUniformLinearInterpolation(t *testing.T) {
	// Time stamps 0, 1.0, 2.0 with values 800, 1000, 1000.
	rr := []float64{800, 1000, 1000}

	out, err := Uniform(rr, 2)
	if err != nil {
		t.Fatalf("Uniform: %v", err)
	}

	want := []float64{800, 900, 1000, 1000}
	if len(out) != len(want) {
		t.Fatalf("len(out)=%d want=%d", len(out), len(want))
	}
	for i := range want {
		if math.Abs(out[i]-want[i]) > 1e-9 {
			t.Fatalf("out[%d]=%v want=%v", i, out[i], want[i])
		}
	}
}

func TestUniformTooShort(t *testing.T) {
	out, err := Uniform([]float64{800, 300}, 4)
	if err != nil {
		t.Fatalf("Uniform: %v", err)
	}
	if out != nil {
		t.Fatalf("expected nil for a single output sample, got %v", out)
	}

	if out, _ := Uniform(nil, 4); out != nil {
		t.Fatalf("expected nil for empty input")
	}
}

func TestUniformInvalidRate(t *testing.T) {
	for _, rate := range []float64{0, -4, math.NaN(), math.Inf(1)} {
		if _, err := Uniform([]float64{800, 800, 800}, rate); !errors.Is(err, ErrInvalidRate) {
			t.Fatalf("rate=%v: err=%v want ErrInvalidRate", rate, err)
		}
	}
}
