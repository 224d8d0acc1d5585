package fft

import (
	"math"
	"testing"

	algofft "github.com/MeKo-Christian/algo-fft"
)

func BenchmarkTransform(b *testing.B) {
	sizes := []struct {
		name string
		size int
	}{
		{"64", 64},
		{"256", 256},
		{"1K", 1024},
	}

	for _, testCase := range sizes {
		b.Run(testCase.name, func(b *testing.B) {
			src := make([]float64, testCase.size)
			for i := range src {
				src[i] = math.Sin(float64(i) * 0.1)
			}
			re := make([]float64, testCase.size)
			im := make([]float64, testCase.size)

			b.SetBytes(int64(testCase.size * 16))
			b.ResetTimer()

			for range b.N {
				copy(re, src)
				clear(im)
				Transform(re, im)
			}
		})
	}
}

func BenchmarkAlgoFFTReference(b *testing.B) {
	const size = 256

	plan, err := algofft.NewPlan64(size)
	if err != nil {
		b.Fatalf("NewPlan64: %v", err)
	}

	src := make([]complex128, size)
	for i := range src {
		src[i] = complex(math.Sin(float64(i)*0.1), 0)
	}
	dst := make([]complex128, size)

	b.SetBytes(size * 16)
	b.ResetTimer()

	for range b.N {
		_ = plan.Forward(dst, src)
	}
}
