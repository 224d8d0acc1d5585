package time

import (
	"math"
	"slices"
)

// Summary holds time-domain statistics of an RR-interval series (ms).
type Summary struct {
	Count int
	Mean  float64
	Min   float64
	Max   float64
	// SDNN is the sample standard deviation of the intervals.
	SDNN float64
	// RMSSD is the root mean square of successive differences.
	RMSSD float64
	// PNN50 is the fraction (0..1) of successive differences larger than 50 ms.
	PNN50 float64
}

// Summarize computes all time-domain statistics in a single pass using
// Welford's online algorithm for the variance.
func Summarize(series []float64) Summary {
	s := NewStreamingSummary()
	s.Update(series)
	return s.Result()
}

// Mean returns the arithmetic mean of the series, 0 when empty.
func Mean(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	// Kahan summation.
	var sum, c float64
	for _, x := range series {
		y := x - c
		t := sum + y
		c = (t - sum) - y
		sum = t
	}

	return sum / float64(len(series))
}

// Median returns the median of the series without modifying it. Even-length
// input yields the average of the two middle values; empty input yields 0.
func Median(series []float64) float64 {
	n := len(series)
	if n == 0 {
		return 0
	}

	sorted := slices.Clone(series)
	slices.Sort(sorted)

	mid := n / 2
	if n%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}

	return sorted[mid]
}

// RMSSD returns sqrt(mean((x[i+1]-x[i])²)) over n-1 successive differences.
// Series shorter than two samples yield 0.
func RMSSD(series []float64) float64 {
	if len(series) < 2 {
		return 0
	}

	var sumSq float64
	for i := 1; i < len(series); i++ {
		d := series[i] - series[i-1]
		sumSq += d * d
	}

	return math.Sqrt(sumSq / float64(len(series)-1))
}

// PNN50 returns the fraction of successive differences exceeding 50 ms.
func PNN50(series []float64) float64 {
	if len(series) < 2 {
		return 0
	}

	var count int
	for i := 1; i < len(series); i++ {
		if math.Abs(series[i]-series[i-1]) > 50 {
			count++
		}
	}

	return float64(count) / float64(len(series)-1)
}

// StreamingSummary accumulates a [Summary] incrementally across multiple
// blocks of intervals. It processes each interval individually to guarantee
// bit-for-bit identical results with [Summarize].
type StreamingSummary struct {
	n        int
	mean     float64
	m2       float64
	minVal   float64
	maxVal   float64
	diffSq   float64
	nn50     int
	last     float64
	hasFirst bool
}

// NewStreamingSummary creates a new StreamingSummary accumulator.
func NewStreamingSummary() *StreamingSummary {
	return &StreamingSummary{}
}

// Update adds a block of intervals to the running statistics.
func (s *StreamingSummary) Update(series []float64) {
	for _, x := range series {
		s.n++
		ni := float64(s.n)

		delta := x - s.mean
		s.mean += delta / ni
		s.m2 += delta * (x - s.mean)

		if !s.hasFirst {
			s.minVal = x
			s.maxVal = x
			s.hasFirst = true
		} else {
			s.minVal = min(s.minVal, x)
			s.maxVal = max(s.maxVal, x)

			d := x - s.last
			s.diffSq += d * d
			if math.Abs(d) > 50 {
				s.nn50++
			}
		}

		s.last = x
	}
}

// Result computes the final statistics from accumulated data.
func (s *StreamingSummary) Result() Summary {
	if s.n == 0 {
		return Summary{}
	}

	out := Summary{
		Count: s.n,
		Mean:  s.mean,
		Min:   s.minVal,
		Max:   s.maxVal,
	}
	if s.n > 1 {
		diffs := float64(s.n - 1)
		out.SDNN = math.Sqrt(s.m2 / diffs)
		out.RMSSD = math.Sqrt(s.diffSq / diffs)
		out.PNN50 = float64(s.nn50) / diffs
	}

	return out
}

// Reset clears all accumulated data, allowing the StreamingSummary to be reused.
func (s *StreamingSummary) Reset() {
	*s = StreamingSummary{}
}
