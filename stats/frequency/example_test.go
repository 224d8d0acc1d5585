package frequency_test

import (
	"fmt"

	"github.com/cwbudde/algo-hrv/dsp/spectrum"
	frequencystats "github.com/cwbudde/algo-hrv/stats/frequency"
)

func ExampleCalculate() {
	bins := make([]float64, 129)
	bins[16] = 64 // 0.25 Hz at 1/64 Hz resolution
	psd := spectrum.PSD{Bins: bins, SampleRate: 4, SegmentLength: 256, Segments: 1}

	s := frequencystats.Calculate(psd)
	fmt.Printf("HF=%.1f HFnu=%.0f%% peak=%.2f Hz\n", s.HFPower, s.HFnu, s.HFPeak)

	// Output:
	// HF=1.0 HFnu=100% peak=0.25 Hz
}
