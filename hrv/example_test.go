package hrv_test

import (
	"fmt"

	"github.com/cwbudde/algo-hrv/hrv"
)

func ExampleProcessor() {
	p := hrv.NewProcessor()

	batch := make([]int, 75)
	for i := range batch {
		batch[i] = 800
	}
	batch[40] = 2500

	m, ok := p.AddRRIntervals(batch)
	fmt.Println(ok, m.RRCount, m.ArtifactsRemoved)
	fmt.Printf("HR %.1f bpm, RMSSD %.1f ms\n", m.MeanHR, m.RMSSD)
	// Output:
	// true 75 1
	// HR 75.0 bpm, RMSSD 0.0 ms
}
