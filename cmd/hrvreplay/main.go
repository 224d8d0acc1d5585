// Command hrvreplay runs a recorded RR interval series through the HRV
// pipeline and prints every fresh metrics snapshot.
//
// Usage:
//
//	hrvreplay [flags] [file]
//
// The file holds RR intervals in milliseconds separated by whitespace or
// commas; '#' starts a comment. Without a file the series is read from stdin.
//
// Examples:
//
//	hrvreplay rr.txt
//	hrvreplay -window 300 -batch 8 rr.txt
//	hrvreplay -json < rr.txt
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/cwbudde/algo-hrv/hrv"
	"github.com/cwbudde/algo-hrv/hrv/artifact"
	"github.com/cwbudde/algo-hrv/hrv/spectral"
	"github.com/cwbudde/algo-hrv/internal/config"
	"github.com/cwbudde/algo-hrv/sensor/replay"
	frequencystats "github.com/cwbudde/algo-hrv/stats/frequency"
	timestats "github.com/cwbudde/algo-hrv/stats/time"
)

// epoch anchors the synthetic clock so output is reproducible.
var epoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

type options struct {
	window    int
	batch     int
	jsonOut   bool
	corrector *artifact.Corrector
	analyzer  *spectral.Analyzer
}

func main() {
	configFile := flag.String("config", "", "YAML configuration file")
	window := flag.Int("window", 0, "sliding window in seconds (overrides the config file)")
	batch := flag.Int("batch", 0, "RR intervals per batch (overrides the config file)")
	jsonOut := flag.Bool("json", false, "print snapshots as JSON lines instead of a table")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: hrvreplay [flags] [file]\n\n")
		fmt.Fprintf(os.Stderr, "Replays RR intervals (ms) through the HRV pipeline.\n")
		fmt.Fprintf(os.Stderr, "Without a file the intervals are read from stdin.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg := config.Default()
	if *configFile != "" {
		var err error
		cfg, err = config.LoadConfig(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	}
	if *window > 0 {
		cfg.WindowSeconds = *window
	}
	if *batch > 0 {
		cfg.Replay.BatchSize = *batch
	}

	in := io.Reader(os.Stdin)
	if flag.NArg() > 0 {
		f, err := os.Open(flag.Arg(0))
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
	}

	rr, err := replay.ReadIntervals(in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	opts := options{
		window:    cfg.WindowSeconds,
		batch:     cfg.Replay.BatchSize,
		jsonOut:   *jsonOut,
		corrector: cfg.ArtifactCorrector(),
		analyzer:  cfg.SpectralAnalyzer(),
	}
	if err := run(os.Stdout, rr, opts); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// run feeds rr in batches and writes one row per fresh snapshot followed by
// a summary of the whole series. Snapshots are stamped with the elapsed
// recording time.
func run(w io.Writer, rr []int, o options) error {
	if o.batch <= 0 {
		o.batch = 1
	}
	if o.corrector == nil {
		o.corrector = artifact.NewCorrector(artifact.DefaultConfig())
	}
	if o.analyzer == nil {
		o.analyzer = spectral.NewAnalyzer(spectral.DefaultConfig())
	}

	elapsed := 0
	clock := func() time.Time { return epoch.Add(time.Duration(elapsed) * time.Millisecond) }

	proc := hrv.NewProcessor(
		hrv.WithWindowSeconds(o.window),
		hrv.WithClock(clock),
		hrv.WithCorrector(o.corrector),
		hrv.WithAnalyzer(o.analyzer),
	)

	var (
		out     snapshotWriter
		lastSeq uint64
		count   int
	)
	if o.jsonOut {
		out = &jsonWriter{enc: json.NewEncoder(w)}
	} else {
		out = newTableWriter(w)
	}
	if err := out.header(); err != nil {
		return err
	}

	for start := 0; start < len(rr); start += o.batch {
		chunk := rr[start:min(start+o.batch, len(rr))]
		for _, v := range chunk {
			elapsed += v
		}

		m, ok := proc.AddRRIntervals(chunk)
		if !ok || m.Sequence == lastSeq {
			continue
		}
		lastSeq = m.Sequence
		count++

		if err := out.row(m); err != nil {
			return err
		}
	}

	if err := out.flush(); err != nil {
		return err
	}
	if o.jsonOut {
		return nil
	}

	return writeSummary(w, rr, count, o)
}

type snapshotWriter interface {
	header() error
	row(m hrv.Metrics) error
	flush() error
}

type tableWriter struct {
	tw *tabwriter.Writer
}

func newTableWriter(w io.Writer) *tableWriter {
	return &tableWriter{tw: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

func (t *tableWriter) header() error {
	if _, err := fmt.Fprintf(t.tw, "Seq\tTime [s]\tBeats\tHR [bpm]\tRMSSD [ms]\tCoherence\tLF [ms²]\tHF [ms²]\tLF/HF\tArtifacts\n"); err != nil {
		return fmt.Errorf("failed to write output header: %w", err)
	}
	if _, err := fmt.Fprintf(t.tw, "---\t--------\t-----\t--------\t----------\t---------\t--------\t--------\t-----\t---------\n"); err != nil {
		return fmt.Errorf("failed to write output header: %w", err)
	}
	return nil
}

func (t *tableWriter) row(m hrv.Metrics) error {
	ratio := 0.0
	if m.HFPower > 0 {
		ratio = m.LFPower / m.HFPower
	}
	if _, err := fmt.Fprintf(t.tw, "%d\t%.1f\t%d\t%.1f\t%.2f\t%.3f\t%.1f\t%.1f\t%.2f\t%d\n",
		m.Sequence,
		m.Timestamp.Sub(epoch).Seconds(),
		m.RRCount,
		m.MeanHR,
		m.RMSSD,
		m.CoherenceScore,
		m.LFPower,
		m.HFPower,
		ratio,
		m.ArtifactsRemoved,
	); err != nil {
		return fmt.Errorf("failed to write output row: %w", err)
	}
	return nil
}

func (t *tableWriter) flush() error {
	if err := t.tw.Flush(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}
	return nil
}

type jsonWriter struct {
	enc *json.Encoder
}

func (j *jsonWriter) header() error { return nil }
func (j *jsonWriter) flush() error  { return nil }

func (j *jsonWriter) row(m hrv.Metrics) error {
	if err := j.enc.Encode(m); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// writeSummary prints time-domain statistics of the raw series and
// frequency-domain statistics of the corrected full recording.
func writeSummary(w io.Writer, rr []int, snapshots int, o options) error {
	series := make([]float64, len(rr))
	for i, v := range rr {
		series[i] = float64(v)
	}
	s := timestats.Summarize(series)

	_, err := fmt.Fprintf(w, "\n%d beats, %d snapshots\nRR mean %.1f ms (min %.0f, max %.0f), SDNN %.2f ms, RMSSD %.2f ms, pNN50 %.1f%%\n",
		s.Count, snapshots, s.Mean, s.Min, s.Max, s.SDNN, s.RMSSD, 100*s.PNN50)
	if err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}

	res := o.corrector.Clean(rr)
	psd, ok := o.analyzer.PSD(res.Cleaned)
	if !ok {
		return nil
	}
	f := frequencystats.Calculate(psd)

	_, err = fmt.Fprintf(w, "VLF %.1f ms², LF %.1f ms² (%.1f nu, peak %.3f Hz), HF %.1f ms² (%.1f nu, peak %.3f Hz), LF/HF %.2f, %d corrected\n",
		f.VLFPower, f.LFPower, f.LFnu, f.LFPeak, f.HFPower, f.HFnu, f.HFPeak, f.LFHF, res.ArtifactsRemoved)
	if err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}
