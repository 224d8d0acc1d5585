package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/cwbudde/algo-hrv/hrv"
	"github.com/cwbudde/algo-hrv/internal/testutil"
)

func TestRunTable(t *testing.T) {
	var buf bytes.Buffer
	if err := run(&buf, testutil.ConstantRR(800, 75), options{window: 64, batch: 5}); err != nil {
		t.Fatalf("run: %v", err)
	}

	out := buf.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	// header, rule, 8 rows, blank, three summary lines
	if len(lines) != 14 {
		t.Fatalf("got %d lines:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[2], "1    32.0") {
		t.Fatalf("first row %q", lines[2])
	}
	if !strings.Contains(out, "75 beats, 8 snapshots") {
		t.Fatalf("summary missing:\n%s", out)
	}
	if !strings.Contains(out, "RR mean 800.0 ms") {
		t.Fatalf("summary missing mean:\n%s", out)
	}
	if !strings.HasPrefix(lines[13], "VLF 0.0 ms²") {
		t.Fatalf("frequency summary %q", lines[13])
	}
}

func TestRunJSON(t *testing.T) {
	var buf bytes.Buffer
	err := run(&buf, testutil.PhysioNetSubject000, options{window: 300, batch: 8, jsonOut: true})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	var last hrv.Metrics
	n := 0
	sc := bufio.NewScanner(&buf)
	for sc.Scan() {
		if err := json.Unmarshal(sc.Bytes(), &last); err != nil {
			t.Fatalf("line %d: %v", n+1, err)
		}
		n++
		if last.Sequence != uint64(n) {
			t.Fatalf("line %d has sequence %d", n, last.Sequence)
		}
	}
	if n == 0 {
		t.Fatal("no snapshots")
	}
	if last.RRCount != len(testutil.PhysioNetSubject000) {
		t.Fatalf("final RRCount=%d", last.RRCount)
	}
	if d := last.RMSSD - testutil.PhysioNetRMSSD; d > 1e-3 || d < -1e-3 {
		t.Fatalf("final RMSSD=%g want %g", last.RMSSD, testutil.PhysioNetRMSSD)
	}
}

func TestRunTooShort(t *testing.T) {
	var buf bytes.Buffer
	if err := run(&buf, testutil.ConstantRR(800, 10), options{window: 64, batch: 0}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(buf.String(), "10 beats, 0 snapshots") || strings.Contains(buf.String(), "VLF") {
		t.Fatalf("output:\n%s", buf.String())
	}
}
