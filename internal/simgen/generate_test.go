package simgen

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/fordyn/internal/dataset"
)

func TestSimulateHoldsSpeed(t *testing.T) {
	lg, err := Simulate(context.Background(), NewCar(), []Phase{{Duration: 30, Speed: 15}}, 0.01, 30)
	if err != nil {
		t.Fatalf("unexpected simulate error: %v", err)
	}
	if len(lg.Times) != 3000 {
		t.Fatalf("expected 3000 samples, got %d", len(lg.Times))
	}

	final := lg.States[len(lg.States)-1][0]
	if final < 13 || final > 17 {
		t.Errorf("expected speed near 15, got %f", final)
	}
}

func TestSimulateCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Simulate(ctx, NewCar(), SlalomSchedule(), 0.01, 10); err == nil {
		t.Error("expected error from canceled context")
	}
}

func TestGenerateWritesLoadableLogs(t *testing.T) {
	dir := t.TempDir()
	opts := DefaultOptions()
	opts.Duration = 5
	opts.Runs = 2
	opts.OutDir = dir

	paths, err := Generate(context.Background(), opts)
	if err != nil {
		t.Fatalf("unexpected generate error: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("expected 2 files, got %d", len(paths))
	}

	ds, err := dataset.LoadFolder(dir, Columns, ',')
	if err != nil {
		t.Fatalf("generated logs failed to load: %v", err)
	}
	if len(ds.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(ds.Segments))
	}
	if ds.Segments[0].Len() != 500 {
		t.Errorf("expected 500 samples, got %d", ds.Segments[0].Len())
	}
	for _, vx := range ds.Segments[0].Series["vx"] {
		if vx < 0 || vx > 60 {
			t.Errorf("implausible speed %f in generated log", vx)
		}
	}
}

func TestGenerateDeterministic(t *testing.T) {
	dirA := t.TempDir()
	dirB := t.TempDir()

	opts := DefaultOptions()
	opts.Duration = 2
	opts.Runs = 1

	opts.OutDir = dirA
	if _, err := Generate(context.Background(), opts); err != nil {
		t.Fatalf("unexpected generate error: %v", err)
	}
	opts.OutDir = dirB
	if _, err := Generate(context.Background(), opts); err != nil {
		t.Fatalf("unexpected generate error: %v", err)
	}

	a, err := os.ReadFile(filepath.Join(dirA, "run_000.csv"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	b, err := os.ReadFile(filepath.Join(dirB, "run_000.csv"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(a) != string(b) {
		t.Error("expected identical logs for identical options")
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{"zero ts", func(o *Options) { o.Ts = 0 }},
		{"zero duration", func(o *Options) { o.Duration = 0 }},
		{"zero runs", func(o *Options) { o.Runs = 0 }},
		{"unknown scenario", func(o *Options) { o.Scenario = "warp" }},
	}
	for _, tt := range tests {
		opts := DefaultOptions()
		tt.mutate(&opts)
		if err := opts.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tt.name)
		}
	}
}
