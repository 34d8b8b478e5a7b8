package train

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/san-kum/fordyn/internal/dataset"
	"github.com/san-kum/fordyn/internal/graph"
	"github.com/san-kum/fordyn/internal/vehicle"
)

// smallConfig shortens the tap windows so synthetic fixtures stay cheap:
// three taps on the inputs, five on the states.
func smallConfig() vehicle.Config {
	cfg := vehicle.DefaultConfig()
	cfg.TwU = 0.03
	cfg.TwDelta = 0.03
	cfg.TwState = 0.05
	return cfg
}

// plantedWeights returns a deterministic non-trivial weight set, kept small
// on the state taps so the generated recurrence stays bounded.
func plantedWeights(cfg vehicle.Config) map[string][]float64 {
	w := make(map[string][]float64)
	i := 0
	for _, ch := range vehicle.Channels(cfg) {
		for _, term := range ch.Terms {
			taps := int(math.Round(term.Window / cfg.Ts))
			scale := 0.3
			switch term.Signal {
			case "vx", "vy", "r":
				scale = 0.01
			}
			ww := make([]float64, taps)
			for j := range ww {
				ww[j] = scale * math.Sin(1.3*float64(j+1)+0.9*float64(i))
			}
			w[ch.Name+"_"+term.Signal] = ww
			i++
		}
	}
	return w
}

// linearLog integrates the signed FIR recurrence under the planted weights.
// The resulting state differences match the acceleration channels exactly,
// so the log is noise-free training data. Multi-frequency inputs keep the
// lagged regressors independent.
func linearLog(cfg vehicle.Config, w map[string][]float64, n int, phase float64) map[string][]float64 {
	ts := cfg.Ts
	channels := vehicle.Channels(cfg)
	past := 0
	for _, ch := range channels {
		for _, term := range ch.Terms {
			if taps := int(math.Round(term.Window / ts)); taps > past {
				past = taps
			}
		}
	}

	s := make(map[string][]float64)
	for _, name := range append([]string{"time"}, vehicle.SignalNames...) {
		s[name] = make([]float64, n)
	}
	for k := 0; k < n; k++ {
		tk := float64(k)
		s["time"][k] = tk * ts
		s["delta"][k] = 0.15*math.Sin(0.13*tk+phase) + 0.08*math.Sin(0.31*tk+0.4)
		s["throttle"][k] = 0.4 + 0.2*math.Sin(0.07*tk+phase) + 0.1*math.Sin(0.41*tk)
		s["brake"][k] = 0.2 + 0.1*math.Sin(0.05*tk) + 0.05*math.Sin(0.23*tk+phase)
	}
	for k := 0; k < past; k++ {
		s["vx"][k] = 8
		s["vy"][k] = 0.1
		s["r"][k] = 0.05
	}

	eval := func(ch vehicle.Channel, k int) float64 {
		sum := 0.0
		for _, term := range ch.Terms {
			taps := int(math.Round(term.Window / ts))
			ww := w[ch.Name+"_"+term.Signal]
			col := s[term.Signal]
			y := 0.0
			for j := 0; j < taps; j++ {
				y += ww[j] * col[k-taps+1+j]
			}
			sum += term.Sign * y
		}
		return sum
	}

	for k := past - 1; k+1 < n; k++ {
		acc := make(map[string]float64, len(channels))
		for _, ch := range channels {
			acc[ch.Name] = eval(ch, k)
		}
		s["vx"][k+1] = s["vx"][k] + ts*acc["ax"]
		s["vy"][k+1] = s["vy"][k] + ts*(acc["ay"]-s["r"][k]*s["vx"][k])
		s["r"][k+1] = s["r"][k] + ts*acc["rdot"]
	}
	return s
}

func linearDataset(cfg vehicle.Config, w map[string][]float64) *dataset.Dataset {
	return &dataset.Dataset{
		Columns: append([]string{"time"}, vehicle.SignalNames...),
		Segments: []dataset.Segment{
			{Name: "run_000.csv", Series: linearLog(cfg, w, 160, 0)},
			{Name: "run_001.csv", Series: linearLog(cfg, w, 140, 1.7)},
		},
	}
}

func TestOptionsDefaults(t *testing.T) {
	var o Options
	o.fill()

	if o.Epochs != DefaultEpochs {
		t.Errorf("expected %d epochs, got %d", DefaultEpochs, o.Epochs)
	}
	if o.BatchSize != DefaultBatchSize {
		t.Errorf("expected batch %d, got %d", DefaultBatchSize, o.BatchSize)
	}
	if o.LR != DefaultLR {
		t.Errorf("expected lr %f, got %f", DefaultLR, o.LR)
	}
	if o.Optimizer != "adam" {
		t.Errorf("expected adam, got %s", o.Optimizer)
	}
	if o.ValSplit != DefaultValSplit {
		t.Errorf("expected split %f, got %f", DefaultValSplit, o.ValSplit)
	}
}

func TestNewSplitsSamplesSequentially(t *testing.T) {
	cfg := smallConfig()
	m, err := vehicle.Build(cfg)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	ds := linearDataset(cfg, plantedWeights(cfg))

	tr, err := New(m.Model, ds, Options{ValSplit: 0.2})
	if err != nil {
		t.Fatalf("new trainer failed: %v", err)
	}

	// Each segment contributes len - past one-step samples: 155 + 135.
	total := 290
	wantVal := int(float64(total) * 0.2)
	if got := tr.TrainSamples() + tr.ValSamples(); got != total {
		t.Errorf("expected %d samples, got %d", total, got)
	}
	if tr.ValSamples() != wantVal {
		t.Errorf("expected %d validation samples, got %d", wantVal, tr.ValSamples())
	}
}

func TestNewRejectsEmptyDataset(t *testing.T) {
	cfg := smallConfig()
	m, err := vehicle.Build(cfg)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	if _, err := New(m.Model, &dataset.Dataset{}, Options{}); err == nil {
		t.Error("expected error for empty dataset")
	}
}

func TestNewNamesShortSegment(t *testing.T) {
	cfg := smallConfig()
	m, err := vehicle.Build(cfg)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	short := make(map[string][]float64)
	for _, name := range vehicle.SignalNames {
		short[name] = []float64{1, 2, 3}
	}
	ds := &dataset.Dataset{
		Columns:  vehicle.SignalNames,
		Segments: []dataset.Segment{{Name: "stub.csv", Series: short}},
	}

	_, err = New(m.Model, ds, Options{})
	if err == nil {
		t.Fatal("expected error for segment shorter than the tap windows")
	}
	if !errors.Is(err, graph.ErrShortHistory) {
		t.Errorf("expected short history error, got %v", err)
	}
	if want := "stub.csv"; !strings.Contains(err.Error(), want) {
		t.Errorf("expected error to name %s, got %v", want, err)
	}
}

func TestRunReducesLoss(t *testing.T) {
	cfg := smallConfig()
	m, err := vehicle.Build(cfg)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	ds := linearDataset(cfg, plantedWeights(cfg))

	tr, err := New(m.Model, ds, Options{Epochs: 20, BatchSize: 64, LR: 0.005, Seed: 3})
	if err != nil {
		t.Fatalf("new trainer failed: %v", err)
	}

	res, err := tr.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(res.History) != 20 {
		t.Fatalf("expected 20 epochs of history, got %d", len(res.History))
	}

	first := res.History[0]
	last := res.Final()
	if !(last.TrainTotal < 0.8*first.TrainTotal) {
		t.Errorf("expected training loss to fall below %f, got %f", 0.8*first.TrainTotal, last.TrainTotal)
	}
	if math.IsNaN(last.ValTotal) || last.ValTotal < 0 {
		t.Errorf("expected finite validation loss, got %f", last.ValTotal)
	}
	for _, name := range m.LossNames() {
		if _, ok := last.Train[name]; !ok {
			t.Errorf("expected loss term %s in event", name)
		}
	}
}

func TestRunIsDeterministic(t *testing.T) {
	cfg := smallConfig()
	ds := linearDataset(cfg, plantedWeights(cfg))
	opts := Options{Epochs: 5, BatchSize: 64, LR: 0.01, Seed: 11}

	run := func() Event {
		m, err := vehicle.Build(cfg)
		if err != nil {
			t.Fatalf("build failed: %v", err)
		}
		m.InitWeights(7)
		tr, err := New(m.Model, ds, opts)
		if err != nil {
			t.Fatalf("new trainer failed: %v", err)
		}
		res, err := tr.Run(context.Background())
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}
		return res.Final()
	}

	a, b := run(), run()
	if a.TrainTotal != b.TrainTotal {
		t.Errorf("expected identical training loss, got %g and %g", a.TrainTotal, b.TrainTotal)
	}
	if a.ValTotal != b.ValTotal {
		t.Errorf("expected identical validation loss, got %g and %g", a.ValTotal, b.ValTotal)
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	cfg := smallConfig()
	m, err := vehicle.Build(cfg)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	ds := linearDataset(cfg, plantedWeights(cfg))

	tr, err := New(m.Model, ds, Options{Epochs: 50, BatchSize: 32})
	if err != nil {
		t.Fatalf("new trainer failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := tr.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if len(res.History) != 0 {
		t.Errorf("expected no completed epochs, got %d", len(res.History))
	}
	if res.Final().Epoch != 0 {
		t.Errorf("expected zero final event, got epoch %d", res.Final().Epoch)
	}
}

func TestRunEmitsEvents(t *testing.T) {
	cfg := smallConfig()
	m, err := vehicle.Build(cfg)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	ds := linearDataset(cfg, plantedWeights(cfg))

	events := make(chan Event, 4)
	tr, err := New(m.Model, ds, Options{Epochs: 4, BatchSize: 64, Events: events})
	if err != nil {
		t.Fatalf("new trainer failed: %v", err)
	}
	if _, err := tr.Run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	close(events)

	epoch := 0
	for ev := range events {
		epoch++
		if ev.Epoch != epoch {
			t.Errorf("expected epoch %d, got %d", epoch, ev.Epoch)
		}
		if ev.Epochs != 4 {
			t.Errorf("expected 4 total epochs, got %d", ev.Epochs)
		}
	}
	if epoch != 4 {
		t.Errorf("expected 4 events, got %d", epoch)
	}
}
