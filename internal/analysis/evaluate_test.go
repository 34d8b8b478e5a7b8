package analysis

import (
	"math"
	"testing"

	"github.com/san-kum/fordyn/internal/dataset"
	"github.com/san-kum/fordyn/internal/vehicle"
)

// rampLog holds everything flat except vx, which ramps at a constant
// acceleration. A zero-weight model then mispredicts vx by exactly
// accel*ts every step and nothing else.
func rampLog(n int, accel, ts float64) map[string][]float64 {
	s := make(map[string][]float64)
	for _, name := range vehicle.SignalNames {
		s[name] = make([]float64, n)
	}
	for k := 0; k < n; k++ {
		s["vx"][k] = 5 + accel*ts*float64(k)
	}
	return s
}

func TestEvaluateZeroWeightsOnRamp(t *testing.T) {
	cfg := vehicle.DefaultConfig()
	m, err := vehicle.Build(cfg)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	ds := &dataset.Dataset{
		Columns:  vehicle.SignalNames,
		Segments: []dataset.Segment{{Name: "ramp.csv", Series: rampLog(30, 1.0, cfg.Ts)}},
	}

	summary, err := Evaluate(m, ds)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}

	// 30 samples with a 20-sample history requirement leave 11 predictions,
	// 10 of which have a successor to compare against.
	if summary["vx"].Samples != 10 {
		t.Errorf("expected 10 samples, got %d", summary["vx"].Samples)
	}

	want := 1.0 * cfg.Ts
	vx := summary["vx"]
	if math.Abs(vx.RMSE-want) > 1e-9 {
		t.Errorf("expected vx rmse %f, got %f", want, vx.RMSE)
	}
	if math.Abs(vx.MAE-want) > 1e-9 {
		t.Errorf("expected vx mae %f, got %f", want, vx.MAE)
	}
	if math.Abs(vx.Max-want) > 1e-9 {
		t.Errorf("expected vx max %f, got %f", want, vx.Max)
	}

	for _, state := range []string{"vy", "r"} {
		if s := summary[state]; s.RMSE > 1e-12 || s.Max > 1e-12 {
			t.Errorf("%s: expected exact predictions, got rmse %g max %g", state, s.RMSE, s.Max)
		}
	}
}

func TestEvaluateEmptyDataset(t *testing.T) {
	m, err := vehicle.Build(vehicle.DefaultConfig())
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	if _, err := Evaluate(m, &dataset.Dataset{}); err == nil {
		t.Error("expected error for empty dataset")
	}
}

func TestEvaluateNamesFailingSegment(t *testing.T) {
	cfg := vehicle.DefaultConfig()
	m, err := vehicle.Build(cfg)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	short := make(map[string][]float64)
	for _, name := range vehicle.SignalNames {
		short[name] = []float64{1, 2}
	}
	ds := &dataset.Dataset{
		Columns:  vehicle.SignalNames,
		Segments: []dataset.Segment{{Name: "tiny.csv", Series: short}},
	}

	_, err = Evaluate(m, ds)
	if err == nil {
		t.Fatal("expected error for short segment")
	}
}

func TestResidualsMatchRampError(t *testing.T) {
	cfg := vehicle.DefaultConfig()
	m, err := vehicle.Build(cfg)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	seg := dataset.Segment{Name: "ramp.csv", Series: rampLog(30, 2.0, cfg.Ts)}
	res, err := Residuals(m, &seg)
	if err != nil {
		t.Fatalf("residuals failed: %v", err)
	}

	if len(res["vx"]) != 10 {
		t.Fatalf("expected 10 residuals, got %d", len(res["vx"]))
	}
	want := -2.0 * cfg.Ts
	for i, r := range res["vx"] {
		if math.Abs(r-want) > 1e-9 {
			t.Errorf("residual %d: expected %f, got %f", i, want, r)
		}
	}
	for i, r := range res["r"] {
		if math.Abs(r) > 1e-12 {
			t.Errorf("r residual %d: expected 0, got %g", i, r)
		}
	}
}
