package graph

import (
	"errors"
	"math"
	"testing"
)

func compileSingleFir(t *testing.T) *Model {
	t.Helper()
	b := NewBuilder()
	vx := b.Signal("vx")
	b.Output("y", b.Fir("f", vx, 0.03))
	m, err := b.Compile(0.01)
	if err != nil {
		t.Fatalf("unexpected compile error: %v", err)
	}
	return m
}

func TestBindRejectsMissingSignal(t *testing.T) {
	m := compileSingleFir(t)
	_, err := m.Bind(map[string][]float64{"vy": make([]float64, 10)})
	if !errors.Is(err, ErrUnknownSignal) {
		t.Errorf("expected unknown signal error, got %v", err)
	}
}

func TestRaggedHistoriesAlignAtEnd(t *testing.T) {
	b := NewBuilder()
	long := b.Signal("long")
	short := b.Signal("short")
	fl := b.Fir("fl", long, 0.03)
	fs := b.Fir("fs", short, 0.02)
	b.Output("sum", b.Add(addOp{}, fl, fs).Out(0))
	m, err := b.Compile(0.01)
	if err != nil {
		t.Fatalf("unexpected compile error: %v", err)
	}
	copy(m.Fir("fl").W, []float64{1, 1, 1})
	copy(m.Fir("fs").W, []float64{1, 1})

	if got := m.RequiredFor("long"); got != 3 {
		t.Errorf("expected requirement 3, got %d", got)
	}
	if got := m.RequiredFor("short"); got != 2 {
		t.Errorf("expected requirement 2, got %d", got)
	}

	// The short series covers only the last four global samples.
	out, err := m.Predict(map[string][]float64{
		"long":  {1, 2, 3, 4, 5, 6},
		"short": {10, 20, 30, 40},
	})
	if err != nil {
		t.Fatalf("unexpected predict error: %v", err)
	}
	want := []float64{39, 62, 85}
	got := out["sum"]
	if len(got) != len(want) {
		t.Fatalf("expected %d samples, got %d", len(want), len(got))
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("sample %d: expected %f, got %f", i, want[i], got[i])
		}
	}
}

func TestBindRejectsShortSignalInRaggedSet(t *testing.T) {
	b := NewBuilder()
	long := b.Signal("long")
	short := b.Signal("short")
	b.Output("a", b.Fir("a", long, 0.03))
	b.Output("b", b.Fir("b", short, 0.03))
	m, err := b.Compile(0.01)
	if err != nil {
		t.Fatalf("unexpected compile error: %v", err)
	}

	_, err = m.Bind(map[string][]float64{
		"long":  make([]float64, 10),
		"short": make([]float64, 2),
	})
	if !errors.Is(err, ErrShortHistory) {
		t.Errorf("expected short history error, got %v", err)
	}
}

func TestBindRejectsShortHistory(t *testing.T) {
	m := compileSingleFir(t)
	_, err := m.Bind(map[string][]float64{"vx": make([]float64, 2)})
	if !errors.Is(err, ErrShortHistory) {
		t.Errorf("expected short history error, got %v", err)
	}
}

func TestForwardFirWindow(t *testing.T) {
	m := compileSingleFir(t)
	copy(m.Fir("f").W, []float64{1, 2, 3})

	run, err := m.Bind(map[string][]float64{"vx": {1, 2, 3, 4}})
	if err != nil {
		t.Fatalf("unexpected bind error: %v", err)
	}
	if got := run.Steps(); got != 2 {
		t.Fatalf("expected 2 steps, got %d", got)
	}

	out := make([]float64, 1)
	run.Forward(0)
	run.Outputs(out)
	if math.Abs(out[0]-14) > 1e-12 {
		t.Errorf("expected %f, got %f", 14.0, out[0])
	}
	run.Forward(1)
	run.Outputs(out)
	if math.Abs(out[0]-20) > 1e-12 {
		t.Errorf("expected %f, got %f", 20.0, out[0])
	}
}

func TestPredict(t *testing.T) {
	m := compileSingleFir(t)
	copy(m.Fir("f").W, []float64{1, 2, 3})

	out, err := m.Predict(map[string][]float64{"vx": {1, 2, 3, 4}})
	if err != nil {
		t.Fatalf("unexpected predict error: %v", err)
	}
	y := out["y"]
	if len(y) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(y))
	}
	if y[0] != 14 || y[1] != 20 {
		t.Errorf("expected [14 20], got %v", y)
	}
}

func TestZeroInitAndSeededInit(t *testing.T) {
	m := compileSingleFir(t)
	for _, p := range m.Params() {
		for _, w := range p.W {
			if w != 0 {
				t.Errorf("expected zero initial weight in %s, got %f", p.Name, w)
			}
		}
	}

	m.InitWeights(7)
	first := m.Weights()
	m.InitWeights(7)
	second := m.Weights()
	for name, w := range first {
		for j := range w {
			if w[j] != second[name][j] {
				t.Errorf("seeded init not reproducible for %s", name)
			}
		}
	}

	limit := 1.0 / float64(m.Fir("f").Taps())
	for _, w := range first["f"] {
		if math.Abs(w) > limit {
			t.Errorf("weight %f outside +/-%f", w, limit)
		}
	}
}

func TestWeightsRoundTrip(t *testing.T) {
	m := compileSingleFir(t)
	m.InitWeights(3)
	snap := m.Weights()

	m.InitWeights(4)
	if err := m.LoadWeights(snap); err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	after := m.Weights()
	for j := range snap["f"] {
		if snap["f"][j] != after["f"][j] {
			t.Errorf("weight %d not restored", j)
		}
	}

	if err := m.LoadWeights(map[string][]float64{"missing": {1}}); err == nil {
		t.Error("expected error for unknown block")
	}
	if err := m.LoadWeights(map[string][]float64{"f": {1, 2}}); err == nil {
		t.Error("expected error for tap count mismatch")
	}
}

// fixture with fan-out, a multi-output op, and two loss terms.
func compileLossGraph(t *testing.T) *Model {
	t.Helper()
	b := NewBuilder()
	u := b.Signal("u")
	y := b.Signal("y")
	f := b.Fir("f", u, 0.02)
	sq := b.Add(squareOp{}, f)
	sum := b.Add(addOp{}, sq.Out(0), f)
	sp := b.Add(splitOp{}, f)
	b.Output("sum", sum.Out(0))
	b.Minimize("loss_a", sum.Out(0), y.Last())
	b.Minimize("loss_b", sp.Out(1), y.Last())
	m, err := b.Compile(0.01)
	if err != nil {
		t.Fatalf("unexpected compile error: %v", err)
	}
	return m
}

func lossGraphSeries() map[string][]float64 {
	return map[string][]float64{
		"u": {0.5, -0.3, 0.8, 0.2},
		"y": {0.1, 0.4, -0.2, 0.3},
	}
}

func totalLoss(r *Run) float64 {
	var buf []float64
	total := 0.0
	for i := 0; i < r.TrainSteps(); i++ {
		r.Forward(i)
		buf = r.Losses(buf)
		for _, v := range buf {
			total += v
		}
	}
	return total
}

func TestBackwardMatchesFiniteDifference(t *testing.T) {
	m := compileLossGraph(t)
	copy(m.Fir("f").W, []float64{0.3, -0.7})

	run, err := m.Bind(lossGraphSeries())
	if err != nil {
		t.Fatalf("unexpected bind error: %v", err)
	}

	m.ZeroGrad()
	for i := 0; i < run.TrainSteps(); i++ {
		run.Forward(i)
		run.Backward(1)
	}
	analytic := make([]float64, 0, 2)
	analytic = append(analytic, m.Fir("f").G...)

	const h = 1e-6
	w := m.Fir("f").W
	for j := range w {
		orig := w[j]
		w[j] = orig + h
		lp := totalLoss(run)
		w[j] = orig - h
		lm := totalLoss(run)
		w[j] = orig

		num := (lp - lm) / (2 * h)
		if math.Abs(num-analytic[j]) > 1e-4 {
			t.Errorf("weight %d: expected gradient %f, got %f", j, num, analytic[j])
		}
	}
}

func TestBackwardScale(t *testing.T) {
	m := compileLossGraph(t)
	copy(m.Fir("f").W, []float64{0.3, -0.7})

	run, err := m.Bind(lossGraphSeries())
	if err != nil {
		t.Fatalf("unexpected bind error: %v", err)
	}

	m.ZeroGrad()
	run.Forward(0)
	run.Backward(1)
	full := append([]float64(nil), m.Fir("f").G...)

	m.ZeroGrad()
	run.Forward(0)
	run.Backward(0.5)
	for j, g := range m.Fir("f").G {
		if math.Abs(g-0.5*full[j]) > 1e-12 {
			t.Errorf("weight %d: expected %f, got %f", j, 0.5*full[j], g)
		}
	}
}

func TestPredictDeterministic(t *testing.T) {
	m := compileLossGraph(t)
	m.InitWeights(11)

	first, err := m.Predict(lossGraphSeries())
	if err != nil {
		t.Fatalf("unexpected predict error: %v", err)
	}
	second, err := m.Predict(lossGraphSeries())
	if err != nil {
		t.Fatalf("unexpected predict error: %v", err)
	}
	for name := range first {
		for i := range first[name] {
			if first[name][i] != second[name][i] {
				t.Errorf("output %s differs between identical runs", name)
			}
		}
	}
}
