package train

import (
	"math"
	"testing"

	"github.com/san-kum/fordyn/internal/graph"
)

func TestSGDStep(t *testing.T) {
	params := []graph.Param{{Name: "f", W: []float64{1, 2}, G: []float64{0.5, -1}}}
	opt := NewSGD(0.1)
	opt.Step(params)

	if math.Abs(params[0].W[0]-0.95) > 1e-12 {
		t.Errorf("expected 0.95, got %f", params[0].W[0])
	}
	if math.Abs(params[0].W[1]-2.1) > 1e-12 {
		t.Errorf("expected 2.1, got %f", params[0].W[1])
	}
}

func TestAdamStepMagnitude(t *testing.T) {
	params := []graph.Param{{Name: "f", W: []float64{0}, G: []float64{1}}}
	opt := NewAdam(0.1)

	// Bias correction makes the first step exactly lr against a unit
	// gradient, and a constant gradient keeps every step at lr.
	opt.Step(params)
	if math.Abs(params[0].W[0]+0.1) > 1e-6 {
		t.Errorf("expected first step near -0.1, got %f", params[0].W[0])
	}
	opt.Step(params)
	if math.Abs(params[0].W[0]+0.2) > 1e-6 {
		t.Errorf("expected -0.2 after two steps, got %f", params[0].W[0])
	}
}

func TestAdamScaleInvariance(t *testing.T) {
	small := []graph.Param{{Name: "a", W: []float64{0}, G: []float64{1e-4}}}
	large := []graph.Param{{Name: "b", W: []float64{0}, G: []float64{1e4}}}

	NewAdam(0.1).Step(small)
	NewAdam(0.1).Step(large)

	if math.Abs(small[0].W[0]-large[0].W[0]) > 1e-4 {
		t.Errorf("expected matching steps, got %f and %f", small[0].W[0], large[0].W[0])
	}
}

func TestAdamLinearDecayStopsUpdates(t *testing.T) {
	params := []graph.Param{{Name: "f", W: []float64{0}, G: []float64{1}}}
	opt := NewAdam(0.1)
	opt.TotalSteps = 2

	opt.Step(params)
	opt.Step(params)
	frozen := params[0].W[0]

	opt.Step(params)
	if params[0].W[0] != frozen {
		t.Errorf("expected no update past the decay horizon, got %f after %f", params[0].W[0], frozen)
	}
}

func TestOptimizerNames(t *testing.T) {
	if name := NewSGD(0.1).Name(); name != "sgd" {
		t.Errorf("expected sgd, got %s", name)
	}
	if name := NewAdam(0.1).Name(); name != "adam" {
		t.Errorf("expected adam, got %s", name)
	}
}
