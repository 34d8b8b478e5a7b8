package blocks

import (
	"math"
	"testing"
)

func TestSignedSumForward(t *testing.T) {
	s := NewSignedSum(1, -1, 1)
	if s.In() != 3 || s.Out() != 1 {
		t.Fatalf("expected 3 inputs and 1 output, got %d and %d", s.In(), s.Out())
	}

	out := make([]float64, 1)
	s.Forward([]float64{2.0, 0.5, 0.25}, out)
	if math.Abs(out[0]-1.75) > 1e-12 {
		t.Errorf("expected %f, got %f", 1.75, out[0])
	}
}

func TestSignedSumCopiesSigns(t *testing.T) {
	signs := []float64{1, -1}
	s := NewSignedSum(signs...)
	signs[0] = -5

	out := make([]float64, 1)
	s.Forward([]float64{1, 1}, out)
	if math.Abs(out[0]) > 1e-12 {
		t.Errorf("expected %f, got %f", 0.0, out[0])
	}
}

func TestSignedSumGradient(t *testing.T) {
	checkGrad(t, NewSignedSum(1, -1, 1, -1), []float64{0.3, -1.2, 2.5, 0.1}, 1e-5)
}
