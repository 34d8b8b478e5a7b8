package blocks

import (
	"math"
	"testing"
)

type gradOp interface {
	Name() string
	In() int
	Out() int
	Forward(in, out []float64)
	Backward(in, out, gradOut, gradIn []float64)
}

// checkGrad compares Backward against a central-difference estimate of the
// gradient of a fixed scalar projection of the outputs. The probe point
// must sit away from any branch boundary of the op.
func checkGrad(t *testing.T, o gradOp, in []float64, tol float64) {
	t.Helper()
	if len(in) != o.In() {
		t.Fatalf("probe has %d inputs, op wants %d", len(in), o.In())
	}

	coef := make([]float64, o.Out())
	for j := range coef {
		coef[j] = 0.7 * float64(j+1)
		if j%2 == 1 {
			coef[j] = -coef[j]
		}
	}

	out := make([]float64, o.Out())
	gradIn := make([]float64, o.In())
	o.Forward(in, out)
	o.Backward(in, out, coef, gradIn)

	const h = 1e-6
	for i := range in {
		x := in[i]
		in[i] = x + h
		o.Forward(in, out)
		lp := project(coef, out)
		in[i] = x - h
		o.Forward(in, out)
		lm := project(coef, out)
		in[i] = x

		num := (lp - lm) / (2 * h)
		if math.Abs(num-gradIn[i]) > tol {
			t.Errorf("%s input %d: expected gradient %f, got %f", o.Name(), i, num, gradIn[i])
		}
	}
}

func project(coef, out []float64) float64 {
	var acc float64
	for j := range coef {
		acc += coef[j] * out[j]
	}
	return acc
}
