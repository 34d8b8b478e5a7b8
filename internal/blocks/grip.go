package blocks

import "math"

// Grip sensitivity coefficients. Brake raises available friction toward
// the upper bound, speed lowers it, so mu is non-decreasing in brake and
// non-increasing in speed.
const (
	gripSpeedGain = -0.5
	gripBrakeGain = 2.0
)

// GripSigmoid maps the current longitudinal speed and brake command to an
// effective friction coefficient strictly inside (MuMin, MuMax):
//
//	mu = MuMin + (MuMax-MuMin) * sigmoid(2.0*brake - 0.5*vx)
//
// The logistic never reaches 0 or 1 for finite inputs, so the bounds are
// open. Inputs: [vx, brake]. Outputs: [mu].
type GripSigmoid struct {
	MuMin float64
	MuMax float64
}

// NewGripSigmoid returns a grip estimator with the given friction bounds.
func NewGripSigmoid(muMin, muMax float64) *GripSigmoid {
	return &GripSigmoid{MuMin: muMin, MuMax: muMax}
}

func (g *GripSigmoid) Name() string { return "grip_sigmoid" }
func (g *GripSigmoid) In() int      { return 2 }
func (g *GripSigmoid) Out() int     { return 1 }

func (g *GripSigmoid) Forward(in, out []float64) {
	z := gripSpeedGain*in[0] + gripBrakeGain*in[1]
	s := 1.0 / (1.0 + math.Exp(-z))
	out[0] = g.MuMin + (g.MuMax-g.MuMin)*s
}

func (g *GripSigmoid) Backward(in, out, gradOut, gradIn []float64) {
	s := (out[0] - g.MuMin) / (g.MuMax - g.MuMin)
	d := (g.MuMax - g.MuMin) * s * (1 - s) * gradOut[0]
	gradIn[0] += gripSpeedGain * d
	gradIn[1] += gripBrakeGain * d
}
