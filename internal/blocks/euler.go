package blocks

// EulerStep advances the planar body states one sample with an explicit
// Euler step, including the kinematic coupling between yaw rate and
// longitudinal speed in the lateral channel:
//
//	vx' = vx + Ts*ax
//	vy' = vy + Ts*(ay - r*vx)
//	r'  = r  + Ts*rdot
//
// Inputs: [vx, vy, r, ax, ay, rdot]. Outputs: [vx', vy', r'].
type EulerStep struct {
	Ts float64
}

// NewEulerStep returns an integrator block for the given sample time.
func NewEulerStep(ts float64) *EulerStep {
	return &EulerStep{Ts: ts}
}

func (e *EulerStep) Name() string { return "euler_step" }
func (e *EulerStep) In() int      { return 6 }
func (e *EulerStep) Out() int     { return 3 }

func (e *EulerStep) Forward(in, out []float64) {
	vx, vy, r := in[0], in[1], in[2]
	ax, ay, rdot := in[3], in[4], in[5]
	out[0] = vx + e.Ts*ax
	out[1] = vy + e.Ts*(ay-r*vx)
	out[2] = r + e.Ts*rdot
}

func (e *EulerStep) Backward(in, out, gradOut, gradIn []float64) {
	vx, r := in[0], in[2]
	gradIn[0] += gradOut[0] - e.Ts*r*gradOut[1]
	gradIn[1] += gradOut[1]
	gradIn[2] += gradOut[2] - e.Ts*vx*gradOut[1]
	gradIn[3] += e.Ts * gradOut[0]
	gradIn[4] += e.Ts * gradOut[1]
	gradIn[5] += e.Ts * gradOut[2]
}
