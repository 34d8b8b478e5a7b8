package blocks

import "math"

// FrictionEllipse caps the combined longitudinal/lateral acceleration at
// the friction circle mu*g. Demands inside the circle pass through
// untouched; demands outside are scaled radially back onto it, preserving
// their direction.
//
// Inputs: [ax, ay, mu]. Outputs: [ax, ay].
type FrictionEllipse struct {
	G   float64 // gravitational acceleration, m/s^2
	Eps float64 // guards the norm and division at zero demand
}

// NewFrictionEllipse returns a saturation block for the given gravity
// constant and numerical guard.
func NewFrictionEllipse(g, eps float64) *FrictionEllipse {
	return &FrictionEllipse{G: g, Eps: eps}
}

func (f *FrictionEllipse) Name() string { return "friction_ellipse" }
func (f *FrictionEllipse) In() int      { return 3 }
func (f *FrictionEllipse) Out() int     { return 2 }

// utilization returns the normalized demands and the smoothed utilization
// eta = sqrt(nx^2 + ny^2 + Eps).
func (f *FrictionEllipse) utilization(in []float64) (nx, ny, eta float64) {
	denom := in[2]*f.G + f.Eps
	nx = in[0] / denom
	ny = in[1] / denom
	eta = math.Sqrt(nx*nx + ny*ny + f.Eps)
	return nx, ny, eta
}

func (f *FrictionEllipse) Forward(in, out []float64) {
	_, _, eta := f.utilization(in)
	if eta > 1 {
		out[0] = in[0] / eta
		out[1] = in[1] / eta
	} else {
		out[0] = in[0]
		out[1] = in[1]
	}
}

func (f *FrictionEllipse) Backward(in, out, gradOut, gradIn []float64) {
	nx, ny, eta := f.utilization(in)
	if eta <= 1 {
		gradIn[0] += gradOut[0]
		gradIn[1] += gradOut[1]
		return
	}

	denom := in[2]*f.G + f.Eps
	// eta depends on ax, ay through nx, ny and on mu through denom.
	dEtaDax := nx / (eta * denom)
	dEtaDay := ny / (eta * denom)
	dEtaDmu := -(nx*nx + ny*ny) * f.G / (eta * denom)

	inv := 1.0 / eta
	inv2 := inv * inv
	// out_i = in_i / eta, so d(out_i)/d(x) = delta_i/eta - in_i/eta^2 * dEta/dx.
	gradIn[0] += gradOut[0]*(inv-in[0]*inv2*dEtaDax) - gradOut[1]*in[1]*inv2*dEtaDax
	gradIn[1] += gradOut[1]*(inv-in[1]*inv2*dEtaDay) - gradOut[0]*in[0]*inv2*dEtaDay
	gradIn[2] += -(gradOut[0]*in[0] + gradOut[1]*in[1]) * inv2 * dEtaDmu
}
