package simgen

import "math"

// minSpeed floors the longitudinal speed in slip-angle denominators.
const minSpeed = 0.5

// Car is a single-track vehicle with linear tires saturated at the axle
// friction limit. States are [vx, vy, r], controls [delta, throttle, brake]
// with throttle and brake in [0, 1].
type Car struct {
	Mass  float64 // kg
	Izz   float64 // yaw inertia, kg m^2
	Lf    float64 // CG to front axle, m
	Lr    float64 // CG to rear axle, m
	Cf    float64 // front cornering stiffness, N/rad
	Cr    float64 // rear cornering stiffness, N/rad
	Mu    float64 // tire-road friction
	FMax  float64 // peak drive force, N
	BMax  float64 // peak brake force, N
	CdA   float64 // lumped aero drag, N/(m/s)^2
	Croll float64 // rolling resistance coefficient
	G     float64 // m/s^2
}

func NewCar() *Car {
	return &Car{
		Mass:  1500,
		Izz:   2250,
		Lf:    1.2,
		Lr:    1.4,
		Cf:    80000,
		Cr:    80000,
		Mu:    1.0,
		FMax:  4500,
		BMax:  12000,
		CdA:   0.38,
		Croll: 0.015,
		G:     9.81,
	}
}

func (c *Car) StateDim() int   { return 3 }
func (c *Car) ControlDim() int { return 3 }

func (c *Car) Derive(x State, u Control, t float64) State {
	vx, vy, r := x[0], x[1], x[2]
	delta, throttle, brake := u[0], u[1], u[2]

	vxSafe := math.Max(vx, minSpeed)
	alphaF := delta - math.Atan2(vy+c.Lf*r, vxSafe)
	alphaR := -math.Atan2(vy-c.Lr*r, vxSafe)

	// Static axle loads set the lateral force saturation.
	wheelbase := c.Lf + c.Lr
	fzF := c.Mass * c.G * c.Lr / wheelbase
	fzR := c.Mass * c.G * c.Lf / wheelbase
	fyF := clamp(c.Cf*alphaF, -c.Mu*fzF, c.Mu*fzF)
	fyR := clamp(c.Cr*alphaR, -c.Mu*fzR, c.Mu*fzR)

	fx := throttle*c.FMax - brake*c.BMax - c.CdA*vx*math.Abs(vx) - c.Croll*c.Mass*c.G

	vxDot := fx/c.Mass + r*vy
	vyDot := (fyF*math.Cos(delta)+fyR)/c.Mass - r*vx
	rDot := (c.Lf*fyF*math.Cos(delta) - c.Lr*fyR) / c.Izz

	// Rolling resistance and brakes never push the car backwards.
	if vx <= 0 && vxDot < 0 {
		vxDot = 0
	}

	return State{vxDot, vyDot, rDot}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
