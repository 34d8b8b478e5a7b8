package simgen

// RK4 is a classic fourth-order Runge-Kutta integrator. The midpoint
// scratch buffer is reused across steps, so one integrator serves one
// simulation at a time.
type RK4 struct {
	scratch State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Step(sys System, x State, u Control, t, dt float64) State {
	n := len(x)
	if len(r.scratch) != n {
		r.scratch = make(State, n)
	}

	k1 := sys.Derive(x, u, t)
	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + 0.5*dt*k1[i]
	}
	k2 := sys.Derive(r.scratch, u, t+0.5*dt)
	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + 0.5*dt*k2[i]
	}
	k3 := sys.Derive(r.scratch, u, t+0.5*dt)
	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*k3[i]
	}
	k4 := sys.Derive(r.scratch, u, t+dt)

	out := make(State, n)
	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		out[i] = x[i] + dt6*(k1[i]+2*k2[i]+2*k3[i]+k4[i])
	}
	return out
}
