package simgen

import (
	"math"
	"math/rand"
)

// Phase is one scripted section of a driving schedule: a steering program
// and a speed target held for Duration seconds.
type Phase struct {
	Duration  float64 // s
	Steer     float64 // constant steer component, rad
	SteerAmp  float64 // sine steer amplitude, rad
	SteerFreq float64 // sine steer frequency, Hz
	Speed     float64 // target vx, m/s
}

// Driver plays back a phase schedule: scripted steering plus a PI speed
// tracker split into throttle and brake. The last phase holds once the
// schedule runs out.
type Driver struct {
	Phases []Phase
	Kp     float64
	Ki     float64

	integral float64
	prevT    float64
	first    bool
}

func NewDriver(phases []Phase) *Driver {
	return &Driver{Phases: phases, Kp: 0.25, Ki: 0.05, first: true}
}

// phase returns the active phase and the time elapsed inside it.
func (d *Driver) phase(t float64) (Phase, float64) {
	elapsed := t
	for _, p := range d.Phases {
		if elapsed < p.Duration {
			return p, elapsed
		}
		elapsed -= p.Duration
	}
	last := d.Phases[len(d.Phases)-1]
	return last, last.Duration
}

func (d *Driver) Control(x State, t float64) Control {
	p, local := d.phase(t)
	delta := p.Steer + p.SteerAmp*math.Sin(2*math.Pi*p.SteerFreq*local)

	err := p.Speed - x[0]
	if d.first {
		d.prevT = t
		d.first = false
	} else if dt := t - d.prevT; dt > 0 {
		d.integral += err * dt
		d.prevT = t
	}
	u := d.Kp*err + d.Ki*d.integral

	throttle := clamp(u, 0, 1)
	brake := clamp(-u, 0, 1)
	return Control{delta, throttle, brake}
}

// Named schedules. Each run of a mixed schedule is seeded separately so an
// ensemble covers different speeds, amplitudes, and phase lengths.

func LaneChangeSchedule() []Phase {
	return []Phase{
		{Duration: 3, Speed: 20},
		{Duration: 1, Steer: 0.05, Speed: 20},
		{Duration: 1, Steer: -0.05, Speed: 20},
		{Duration: 3, Speed: 20},
	}
}

func SlalomSchedule() []Phase {
	return []Phase{
		{Duration: 2, Speed: 18},
		{Duration: 8, SteerAmp: 0.06, SteerFreq: 0.5, Speed: 18},
		{Duration: 2, Speed: 18},
	}
}

func BrakingSchedule() []Phase {
	return []Phase{
		{Duration: 4, Speed: 28},
		{Duration: 3, Speed: 8},
		{Duration: 4, Speed: 24},
		{Duration: 3, Speed: 10},
	}
}

// MixedSchedule draws a randomized sequence of cruise, slalom, swerve, and
// braking phases. The same seed always yields the same schedule.
func MixedSchedule(seed int64) []Phase {
	rng := rand.New(rand.NewSource(seed))
	n := 4 + rng.Intn(4)
	phases := make([]Phase, 0, n)
	speed := 12 + 10*rng.Float64()
	for i := 0; i < n; i++ {
		p := Phase{
			Duration: 2 + 3*rng.Float64(),
			Speed:    speed,
		}
		switch rng.Intn(3) {
		case 0: // steady swerve
			p.Steer = (rng.Float64() - 0.5) * 0.08
		case 1: // slalom
			p.SteerAmp = 0.03 + 0.05*rng.Float64()
			p.SteerFreq = 0.3 + 0.5*rng.Float64()
		case 2: // speed change, straight
			speed = 8 + 18*rng.Float64()
			p.Speed = speed
		}
		phases = append(phases, p)
	}
	return phases
}

// Schedule returns the named schedule, or nil for an unknown name.
func Schedule(name string, seed int64) []Phase {
	switch name {
	case "lane_change":
		return LaneChangeSchedule()
	case "slalom":
		return SlalomSchedule()
	case "braking":
		return BrakingSchedule()
	case "mixed":
		return MixedSchedule(seed)
	}
	return nil
}

// ScheduleNames lists the known schedule names.
func ScheduleNames() []string {
	return []string{"mixed", "lane_change", "slalom", "braking"}
}
