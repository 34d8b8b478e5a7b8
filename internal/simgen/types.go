// Package simgen produces synthetic driving logs: a single-track reference
// vehicle under a scripted driver, integrated with RK4 and written out as
// CSV segments a dataset folder loader can consume directly.
package simgen

import (
	"errors"
	"math"
)

// ErrUnstable indicates the reference simulation produced NaN or Inf.
var ErrUnstable = errors.New("simgen: simulation unstable (state diverged)")

// State is a body-frame state vector [vx, vy, r].
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) Valid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Control is a driver command vector [delta, throttle, brake].
type Control []float64

// System yields state derivatives for a reference model.
type System interface {
	StateDim() int
	ControlDim() int
	Derive(x State, u Control, t float64) State
}
