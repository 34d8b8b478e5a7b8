package simgen

import (
	"math"
	"testing"
)

func TestCarStraightLine(t *testing.T) {
	car := NewCar()
	d := car.Derive(State{20, 0, 0}, Control{0, 0, 0}, 0)

	if d[0] >= 0 {
		t.Errorf("expected drag to slow the car, got vxdot %f", d[0])
	}
	if math.Abs(d[1]) > 1e-9 || math.Abs(d[2]) > 1e-9 {
		t.Errorf("expected no lateral response, got vydot %f, rdot %f", d[1], d[2])
	}
}

func TestCarThrottleAccelerates(t *testing.T) {
	car := NewCar()
	coast := car.Derive(State{20, 0, 0}, Control{0, 0, 0}, 0)
	full := car.Derive(State{20, 0, 0}, Control{0, 1, 0}, 0)

	if full[0] <= coast[0] {
		t.Errorf("expected throttle to raise vxdot, got %f vs %f", full[0], coast[0])
	}

	braking := car.Derive(State{20, 0, 0}, Control{0, 0, 1}, 0)
	if braking[0] >= coast[0] {
		t.Errorf("expected braking to lower vxdot, got %f vs %f", braking[0], coast[0])
	}
}

func TestCarSteerYawsLeft(t *testing.T) {
	car := NewCar()
	d := car.Derive(State{20, 0, 0}, Control{0.05, 0, 0}, 0)

	if d[2] <= 0 {
		t.Errorf("expected positive yaw acceleration, got %f", d[2])
	}
	if d[1] <= 0 {
		t.Errorf("expected positive lateral acceleration, got %f", d[1])
	}
}

func TestCarLateralForceSaturates(t *testing.T) {
	car := NewCar()
	// Friction caps the front axle force regardless of slip angle.
	small := car.Derive(State{20, 0, 0}, Control{0.05, 0, 0}, 0)
	large := car.Derive(State{20, 0, 0}, Control{0.6, 0, 0}, 0)
	huge := car.Derive(State{20, 0, 0}, Control{1.2, 0, 0}, 0)

	if large[2] <= small[2] {
		t.Errorf("expected more yaw response at larger steer, got %f vs %f", large[2], small[2])
	}
	if math.Abs(huge[2]) > math.Abs(large[2])*1.05 {
		t.Errorf("expected saturated yaw response, got %f vs %f", huge[2], large[2])
	}
}

func TestCarNeverReversesAtRest(t *testing.T) {
	car := NewCar()
	d := car.Derive(State{0, 0, 0}, Control{0, 0, 1}, 0)
	if d[0] < 0 {
		t.Errorf("expected no reverse acceleration at rest, got %f", d[0])
	}
}
