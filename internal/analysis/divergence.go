package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/fordyn/internal/dataset"
	"github.com/san-kum/fordyn/internal/vehicle"
)

// DefaultPerturbation is the state nudge used by Divergence when the
// caller has no better scale in mind.
const DefaultPerturbation = 1e-3

// Divergence measures how the closed-loop model treats a small error in
// each body state: one reference rollout from the segment's opening
// history, then one rollout per state with that state's latest sample
// nudged, fitting ln of the three-state separation against time. Rates
// are per second; positive compounds the error, negative forgets it.
// steps <= 0 rolls to the end of the segment.
func Divergence(m *vehicle.Model, seg *dataset.Segment, steps int, nudge float64) (map[string]float64, error) {
	if nudge <= 0 {
		return nil, fmt.Errorf("nudge must be positive, got %g", nudge)
	}
	past := m.RequiredHistory()
	n := seg.Len()
	if n <= past {
		return nil, fmt.Errorf("segment %s has %d samples, rollout needs more than %d", seg.Name, n, past)
	}
	if steps <= 0 || steps > n-past {
		steps = n - past
	}

	history := make(map[string][]float64, len(vehicle.SignalNames))
	for _, name := range vehicle.SignalNames {
		col, ok := seg.Series[name]
		if !ok {
			return nil, fmt.Errorf("segment %s: missing signal %s", seg.Name, name)
		}
		history[name] = col[:past]
	}
	controls := make(map[string][]float64, len(vehicle.ControlNames))
	for _, name := range vehicle.ControlNames {
		controls[name] = seg.Series[name][past:]
	}

	base, err := m.Rollout(history, controls, steps)
	if err != nil {
		return nil, err
	}

	ts := m.SampleTime()
	rates := make(map[string]float64, len(vehicle.StateNames))
	for _, state := range vehicle.StateNames {
		nudged := make(map[string][]float64, len(history))
		for name, col := range history {
			nudged[name] = col
		}
		buf := make([]float64, past)
		copy(buf, history[state])
		buf[past-1] += nudge
		nudged[state] = buf

		pert, err := m.Rollout(nudged, controls, steps)
		if err != nil {
			return nil, err
		}
		rates[state] = separationRate(base, pert, steps, ts)
	}
	return rates, nil
}

// separationRate fits ln of the state-space distance between two rollouts
// against time. A separation that collapses to exactly zero leaves nothing
// to fit and reads as fully absorbed.
func separationRate(base, pert map[string][]float64, steps int, ts float64) float64 {
	var times, logSep []float64
	for i := 0; i < steps; i++ {
		sep := 0.0
		for _, state := range vehicle.StateNames {
			d := pert[state+"_hat_next"][i] - base[state+"_hat_next"][i]
			sep += d * d
		}
		sep = math.Sqrt(sep)
		if sep <= 0 {
			continue
		}
		times = append(times, float64(i+1)*ts)
		logSep = append(logSep, math.Log(sep))
	}
	if len(times) < 2 {
		return 0
	}
	_, rate := stat.LinearRegression(times, logSep, nil, false)
	return rate
}
