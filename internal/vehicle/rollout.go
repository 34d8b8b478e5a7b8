package vehicle

import (
	"fmt"

	"github.com/san-kum/fordyn/internal/graph"
)

// Rollout simulates the model closed loop: each predicted state sample is
// appended to the state histories and feeds the next step, while the
// driver inputs come from the given control schedules. history must hold
// every signal with at least its required window of samples; controls must
// hold steps-1 future samples per control signal (the first transition uses
// the controls already in history). The result maps every model output to
// its trajectory over the horizon. Caller slices are copied, never mutated.
func (m *Model) Rollout(history, controls map[string][]float64, steps int) (map[string][]float64, error) {
	if steps <= 0 {
		return nil, fmt.Errorf("steps must be positive, got %d", steps)
	}
	for _, name := range ControlNames {
		if got := len(controls[name]); got < steps-1 {
			return nil, fmt.Errorf("control %s has %d samples, need %d", name, got, steps-1)
		}
	}

	cols := make(map[string][]float64, len(SignalNames))
	for _, name := range SignalNames {
		h, ok := history[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", graph.ErrUnknownSignal, name)
		}
		buf := make([]float64, len(h), len(h)+steps)
		copy(buf, h)
		cols[name] = buf
	}

	names := m.OutputNames()
	out := make(map[string][]float64, len(names))
	for _, name := range names {
		out[name] = make([]float64, steps)
	}
	stateIdx := make([]int, len(StateNames))
	for i, state := range StateNames {
		stateIdx[i] = indexOf(names, state+"_hat_next")
	}

	vals := make([]float64, len(names))
	for i := 0; i < steps; i++ {
		run, err := m.Bind(cols)
		if err != nil {
			return nil, err
		}
		run.Forward(run.Steps() - 1)
		vals = run.Outputs(vals)
		for oi, name := range names {
			out[name][i] = vals[oi]
		}
		if i == steps-1 {
			break
		}
		for si, state := range StateNames {
			cols[state] = append(cols[state], vals[stateIdx[si]])
		}
		for _, name := range ControlNames {
			cols[name] = append(cols[name], controls[name][i])
		}
	}
	return out, nil
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}
