package graph

import (
	"fmt"
	"math/rand"
)

type opMeta struct {
	op  Op
	ins []Ref
}

// Model is a compiled computation graph. Topology is immutable; only FIR
// weights change, and only through the parameter accessors. A model holds
// no input data — histories are bound per call and never retained.
type Model struct {
	ts       float64
	past     int
	future   int
	sigNames []string
	sigIndex map[string]int
	sigReq   []int
	firs     []*Fir
	firIndex map[string]int
	ops      []opMeta
	outputs  []namedRef
	losses   []lossSpec
}

// SampleTime returns the sample period the model was compiled for.
func (m *Model) SampleTime() float64 { return m.ts }

// RequiredHistory returns the largest trailing-sample requirement across
// all signals. Supplying this many samples for every signal always permits
// at least one evaluation.
func (m *Model) RequiredHistory() int { return m.past }

// RequiredFor returns the trailing samples the named signal must supply:
// the largest tap window among its consumers, or one when it is only read
// directly. Unknown names return 0.
func (m *Model) RequiredFor(name string) int {
	i, ok := m.sigIndex[name]
	if !ok {
		return 0
	}
	return m.sigReq[i]
}

// SignalNames returns the registered signal names in registration order.
func (m *Model) SignalNames() []string {
	out := make([]string, len(m.sigNames))
	copy(out, m.sigNames)
	return out
}

// OutputNames returns the named outputs in registration order.
func (m *Model) OutputNames() []string {
	out := make([]string, len(m.outputs))
	for i, o := range m.outputs {
		out[i] = o.name
	}
	return out
}

// LossNames returns the loss term names in registration order.
func (m *Model) LossNames() []string {
	out := make([]string, len(m.losses))
	for i, l := range m.losses {
		out[i] = l.name
	}
	return out
}

// Fir returns the named FIR block, or nil if it does not exist.
func (m *Model) Fir(name string) *Fir {
	i, ok := m.firIndex[name]
	if !ok {
		return nil
	}
	return m.firs[i]
}

// FirNames returns all FIR block names in registration order.
func (m *Model) FirNames() []string {
	out := make([]string, len(m.firs))
	for i, f := range m.firs {
		out[i] = f.name
	}
	return out
}

// Param is one trainable weight vector with its accumulated gradient.
// Optimizers mutate W in place; Backward accumulates into G.
type Param struct {
	Name string
	W    []float64
	G    []float64
}

// Params returns all trainable parameters in registration order.
func (m *Model) Params() []Param {
	out := make([]Param, len(m.firs))
	for i, f := range m.firs {
		out[i] = Param{Name: f.name, W: f.W, G: f.G}
	}
	return out
}

// ZeroGrad clears all accumulated parameter gradients.
func (m *Model) ZeroGrad() {
	for _, f := range m.firs {
		f.zeroGrad()
	}
}

// ParamCount returns the total number of trainable weights.
func (m *Model) ParamCount() int {
	n := 0
	for _, f := range m.firs {
		n += f.taps
	}
	return n
}

// InitWeights seeds every FIR with small uniform weights scaled by its tap
// count. The same seed always produces the same weights.
func (m *Model) InitWeights(seed int64) {
	rng := rand.New(rand.NewSource(seed))
	for _, f := range m.firs {
		f.init(rng)
	}
}

// Weights returns a copy of every FIR weight vector keyed by block name.
func (m *Model) Weights() map[string][]float64 {
	out := make(map[string][]float64, len(m.firs))
	for _, f := range m.firs {
		w := make([]float64, len(f.W))
		copy(w, f.W)
		out[f.name] = w
	}
	return out
}

// LoadWeights restores FIR weights from a snapshot produced by Weights.
// Every snapshot entry must match a block and its tap count; blocks absent
// from the snapshot keep their current weights.
func (m *Model) LoadWeights(w map[string][]float64) error {
	for name, vals := range w {
		i, ok := m.firIndex[name]
		if !ok {
			return fmt.Errorf("graph: no fir block %q", name)
		}
		f := m.firs[i]
		if len(vals) != f.taps {
			return fmt.Errorf("graph: fir %q has %d taps, snapshot has %d", name, f.taps, len(vals))
		}
		copy(f.W, vals)
	}
	return nil
}
