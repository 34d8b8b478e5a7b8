package graph

// Op is a differentiable block with fixed input and output arity.
// Forward reads len(in) == In() values and writes len(out) == Out() values.
// Backward receives the same in/out buffers Forward saw plus the gradient
// of the objective with respect to each output, and must ACCUMULATE the
// gradient with respect to each input into gradIn.
type Op interface {
	Name() string
	In() int
	Out() int
	Forward(in, out []float64)
	Backward(in, out, gradOut, gradIn []float64)
}

type refKind int

const (
	refInvalid refKind = iota
	refSignal
	refFir
	refOp
)

// Ref is a handle to one scalar value in the graph: a signal tap, a FIR
// output, or one output port of an op. Refs are produced by the builder
// and consumed by Add, Output, and Minimize.
type Ref struct {
	kind refKind
	idx  int
	port int
	lag  int
}

func (r Ref) valid() bool { return r.kind != refInvalid }

// Signal is a named exogenous time series registered on a builder.
// Taps on a signal reference its samples relative to the evaluation index.
type Signal struct {
	name string
	idx  int
}

// Name returns the registered signal name.
func (s *Signal) Name() string { return s.name }

// Last returns a tap on the signal's current sample.
func (s *Signal) Last() Ref {
	return Ref{kind: refSignal, idx: s.idx}
}

// Next returns a tap on the signal's one-step-ahead sample. It is valid
// only as a loss target: supervision compares a prediction at step k to
// the measured value at step k+1.
func (s *Signal) Next() Ref {
	return Ref{kind: refSignal, idx: s.idx, lag: 1}
}

// Node is a handle to an op added to the graph. Out yields refs to its
// output ports so multi-output blocks need no separate selector nodes.
type Node struct {
	idx  int
	outs int
}

// Out returns a ref to output port i of the node.
func (n Node) Out(i int) Ref {
	if i < 0 || i >= n.outs {
		return Ref{}
	}
	return Ref{kind: refOp, idx: n.idx, port: i}
}
