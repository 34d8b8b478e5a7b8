package graph

import "fmt"

// Run is a model bound to one set of signal series. It owns all evaluation
// scratch, so stepping through samples allocates nothing. A Run is not
// safe for concurrent use; bind one per goroutine.
type Run struct {
	m     *Model
	cols  [][]float64
	off   []int
	t     int
	steps int
	k     int

	firOut    []float64
	firGrad   []float64
	opIn      [][]float64
	opOut     [][]float64
	opGradOut [][]float64
	opGradIn  [][]float64
}

// Bind validates the given series against the model's signals and returns
// an evaluator over them. Series may have different lengths: they are
// aligned at their most recent sample, and each must cover at least its own
// signal's requirement (RequiredFor). Histories shorter than that are
// rejected, never truncated or padded.
func (m *Model) Bind(series map[string][]float64) (*Run, error) {
	cols := make([][]float64, len(m.sigNames))
	t := 0
	for i, name := range m.sigNames {
		col, ok := series[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSignal, name)
		}
		if len(col) < m.sigReq[i] {
			return nil, fmt.Errorf("%w: %s has %d samples, needs %d", ErrShortHistory, name, len(col), m.sigReq[i])
		}
		cols[i] = col
		if len(col) > t {
			t = len(col)
		}
	}

	steps := 0
	off := make([]int, len(cols))
	for i, col := range cols {
		off[i] = t - len(col)
		s := len(col) - m.sigReq[i] + 1
		if i == 0 || s < steps {
			steps = s
		}
	}

	r := &Run{
		m:         m,
		cols:      cols,
		off:       off,
		t:         t,
		steps:     steps,
		firOut:    make([]float64, len(m.firs)),
		firGrad:   make([]float64, len(m.firs)),
		opIn:      make([][]float64, len(m.ops)),
		opOut:     make([][]float64, len(m.ops)),
		opGradOut: make([][]float64, len(m.ops)),
		opGradIn:  make([][]float64, len(m.ops)),
	}
	for i, om := range m.ops {
		r.opIn[i] = make([]float64, om.op.In())
		r.opOut[i] = make([]float64, om.op.Out())
		r.opGradOut[i] = make([]float64, om.op.Out())
		r.opGradIn[i] = make([]float64, om.op.In())
	}
	return r, nil
}

// Steps returns how many samples the bound series support for inference:
// the smallest per-signal slack between supplied and required history.
func (r *Run) Steps() int { return r.steps }

// TrainSteps returns how many samples support loss evaluation; one-step
// ahead targets consume the final sample.
func (r *Run) TrainSteps() int { return r.steps - r.m.future }

// Forward evaluates the whole graph at valid sample index i. FIR blocks
// run first (they read only signal windows), then ops in wiring order.
func (r *Run) Forward(i int) {
	r.k = r.t - r.steps + i

	for fi, f := range r.m.firs {
		r.firOut[fi] = f.forward(r.window(f))
	}
	for oi, om := range r.m.ops {
		in := r.opIn[oi]
		for j, ref := range om.ins {
			in[j] = r.value(ref)
		}
		om.op.Forward(in, r.opOut[oi])
	}
}

// Outputs copies the named output values of the last Forward into dst,
// allocating when dst is too small. Order matches Model.OutputNames.
func (r *Run) Outputs(dst []float64) []float64 {
	if len(dst) < len(r.m.outputs) {
		dst = make([]float64, len(r.m.outputs))
	}
	for i, o := range r.m.outputs {
		dst[i] = r.value(o.ref)
	}
	return dst
}

// Losses copies the per-term squared errors at the last Forward's sample
// into dst. Order matches Model.LossNames. With one-step-ahead targets the
// last valid sample is TrainSteps-1, not Steps-1.
func (r *Run) Losses(dst []float64) []float64 {
	if len(dst) < len(r.m.losses) {
		dst = make([]float64, len(r.m.losses))
	}
	for i, l := range r.m.losses {
		d := r.value(l.pred) - r.value(l.target)
		dst[i] = d * d
	}
	return dst
}

// Backward accumulates parameter gradients of the summed loss terms at the
// last Forward's sample, scaled by scale. Averaging a batch of b samples
// means calling Backward with scale 1/b after each Forward.
func (r *Run) Backward(scale float64) {
	for i := range r.firGrad {
		r.firGrad[i] = 0
	}
	for i := range r.opGradOut {
		buf := r.opGradOut[i]
		for j := range buf {
			buf[j] = 0
		}
	}

	for _, l := range r.m.losses {
		d := 2 * scale * (r.value(l.pred) - r.value(l.target))
		r.scatter(l.pred, d)
		r.scatter(l.target, -d)
	}

	for oi := len(r.m.ops) - 1; oi >= 0; oi-- {
		om := r.m.ops[oi]
		gIn := r.opGradIn[oi]
		for j := range gIn {
			gIn[j] = 0
		}
		om.op.Backward(r.opIn[oi], r.opOut[oi], r.opGradOut[oi], gIn)
		for j, ref := range om.ins {
			r.scatter(ref, gIn[j])
		}
	}

	for fi, f := range r.m.firs {
		if g := r.firGrad[fi]; g != 0 {
			f.backward(r.window(f), g)
		}
	}
}

func (r *Run) window(f *Fir) []float64 {
	base := r.k - r.off[f.sig]
	return r.cols[f.sig][base-f.taps+1 : base+1]
}

func (r *Run) value(ref Ref) float64 {
	switch ref.kind {
	case refSignal:
		return r.cols[ref.idx][r.k+ref.lag-r.off[ref.idx]]
	case refFir:
		return r.firOut[ref.idx]
	case refOp:
		return r.opOut[ref.idx][ref.port]
	}
	return 0
}

func (r *Run) scatter(ref Ref, g float64) {
	switch ref.kind {
	case refFir:
		r.firGrad[ref.idx] += g
	case refOp:
		r.opGradOut[ref.idx][ref.port] += g
	}
}

// Predict evaluates every named output over all valid samples of the given
// histories. The result maps output names to series of length Steps; the
// first entry corresponds to the earliest sample with full window coverage.
// Identical inputs always produce identical outputs.
func (m *Model) Predict(series map[string][]float64) (map[string][]float64, error) {
	run, err := m.Bind(series)
	if err != nil {
		return nil, err
	}

	steps := run.Steps()
	bufs := make([][]float64, len(m.outputs))
	for i := range bufs {
		bufs[i] = make([]float64, steps)
	}

	vals := make([]float64, len(m.outputs))
	for i := 0; i < steps; i++ {
		run.Forward(i)
		run.Outputs(vals)
		for oi := range m.outputs {
			bufs[oi][i] = vals[oi]
		}
	}

	out := make(map[string][]float64, len(m.outputs))
	for oi, o := range m.outputs {
		out[o.name] = bufs[oi]
	}
	return out, nil
}
