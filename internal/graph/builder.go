package graph

import (
	"errors"
	"fmt"
	"math"
)

// windowTol is the relative tolerance for deciding whether a tap window is
// an integer multiple of the sample time.
const windowTol = 1e-9

type firSpec struct {
	name string
	sig  int
	win  float64
}

type opSpec struct {
	op  Op
	ins []Ref
}

type namedRef struct {
	name string
	ref  Ref
}

type lossSpec struct {
	name   string
	pred   Ref
	target Ref
}

// Builder assembles signals, FIR blocks, ops, outputs, and loss terms into
// a model. Construction methods latch defects instead of returning errors;
// Compile reports everything at once. Topology is fixed at Compile and
// cannot change afterwards.
type Builder struct {
	signals  []*Signal
	sigIndex map[string]int
	firs     []firSpec
	firNames map[string]int
	ops      []opSpec
	outputs  []namedRef
	outNames map[string]bool
	losses   []lossSpec
	lossSeen map[string]bool
	defects  []error
}

// NewBuilder returns an empty model builder.
func NewBuilder() *Builder {
	return &Builder{
		sigIndex: make(map[string]int),
		firNames: make(map[string]int),
		outNames: make(map[string]bool),
		lossSeen: make(map[string]bool),
	}
}

func (b *Builder) defect(element string, err error) {
	b.defects = append(b.defects, &BuildError{Element: element, Wrapped: err})
}

// Signal registers a named input series and returns its handle. Registering
// the same name twice is a build defect; the original handle is returned so
// construction can continue.
func (b *Builder) Signal(name string) *Signal {
	if i, ok := b.sigIndex[name]; ok {
		b.defect("signal "+name, ErrDuplicate)
		return b.signals[i]
	}
	s := &Signal{name: name, idx: len(b.signals)}
	b.sigIndex[name] = s.idx
	b.signals = append(b.signals, s)
	return s
}

// Fir adds a named FIR block reading a trailing window (in seconds) of sig
// and returns a ref to its scalar output. The window must divide evenly by
// the sample time given to Compile and cover at least one sample.
func (b *Builder) Fir(name string, sig *Signal, window float64) Ref {
	if _, ok := b.firNames[name]; ok {
		b.defect("fir "+name, ErrDuplicate)
		return Ref{}
	}
	if sig == nil || sig.idx >= len(b.signals) || b.signals[sig.idx] != sig {
		b.defect("fir "+name, ErrUnknownSignal)
		return Ref{}
	}
	idx := len(b.firs)
	b.firNames[name] = idx
	b.firs = append(b.firs, firSpec{name: name, sig: sig.idx, win: window})
	return Ref{kind: refFir, idx: idx}
}

// Add wires an op to its inputs and returns the node handle. Input count
// must match the op's arity, every ref must be valid, and shifted taps are
// not accepted (they are loss-target-only).
func (b *Builder) Add(op Op, ins ...Ref) Node {
	if len(ins) != op.In() {
		b.defect("op "+op.Name(), fmt.Errorf("%w: got %d, want %d", ErrArity, len(ins), op.In()))
	}
	for i, r := range ins {
		if !r.valid() {
			b.defect("op "+op.Name(), fmt.Errorf("%w: input %d", ErrBadRef, i))
			continue
		}
		if r.lag != 0 {
			b.defect("op "+op.Name(), fmt.Errorf("%w: input %d", ErrFutureRef, i))
		}
	}
	idx := len(b.ops)
	wired := make([]Ref, len(ins))
	copy(wired, ins)
	b.ops = append(b.ops, opSpec{op: op, ins: wired})
	return Node{idx: idx, outs: op.Out()}
}

// Output names a graph value for inference. Duplicate names are defects.
func (b *Builder) Output(name string, r Ref) {
	if b.outNames[name] {
		b.defect("output "+name, ErrDuplicate)
		return
	}
	if !r.valid() {
		b.defect("output "+name, ErrBadRef)
		return
	}
	if r.lag != 0 {
		b.defect("output "+name, ErrFutureRef)
		return
	}
	b.outNames[name] = true
	b.outputs = append(b.outputs, namedRef{name: name, ref: r})
}

// Minimize adds a named mean-squared-error term between a predicted value
// and a target. The target may be a one-step-ahead signal tap; the
// prediction may not.
func (b *Builder) Minimize(name string, pred, target Ref) {
	if b.lossSeen[name] {
		b.defect("loss "+name, ErrDuplicate)
		return
	}
	if !pred.valid() || !target.valid() {
		b.defect("loss "+name, ErrBadRef)
		return
	}
	if pred.lag != 0 {
		b.defect("loss "+name, ErrFutureRef)
		return
	}
	b.lossSeen[name] = true
	b.losses = append(b.losses, lossSpec{name: name, pred: pred, target: target})
}

// Compile validates the assembled graph against a sample time and freezes
// it into a Model. All defects latched during construction are reported
// together with window validation errors.
func (b *Builder) Compile(ts float64) (*Model, error) {
	errs := make([]error, 0, len(b.defects))
	errs = append(errs, b.defects...)

	if ts <= 0 {
		errs = append(errs, fmt.Errorf("sample time must be positive, got %g", ts))
	}

	m := &Model{
		ts:       ts,
		past:     1,
		sigNames: make([]string, len(b.signals)),
		sigIndex: make(map[string]int, len(b.signals)),
		sigReq:   make([]int, len(b.signals)),
		firIndex: make(map[string]int, len(b.firs)),
	}
	for i, s := range b.signals {
		m.sigNames[i] = s.name
		m.sigIndex[s.name] = i
	}
	bump := func(r Ref) {
		if r.kind == refSignal && r.lag == 0 && m.sigReq[r.idx] < 1 {
			m.sigReq[r.idx] = 1
		}
	}

	for _, spec := range b.firs {
		taps := 0
		if ts > 0 {
			taps = int(math.Round(spec.win / ts))
			rel := math.Abs(spec.win - float64(taps)*ts)
			if ref := math.Abs(spec.win); ref > 1 {
				rel /= ref
			}
			if taps < 1 || rel > windowTol {
				errs = append(errs, &BuildError{
					Element: "fir " + spec.name,
					Wrapped: fmt.Errorf("%w: window %gs at ts %gs", ErrWindow, spec.win, ts),
				})
				continue
			}
		}
		f := &Fir{
			name: spec.name,
			sig:  spec.sig,
			win:  spec.win,
			taps: taps,
			W:    make([]float64, taps),
			G:    make([]float64, taps),
		}
		m.firIndex[spec.name] = len(m.firs)
		m.firs = append(m.firs, f)
		if taps > m.sigReq[spec.sig] {
			m.sigReq[spec.sig] = taps
		}
	}

	for _, spec := range b.ops {
		m.ops = append(m.ops, opMeta{op: spec.op, ins: spec.ins})
		for _, r := range spec.ins {
			bump(r)
		}
	}
	m.outputs = append(m.outputs, b.outputs...)
	for _, o := range b.outputs {
		bump(o.ref)
	}
	for _, l := range b.losses {
		m.losses = append(m.losses, l)
		bump(l.pred)
		bump(l.target)
		if sigLag(l.target) > m.future {
			m.future = sigLag(l.target)
		}
	}
	for _, req := range m.sigReq {
		if req > m.past {
			m.past = req
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return m, nil
}

func sigLag(r Ref) int {
	if r.kind == refSignal {
		return r.lag
	}
	return 0
}
