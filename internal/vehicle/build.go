// Package vehicle assembles the planar forward-dynamics model: signed FIR
// contributions per acceleration channel, grip and friction-ellipse blocks,
// and an Euler state update, with one supervised loss per body state.
package vehicle

import (
	"github.com/san-kum/fordyn/internal/blocks"
	"github.com/san-kum/fordyn/internal/graph"
)

// Named outputs and loss terms of the assembled model.
const (
	OutVxNext = "vx_hat_next"
	OutVyNext = "vy_hat_next"
	OutRNext  = "r_hat_next"
	OutAx     = "ax_hat"
	OutAy     = "ay_hat"
	OutMu     = "mu_eff"

	LossVx = "loss_vx_next"
	LossVy = "loss_vy_next"
	LossR  = "loss_r_next"
)

// Model is the compiled forward-dynamics model plus the configuration it
// was built from.
type Model struct {
	*graph.Model
	cfg Config
}

// Config returns the configuration the model was built from.
func (m *Model) Config() Config { return m.cfg }

// Build assembles the forward-dynamics graph: signed FIR folds per
// acceleration channel, the grip estimate, the friction-ellipse cap on the
// planar pair, and one Euler step producing the three state predictions.
// Each prediction is supervised against the measured next sample of its
// state; the capped accelerations and the grip estimate are exposed as
// unsupervised diagnostics.
func Build(cfg Config) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	b := graph.NewBuilder()
	sigs := make(map[string]*graph.Signal, len(SignalNames))
	for _, name := range SignalNames {
		sigs[name] = b.Signal(name)
	}

	var raw [3]graph.Ref
	for ci, ch := range Channels(cfg) {
		refs := make([]graph.Ref, len(ch.Terms))
		signs := make([]float64, len(ch.Terms))
		for i, term := range ch.Terms {
			refs[i] = b.Fir(ch.Name+"_"+term.Signal, sigs[term.Signal], term.Window)
			signs[i] = term.Sign
		}
		raw[ci] = b.Add(blocks.NewSignedSum(signs...), refs...).Out(0)
	}

	grip := b.Add(blocks.NewGripSigmoid(cfg.MuMin, cfg.MuMax),
		sigs["vx"].Last(), sigs["brake"].Last())
	// The yaw channel bypasses the ellipse: only the planar pair is capped.
	ellipse := b.Add(blocks.NewFrictionEllipse(cfg.G, cfg.Eps),
		raw[0], raw[1], grip.Out(0))
	euler := b.Add(blocks.NewEulerStep(cfg.Ts),
		sigs["vx"].Last(), sigs["vy"].Last(), sigs["r"].Last(),
		ellipse.Out(0), ellipse.Out(1), raw[2])

	b.Output(OutVxNext, euler.Out(0))
	b.Output(OutVyNext, euler.Out(1))
	b.Output(OutRNext, euler.Out(2))
	b.Output(OutAx, ellipse.Out(0))
	b.Output(OutAy, ellipse.Out(1))
	b.Output(OutMu, grip.Out(0))

	b.Minimize(LossVx, euler.Out(0), sigs["vx"].Next())
	b.Minimize(LossVy, euler.Out(1), sigs["vy"].Next())
	b.Minimize(LossR, euler.Out(2), sigs["r"].Next())

	gm, err := b.Compile(cfg.Ts)
	if err != nil {
		return nil, err
	}
	return &Model{Model: gm, cfg: cfg}, nil
}
