// Package graph provides a small computation-graph engine for structured
// time-series models.
//
// A model is assembled from named signals, learned FIR blocks over trailing
// windows, and fixed-arity differentiable ops:
//
//   - [Builder]: registers signals, FIR blocks, ops, outputs, and losses
//   - [Fir]: learned linear combination of a signal's trailing samples
//   - [Op]: differentiable block with fixed input/output arity
//   - [Model]: compiled immutable graph with trainable FIR weights
//   - [Run]: a model bound to concrete series, with forward and backward
//
// # Evaluation
//
//	b := graph.NewBuilder()
//	vx := b.Signal("vx")
//	f := b.Fir("ax_vx", vx, 0.20)
//	b.Output("ax", f)
//	m, err := b.Compile(0.01)
//	out, err := m.Predict(map[string][]float64{"vx": history})
//
// Bound series may have different lengths; they are aligned at their most
// recent sample, and each signal must cover its own largest consumer
// window. Evaluation order is fixed at compile time, so repeated runs over
// the same inputs are bit-for-bit identical.
//
// # Gradients
//
// Backward runs the ops in reverse wiring order and accumulates the
// gradient of the summed loss terms into each FIR's weight gradient.
// Ops implement exact local vector-Jacobian products; there is no numeric
// differentiation anywhere in the engine.
package graph
