// Package blocks provides the physics-informed operators that connect the
// learned acceleration channels: [SignedSum] folds per-input contributions,
// [GripSigmoid] estimates available friction, [FrictionEllipse] caps the
// combined demand at the friction circle, and [EulerStep] advances the body
// states one sample.
//
// Every block implements graph.Op with an exact vector-Jacobian product in
// Backward, so gradients through an assembled model are analytic rather
// than approximated.
package blocks
