package train

import (
	"math"

	"github.com/san-kum/fordyn/internal/graph"
)

// Optimizer applies one update to the model parameters from their
// accumulated gradients. Gradients are cleared by the caller.
type Optimizer interface {
	Name() string
	Step(params []graph.Param)
}

// SGD is plain gradient descent with a fixed learning rate.
type SGD struct {
	LR float64
}

func NewSGD(lr float64) *SGD { return &SGD{LR: lr} }

func (s *SGD) Name() string { return "sgd" }

func (s *SGD) Step(params []graph.Param) {
	for _, p := range params {
		for j := range p.W {
			p.W[j] -= s.LR * p.G[j]
		}
	}
}

// Adam keeps bias-corrected first and second moment estimates per weight.
// With TotalSteps set, the learning rate decays linearly to zero over the
// planned updates.
type Adam struct {
	LR         float64
	Beta1      float64
	Beta2      float64
	Eps        float64
	TotalSteps int

	t int
	m [][]float64
	v [][]float64
}

func NewAdam(lr float64) *Adam {
	return &Adam{LR: lr, Beta1: 0.9, Beta2: 0.999, Eps: 1e-8}
}

func (a *Adam) Name() string { return "adam" }

func (a *Adam) Step(params []graph.Param) {
	if a.m == nil {
		a.m = make([][]float64, len(params))
		a.v = make([][]float64, len(params))
		for i, p := range params {
			a.m[i] = make([]float64, len(p.W))
			a.v[i] = make([]float64, len(p.W))
		}
	}

	lr := a.LR
	if a.TotalSteps > 0 {
		lr *= 1 - float64(a.t)/float64(a.TotalSteps)
		if lr < 0 {
			lr = 0
		}
	}
	a.t++
	c1 := 1 - math.Pow(a.Beta1, float64(a.t))
	c2 := 1 - math.Pow(a.Beta2, float64(a.t))

	for i, p := range params {
		m, v := a.m[i], a.v[i]
		for j := range p.W {
			g := p.G[j]
			m[j] = a.Beta1*m[j] + (1-a.Beta1)*g
			v[j] = a.Beta2*v[j] + (1-a.Beta2)*g*g
			mHat := m[j] / c1
			vHat := v[j] / c2
			p.W[j] -= lr * mHat / (math.Sqrt(vHat) + a.Eps)
		}
	}
}
