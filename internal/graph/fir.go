package graph

import "math/rand"

// Fir is a learned finite impulse response block: a linear combination of
// the trailing samples of one signal. Weights are ordered oldest to newest,
// so W[len(W)-1] multiplies the current sample.
type Fir struct {
	name string
	sig  int
	win  float64
	taps int
	W    []float64
	G    []float64
}

// Taps returns the number of trailing samples the block consumes.
func (f *Fir) Taps() int { return f.taps }

// Name returns the block name.
func (f *Fir) Name() string { return f.name }

// Window returns the tap window in seconds.
func (f *Fir) Window() float64 { return f.win }

func (f *Fir) forward(window []float64) float64 {
	y := 0.0
	for j, w := range f.W {
		y += w * window[j]
	}
	return y
}

func (f *Fir) backward(window []float64, grad float64) {
	for j := range f.G {
		f.G[j] += grad * window[j]
	}
}

func (f *Fir) zeroGrad() {
	for j := range f.G {
		f.G[j] = 0
	}
}

func (f *Fir) init(rng *rand.Rand) {
	scale := 1.0 / float64(f.taps)
	for j := range f.W {
		f.W[j] = (2*rng.Float64() - 1) * scale
	}
}
