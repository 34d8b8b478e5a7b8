package blocks

import "testing"

func BenchmarkFrictionEllipseForward(b *testing.B) {
	f := NewFrictionEllipse(9.81, 1e-6)
	in := []float64{14, 9, 0.8}
	out := make([]float64, 2)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		f.Forward(in, out)
	}
}

func BenchmarkFrictionEllipseBackward(b *testing.B) {
	f := NewFrictionEllipse(9.81, 1e-6)
	in := []float64{14, 9, 0.8}
	out := make([]float64, 2)
	gradOut := []float64{1, 1}
	gradIn := make([]float64, 3)
	f.Forward(in, out)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		gradIn[0], gradIn[1], gradIn[2] = 0, 0, 0
		f.Backward(in, out, gradOut, gradIn)
	}
}

func BenchmarkEulerStepForward(b *testing.B) {
	e := NewEulerStep(0.01)
	in := []float64{18, 0.4, 0.25, 1.2, 3.0, 0.6}
	out := make([]float64, 3)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.Forward(in, out)
	}
}
