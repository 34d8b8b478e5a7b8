package blocks

// SignedSum folds any number of scalar inputs into one value with a fixed
// sign per input. It is the reduction used to combine FIR contributions
// into a raw acceleration channel.
type SignedSum struct {
	signs []float64
}

// NewSignedSum returns a fold over len(signs) inputs. Each sign multiplies
// the matching input, so +1/-1 express additive and subtractive terms.
func NewSignedSum(signs ...float64) *SignedSum {
	s := make([]float64, len(signs))
	copy(s, signs)
	return &SignedSum{signs: s}
}

func (s *SignedSum) Name() string { return "signed_sum" }
func (s *SignedSum) In() int      { return len(s.signs) }
func (s *SignedSum) Out() int     { return 1 }

func (s *SignedSum) Forward(in, out []float64) {
	acc := 0.0
	for i, sign := range s.signs {
		acc += sign * in[i]
	}
	out[0] = acc
}

func (s *SignedSum) Backward(in, out, gradOut, gradIn []float64) {
	for i, sign := range s.signs {
		gradIn[i] += sign * gradOut[0]
	}
}
