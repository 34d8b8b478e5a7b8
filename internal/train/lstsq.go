package train

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/fordyn/internal/dataset"
	"github.com/san-kum/fordyn/internal/vehicle"
)

// DefaultRidge is the default Tikhonov weight for WarmStart.
const DefaultRidge = 1e-3

// WarmStart seeds the acceleration FIR weights with a ridge least-squares
// fit against finite-difference targets, one independent solve per channel:
//
//	ax    ~ (vx[k+1] - vx[k]) / ts
//	ay    ~ (vy[k+1] - vy[k]) / ts + r[k]*vx[k]
//	rdot  ~ (r[k+1] - r[k]) / ts
//
// The regressors are the signed tap windows each channel already consumes,
// so the solution loads straight into the FIR weights. The fit ignores the
// friction cap and the grip estimate; it is exact only where demand stays
// inside the ellipse, and gradient descent refines from there.
func WarmStart(m *vehicle.Model, ds *dataset.Dataset, lambda float64) error {
	if lambda < 0 {
		return fmt.Errorf("ridge lambda must be non-negative, got %f", lambda)
	}
	if len(ds.Segments) == 0 {
		return fmt.Errorf("dataset has no segments")
	}

	cfg := m.Config()
	past := m.RequiredHistory()

	for _, ch := range vehicle.Channels(cfg) {
		if err := fitChannel(m, ds, ch, cfg.Ts, past, lambda); err != nil {
			return fmt.Errorf("warm start %s: %w", ch.Name, err)
		}
	}
	return nil
}

func fitChannel(m *vehicle.Model, ds *dataset.Dataset, ch vehicle.Channel, ts float64, past int, lambda float64) error {
	dim := 0
	taps := make([]int, len(ch.Terms))
	for ti, term := range ch.Terms {
		taps[ti] = m.Fir(ch.Name + "_" + term.Signal).Taps()
		dim += taps[ti]
	}

	gram := make([]float64, dim*dim)
	xty := make([]float64, dim)
	x := make([]float64, dim)
	count := 0

	for si := range ds.Segments {
		seg := &ds.Segments[si]
		for _, name := range vehicle.SignalNames {
			if _, ok := seg.Series[name]; !ok {
				return fmt.Errorf("segment %s: missing signal %q", seg.Name, name)
			}
		}
		vx := seg.Series["vx"]
		vy := seg.Series["vy"]
		r := seg.Series["r"]

		for k := past - 1; k+1 < seg.Len(); k++ {
			var target float64
			switch ch.Name {
			case "ax":
				target = (vx[k+1] - vx[k]) / ts
			case "ay":
				target = (vy[k+1]-vy[k])/ts + r[k]*vx[k]
			case "rdot":
				target = (r[k+1] - r[k]) / ts
			default:
				return fmt.Errorf("unknown channel %q", ch.Name)
			}

			off := 0
			for ti, term := range ch.Terms {
				col := seg.Series[term.Signal]
				for j := 0; j < taps[ti]; j++ {
					x[off+j] = term.Sign * col[k-taps[ti]+1+j]
				}
				off += taps[ti]
			}

			for i := 0; i < dim; i++ {
				xty[i] += x[i] * target
				row := gram[i*dim:]
				for j := i; j < dim; j++ {
					row[j] += x[i] * x[j]
				}
			}
			count++
		}
	}
	if count == 0 {
		return fmt.Errorf("no samples: every segment is shorter than %d steps", past+1)
	}

	sym := mat.NewSymDense(dim, nil)
	for i := 0; i < dim; i++ {
		sym.SetSym(i, i, gram[i*dim+i]+lambda)
		for j := i + 1; j < dim; j++ {
			sym.SetSym(i, j, gram[i*dim+j])
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(sym); !ok {
		return fmt.Errorf("normal equations are not positive definite; increase lambda")
	}
	var w mat.VecDense
	if err := chol.SolveVecTo(&w, mat.NewVecDense(dim, xty)); err != nil {
		return fmt.Errorf("solve: %w", err)
	}

	off := 0
	for ti, term := range ch.Terms {
		fir := m.Fir(ch.Name + "_" + term.Signal)
		for j := 0; j < taps[ti]; j++ {
			fir.W[j] = w.AtVec(off + j)
		}
		off += taps[ti]
	}
	return nil
}
