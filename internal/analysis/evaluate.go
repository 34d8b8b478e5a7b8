package analysis

import (
	"fmt"

	"github.com/san-kum/fordyn/internal/dataset"
	"github.com/san-kum/fordyn/internal/vehicle"
)

// Summary bundles the error metrics for one predicted state.
type Summary struct {
	RMSE    float64
	MAE     float64
	Max     float64
	Samples int
}

// Evaluate scores one-step-ahead state predictions against every segment
// of the dataset, returning a summary per body state. The last sample of
// each segment has no successor and is skipped.
func Evaluate(m *vehicle.Model, ds *dataset.Dataset) (map[string]Summary, error) {
	if len(ds.Segments) == 0 {
		return nil, fmt.Errorf("dataset has no segments")
	}

	type bundle struct {
		rmse *RMSE
		mae  *MAE
		max  *MaxError
		n    int
	}
	acc := make(map[string]*bundle, len(vehicle.StateNames))
	for _, state := range vehicle.StateNames {
		acc[state] = &bundle{rmse: NewRMSE(), mae: NewMAE(), max: NewMaxError()}
	}

	for si := range ds.Segments {
		seg := &ds.Segments[si]
		out, err := m.Predict(seg.Series)
		if err != nil {
			return nil, fmt.Errorf("segment %s: %w", seg.Name, err)
		}
		for _, state := range vehicle.StateNames {
			pred := out[state+"_hat_next"]
			col := seg.Series[state]
			first := len(col) - len(pred)
			b := acc[state]
			for i := 0; i+1 < len(pred); i++ {
				actual := col[first+i+1]
				b.rmse.Observe(pred[i], actual)
				b.mae.Observe(pred[i], actual)
				b.max.Observe(pred[i], actual)
				b.n++
			}
		}
	}

	result := make(map[string]Summary, len(acc))
	for state, b := range acc {
		result[state] = Summary{
			RMSE:    b.rmse.Value(),
			MAE:     b.mae.Value(),
			Max:     b.max.Value(),
			Samples: b.n,
		}
	}
	return result, nil
}

// Residuals returns the one-step prediction residual series per state for
// one segment, in sample order. Feed these to Spectrum to look for
// unmodeled periodic dynamics.
func Residuals(m *vehicle.Model, seg *dataset.Segment) (map[string][]float64, error) {
	out, err := m.Predict(seg.Series)
	if err != nil {
		return nil, fmt.Errorf("segment %s: %w", seg.Name, err)
	}

	res := make(map[string][]float64, len(vehicle.StateNames))
	for _, state := range vehicle.StateNames {
		pred := out[state+"_hat_next"]
		col := seg.Series[state]
		first := len(col) - len(pred)
		n := len(pred) - 1
		if n < 0 {
			n = 0
		}
		r := make([]float64, n)
		for i := 0; i < n; i++ {
			r[i] = pred[i] - col[first+i+1]
		}
		res[state] = r
	}
	return res, nil
}
