package analysis

import "math"

// Metric accumulates one scalar over a stream of prediction/measurement
// pairs. Implementations are not safe for concurrent use.
type Metric interface {
	Name() string
	Observe(pred, actual float64)
	Value() float64
	Reset()
}

type RMSE struct {
	name    string
	sumSq   float64
	samples int
}

func NewRMSE() *RMSE {
	return &RMSE{name: "rmse"}
}

func (m *RMSE) Name() string { return m.name }

func (m *RMSE) Observe(pred, actual float64) {
	d := pred - actual
	m.sumSq += d * d
	m.samples++
}

func (m *RMSE) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return math.Sqrt(m.sumSq / float64(m.samples))
}

func (m *RMSE) Reset() {
	m.sumSq = 0
	m.samples = 0
}

type MAE struct {
	name    string
	sumAbs  float64
	samples int
}

func NewMAE() *MAE {
	return &MAE{name: "mae"}
}

func (m *MAE) Name() string { return m.name }

func (m *MAE) Observe(pred, actual float64) {
	m.sumAbs += math.Abs(pred - actual)
	m.samples++
}

func (m *MAE) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sumAbs / float64(m.samples)
}

func (m *MAE) Reset() {
	m.sumAbs = 0
	m.samples = 0
}

type MaxError struct {
	name string
	max  float64
}

func NewMaxError() *MaxError {
	return &MaxError{name: "max_error"}
}

func (m *MaxError) Name() string { return m.name }

func (m *MaxError) Observe(pred, actual float64) {
	if d := math.Abs(pred - actual); d > m.max {
		m.max = d
	}
}

func (m *MaxError) Value() float64 {
	return m.max
}

func (m *MaxError) Reset() {
	m.max = 0
}
