package viz

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"
)

const (
	chartHeight    = 10
	chartWidth     = 80
	spectrumHeight = 15
)

// Chart renders a series as a terminal line chart. Fewer than two
// points produce no chart.
func Chart(values []float64, caption string) string {
	if len(values) < 2 {
		return ""
	}
	return asciigraph.Plot(values, asciigraph.Height(chartHeight), asciigraph.Width(chartWidth), asciigraph.Caption(caption))
}

// LossCurve renders per-epoch training totals, with the validation
// curve stacked underneath when present.
func LossCurve(train, val []float64) string {
	var sb strings.Builder
	if c := Chart(train, "train loss by epoch"); c != "" {
		sb.WriteString(c)
	}
	if c := Chart(val, "validation loss by epoch"); c != "" {
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(c)
	}
	return sb.String()
}

// Compare renders a measured series above its one-step predictions.
// The two series must already be aligned; the longer one is trimmed
// from the front so the charts cover the same samples.
func Compare(measured, predicted []float64, name string) string {
	n := len(measured)
	if len(predicted) < n {
		n = len(predicted)
	}
	if n < 2 {
		return ""
	}
	measured = measured[len(measured)-n:]
	predicted = predicted[len(predicted)-n:]

	var sb strings.Builder
	sb.WriteString(Chart(measured, fmt.Sprintf("%s (measured)", name)))
	sb.WriteString("\n\n")
	sb.WriteString(Chart(predicted, fmt.Sprintf("%s (predicted)", name)))
	return sb.String()
}

// SpectrumChart renders residual spectrum magnitudes. The taller
// layout keeps narrow peaks visible.
func SpectrumChart(mags []float64, name string) string {
	if len(mags) < 2 {
		return ""
	}
	return asciigraph.Plot(mags, asciigraph.Height(spectrumHeight), asciigraph.Width(chartWidth), asciigraph.Caption(fmt.Sprintf("%s residual spectrum", name)))
}
