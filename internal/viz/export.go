package viz

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Series is one named line on a saved plot. A nil X axis plots Y
// against sample index.
type Series struct {
	Label string
	X     []float64
	Y     []float64
}

// SavePlot writes the series to an image file. The format follows the
// file extension; both .png and .svg work.
func SavePlot(path, title, xLabel, yLabel string, series ...Series) error {
	if len(series) == 0 {
		return fmt.Errorf("plot %s: no series", path)
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel

	colors := seriesColors(len(series))
	for i, s := range series {
		n := len(s.Y)
		if s.X != nil && len(s.X) < n {
			n = len(s.X)
		}
		if n == 0 {
			continue
		}
		pts := make(plotter.XYs, n)
		for j := 0; j < n; j++ {
			x := float64(j)
			if s.X != nil {
				x = s.X[j]
			}
			pts[j] = plotter.XY{X: x, Y: s.Y[j]}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("series %s: %w", s.Label, err)
		}
		line.Color = colors[i]
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(s.Label, line)
	}

	p.Legend.Top = true
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	if err := p.Save(10*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("save plot: %w", err)
	}
	return nil
}

// seriesColors spreads line colors around the hue wheel so adjacent
// series stay distinguishable.
func seriesColors(n int) []color.Color {
	colors := make([]color.Color, n)
	for i := range colors {
		h := float64(i) / float64(n)
		colors[i] = color.RGBA{R: hueByte(h + 1.0/3), G: hueByte(h), B: hueByte(h - 1.0/3), A: 255}
	}
	return colors
}

// hueByte evaluates one RGB channel of an HSL color with s=0.7, l=0.5.
func hueByte(t float64) uint8 {
	t -= math.Floor(t)
	const q, p = 0.85, 0.15
	var v float64
	switch {
	case t < 1.0/6:
		v = p + (q-p)*6*t
	case t < 0.5:
		v = q
	case t < 2.0/3:
		v = p + (q-p)*(2.0/3-t)*6
	default:
		v = p
	}
	return uint8(v * 255)
}
