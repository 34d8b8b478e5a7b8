package analysis

import (
	"fmt"
	"strings"

	"github.com/san-kum/fordyn/internal/dataset"
)

// PhasePlot is a 2D scatter of one logged channel against another. The
// usual pair is lateral velocity against yaw rate, which traces the
// lateral operating envelope of a segment.
type PhasePlot struct {
	XName, YName string
	X, Y         []float64
}

// Phase extracts a phase-plane scatter from one segment.
func Phase(seg *dataset.Segment, xName, yName string) (*PhasePlot, error) {
	x, ok := seg.Series[xName]
	if !ok {
		return nil, fmt.Errorf("segment %s: missing column %q", seg.Name, xName)
	}
	y, ok := seg.Series[yName]
	if !ok {
		return nil, fmt.Errorf("segment %s: missing column %q", seg.Name, yName)
	}
	return &PhasePlot{XName: xName, YName: yName, X: x, Y: y}, nil
}

// ToASCII renders the scatter on a width by height character canvas, with
// the zero axes drawn when they fall inside the data range.
func (p *PhasePlot) ToASCII(width, height int) string {
	if p == nil || len(p.X) == 0 || len(p.X) != len(p.Y) || width < 2 || height < 2 {
		return ""
	}

	minX, maxX := p.X[0], p.X[0]
	minY, maxY := p.Y[0], p.Y[0]
	for i := range p.X {
		if p.X[i] < minX {
			minX = p.X[i]
		}
		if p.X[i] > maxX {
			maxX = p.X[i]
		}
		if p.Y[i] < minY {
			minY = p.Y[i]
		}
		if p.Y[i] > maxY {
			maxY = p.Y[i]
		}
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = make([]rune, width)
		for j := range canvas[i] {
			canvas[i][j] = ' '
		}
	}

	if minX <= 0 && maxX >= 0 {
		col := int((0 - minX) / rangeX * float64(width-1))
		for row := 0; row < height; row++ {
			canvas[row][col] = '│'
		}
	}
	if minY <= 0 && maxY >= 0 {
		row := height - 1 - int((0-minY)/rangeY*float64(height-1))
		for col := 0; col < width; col++ {
			if canvas[row][col] == ' ' {
				canvas[row][col] = '─'
			}
		}
	}

	for i := range p.X {
		col := int((p.X[i] - minX) / rangeX * float64(width-1))
		row := height - 1 - int((p.Y[i]-minY)/rangeY*float64(height-1))
		if row >= 0 && row < height && col >= 0 && col < width {
			canvas[row][col] = '•'
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s vs %s\n", p.YName, p.XName)
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}
