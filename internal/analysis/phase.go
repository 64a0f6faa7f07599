package analysis

import (
	"fmt"
	"math"
	"strings"
)

// PhasePortrait2D holds one column plotted against another.
type PhasePortrait2D struct {
	XLabel, YLabel string
	Points         []struct{ X, Y float64 }
}

// NewPhasePortrait pairs xs with ys. Non-finite pairs are skipped.
func NewPhasePortrait(xLabel, yLabel string, xs, ys []float64) (*PhasePortrait2D, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("analysis: %d x samples for %d y samples", len(xs), len(ys))
	}

	portrait := &PhasePortrait2D{
		XLabel: xLabel,
		YLabel: yLabel,
		Points: make([]struct{ X, Y float64 }, 0, len(xs)),
	}
	for i := range xs {
		if !finite(xs[i]) || !finite(ys[i]) {
			continue
		}
		portrait.Points = append(portrait.Points, struct{ X, Y float64 }{X: xs[i], Y: ys[i]})
	}
	return portrait, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// span is the extent of one axis.
type span struct{ min, max float64 }

func extent(points []struct{ X, Y float64 }) (x, y span) {
	x = span{math.Inf(1), math.Inf(-1)}
	y = x
	for _, p := range points {
		x.min, x.max = math.Min(x.min, p.X), math.Max(x.max, p.X)
		y.min, y.max = math.Min(y.min, p.Y), math.Max(y.max, p.Y)
	}
	return x, y
}

// padded widens s by 10% on each side. A flat span gets a unit width.
func (s span) padded() span {
	r := s.max - s.min
	if r == 0 {
		r = 1
	}
	return span{s.min - r*0.1, s.max + r*0.1}
}

// cell maps v to one of n cells.
func (s span) cell(v float64, n int) int {
	return int((v - s.min) / (s.max - s.min) * float64(n-1))
}

func (s span) contains(v float64) bool { return s.min <= v && v <= s.max }

// density shades a cell by its share of the busiest cell's samples.
var density = []rune{'·', '•', '●'}

// PhasePortraitToASCII draws the portrait on a width x height character
// grid. Cells are shaded by how many samples fall in them, the first and
// last samples are marked S and E, and the zero axes are drawn where they
// are in view. A footer line gives the data range of both columns.
func PhasePortraitToASCII(portrait *PhasePortrait2D, width, height int) string {
	if portrait == nil || len(portrait.Points) == 0 || width < 2 || height < 2 {
		return ""
	}

	dataX, dataY := extent(portrait.Points)
	viewX, viewY := dataX.padded(), dataY.padded()
	locate := func(x, y float64) (row, col int) {
		return height - 1 - viewY.cell(y, height), viewX.cell(x, width)
	}

	hits := make([][]int, height)
	for i := range hits {
		hits[i] = make([]int, width)
	}
	busiest := 0
	for _, p := range portrait.Points {
		row, col := locate(p.X, p.Y)
		hits[row][col]++
		busiest = max(busiest, hits[row][col])
	}

	axisRow, axisCol := -1, -1
	if viewY.contains(0) {
		axisRow, _ = locate(0, 0)
	}
	if viewX.contains(0) {
		_, axisCol = locate(0, 0)
	}

	canvas := make([][]rune, height)
	for row := range canvas {
		canvas[row] = make([]rune, width)
		for col := range canvas[row] {
			switch h := hits[row][col]; {
			case h > 0:
				canvas[row][col] = density[(h*len(density)-1)/busiest]
			case row == axisRow && col == axisCol:
				canvas[row][col] = '┼'
			case row == axisRow:
				canvas[row][col] = '─'
			case col == axisCol:
				canvas[row][col] = '│'
			default:
				canvas[row][col] = ' '
			}
		}
	}

	first, last := portrait.Points[0], portrait.Points[len(portrait.Points)-1]
	row, col := locate(first.X, first.Y)
	canvas[row][col] = 'S'
	row, col = locate(last.X, last.Y)
	canvas[row][col] = 'E'

	var sb strings.Builder
	for _, line := range canvas {
		sb.WriteString(string(line))
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "x: %s [%.3g, %.3g]  y: %s [%.3g, %.3g]\n",
		portrait.XLabel, dataX.min, dataX.max,
		portrait.YLabel, dataY.min, dataY.max)
	return sb.String()
}
