// Package export renders recorded trajectories as standalone SVG files.
package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/cosimrun/internal/analysis"
)

// Series is one recorded column to draw against time.
type Series struct {
	Name   string
	Values []float64
}

var palette = []string{"#00d7ff", "#00ff87", "#ffd700", "#ff5f5f", "#d787ff", "#ffffff"}

type point struct{ X, Y float64 }

type bounds struct {
	minX, maxX, minY, maxY float64
}

func newBounds() bounds {
	return bounds{minX: math.Inf(1), maxX: math.Inf(-1), minY: math.Inf(1), maxY: math.Inf(-1)}
}

func (b *bounds) add(x, y float64) {
	b.minX = math.Min(b.minX, x)
	b.maxX = math.Max(b.maxX, x)
	b.minY = math.Min(b.minY, y)
	b.maxY = math.Max(b.maxY, y)
}

// pad widens the bounds by 10% and gives flat ranges a unit extent.
func (b *bounds) pad() {
	rangeX := b.maxX - b.minX
	rangeY := b.maxY - b.minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	b.minX -= rangeX * 0.1
	b.maxX += rangeX * 0.1
	b.minY -= rangeY * 0.1
	b.maxY += rangeY * 0.1
}

func (b bounds) project(p point, width, height int) (float64, float64) {
	x := (p.X - b.minX) / (b.maxX - b.minX) * float64(width)
	y := float64(height) - (p.Y-b.minY)/(b.maxY-b.minY)*float64(height)
	return x, y
}

func header(sb *strings.Builder, width, height int) {
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))
}

func path(sb *strings.Builder, points []point, b bounds, width, height int, stroke string) {
	sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="`, stroke))
	for i, p := range points {
		x, y := b.project(p, width, height)
		if i == 0 {
			sb.WriteString(fmt.Sprintf("M%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}
	sb.WriteString("\"/>\n")
}

func label(sb *strings.Builder, i int, text, fill string) {
	sb.WriteString(fmt.Sprintf(`<text x="8" y="%d" fill="%s" font-family="monospace" font-size="12">%s</text>
`, 16+14*i, fill, escape(text)))
}

func escape(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(s)
}

// TrajectoryToSVG draws every series against times on a shared scale.
// Non-finite samples are skipped. It returns "" when no series has at
// least two drawable samples.
func TrajectoryToSVG(times []float64, series []Series, width, height int) string {
	b := newBounds()
	paths := make([][]point, len(series))
	drawable := false
	for i, s := range series {
		for j, v := range s.Values {
			if j >= len(times) || math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			paths[i] = append(paths[i], point{times[j], v})
			b.add(times[j], v)
		}
		if len(paths[i]) >= 2 {
			drawable = true
		}
	}
	if !drawable {
		return ""
	}
	b.pad()

	var sb strings.Builder
	header(&sb, width, height)
	for i, s := range series {
		if len(paths[i]) < 2 {
			continue
		}
		color := palette[i%len(palette)]
		path(&sb, paths[i], b, width, height, color)
		label(&sb, i, s.Name, color)
	}
	sb.WriteString("</svg>\n")
	return sb.String()
}

// PortraitToSVG draws a phase portrait as a single path.
func PortraitToSVG(portrait *analysis.PhasePortrait2D, width, height int) string {
	if portrait == nil || len(portrait.Points) < 2 {
		return ""
	}

	b := newBounds()
	points := make([]point, len(portrait.Points))
	for i, p := range portrait.Points {
		points[i] = point{p.X, p.Y}
		b.add(p.X, p.Y)
	}
	b.pad()

	var sb strings.Builder
	header(&sb, width, height)
	path(&sb, points, b, width, height, palette[0])
	label(&sb, 0, fmt.Sprintf("%s vs %s", portrait.YLabel, portrait.XLabel), palette[0])
	sb.WriteString("</svg>\n")
	return sb.String()
}
