// Package render paints mapview draw lists onto output surfaces: a braille
// canvas for the terminal and SVG for files.
package render

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/golang/geo/r2"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/litescript/ls-tradeflow/internal/mapview"
)

// Each braille cell is a 2x4 dot grid:
//
//	0 3
//	1 4
//	2 5
//	6 7
//
// The glyph is 0x2800 plus the raised dot bits.
const brailleBase = 0x2800

var brailleBits = [4][2]uint8{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

// Dot resolution of one terminal cell.
const (
	DotsPerCellX = 2
	DotsPerCellY = 4
)

type cell struct {
	dots  uint8
	color colorful.Color
	bold  bool
	set   bool
}

// Canvas is a braille dot buffer with one colour per cell. The most recent
// write to a cell decides its colour, so callers paint back to front.
type Canvas struct {
	cols, rows int
	cells      []cell
}

// NewCanvas returns an empty canvas of cols x rows terminal cells.
func NewCanvas(cols, rows int) *Canvas {
	if cols < 0 {
		cols = 0
	}
	if rows < 0 {
		rows = 0
	}
	return &Canvas{cols: cols, rows: rows, cells: make([]cell, cols*rows)}
}

// Size returns the canvas size in cells.
func (c *Canvas) Size() (cols, rows int) {
	return c.cols, c.rows
}

// DotSize returns the canvas size in dots.
func (c *Canvas) DotSize() (w, h int) {
	return c.cols * DotsPerCellX, c.rows * DotsPerCellY
}

// Set raises the dot at (x, y). Out-of-range dots are ignored.
func (c *Canvas) Set(x, y int, col colorful.Color, bold bool) {
	if x < 0 || y < 0 {
		return
	}
	cx, cy := x/DotsPerCellX, y/DotsPerCellY
	if cx >= c.cols || cy >= c.rows {
		return
	}
	ce := &c.cells[cy*c.cols+cx]
	ce.dots |= brailleBits[y%DotsPerCellY][x%DotsPerCellX]
	ce.color = col
	ce.bold = bold
	ce.set = true
}

// Line draws a Bresenham line. dash alternates on/off run lengths in dots;
// nil draws solid.
func (c *Canvas) Line(x0, y0, x1, y1 int, dash []int, col colorful.Color, bold bool) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 >= x1 {
		sx = -1
	}
	if y0 >= y1 {
		sy = -1
	}
	err := dx + dy

	seg, run := 0, 0
	for {
		on := true
		if len(dash) > 0 {
			on = seg%2 == 0
		}
		if on {
			c.Set(x0, y0, col, bold)
		}
		if x0 == x1 && y0 == y1 {
			break
		}
		if len(dash) > 0 {
			run++
			if run >= dash[seg%len(dash)] {
				seg++
				run = 0
			}
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// Disc fills a circle of radius r dots.
func (c *Canvas) Disc(cx, cy int, r float64, col colorful.Color, bold bool) {
	ri := int(math.Ceil(r))
	for y := -ri; y <= ri; y++ {
		for x := -ri; x <= ri; x++ {
			if float64(x*x+y*y) <= r*r {
				c.Set(cx+x, cy+y, col, bold)
			}
		}
	}
}

// Ring outlines a circle of radius r dots.
func (c *Canvas) Ring(cx, cy int, r float64, col colorful.Color) {
	if r <= 0 {
		return
	}
	n := int(math.Max(8, math.Ceil(2*math.Pi*r)))
	for i := 0; i < n; i++ {
		a := 2 * math.Pi * float64(i) / float64(n)
		c.Set(cx+int(math.Round(r*math.Cos(a))), cy+int(math.Round(r*math.Sin(a))), col, false)
	}
}

// Plain returns the canvas as braille glyphs without colour.
func (c *Canvas) Plain() string {
	var sb strings.Builder
	for y := 0; y < c.rows; y++ {
		if y > 0 {
			sb.WriteByte('\n')
		}
		for x := 0; x < c.cols; x++ {
			sb.WriteRune(c.glyph(c.cells[y*c.cols+x]))
		}
	}
	return sb.String()
}

// String renders the canvas with one lipgloss style per run of same-coloured
// cells.
func (c *Canvas) String() string {
	var sb strings.Builder
	for y := 0; y < c.rows; y++ {
		if y > 0 {
			sb.WriteByte('\n')
		}
		var run strings.Builder
		var runCell cell
		flush := func() {
			if run.Len() == 0 {
				return
			}
			if runCell.set {
				style := lipgloss.NewStyle().
					Foreground(lipgloss.Color(runCell.color.Clamped().Hex())).
					Bold(runCell.bold)
				sb.WriteString(style.Render(run.String()))
			} else {
				sb.WriteString(run.String())
			}
			run.Reset()
		}
		for x := 0; x < c.cols; x++ {
			ce := c.cells[y*c.cols+x]
			if run.Len() > 0 && !sameStyle(ce, runCell) {
				flush()
			}
			if run.Len() == 0 {
				runCell = ce
			}
			run.WriteRune(c.glyph(ce))
		}
		flush()
	}
	return sb.String()
}

func (c *Canvas) glyph(ce cell) rune {
	if ce.dots == 0 {
		return ' '
	}
	return rune(brailleBase + int(ce.dots))
}

func sameStyle(a, b cell) bool {
	if a.set != b.set {
		return false
	}
	return !a.set || (a.color == b.color && a.bold == b.bold)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// opaque composites p over the map background.
func opaque(p mapview.Paint) colorful.Color {
	a := math.Min(math.Max(p.Alpha, 0), 1)
	return mapview.Background.BlendRgb(p.Color, a)
}

// Braille paints a draw list onto a cols x rows canvas. Container pixels are
// scaled onto the dot grid, so a viewport laid out at the canvas dot size
// maps one pixel to one dot.
func Braille(dl mapview.DrawList, vp mapview.Viewport, cols, rows int) *Canvas {
	c := NewCanvas(cols, rows)
	if dl.Empty() || dl.Width <= 0 || dl.Height <= 0 {
		return c
	}
	dw, dh := c.DotSize()
	kx, ky := float64(dw)/dl.Width, float64(dh)/dl.Height
	zoom := vp.Scale()
	toDot := func(world r2.Point) (int, int) {
		s := vp.ToScreen(world)
		return int(math.Round(s.X * kx)), int(math.Round(s.Y * ky))
	}
	k := math.Min(kx, ky) * zoom

	for _, it := range dl.PaintOrder() {
		col := opaque(it.Paint)
		switch it.Kind {
		case mapview.ItemGraticule, mapview.ItemRoute:
			dash := dotDash(it.Dash, k)
			bold := it.Selected || it.Hovered
			pts := it.Curve.FlattenAdaptive(4 / math.Max(k, 1e-9))
			for i := 1; i < len(pts); i++ {
				x0, y0 := toDot(pts[i-1])
				x1, y1 := toDot(pts[i])
				c.Line(x0, y0, x1, y1, dash, col, bold)
				if it.Width*k >= 3 {
					c.Line(x0, y0+1, x1, y1+1, dash, col, bold)
				}
			}
		case mapview.ItemParticle:
			x, y := toDot(it.Center)
			c.Disc(x, y, math.Max(it.Radius*k/2, 0.5), col, true)
		case mapview.ItemMarker:
			x, y := toDot(it.Center)
			c.Disc(x, y, math.Max(it.Radius*k/2, 1), col, it.Glow)
			if it.Hovered {
				c.Ring(x, y, math.Max(it.Ring*k/2, 2), mapview.RingColor)
			}
		}
	}
	return c
}

// dotDash converts a pixel dash pattern into dot run lengths.
func dotDash(dash []float64, k float64) []int {
	if len(dash) == 0 {
		return nil
	}
	out := make([]int, len(dash))
	for i, d := range dash {
		out[i] = max(1, int(math.Round(d*k/2)))
	}
	return out
}
