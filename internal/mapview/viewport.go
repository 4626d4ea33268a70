// Package mapview is the interaction core of the trade map: viewport
// transform, selection, hit testing, animation and the per-frame draw list.
package mapview

import (
	"math"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/r2"
)

// Zoom bounds. Callers never observe a scale outside this range.
const (
	MinZoom = 0.5
	MaxZoom = 3.0
)

// Default surface size used before the real layout is known.
const (
	DefaultWidth  = 800
	DefaultHeight = 400
)

// ViewBox is the visible world-space rectangle.
type ViewBox struct {
	X, Y          float64
	Width, Height float64
}

// Rect converts the view box to an r2.Rect.
func (vb ViewBox) Rect() r2.Rect {
	return r2.Rect{
		X: r1.Interval{Lo: vb.X, Hi: vb.X + vb.Width},
		Y: r1.Interval{Lo: vb.Y, Hi: vb.Y + vb.Height},
	}
}

// Viewport holds pan and zoom over a width x height world. It starts with a
// default size and stays not-ready until SetLayout reports real dimensions.
type Viewport struct {
	width   float64
	height  float64
	panX    float64
	panY    float64
	zoom    float64
	laidOut bool
}

// NewViewport returns a viewport at pan 0,0 and zoom 1.
func NewViewport() Viewport {
	return Viewport{
		width:  DefaultWidth,
		height: DefaultHeight,
		zoom:   1,
	}
}

// SetLayout records measured container dimensions. Non-positive sizes leave
// the viewport not ready.
func (v *Viewport) SetLayout(width, height float64) {
	if width <= 0 || height <= 0 {
		v.width, v.height = 0, 0
		v.laidOut = false
		return
	}
	v.width = width
	v.height = height
	v.laidOut = true
}

// Ready reports whether real dimensions are known.
func (v Viewport) Ready() bool {
	return v.laidOut && v.width > 0 && v.height > 0
}

// Size returns the container dimensions.
func (v Viewport) Size() (width, height float64) {
	return v.width, v.height
}

// Offset returns the pan offset in world units.
func (v Viewport) Offset() r2.Point {
	return r2.Point{X: v.panX, Y: v.panY}
}

// Scale returns the current zoom scale.
func (v Viewport) Scale() float64 {
	return v.zoom
}

// Pan moves the view by a screen-space delta. Content follows the pointer,
// so the offset moves the opposite way, divided by the zoom scale.
// Deltas must not be NaN.
func (v *Viewport) Pan(dx, dy float64) {
	v.panX -= dx / v.zoom
	v.panY -= dy / v.zoom
}

// Zoom adds delta to the zoom scale, clamped to [MinZoom, MaxZoom].
func (v *Viewport) Zoom(delta float64) {
	v.zoom = clampZoom(v.zoom + delta)
}

// SetZoom sets the zoom scale, clamped to [MinZoom, MaxZoom].
func (v *Viewport) SetZoom(scale float64) {
	v.zoom = clampZoom(scale)
}

// ResetView restores pan 0,0 and zoom 1.
func (v *Viewport) ResetView() {
	v.panX, v.panY = 0, 0
	v.zoom = 1
}

// ComputeViewBox returns the visible world rectangle. Zoom is anchored at the
// centre of the container.
func (v Viewport) ComputeViewBox() ViewBox {
	w := v.width / v.zoom
	h := v.height / v.zoom
	return ViewBox{
		X:      v.panX + (v.width-w)/2,
		Y:      v.panY + (v.height-h)/2,
		Width:  w,
		Height: h,
	}
}

// ToScreen maps a world point into container pixels.
func (v Viewport) ToScreen(world r2.Point) r2.Point {
	vb := v.ComputeViewBox()
	return r2.Point{X: (world.X - vb.X) * v.zoom, Y: (world.Y - vb.Y) * v.zoom}
}

// ToWorld maps container pixels back into world space.
func (v Viewport) ToWorld(screen r2.Point) r2.Point {
	vb := v.ComputeViewBox()
	return r2.Point{X: screen.X/v.zoom + vb.X, Y: screen.Y/v.zoom + vb.Y}
}

// CenterOn pans so that world point p sits at the container centre.
func (v *Viewport) CenterOn(p r2.Point) {
	v.panX = p.X - v.width/2
	v.panY = p.Y - v.height/2
}

// Fit zooms and pans so rect fills the container with the given fractional
// margin. Zoom stays clamped, so very small or very large rects are only
// approximated.
func (v *Viewport) Fit(rect r2.Rect, margin float64) {
	if rect.IsEmpty() || v.width <= 0 || v.height <= 0 {
		return
	}
	size := rect.Size()
	pad := 1 + math.Max(margin, 0)

	scale := MaxZoom
	if size.X > 0 {
		scale = math.Min(scale, v.width/(size.X*pad))
	}
	if size.Y > 0 {
		scale = math.Min(scale, v.height/(size.Y*pad))
	}
	v.SetZoom(scale)
	v.CenterOn(rect.Center())
}

func clampZoom(z float64) float64 {
	if z < MinZoom {
		return MinZoom
	}
	if z > MaxZoom {
		return MaxZoom
	}
	return z
}
