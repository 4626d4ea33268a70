package geo

import (
	"math"

	"github.com/golang/geo/r2"
	geom "github.com/peterstace/simplefeatures/geom"
)

// Curve is a quadratic Bézier segment from P0 to P1 bent towards Ctrl.
type Curve struct {
	P0   r2.Point
	Ctrl r2.Point
	P1   r2.Point
}

// NewArc bows a curve away from the straight line origin→dest. The control
// point sits at the midpoint offset by the chord rotated 90° and scaled by
// curvature.
func NewArc(origin, dest r2.Point, curvature float64) Curve {
	mid := origin.Add(dest).Mul(0.5)
	chord := dest.Sub(origin)
	return Curve{
		P0:   origin,
		Ctrl: mid.Add(chord.Ortho().Mul(curvature)),
		P1:   dest,
	}
}

// PointAt evaluates the curve at parameter t using the Bernstein form.
func (c Curve) PointAt(t float64) r2.Point {
	u := 1 - t
	return c.P0.Mul(u * u).Add(c.Ctrl.Mul(2 * u * t)).Add(c.P1.Mul(t * t))
}

// Flatten samples the curve into n+1 evenly spaced parameter steps.
func (c Curve) Flatten(n int) []r2.Point {
	if n < 1 {
		n = 1
	}
	pts := make([]r2.Point, n+1)
	for i := 0; i <= n; i++ {
		pts[i] = c.PointAt(float64(i) / float64(n))
	}
	return pts
}

const (
	minFlattenSteps = 2
	maxFlattenSteps = 256
)

// FlattenAdaptive picks a step count so no segment is much longer than
// maxSegment (in the curve's own units).
func (c Curve) FlattenAdaptive(maxSegment float64) []r2.Point {
	if maxSegment <= 0 {
		return c.Flatten(maxFlattenSteps)
	}
	n := int(math.Ceil(PathLength([]r2.Point{c.P0, c.Ctrl, c.P1}) / maxSegment))
	if n < minFlattenSteps {
		n = minFlattenSteps
	}
	if n > maxFlattenSteps {
		n = maxFlattenSteps
	}
	return c.Flatten(n)
}

// Length approximates the arc length from a fine polyline.
func (c Curve) Length() float64 {
	return PathLength(c.Flatten(64))
}

// PathLength returns the length of the polyline through pts.
func PathLength(pts []r2.Point) float64 {
	if len(pts) < 2 {
		return 0
	}
	flat := make([]float64, 0, 2*len(pts))
	for _, p := range pts {
		flat = append(flat, p.X, p.Y)
	}
	// Fewer than two distinct points is rejected and has no length.
	ls, err := geom.NewLineString(geom.NewSequence(flat, geom.DimXY))
	if err != nil {
		return 0
	}
	return ls.Length()
}

// Segment is a straight geographic line, used for graticule lines.
type Segment struct {
	From GeoPoint
	To   GeoPoint
}

// Graticule returns parallels every 30° between ±60° and meridians every 60°
// spanning the same latitude band.
func Graticule() []Segment {
	var segs []Segment
	for lat := -60.0; lat <= 60; lat += 30 {
		segs = append(segs, Segment{
			From: GeoPoint{Lat: lat, Lng: -180},
			To:   GeoPoint{Lat: lat, Lng: 180},
		})
	}
	for lng := -180.0; lng <= 180; lng += 60 {
		segs = append(segs, Segment{
			From: GeoPoint{Lat: -60, Lng: lng},
			To:   GeoPoint{Lat: 60, Lng: lng},
		})
	}
	return segs
}
