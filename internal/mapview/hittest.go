package mapview

import "github.com/golang/geo/r2"

// Default pick radii in screen pixels.
const (
	DefaultRouteHitRadius      = 20
	DefaultChokepointHitRadius = 15
)

// EntityKind distinguishes hit targets.
type EntityKind int

const (
	EntityRoute EntityKind = iota
	EntityChokepoint
)

// Hitbox is the pickable region of one entity: discs around its anchors.
// Routes anchor at their projected endpoints only, so clicking the middle of
// an arc selects nothing.
type Hitbox struct {
	ID      string
	Kind    EntityKind
	Anchors []r2.Point
}

// HitTest returns the first hitbox, in slice order, with an anchor strictly
// closer than radius to p. There is no nearest-wins tie-break.
func HitTest(p r2.Point, boxes []Hitbox, radius float64) (string, bool) {
	r2max := radius * radius
	for _, b := range boxes {
		for _, a := range b.Anchors {
			d := p.Sub(a)
			if d.Dot(d) < r2max {
				return b.ID, true
			}
		}
	}
	return "", false
}
