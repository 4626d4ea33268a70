package mapview

import (
	"slices"
	"sort"
	"time"

	"github.com/golang/geo/r2"

	"github.com/litescript/ls-tradeflow/internal/catalog"
	"github.com/litescript/ls-tradeflow/internal/geo"
)

// Arc curvature constants. Critical routes bow further for emphasis.
const (
	BaseCurvature     = 0.3
	CriticalCurvature = BaseCurvature + 0.1
)

// Curvature returns the arc curvature for a risk level.
func Curvature(r catalog.RiskLevel) float64 {
	if r == catalog.RiskCritical {
		return CriticalCurvature
	}
	return BaseCurvature
}

// BuildArc returns the curve drawn between two projected endpoints.
func BuildArc(origin, dest r2.Point, risk catalog.RiskLevel) geo.Curve {
	return geo.NewArc(origin, dest, Curvature(risk))
}

// ItemKind is the primitive type of a draw item.
type ItemKind int

const (
	ItemGraticule ItemKind = iota
	ItemRoute
	ItemParticle
	ItemMarker
)

func (k ItemKind) String() string {
	switch k {
	case ItemGraticule:
		return "graticule"
	case ItemRoute:
		return "route"
	case ItemParticle:
		return "particle"
	case ItemMarker:
		return "marker"
	default:
		return "unknown"
	}
}

// DrawItem is one primitive in world coordinates.
type DrawItem struct {
	Kind ItemKind
	ID   string

	// Curve is set for graticule lines and routes.
	Curve geo.Curve
	Width float64
	Dash  []float64

	// Center and Radius are set for particles and markers.
	Center r2.Point
	Radius float64
	Ring   float64
	Glow   bool

	Paint    Paint
	Risk     catalog.RiskLevel
	Selected bool
	Hovered  bool

	// Layer orders painting: higher layers draw over lower ones.
	Layer int
}

// Paint layers. Routes use layerRoutes plus their risk severity.
const (
	layerGraticule = 0
	layerRoutes    = 1
	layerMarkers   = layerRoutes + catalog.NumRiskLevels + 1
)

// DrawList is the output of one render pass.
type DrawList struct {
	Width, Height float64
	ViewBox       ViewBox
	Items         []DrawItem
	Particles     int
}

// Empty reports whether nothing should be drawn.
func (dl DrawList) Empty() bool {
	return len(dl.Items) == 0
}

// PaintOrder returns the items sorted back to front by Layer, keeping list
// order within a layer.
func (dl DrawList) PaintOrder() []DrawItem {
	items := slices.Clone(dl.Items)
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Layer < items[j].Layer
	})
	return items
}

// FrameObserver receives per-frame statistics.
type FrameObserver interface {
	ObserveFrame(d time.Duration, items, particles int)
}

// Scene turns the catalog plus interaction state into draw lists.
type Scene struct {
	Catalog    *catalog.Catalog
	Projection geo.Projection
	Policy     EligibilityPolicy

	// Emphasized marks chokepoints highlighted by the active scenario.
	Emphasized []string

	// Observer, if set, is told about every rendered frame.
	Observer FrameObserver
}

// NewScene returns a scene with the default projection and policy.
func NewScene(c *catalog.Catalog) Scene {
	return Scene{
		Catalog:    c,
		Projection: geo.Equirectangular,
		Policy:     DefaultEligibility(),
	}
}

func (s Scene) project(p geo.GeoPoint, vp Viewport) r2.Point {
	w, h := vp.Size()
	return s.Projection.Project(p, w, h)
}

// RouteArc returns the world-space arc for a route.
func (s Scene) RouteArc(r catalog.TradeRoute, vp Viewport) geo.Curve {
	return BuildArc(s.project(r.Origin.GeoPoint, vp), s.project(r.Destination.GeoPoint, vp), r.Risk)
}

// severityOrder returns route indexes sorted critical first, stable within a
// level.
func severityOrder(routes []catalog.TradeRoute) []int {
	idx := make([]int, len(routes))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return routes[idx[a]].Risk > routes[idx[b]].Risk
	})
	return idx
}

// Render builds the draw list for one frame. Nothing is drawn before the
// viewport has a real layout. Items are listed graticule first, then routes
// critical first (each followed by its particle when animated), then
// chokepoints. Layer lets surfaces paint critical routes above lower-risk
// routes and markers above every route.
func (s Scene) Render(vp Viewport, sel Selection, anim Animator) DrawList {
	start := time.Now()
	w, h := vp.Size()
	dl := DrawList{Width: w, Height: h, ViewBox: vp.ComputeViewBox()}
	if !vp.Ready() || s.Catalog == nil {
		return dl
	}

	for _, seg := range geo.Graticule() {
		a, b := s.project(seg.From, vp), s.project(seg.To, vp)
		dl.Items = append(dl.Items, DrawItem{
			Kind:  ItemGraticule,
			Curve: geo.NewArc(a, b, 0),
			Width: 1,
			Dash:  []float64{5, 5},
			Paint: Paint{Color: GraticuleColor, Alpha: 0.2},
			Layer: layerGraticule,
		})
	}

	routes := s.Catalog.Routes
	var eligible map[string]bool
	if anim.Enabled() {
		eligible = s.Policy.Eligible(routes, sel)
	}
	dimmed := sel.Len() > 0

	for _, i := range severityOrder(routes) {
		r := routes[i]
		selected := sel.IsSelected(r.ID)
		hovered := sel.Hovered() == r.ID || sel.Focused() == r.ID
		stroke := RouteStroke(r, selected, hovered, dimmed)
		arc := s.RouteArc(r, vp)
		layer := layerRoutes + int(r.Risk)

		dl.Items = append(dl.Items, DrawItem{
			Kind:     ItemRoute,
			ID:       r.ID,
			Curve:    arc,
			Width:    stroke.Width,
			Dash:     stroke.Dash,
			Paint:    stroke.Paint,
			Risk:     r.Risk,
			Selected: selected,
			Hovered:  hovered,
			Layer:    layer,
		})

		if eligible[r.ID] {
			paint, radius := ParticlePaint(r, selected)
			dl.Items = append(dl.Items, DrawItem{
				Kind:     ItemParticle,
				ID:       r.ID,
				Center:   arc.PointAt(anim.Progress()),
				Radius:   radius,
				Paint:    paint,
				Risk:     r.Risk,
				Selected: selected,
				Layer:    layer,
			})
			dl.Particles++
		}
	}

	for _, cp := range s.Catalog.Chokepoints {
		hovered := sel.Hovered() == cp.ID || sel.Focused() == cp.ID
		m := ChokepointMarker(cp, hovered, slices.Contains(s.Emphasized, cp.ID))
		dl.Items = append(dl.Items, DrawItem{
			Kind:    ItemMarker,
			ID:      cp.ID,
			Center:  s.project(cp.Location, vp),
			Radius:  m.Radius,
			Ring:    m.Ring,
			Glow:    m.Glow,
			Paint:   m.Paint,
			Risk:    cp.Risk,
			Hovered: hovered,
			Layer:   layerMarkers,
		})
	}

	if s.Observer != nil {
		s.Observer.ObserveFrame(time.Since(start), len(dl.Items), dl.Particles)
	}
	return dl
}

// RouteHitboxes returns pick regions at each route's endpoints, in catalog
// order.
func (s Scene) RouteHitboxes(vp Viewport) []Hitbox {
	if s.Catalog == nil {
		return nil
	}
	boxes := make([]Hitbox, 0, len(s.Catalog.Routes))
	for _, r := range s.Catalog.Routes {
		boxes = append(boxes, Hitbox{
			ID:   r.ID,
			Kind: EntityRoute,
			Anchors: []r2.Point{
				s.project(r.Origin.GeoPoint, vp),
				s.project(r.Destination.GeoPoint, vp),
			},
		})
	}
	return boxes
}

// ChokepointHitboxes returns pick regions at each chokepoint, in catalog
// order.
func (s Scene) ChokepointHitboxes(vp Viewport) []Hitbox {
	if s.Catalog == nil {
		return nil
	}
	boxes := make([]Hitbox, 0, len(s.Catalog.Chokepoints))
	for _, cp := range s.Catalog.Chokepoints {
		boxes = append(boxes, Hitbox{
			ID:      cp.ID,
			Kind:    EntityChokepoint,
			Anchors: []r2.Point{s.project(cp.Location, vp)},
		})
	}
	return boxes
}

// PickRoute hit-tests a screen position against route endpoints. radius is
// in screen pixels.
func (s Scene) PickRoute(vp Viewport, screen r2.Point, radius float64) (string, bool) {
	if !vp.Ready() {
		return "", false
	}
	return HitTest(vp.ToWorld(screen), s.RouteHitboxes(vp), radius/vp.Scale())
}

// PickChokepoint hit-tests a screen position against chokepoint markers.
func (s Scene) PickChokepoint(vp Viewport, screen r2.Point, radius float64) (string, bool) {
	if !vp.Ready() {
		return "", false
	}
	return HitTest(vp.ToWorld(screen), s.ChokepointHitboxes(vp), radius/vp.Scale())
}

// SelectionBounds returns the world rectangle around the endpoints of the
// selected routes.
func (s Scene) SelectionBounds(vp Viewport, sel Selection) (r2.Rect, bool) {
	if s.Catalog == nil || sel.Len() == 0 {
		return r2.EmptyRect(), false
	}
	rect := r2.EmptyRect()
	for _, id := range sel.Selected() {
		r, ok := s.Catalog.Route(id)
		if !ok {
			continue
		}
		rect = rect.AddPoint(s.project(r.Origin.GeoPoint, vp))
		rect = rect.AddPoint(s.project(r.Destination.GeoPoint, vp))
	}
	if rect.IsEmpty() {
		return rect, false
	}
	return rect, true
}
