package mapview

import (
	"math"
	"slices"
	"testing"
	"time"

	"github.com/golang/geo/r2"

	"github.com/litescript/ls-tradeflow/internal/catalog"
	"github.com/litescript/ls-tradeflow/internal/geo"
)

func defaultScene(t *testing.T) Scene {
	t.Helper()
	c, err := catalog.Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	return NewScene(c)
}

func itemsOfKind(dl DrawList, k ItemKind) []DrawItem {
	var out []DrawItem
	for _, it := range dl.Items {
		if it.Kind == k {
			out = append(out, it)
		}
	}
	return out
}

func ids(items []DrawItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestBuildArcEndpoints(t *testing.T) {
	a, b := r2.Point{X: 10, Y: 20}, r2.Point{X: 300, Y: 90}
	for _, risk := range []catalog.RiskLevel{catalog.RiskLow, catalog.RiskCritical} {
		c := BuildArc(a, b, risk)
		if c.PointAt(0) != a {
			t.Errorf("%v: PointAt(0) = %v, want %v", risk, c.PointAt(0), a)
		}
		end := c.PointAt(1)
		if math.Abs(end.X-b.X) > 1e-9 || math.Abs(end.Y-b.Y) > 1e-9 {
			t.Errorf("%v: PointAt(1) = %v, want %v", risk, end, b)
		}
	}
}

func TestCurvatureCriticalBowsFurther(t *testing.T) {
	a, b := r2.Point{X: 0, Y: 0}, r2.Point{X: 100, Y: 0}
	low := BuildArc(a, b, catalog.RiskLow).PointAt(0.5)
	crit := BuildArc(a, b, catalog.RiskCritical).PointAt(0.5)
	if math.Abs(crit.Y) <= math.Abs(low.Y) {
		t.Errorf("critical midpoint offset %v should exceed low %v", crit.Y, low.Y)
	}
	if Curvature(catalog.RiskHigh) != BaseCurvature {
		t.Errorf("Curvature(high) = %v, want %v", Curvature(catalog.RiskHigh), BaseCurvature)
	}
}

func TestRenderNotReady(t *testing.T) {
	s := defaultScene(t)
	dl := s.Render(NewViewport(), NewSelection(nil), NewAnimator(false))
	if !dl.Empty() {
		t.Errorf("draw list before layout has %d items, want 0", len(dl.Items))
	}
}

func TestRenderOrder(t *testing.T) {
	s := defaultScene(t)
	vp := readyViewport(800, 400)
	dl := s.Render(vp, NewSelection(nil), NewAnimator(false))

	if n := len(itemsOfKind(dl, ItemGraticule)); n != len(geo.Graticule()) {
		t.Errorf("graticule items = %d, want %d", n, len(geo.Graticule()))
	}

	routes := ids(itemsOfKind(dl, ItemRoute))
	want := []string{"route-2", "route-1", "route-4", "route-3", "route-6", "route-5"}
	if !slices.Equal(routes, want) {
		t.Errorf("route order = %v, want %v", routes, want)
	}

	markers := itemsOfKind(dl, ItemMarker)
	if len(markers) != len(s.Catalog.Chokepoints) {
		t.Errorf("markers = %d, want %d", len(markers), len(s.Catalog.Chokepoints))
	}

	// Markers follow every route in list order.
	lastRoute, firstMarker := -1, len(dl.Items)
	for i, it := range dl.Items {
		if it.Kind == ItemRoute {
			lastRoute = i
		}
		if it.Kind == ItemMarker && i < firstMarker {
			firstMarker = i
		}
	}
	if lastRoute > firstMarker {
		t.Errorf("route at %d drawn after first marker at %d", lastRoute, firstMarker)
	}
}

func TestPaintOrderLayers(t *testing.T) {
	s := defaultScene(t)
	dl := s.Render(readyViewport(800, 400), NewSelection(nil), NewAnimator(false))

	painted := dl.PaintOrder()
	if len(painted) != len(dl.Items) {
		t.Fatalf("PaintOrder len = %d, want %d", len(painted), len(dl.Items))
	}
	for i := 1; i < len(painted); i++ {
		if painted[i].Layer < painted[i-1].Layer {
			t.Fatalf("layer decreases at %d: %d after %d", i, painted[i].Layer, painted[i-1].Layer)
		}
	}
	if painted[0].Kind != ItemGraticule {
		t.Errorf("first painted = %v, want graticule", painted[0].Kind)
	}
	if painted[len(painted)-1].Kind != ItemMarker {
		t.Errorf("last painted = %v, want marker", painted[len(painted)-1].Kind)
	}

	var lastRoute DrawItem
	for _, it := range painted {
		if it.Kind == ItemRoute {
			lastRoute = it
		}
	}
	if lastRoute.Risk != catalog.RiskCritical {
		t.Errorf("topmost route risk = %v, want critical", lastRoute.Risk)
	}
	if dl.Items[0].Kind != ItemGraticule {
		t.Error("PaintOrder must not reorder the draw list itself")
	}
}

func TestRenderParticles(t *testing.T) {
	s := defaultScene(t)
	vp := readyViewport(800, 400)

	anim := NewAnimator(false)
	anim.Tick()
	dl := s.Render(vp, NewSelection(nil), anim)
	particles := itemsOfKind(dl, ItemParticle)
	if len(particles) != len(s.Catalog.Routes) || dl.Particles != len(particles) {
		t.Errorf("particles = %d (count %d), want %d", len(particles), dl.Particles, len(s.Catalog.Routes))
	}

	// Each particle directly follows its route.
	for i, it := range dl.Items {
		if it.Kind != ItemParticle {
			continue
		}
		prev := dl.Items[i-1]
		if prev.Kind != ItemRoute || prev.ID != it.ID {
			t.Errorf("particle %s follows %v %s", it.ID, prev.Kind, prev.ID)
		}
		if want := prev.Curve.PointAt(anim.Progress()); it.Center != want {
			t.Errorf("particle %s at %v, want %v", it.ID, it.Center, want)
		}
	}
}

func TestRenderDisabledAnimatorHasNoParticles(t *testing.T) {
	s := defaultScene(t)
	vp := readyViewport(800, 400)
	sel := NewSelection(nil)
	sel.Click("route-2", false)
	sel.SetHover("route-5")

	dl := s.Render(vp, sel, NewAnimator(true))
	if n := len(itemsOfKind(dl, ItemParticle)); n != 0 || dl.Particles != 0 {
		t.Errorf("particles = %d, want 0 under reduced motion", n)
	}
}

func TestRenderParticleCap(t *testing.T) {
	s := NewScene(&catalog.Catalog{Routes: criticalRoutes(25)})
	dl := s.Render(readyViewport(800, 400), NewSelection(nil), NewAnimator(false))

	got := ids(itemsOfKind(dl, ItemParticle))
	if len(got) != DefaultAnimationCap {
		t.Fatalf("particles = %d, want %d", len(got), DefaultAnimationCap)
	}
	for i, id := range got {
		if want := s.Catalog.Routes[i].ID; id != want {
			t.Errorf("particle %d = %s, want %s", i, id, want)
		}
	}
}

func TestRenderSelectionStyling(t *testing.T) {
	s := defaultScene(t)
	sel := NewSelection(nil)
	sel.Click("route-1", false)

	dl := s.Render(readyViewport(800, 400), sel, NewAnimator(true))
	for _, it := range itemsOfKind(dl, ItemRoute) {
		if it.ID == "route-1" {
			if !it.Selected || it.Paint.Color != SelectedColor {
				t.Errorf("route-1 selected = %v paint = %v", it.Selected, it.Paint.Hex())
			}
			continue
		}
		if it.Selected {
			t.Errorf("%s marked selected", it.ID)
		}
		if it.Paint.Color == RiskColor(it.Risk) {
			t.Errorf("%s not dimmed while another route is selected", it.ID)
		}
	}
}

func TestRenderEmphasizedChokepoints(t *testing.T) {
	s := defaultScene(t)
	s.Emphasized = []string{"cp-4"}
	dl := s.Render(readyViewport(800, 400), NewSelection(nil), NewAnimator(true))
	for _, it := range itemsOfKind(dl, ItemMarker) {
		if it.ID == "cp-4" && !it.Glow {
			t.Error("emphasized cp-4 should glow")
		}
	}
}

type frameRecorder struct {
	frames          int
	items, particle int
}

func (f *frameRecorder) ObserveFrame(_ time.Duration, items, particles int) {
	f.frames++
	f.items = items
	f.particle = particles
}

func TestRenderObserver(t *testing.T) {
	s := defaultScene(t)
	rec := &frameRecorder{}
	s.Observer = rec

	s.Render(NewViewport(), NewSelection(nil), NewAnimator(false))
	if rec.frames != 0 {
		t.Error("observer called for a frame that was not drawn")
	}

	dl := s.Render(readyViewport(800, 400), NewSelection(nil), NewAnimator(false))
	if rec.frames != 1 || rec.items != len(dl.Items) || rec.particle != dl.Particles {
		t.Errorf("observer = %+v, want 1 frame with %d items", rec, len(dl.Items))
	}
}

func TestPickRoute(t *testing.T) {
	s := defaultScene(t)
	vp := readyViewport(800, 400)
	r1, _ := s.Catalog.Route("route-1")
	singapore := s.Projection.Project(r1.Origin.GeoPoint, 800, 400)
	london := s.Projection.Project(r1.Destination.GeoPoint, 800, 400)

	if id, ok := s.PickRoute(vp, singapore, DefaultRouteHitRadius); !ok || id != "route-1" {
		t.Errorf("pick at origin = %q,%v, want route-1", id, ok)
	}
	if id, ok := s.PickRoute(vp, london, DefaultRouteHitRadius); !ok || id != "route-1" {
		t.Errorf("pick at destination = %q,%v, want route-1", id, ok)
	}

	mid := s.RouteArc(r1, vp).PointAt(0.5)
	if id, ok := s.PickRoute(vp, mid, DefaultRouteHitRadius); ok {
		t.Errorf("pick at arc middle = %q, want miss", id)
	}

	vp.SetZoom(2)
	vp.Pan(120, -40)
	screen := vp.ToScreen(singapore)
	if id, ok := s.PickRoute(vp, screen, DefaultRouteHitRadius); !ok || id != "route-1" {
		t.Errorf("pick after pan/zoom = %q,%v, want route-1", id, ok)
	}

	if _, ok := s.PickRoute(NewViewport(), singapore, DefaultRouteHitRadius); ok {
		t.Error("pick before layout should miss")
	}
}

func TestPickChokepoint(t *testing.T) {
	s := defaultScene(t)
	vp := readyViewport(800, 400)
	r1, _ := s.Catalog.Route("route-1")
	singapore := s.Projection.Project(r1.Origin.GeoPoint, 800, 400)

	// Malacca sits next to the Singapore endpoint.
	if id, ok := s.PickChokepoint(vp, singapore, DefaultChokepointHitRadius); !ok || id != "cp-2" {
		t.Errorf("chokepoint pick = %q,%v, want cp-2", id, ok)
	}
}

func TestSelectionBounds(t *testing.T) {
	s := defaultScene(t)
	vp := readyViewport(800, 400)
	sel := NewSelection(nil)

	if _, ok := s.SelectionBounds(vp, sel); ok {
		t.Error("empty selection should have no bounds")
	}

	sel.Click("route-4", false)
	rect, ok := s.SelectionBounds(vp, sel)
	if !ok {
		t.Fatal("bounds missing for route-4")
	}
	r4, _ := s.Catalog.Route("route-4")
	for _, p := range []geo.GeoPoint{r4.Origin.GeoPoint, r4.Destination.GeoPoint} {
		if !rect.ContainsPoint(s.Projection.Project(p, 800, 400)) {
			t.Errorf("bounds %v miss endpoint %v", rect, p)
		}
	}
}
