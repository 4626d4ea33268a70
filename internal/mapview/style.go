package mapview

import (
	"fmt"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/litescript/ls-tradeflow/internal/catalog"
)

// Paint is a colour with opacity.
type Paint struct {
	Color colorful.Color
	Alpha float64
}

// Hex returns the colour as #rrggbb, ignoring alpha.
func (p Paint) Hex() string {
	return p.Color.Clamped().Hex()
}

// RGBA returns a CSS rgba() string.
func (p Paint) RGBA() string {
	r, g, b := p.Color.Clamped().RGB255()
	return fmt.Sprintf("rgba(%d,%d,%d,%.2f)", r, g, b, p.Alpha)
}

// Toward blends the colour towards other by t in [0,1].
func (p Paint) Toward(other colorful.Color, t float64) Paint {
	return Paint{Color: p.Color.BlendRgb(other, t), Alpha: p.Alpha}
}

func rgb(r, g, b uint8) colorful.Color {
	return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
}

// riskPalette is indexed by catalog.RiskLevel and sized by NumRiskLevels.
var riskPalette = [catalog.NumRiskLevels]colorful.Color{
	catalog.RiskLow:      rgb(100, 255, 150),
	catalog.RiskMedium:   rgb(255, 200, 100),
	catalog.RiskHigh:     rgb(255, 150, 100),
	catalog.RiskCritical: rgb(255, 100, 100),
}

var (
	// SelectedColor marks selected routes and their particles.
	SelectedColor = rgb(150, 200, 255)

	// GraticuleColor is the faint grid colour.
	GraticuleColor = rgb(100, 150, 255)

	// Background is the map backdrop used for dimming.
	Background = rgb(11, 16, 32)

	// RingColor outlines chokepoint markers.
	RingColor = rgb(255, 255, 255)
)

// RiskColor returns the palette colour for a risk level. Unknown levels use
// the critical colour so they stand out.
func RiskColor(r catalog.RiskLevel) colorful.Color {
	if !r.Valid() {
		return riskPalette[catalog.RiskCritical]
	}
	return riskPalette[r]
}

// Stroke describes how a route curve is drawn.
type Stroke struct {
	Paint Paint
	Width float64
	Dash  []float64
}

// Dash patterns per route status.
var (
	dashDisrupted = []float64{10, 5}
	dashAtRisk    = []float64{6, 4}
)

func statusDash(s catalog.Status) []float64 {
	switch s {
	case catalog.StatusActive:
		return nil
	case catalog.StatusAtRisk:
		return dashAtRisk
	case catalog.StatusDisrupted:
		return dashDisrupted
	default:
		return nil
	}
}

func routeAlpha(r catalog.RiskLevel) float64 {
	switch r {
	case catalog.RiskCritical:
		return 0.8
	case catalog.RiskLow, catalog.RiskMedium, catalog.RiskHigh:
		return 0.6
	default:
		return 0.8
	}
}

// volumeWidth adds up to one pixel for the largest lanes.
func volumeWidth(volume float64) float64 {
	return math.Min(math.Max(volume, 0)/600, 1)
}

// RouteStroke styles a route. dimmed is set when another route is selected.
func RouteStroke(r catalog.TradeRoute, selected, hovered, dimmed bool) Stroke {
	st := Stroke{
		Paint: Paint{Color: RiskColor(r.Risk), Alpha: routeAlpha(r.Risk)},
		Width: 1.5,
		Dash:  statusDash(r.Status),
	}

	switch {
	case selected:
		st.Paint = Paint{Color: SelectedColor, Alpha: 1}
		st.Width = 3
	case r.Status == catalog.StatusDisrupted:
		st.Width = 2
	}
	st.Width += volumeWidth(r.Volume)

	if hovered {
		st.Width += 0.5
		st.Paint.Alpha = math.Min(1, st.Paint.Alpha+0.2)
	}
	if dimmed && !selected && !hovered {
		st.Paint = st.Paint.Toward(Background, 0.5)
	}
	return st
}

// ParticlePaint styles the flow marker travelling along a route.
func ParticlePaint(r catalog.TradeRoute, selected bool) (Paint, float64) {
	if selected {
		return Paint{Color: SelectedColor, Alpha: 0.9}, 4
	}
	return Paint{Color: RiskColor(r.Risk), Alpha: routeAlpha(r.Risk)}, 3
}

// GlowIncidentThreshold is the incident count at which markers glow.
const GlowIncidentThreshold = 5

// GlowBlur is the blur radius used for glowing markers.
const GlowBlur = 15

// Marker describes how a chokepoint is drawn.
type Marker struct {
	Paint  Paint
	Radius float64
	Ring   float64
	Glow   bool
}

// ChokepointMarker styles a chokepoint. emphasized is set for chokepoints
// named by the active scenario.
func ChokepointMarker(cp catalog.Chokepoint, hovered, emphasized bool) Marker {
	alpha := 0.8
	if cp.Risk == catalog.RiskCritical {
		alpha = 1
	}
	m := Marker{
		Paint:  Paint{Color: RiskColor(cp.Risk), Alpha: alpha},
		Radius: 6 + math.Max(cp.Throughput, 0)/10,
	}
	if hovered {
		m.Radius += 2
	}
	m.Ring = m.Radius + 2
	m.Glow = cp.Risk == catalog.RiskCritical || hovered || emphasized || cp.Incidents >= GlowIncidentThreshold
	return m
}
