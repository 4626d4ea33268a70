package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/golang/geo/r2"

	"github.com/litescript/ls-tradeflow/internal/catalog"
	"github.com/litescript/ls-tradeflow/internal/geo"
	"github.com/litescript/ls-tradeflow/internal/mapview"
	"github.com/litescript/ls-tradeflow/internal/render"
	"github.com/litescript/ls-tradeflow/internal/state"
)

// Interaction step sizes.
const (
	wheelZoomStep = 0.1
	keyZoomStep   = 0.25
	keyPanCells   = 8
	fitMargin     = 0.2

	// Rows under the canvas: info line, legend, help.
	mapFooterRows = 3
)

// Options configures the map view.
type Options struct {
	Projection          geo.Projection
	Policy              mapview.EligibilityPolicy
	RouteHitRadius      float64
	ChokepointHitRadius float64
	ReducedMotion       bool

	// Observer receives render statistics for each drawn frame.
	Observer mapview.FrameObserver

	// OnRouteSelect is called when the single-selected route changes.
	OnRouteSelect func(routeID string)

	// OnMotionChange is called when the motion key toggles animation, so
	// the host can start or stop frame ticks.
	OnMotionChange func(enabled bool)
}

// DefaultOptions returns map options with the standard hit radii and
// animation policy.
func DefaultOptions() Options {
	return Options{
		Projection:          geo.Equirectangular,
		Policy:              mapview.DefaultEligibility(),
		RouteHitRadius:      20,
		ChokepointHitRadius: 15,
	}
}

type mapKeyMap struct {
	ZoomIn  key.Binding
	ZoomOut key.Binding
	Up      key.Binding
	Down    key.Binding
	Left    key.Binding
	Right   key.Binding
	Reset   key.Binding
	Clear   key.Binding
	Fit     key.Binding
	Motion  key.Binding
	Next    key.Binding
	Prev    key.Binding
	Select  key.Binding
	Toggle  key.Binding
	Help    key.Binding
}

func defaultMapKeys() mapKeyMap {
	return mapKeyMap{
		ZoomIn:  key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+/-", "zoom")),
		ZoomOut: key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "zoom out")),
		Up:      key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "pan up")),
		Down:    key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "pan down")),
		Left:    key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "pan left")),
		Right:   key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "pan right")),
		Reset:   key.NewBinding(key.WithKeys("r", "0"), key.WithHelp("r", "reset")),
		Clear:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear")),
		Fit:     key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "fit")),
		Motion:  key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "motion")),
		Next:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n/N", "focus")),
		Prev:    key.NewBinding(key.WithKeys("N"), key.WithHelp("N", "focus prev")),
		Select:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		Toggle:  key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "add/remove")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
	}
}

// ShortHelp implements help.KeyMap.
func (k mapKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.ZoomIn, k.Next, k.Select, k.Fit, k.Reset, k.Motion, k.Clear, k.Help}
}

// FullHelp implements help.KeyMap.
func (k mapKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.ZoomIn, k.ZoomOut, k.Reset, k.Fit},
		{k.Up, k.Down, k.Left, k.Right},
		{k.Next, k.Prev, k.Select, k.Toggle},
		{k.Clear, k.Motion, k.Help},
	}
}

type dragState struct {
	active bool
	moved  bool
	last   r2.Point
}

// MapModel is the interactive trade route map.
type MapModel struct {
	width  int
	height int

	scene mapview.Scene
	vp    mapview.Viewport
	sel   mapview.Selection
	anim  mapview.Animator

	routeRadius float64
	cpRadius    float64

	keys     mapKeyMap
	help     help.Model
	drag     dragState
	focusIdx int
	snapshot state.Snapshot

	onMotion func(enabled bool)
}

// NewMapModel creates a map view. It draws nothing until SetSize.
func NewMapModel(opts Options) MapModel {
	scene := mapview.NewScene(nil)
	scene.Projection = opts.Projection
	scene.Policy = opts.Policy
	scene.Observer = opts.Observer

	return MapModel{
		scene:       scene,
		vp:          mapview.NewViewport(),
		sel:         mapview.NewSelection(opts.OnRouteSelect),
		anim:        mapview.NewAnimator(opts.ReducedMotion),
		routeRadius: opts.RouteHitRadius,
		cpRadius:    opts.ChokepointHitRadius,
		keys:        defaultMapKeys(),
		help:        help.New(),
		focusIdx:    -1,
		onMotion:    opts.OnMotionChange,
	}
}

// SetSize lays out the canvas in braille dots.
func (m MapModel) SetSize(width, height int) MapModel {
	m.width = width
	m.height = height
	m.help.Width = width
	cols, rows := m.canvasSize()
	m.vp.SetLayout(float64(cols*render.DotsPerCellX), float64(rows*render.DotsPerCellY))
	return m
}

func (m MapModel) canvasSize() (cols, rows int) {
	footer := mapFooterRows
	if m.help.ShowAll {
		footer += len(m.keys.FullHelp()[0]) - 1
	}
	return max(m.width, 0), max(m.height-footer, 0)
}

// UpdateData swaps in a new catalog, dropping selection, hover and focus
// for entities that no longer exist.
func (m MapModel) UpdateData(snapshot state.Snapshot) MapModel {
	m.snapshot = snapshot
	m.scene.Catalog = snapshot.Catalog
	m.sel.Retain(snapshot.Catalog.Has)
	if snapshot.Scenario == nil {
		m.scene.Emphasized = nil
	} else {
		m.scene.Emphasized = snapshot.Scenario.Impact.AffectedChokepoints
	}
	if m.focusIdx >= len(m.focusOrder()) {
		m.focusIdx = -1
	}
	return m
}

// Show multi-selects routeIDs and emphasizes chokepointIDs. Nil
// chokepointIDs fall back to the active scenario's chokepoints.
func (m MapModel) Show(routeIDs, chokepointIDs []string) MapModel {
	var ids []string
	for _, id := range routeIDs {
		if _, ok := m.scene.Catalog.Route(id); ok {
			ids = append(ids, id)
		}
	}
	m.sel.SelectAll(ids)
	if chokepointIDs == nil && m.snapshot.Scenario != nil {
		chokepointIDs = m.snapshot.Scenario.Impact.AffectedChokepoints
	}
	m.scene.Emphasized = chokepointIDs
	if rect, ok := m.scene.SelectionBounds(m.vp, m.sel); ok {
		m.vp.Fit(rect, fitMargin)
	}
	return m
}

// Blur drops keyboard focus, e.g. when the map tab is left.
func (m MapModel) Blur() MapModel {
	m.sel.Blur()
	m.focusIdx = -1
	return m
}

// Tick advances particle animation by one frame.
func (m MapModel) Tick() MapModel {
	m.anim.Tick()
	return m
}

// Selection returns the current selection state.
func (m MapModel) Selection() mapview.Selection {
	return m.sel
}

// Viewport returns the current viewport.
func (m MapModel) Viewport() mapview.Viewport {
	return m.vp
}

// Animator returns the animation state.
func (m MapModel) Animator() mapview.Animator {
	return m.anim
}

// Update handles input messages.
func (m MapModel) Update(msg tea.Msg) (MapModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		m = m.handleKey(msg)
	case tea.MouseMsg:
		m = m.handleMouse(msg)
	}
	return m, nil
}

func (m MapModel) handleKey(msg tea.KeyMsg) MapModel {
	panX := float64(keyPanCells * render.DotsPerCellX)
	panY := float64(keyPanCells * render.DotsPerCellY)

	switch {
	case key.Matches(msg, m.keys.ZoomIn):
		m.vp.Zoom(keyZoomStep)
	case key.Matches(msg, m.keys.ZoomOut):
		m.vp.Zoom(-keyZoomStep)
	// Arrows move the view, so the content pans the opposite way.
	case key.Matches(msg, m.keys.Up):
		m.vp.Pan(0, panY)
	case key.Matches(msg, m.keys.Down):
		m.vp.Pan(0, -panY)
	case key.Matches(msg, m.keys.Left):
		m.vp.Pan(panX, 0)
	case key.Matches(msg, m.keys.Right):
		m.vp.Pan(-panX, 0)
	case key.Matches(msg, m.keys.Reset):
		m.vp.ResetView()
	case key.Matches(msg, m.keys.Clear):
		m.sel.Escape()
		m.focusIdx = -1
	case key.Matches(msg, m.keys.Fit):
		if rect, ok := m.scene.SelectionBounds(m.vp, m.sel); ok {
			m.vp.Fit(rect, fitMargin)
		}
	case key.Matches(msg, m.keys.Motion):
		m.anim.SetReducedMotion(m.anim.Enabled())
		if m.onMotion != nil {
			m.onMotion(m.anim.Enabled())
		}
	case key.Matches(msg, m.keys.Next):
		m.cycleFocus(1)
	case key.Matches(msg, m.keys.Prev):
		m.cycleFocus(-1)
	case key.Matches(msg, m.keys.Select):
		if id := m.sel.Focused(); m.isRoute(id) {
			m.sel.Click(id, false)
		}
	case key.Matches(msg, m.keys.Toggle):
		if id := m.sel.Focused(); m.isRoute(id) {
			m.sel.Click(id, true)
		}
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m = m.SetSize(m.width, m.height)
	}
	return m
}

// dotPoint maps a terminal cell to the centre of its braille dot block.
func dotPoint(x, y int) r2.Point {
	return r2.Point{
		X: float64(x*render.DotsPerCellX) + float64(render.DotsPerCellX)/2,
		Y: float64(y*render.DotsPerCellY) + float64(render.DotsPerCellY)/2,
	}
}

func (m MapModel) handleMouse(msg tea.MouseMsg) MapModel {
	cols, rows := m.canvasSize()
	inside := msg.X >= 0 && msg.Y >= 0 && msg.X < cols && msg.Y < rows
	p := dotPoint(msg.X, msg.Y)

	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		if inside {
			m.vp.Zoom(wheelZoomStep)
		}
	case msg.Button == tea.MouseButtonWheelDown:
		if inside {
			m.vp.Zoom(-wheelZoomStep)
		}
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		if inside {
			m.drag = dragState{active: true, last: p}
		}
	case msg.Action == tea.MouseActionMotion && m.drag.active:
		d := p.Sub(m.drag.last)
		if d.X != 0 || d.Y != 0 {
			m.vp.Pan(d.X, d.Y)
			m.drag.moved = true
			m.drag.last = p
		}
	case msg.Action == tea.MouseActionRelease:
		if m.drag.active && !m.drag.moved && inside {
			if id, ok := m.scene.PickRoute(m.vp, p, m.routeRadius); ok {
				m.sel.Click(id, msg.Shift || msg.Alt)
			}
		}
		m.drag = dragState{}
	case msg.Action == tea.MouseActionMotion:
		hovered := ""
		if inside {
			hovered = m.pick(p)
		}
		m.sel.SetHover(hovered)
	}
	return m
}

// pick finds the entity under p, chokepoints first.
func (m MapModel) pick(p r2.Point) string {
	if id, ok := m.scene.PickChokepoint(m.vp, p, m.cpRadius); ok {
		return id
	}
	if id, ok := m.scene.PickRoute(m.vp, p, m.routeRadius); ok {
		return id
	}
	return ""
}

// focusOrder lists routes then chokepoints.
func (m MapModel) focusOrder() []string {
	c := m.scene.Catalog
	if c == nil {
		return nil
	}
	ids := make([]string, 0, len(c.Routes)+len(c.Chokepoints))
	for _, r := range c.Routes {
		ids = append(ids, r.ID)
	}
	for _, cp := range c.Chokepoints {
		ids = append(ids, cp.ID)
	}
	return ids
}

func (m *MapModel) cycleFocus(dir int) {
	order := m.focusOrder()
	if len(order) == 0 {
		return
	}
	switch {
	case m.focusIdx < 0 && dir > 0:
		m.focusIdx = 0
	case m.focusIdx < 0:
		m.focusIdx = len(order) - 1
	default:
		m.focusIdx = (m.focusIdx + dir + len(order)) % len(order)
	}
	m.sel.Focus(order[m.focusIdx])
}

func (m MapModel) isRoute(id string) bool {
	_, ok := m.scene.Catalog.Route(id)
	return ok
}

// View renders the map.
func (m MapModel) View() string {
	cols, rows := m.canvasSize()
	if cols < 10 || rows < 4 {
		return dimText.Render("Terminal too small for the map")
	}
	if m.scene.Catalog == nil {
		return dimText.Render("Loading trade catalog...")
	}

	dl := m.scene.Render(m.vp, m.sel, m.anim)
	canvas := render.Braille(dl, m.vp, cols, rows)

	var b strings.Builder
	b.WriteString(canvas.String())
	b.WriteString("\n")
	b.WriteString(m.renderInfo())
	b.WriteString("\n")
	b.WriteString(renderLegend())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

var (
	dimText    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	labelText  = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true)
	accentText = lipgloss.NewStyle().Foreground(lipgloss.Color("#2DD4BF"))
)

func riskHex(r catalog.RiskLevel) string {
	return mapview.RiskColor(r).Hex()
}

// renderInfo shows the hover tooltip, else the selection, else view state.
func (m MapModel) renderInfo() string {
	c := m.scene.Catalog
	id := m.sel.Hovered()
	if id == "" {
		id = m.sel.Focused()
	}
	if cp, ok := c.Chokepoint(id); ok {
		return chokepointTooltip(cp)
	}
	if r, ok := c.Route(id); ok {
		return routeTooltip(r)
	}

	switch m.sel.Len() {
	case 0:
		motion := "on"
		if !m.anim.Enabled() {
			motion = "off"
		}
		off := m.vp.Offset()
		return dimText.Render(fmt.Sprintf("zoom %.2fx · pan %.0f,%.0f · motion %s", m.vp.Scale(), off.X, off.Y, motion))
	case 1:
		r, _ := c.Route(m.sel.Selected()[0])
		return m.routeDetail(r)
	default:
		var total float64
		for _, id := range m.sel.Selected() {
			if r, ok := c.Route(id); ok {
				total += r.Volume
			}
		}
		return accentText.Render(fmt.Sprintf("%d routes selected", m.sel.Len())) +
			dimText.Render(fmt.Sprintf(" · $%.0fB combined", total))
	}
}

func chokepointTooltip(cp catalog.Chokepoint) string {
	return labelText.Render(cp.Name) + dimText.Render(fmt.Sprintf(" · %s · %.0f%% of trade · %d incidents · ",
		cp.Kind, cp.Throughput, cp.Incidents)) + riskStyle(cp.Risk).Render(cp.Risk.String())
}

func routeTooltip(r catalog.TradeRoute) string {
	return labelText.Render(r.Name) + dimText.Render(fmt.Sprintf(" · $%.0fB · ", r.Volume)) +
		riskStyle(r.Risk).Render(r.Risk.String())
}

func (m MapModel) routeDetail(r catalog.TradeRoute) string {
	arc := m.scene.RouteArc(r, m.vp)
	parts := []string{
		r.Origin.Country + " → " + r.Destination.Country,
		r.Commodity,
		fmt.Sprintf("$%.0fB", r.Volume),
		r.Status.String(),
	}
	if len(r.ChokepointsPassed) > 0 {
		parts = append(parts, "via "+strings.Join(r.ChokepointsPassed, ", "))
	}
	parts = append(parts, fmt.Sprintf("%d alt", r.AlternativeRoutes), fmt.Sprintf("arc %.0f", arc.Length()))
	return accentText.Render("▸ "+r.Name) + " " + riskStyle(r.Risk).Render(r.Risk.String()) +
		dimText.Render(" · "+strings.Join(parts, " · "))
}

func renderLegend() string {
	var parts []string
	for i := 0; i < catalog.NumRiskLevels; i++ {
		r := catalog.RiskLevel(i)
		parts = append(parts, riskStyle(r).Render("■")+dimText.Render(" "+r.String()))
	}
	parts = append(parts, dimText.Render("┄ at-risk  ╌ disrupted  ● chokepoint"))
	return strings.Join(parts, "  ")
}
