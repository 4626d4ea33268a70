// Package ui provides the terminal user interface using Bubble Tea.
package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/litescript/ls-tradeflow/internal/catalog"
	"github.com/litescript/ls-tradeflow/internal/state"
	"github.com/litescript/ls-tradeflow/internal/version"
)

// ViewMode represents the current UI view.
type ViewMode int

const (
	ViewMap ViewMode = iota
	ViewRisks
	ViewScenarios

	numViews = 3
)

// Header and footer lines around the active view.
const chromeHeight = 13

// Msg types for Bubble Tea
type (
	// TickMsg triggers periodic UI updates.
	TickMsg time.Time

	// AnimTickMsg drives the footer spinner.
	AnimTickMsg time.Time

	// FrameMsg advances map animation by one step.
	FrameMsg time.Time

	// DataUpdateMsg signals a new catalog snapshot is available.
	DataUpdateMsg struct {
		Snapshot state.Snapshot
	}

	// ErrorMsg signals a catalog load error.
	ErrorMsg struct {
		Error error
	}

	// ShowOnMapMsg asks the map to multi-select routes and emphasize
	// chokepoints. A non-empty ScenarioID activates that scenario.
	ShowOnMapMsg struct {
		RouteIDs      []string
		ChokepointIDs []string
		ScenarioID    string
	}

	// ClearScenarioMsg deactivates the active scenario.
	ClearScenarioMsg struct{}
)

// Model is the root Bubble Tea model.
type Model struct {
	state *state.Manager

	// UI state
	viewMode  ViewMode
	width     int
	height    int
	ready     bool
	statusMsg string
	animTick  int
	lastErr   error

	// Sub-models
	mapView   MapModel
	risks     RisksModel
	scenarios ScenariosModel

	snapshot state.Snapshot
}

// New creates a new root UI model.
func New(stateMgr *state.Manager, opts Options) Model {
	m := Model{
		state:     stateMgr,
		viewMode:  ViewMap,
		mapView:   NewMapModel(opts),
		risks:     NewRisksModel(),
		scenarios: NewScenariosModel(),
	}
	if stateMgr != nil && stateMgr.HasData() {
		m.applySnapshot(stateMgr.Snapshot())
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		animTickCmd(),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		prevView := m.viewMode
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit

		case "1":
			m.viewMode = ViewMap
		case "2":
			m.viewMode = ViewRisks
		case "3":
			m.viewMode = ViewScenarios

		case "tab":
			m.viewMode = (m.viewMode + 1) % numViews
		case "shift+tab":
			m.viewMode = (m.viewMode + numViews - 1) % numViews

		default:
			cmds = append(cmds, m.updateActiveView(msg))
		}
		if prevView == ViewMap && m.viewMode != ViewMap {
			m.mapView = m.mapView.Blur()
		}

	case tea.MouseMsg:
		if m.viewMode == ViewMap {
			msg.Y -= m.contentTop()
			var cmd tea.Cmd
			m.mapView, cmd = m.mapView.Update(msg)
			cmds = append(cmds, cmd)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

		contentHeight := max(msg.Height-chromeHeight, 1)
		m.mapView = m.mapView.SetSize(msg.Width, contentHeight)
		m.risks = m.risks.SetSize(msg.Width, contentHeight)
		m.scenarios = m.scenarios.SetSize(msg.Width, contentHeight)

	case TickMsg:
		cmds = append(cmds, tickCmd())
		if m.state != nil {
			m.snapshot = m.state.Snapshot()
		}

	case AnimTickMsg:
		cmds = append(cmds, animTickCmd())
		m.animTick++

	case FrameMsg:
		m.mapView = m.mapView.Tick()

	case DataUpdateMsg:
		m.applySnapshot(msg.Snapshot)

	case ShowOnMapMsg:
		if msg.ScenarioID != "" && m.state != nil {
			if m.state.SetScenario(msg.ScenarioID) {
				m.statusMsg = "Scenario active: " + msg.ScenarioID
			}
			m.snapshot = m.state.Snapshot()
			m.scenarios = m.scenarios.UpdateData(m.snapshot)
			m.mapView = m.mapView.UpdateData(m.snapshot)
		}
		m.mapView = m.mapView.Show(msg.RouteIDs, msg.ChokepointIDs)
		m.viewMode = ViewMap

	case ClearScenarioMsg:
		if m.state != nil {
			m.state.ClearScenario()
			m.snapshot = m.state.Snapshot()
		}
		m.scenarios = m.scenarios.UpdateData(m.snapshot)
		m.mapView = m.mapView.UpdateData(m.snapshot).Show(nil, nil)
		m.statusMsg = ""

	case ErrorMsg:
		m.lastErr = msg.Error
		m.risks = m.risks.SetError(msg.Error)

	default:
		cmds = append(cmds, m.updateActiveView(msg))
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) applySnapshot(snap state.Snapshot) {
	m.snapshot = snap
	m.lastErr = snap.LastError
	m.mapView = m.mapView.UpdateData(snap)
	m.risks = m.risks.UpdateData(snap)
	m.scenarios = m.scenarios.UpdateData(snap)
}

func (m *Model) updateActiveView(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.viewMode {
	case ViewMap:
		m.mapView, cmd = m.mapView.Update(msg)
	case ViewRisks:
		m.risks, cmd = m.risks.Update(msg)
	case ViewScenarios:
		m.scenarios, cmd = m.scenarios.Update(msg)
	}
	return cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var content string
	switch m.viewMode {
	case ViewMap:
		content = m.mapView.View()
	case ViewRisks:
		content = m.risks.View()
	case ViewScenarios:
		content = m.scenarios.View()
	}

	return m.renderFrame(content)
}

// MapView returns the map sub-model.
func (m Model) MapView() MapModel {
	return m.mapView
}

// ActiveView returns the current view mode.
func (m Model) ActiveView() ViewMode {
	return m.viewMode
}

func (m Model) renderFrame(content string) string {
	return m.renderHeader() + "\n" + content + "\n" + m.renderFooter()
}

func (m Model) renderHeader() string {
	return m.renderLogo() + m.renderTabs()
}

// contentTop is the terminal row where the active view starts.
func (m Model) contentTop() int {
	return strings.Count(m.renderHeader(), "\n") + 1
}

// logoGlyphs is a block-letter rendering of the product name.
var logoGlyphs = [][]string{
	{"████████╗", "╚══██╔══╝", "   ██║   ", "   ██║   ", "   ██║   ", "   ╚═╝   "},
	{"██████╗ ", "██╔══██╗", "██████╔╝", "██╔══██╗", "██║  ██║", "╚═╝  ╚═╝"},
	{" █████╗ ", "██╔══██╗", "███████║", "██╔══██║", "██║  ██║", "╚═╝  ╚═╝"},
	{"██████╗ ", "██╔══██╗", "██║  ██║", "██║  ██║", "██████╔╝", "╚═════╝ "},
	{"███████╗", "██╔════╝", "█████╗  ", "██╔══╝  ", "███████╗", "╚══════╝"},
	{"███████╗", "██╔════╝", "█████╗  ", "██╔══╝  ", "██║     ", "╚═╝     "},
	{"██╗     ", "██║     ", "██║     ", "██║     ", "███████╗", "╚══════╝"},
	{" ██████╗ ", "██╔═══██╗", "██║   ██║", "██║   ██║", "╚██████╔╝", " ╚═════╝ "},
	{"██╗    ██╗", "██║    ██║", "██║ █╗ ██║", "██║███╗██║", "╚███╔███╔╝", " ╚══╝╚══╝ "},
}

func logoLines() []string {
	lines := make([]string, len(logoGlyphs[0]))
	for row := range lines {
		var b strings.Builder
		b.WriteString("  ")
		for _, g := range logoGlyphs {
			b.WriteString(g[row])
		}
		lines[row] = b.String()
	}
	return lines
}

func (m Model) renderLogo() string {
	logo := logoLines()

	var b strings.Builder
	b.WriteString("\n")

	for row, line := range logo {
		runes := []rune(line)
		for col, r := range runes {
			style := lipgloss.NewStyle().Foreground(lipgloss.Color(gradientColor(col, row, len(runes), len(logo))))
			b.WriteString(style.Render(string(r)))
		}
		b.WriteString("\n")
	}

	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	b.WriteString(muted.Render("  Global Trade Routes · Risk & Chokepoint Map"))
	b.WriteString("\n")

	b.WriteString(muted.Render(fmt.Sprintf("  (c) 2025 litescript.net | v%s", version.Version)))
	b.WriteString("\n\n")

	return b.String()
}

// Logo gradient stops: sea green -> teal -> blue -> violet.
var gradientStops = []colorful.Color{
	{R: 0x10 / 255.0, G: 0xB9 / 255.0, B: 0x81 / 255.0},
	{R: 0x14 / 255.0, G: 0xB8 / 255.0, B: 0xA6 / 255.0},
	{R: 0x3B / 255.0, G: 0x82 / 255.0, B: 0xF6 / 255.0},
	{R: 0x8B / 255.0, G: 0x5C / 255.0, B: 0xF6 / 255.0},
}

// gradientColor returns a hex color for a position in the logo gradient,
// horizontal across the stops and fading toward the bottom row.
func gradientColor(col, row, width, height int) string {
	if width <= 1 || height <= 0 {
		return gradientStops[0].Hex()
	}
	x := float64(col) / float64(width-1)
	seg := x * float64(len(gradientStops)-1)
	i := min(int(seg), len(gradientStops)-2)
	c := gradientStops[i].BlendLuv(gradientStops[i+1], seg-float64(i)).Clamped()

	fade := 1.0 - float64(row)/float64(height)*0.5
	return colorful.Color{R: c.R * fade, G: c.G * fade, B: c.B * fade}.Clamped().Hex()
}

func (m Model) renderTabs() string {
	tabs := []string{"[1] Map", "[2] Risks", "[3] Scenarios"}
	activeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#2DD4BF")).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))

	var parts []string
	for i, tab := range tabs {
		if ViewMode(i) == m.viewMode {
			parts = append(parts, activeStyle.Render("▶ "+tab))
		} else {
			parts = append(parts, dimStyle.Render("  "+tab))
		}
	}
	return "  " + strings.Join(parts, "  ")
}

func (m Model) renderFooter() string {
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#E84A27"))
	accentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#14B8A6"))

	spinnerFrames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	spinner := spinnerFrames[m.animTick%len(spinnerFrames)]

	var status string
	switch {
	case m.lastErr != nil:
		status = errorStyle.Render("ERROR: " + m.lastErr.Error())
	case m.snapshot.Catalog != nil:
		status = accentStyle.Render(spinner) + dimStyle.Render(fmt.Sprintf(" %d routes · %d chokepoints",
			len(m.snapshot.Catalog.Routes), len(m.snapshot.Catalog.Chokepoints)))
		if m.snapshot.LoadDuration > 0 {
			status += dimStyle.Render(" (" + m.snapshot.LoadDuration.Round(time.Microsecond).String() + ")")
		}
		if m.snapshot.Scenario != nil {
			status += "  " + accentStyle.Render("◆ "+m.snapshot.Scenario.Name)
		}
	default:
		status = accentStyle.Render(spinner) + " " + m.renderShimmerText("Loading catalog...")
	}

	var help string
	switch m.viewMode {
	case ViewRisks:
		help = dimStyle.Render("↑↓: alerts | enter: show on map | tab: switch view")
	case ViewScenarios:
		help = dimStyle.Render("↑↓: scenarios | enter: apply | c: clear | tab: switch view")
	default:
		help = dimStyle.Render("drag: pan | wheel: zoom | click: select | tab: switch view")
	}

	footer := "  " + status + "  " + dimStyle.Render("|") + "  " + help

	if m.statusMsg != "" {
		footer += "\n  " + dimStyle.Render(m.statusMsg)
	}

	return footer
}

func tickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func animTickCmd() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return AnimTickMsg(t)
	})
}

// renderShimmerText renders text with a sweeping highlight.
func (m Model) renderShimmerText(text string) string {
	runes := []rune(text)
	if len(runes) == 0 {
		return ""
	}

	pos := m.animTick % (len(runes) + 8)

	var result strings.Builder
	for i, r := range runes {
		dist := i - pos + 4
		if dist < 0 {
			dist = -dist
		}

		var hex string
		switch {
		case dist <= 1:
			hex = "#A7F3D0"
		case dist <= 3:
			hex = "#6EE7B7"
		case dist <= 5:
			hex = "#34D399"
		default:
			hex = "#3F6F62"
		}
		result.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(hex)).Render(string(r)))
	}

	return result.String()
}

// riskStyle colours a risk label with its map colour.
func riskStyle(r catalog.RiskLevel) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(riskHex(r))).Bold(r == catalog.RiskCritical)
}
