package ui

import (
	"slices"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/litescript/ls-tradeflow/internal/catalog"
	"github.com/litescript/ls-tradeflow/internal/mapview"
	"github.com/litescript/ls-tradeflow/internal/state"
)

func loadedManager(t *testing.T) *state.Manager {
	t.Helper()
	c, err := catalog.Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	mgr := state.NewManager(state.DefaultConfig())
	mgr.Update(c, time.Millisecond, nil)
	return mgr
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

// runCmd executes cmd and any batched commands, returning their messages.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, runCmd(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

// findMsg returns the first message of type T produced by cmd.
func findMsg[T tea.Msg](t *testing.T, cmd tea.Cmd) T {
	t.Helper()
	for _, msg := range runCmd(cmd) {
		if m, ok := msg.(T); ok {
			return m
		}
	}
	var zero T
	t.Fatalf("no %T produced", zero)
	return zero
}

func sizedModel(t *testing.T) (Model, *state.Manager) {
	t.Helper()
	mgr := loadedManager(t)
	m := New(mgr, DefaultOptions())
	m, _ = update(m, tea.WindowSizeMsg{Width: 200, Height: 76})
	return m, mgr
}

func TestModelNotReadyUntilSized(t *testing.T) {
	m := New(loadedManager(t), DefaultOptions())
	if got := m.View(); got != "Initializing..." {
		t.Errorf("View() before resize = %q, want Initializing...", got)
	}
	if m.MapView().Viewport().Ready() {
		t.Error("map viewport ready before first resize")
	}

	m, _ = update(m, tea.WindowSizeMsg{Width: 120, Height: 40})
	if !m.MapView().Viewport().Ready() {
		t.Error("map viewport not ready after resize")
	}
	view := m.View()
	for _, want := range []string{"[1] Map", "[2] Risks", "[3] Scenarios", "critical"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}

func TestModelViewSwitching(t *testing.T) {
	m, _ := sizedModel(t)

	tests := []struct {
		msg  tea.KeyMsg
		want ViewMode
	}{
		{tea.KeyMsg{Type: tea.KeyTab}, ViewRisks},
		{tea.KeyMsg{Type: tea.KeyTab}, ViewScenarios},
		{tea.KeyMsg{Type: tea.KeyTab}, ViewMap},
		{tea.KeyMsg{Type: tea.KeyShiftTab}, ViewScenarios},
		{keyRunes("2"), ViewRisks},
		{keyRunes("1"), ViewMap},
		{keyRunes("3"), ViewScenarios},
	}
	for _, tt := range tests {
		m, _ = update(m, tt.msg)
		if got := m.ActiveView(); got != tt.want {
			t.Errorf("after %q view = %d, want %d", tt.msg.String(), got, tt.want)
		}
	}
}

func TestModelQuit(t *testing.T) {
	m, _ := sizedModel(t)
	_, cmd := update(m, keyRunes("q"))
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}

func TestModelMouseOffsetByHeader(t *testing.T) {
	m, _ := sizedModel(t)
	x, y := routeOriginCell(t, m.MapView(), 0)
	top := m.contentTop()

	m, _ = update(m, tea.MouseMsg{X: x, Y: y + top, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	m, _ = update(m, tea.MouseMsg{X: x, Y: y + top, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})

	if id, ok := m.MapView().Selection().SingleID(); !ok || id != "route-1" {
		t.Errorf("selection = %q, %v, want route-1", id, ok)
	}
}

func TestModelMouseIgnoredOutsideMap(t *testing.T) {
	m, _ := sizedModel(t)
	m, _ = update(m, keyRunes("2"))
	before := m.MapView().Viewport().Scale()
	m, _ = update(m, tea.MouseMsg{X: 10, Y: 20, Action: tea.MouseActionPress, Button: tea.MouseButtonWheelUp})
	if got := m.MapView().Viewport().Scale(); got != before {
		t.Errorf("wheel on risks view zoomed map to %v", got)
	}
}

func TestModelFrameAdvancesAnimation(t *testing.T) {
	m, _ := sizedModel(t)
	m, _ = update(m, FrameMsg(time.Now()))
	m, _ = update(m, FrameMsg(time.Now()))
	if got, want := m.MapView().Animator().Progress(), 2*mapview.DefaultStep; !approxEqual(got, want) {
		t.Errorf("progress = %v, want %v", got, want)
	}
}

func TestModelReducedMotionFreezesFrames(t *testing.T) {
	mgr := loadedManager(t)
	opts := DefaultOptions()
	opts.ReducedMotion = true
	m := New(mgr, opts)
	m, _ = update(m, tea.WindowSizeMsg{Width: 120, Height: 40})
	m, _ = update(m, FrameMsg(time.Now()))
	if got := m.MapView().Animator().Progress(); got != 0 {
		t.Errorf("progress = %v, want 0 with reduced motion", got)
	}
}

func TestModelScenarioFlow(t *testing.T) {
	m, mgr := sizedModel(t)
	m, _ = update(m, keyRunes("3"))

	_, cmd := update(m, tea.KeyMsg{Type: tea.KeyEnter})
	show := findMsg[ShowOnMapMsg](t, cmd)
	if show.ScenarioID != "scenario-1" {
		t.Fatalf("ScenarioID = %q, want scenario-1", show.ScenarioID)
	}

	m, _ = update(m, show)
	if m.ActiveView() != ViewMap {
		t.Errorf("view = %d, want map after applying scenario", m.ActiveView())
	}
	sel := m.MapView().Selection()
	if sel.Mode() != mapview.MultiSelected {
		t.Errorf("mode = %v, want multi", sel.Mode())
	}
	if got := sel.Selected(); len(got) != 1 || got[0] != "route-2" {
		t.Errorf("selected = %v, want [route-2]", got)
	}
	snap := mgr.Snapshot()
	if snap.Scenario == nil || snap.Scenario.ID != "scenario-1" {
		t.Errorf("active scenario = %v, want scenario-1", snap.Scenario)
	}

	m, _ = update(m, ClearScenarioMsg{})
	if mgr.Snapshot().Scenario != nil {
		t.Error("scenario still active after clear")
	}
	if m.MapView().Selection().Len() != 0 {
		t.Errorf("selection = %v after clear, want empty", m.MapView().Selection().Selected())
	}
}

func TestModelRiskAlertShowsRoutes(t *testing.T) {
	m, _ := sizedModel(t)
	m, _ = update(m, keyRunes("2"))

	_, cmd := update(m, tea.KeyMsg{Type: tea.KeyEnter})
	show := findMsg[ShowOnMapMsg](t, cmd)
	if len(show.RouteIDs) != 1 || show.RouteIDs[0] != "route-1" {
		t.Errorf("RouteIDs = %v, want [route-1]", show.RouteIDs)
	}
	if show.ScenarioID != "" {
		t.Errorf("ScenarioID = %q, want empty for alerts", show.ScenarioID)
	}
}

func TestModelAlertKeepsScenarioEmphasis(t *testing.T) {
	m, mgr := sizedModel(t)
	m, _ = update(m, ShowOnMapMsg{RouteIDs: []string{"route-2"}, ScenarioID: "scenario-1"})
	want := mgr.Snapshot().Scenario.Impact.AffectedChokepoints
	if len(want) == 0 {
		t.Fatal("scenario-1 has no chokepoints")
	}

	m, _ = update(m, ShowOnMapMsg{RouteIDs: []string{"route-1"}})
	if got := m.MapView().scene.Emphasized; !slices.Equal(got, want) {
		t.Errorf("emphasized = %v after alert, want %v", got, want)
	}
	m, _ = update(m, DataUpdateMsg{Snapshot: mgr.Snapshot()})
	if got := m.MapView().scene.Emphasized; !slices.Equal(got, want) {
		t.Errorf("emphasized = %v after reload, want %v", got, want)
	}

	m, _ = update(m, ClearScenarioMsg{})
	if got := m.MapView().scene.Emphasized; len(got) != 0 {
		t.Errorf("emphasized = %v after clear, want none", got)
	}
}

func TestModelLeavingMapBlursFocus(t *testing.T) {
	m, _ := sizedModel(t)
	m, _ = update(m, keyRunes("n"))
	if m.MapView().Selection().Focused() == "" {
		t.Fatal("n did not focus an entity")
	}

	m, _ = update(m, keyRunes("2"))
	if got := m.MapView().Selection().Focused(); got != "" {
		t.Errorf("focused = %q after leaving map, want empty", got)
	}
}

func TestModelErrorInFooter(t *testing.T) {
	m, _ := sizedModel(t)
	m, _ = update(m, ErrorMsg{Error: errTest("catalog unreadable")})
	if !strings.Contains(m.View(), "ERROR: catalog unreadable") {
		t.Error("footer does not show the load error")
	}
}

func TestModelDataUpdate(t *testing.T) {
	m := New(nil, DefaultOptions())
	m, _ = update(m, tea.WindowSizeMsg{Width: 120, Height: 40})
	if !strings.Contains(m.View(), "Loading trade catalog") {
		t.Error("map should wait for a catalog")
	}

	m, _ = update(m, DataUpdateMsg{Snapshot: loadedManager(t).Snapshot()})
	if strings.Contains(m.View(), "Loading trade catalog") {
		t.Error("map still waiting after data update")
	}
}

func TestContentTopMatchesHeader(t *testing.T) {
	m, _ := sizedModel(t)
	lines := strings.Split(m.View(), "\n")
	top := m.contentTop()
	if top >= len(lines) {
		t.Fatalf("contentTop %d beyond view of %d lines", top, len(lines))
	}
	if !strings.Contains(lines[top-1], "[1] Map") {
		t.Errorf("line above content = %q, want tab bar", lines[top-1])
	}
}

func TestLogoLinesAligned(t *testing.T) {
	lines := logoLines()
	if len(lines) != 6 {
		t.Fatalf("logo has %d lines, want 6", len(lines))
	}
	w := len([]rune(lines[0]))
	for i, l := range lines {
		if got := len([]rune(l)); got != w {
			t.Errorf("logo line %d width = %d, want %d", i, got, w)
		}
	}
}

func TestGradientColor(t *testing.T) {
	left := gradientColor(0, 0, 80, 6)
	right := gradientColor(79, 0, 80, 6)
	if left == right {
		t.Errorf("gradient ends match: %s", left)
	}
	if got := gradientColor(0, 0, 1, 6); got != gradientStops[0].Hex() {
		t.Errorf("degenerate width = %s, want first stop", got)
	}
}

type errTest string

func (e errTest) Error() string { return string(e) }
