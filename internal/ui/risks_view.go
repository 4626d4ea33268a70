package ui

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-tradeflow/internal/catalog"
	"github.com/litescript/ls-tradeflow/internal/state"
)

// Styles for the tabular views
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)

	rowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	selectedRowStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("229")).
				Background(lipgloss.Color("57"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)

// recentEventRows is how many catalog events the risks view lists.
const recentEventRows = 6

// RisksModel lists risk alerts, headline metrics and catalog events.
type RisksModel struct {
	width    int
	height   int
	cursor   int
	snapshot state.Snapshot
	alerts   []catalog.RiskAlert
	lastErr  error
}

// NewRisksModel creates a new risks view model.
func NewRisksModel() RisksModel {
	return RisksModel{}
}

// SetSize updates the viewport size.
func (m RisksModel) SetSize(width, height int) RisksModel {
	m.width = width
	m.height = height
	return m
}

// UpdateData updates the model with a new snapshot. Alerts are ordered most
// severe first.
func (m RisksModel) UpdateData(snapshot state.Snapshot) RisksModel {
	m.snapshot = snapshot
	m.lastErr = snapshot.LastError
	m.alerts = nil
	if snapshot.Catalog != nil {
		m.alerts = slices.Clone(snapshot.Catalog.Alerts)
		slices.SortStableFunc(m.alerts, func(a, b catalog.RiskAlert) int {
			return cmp.Compare(b.Severity, a.Severity)
		})
	}
	if m.cursor >= len(m.alerts) {
		m.cursor = max(len(m.alerts)-1, 0)
	}
	return m
}

// SetError sets the last error for display.
func (m RisksModel) SetError(err error) RisksModel {
	m.lastErr = err
	return m
}

// SelectedAlert returns the alert under the cursor.
func (m RisksModel) SelectedAlert() (catalog.RiskAlert, bool) {
	if m.cursor < 0 || m.cursor >= len(m.alerts) {
		return catalog.RiskAlert{}, false
	}
	return m.alerts[m.cursor], true
}

// Update handles messages.
func (m RisksModel) Update(msg tea.Msg) (RisksModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.alerts)-1 {
				m.cursor++
			}
		case "home":
			m.cursor = 0
		case "end":
			if len(m.alerts) > 0 {
				m.cursor = len(m.alerts) - 1
			}
		case "enter":
			if a, ok := m.SelectedAlert(); ok {
				routes := a.AffectedRoutes
				return m, func() tea.Msg {
					return ShowOnMapMsg{RouteIDs: routes}
				}
			}
		}
	}
	return m, nil
}

// View renders the risks view.
func (m RisksModel) View() string {
	var b strings.Builder

	if m.lastErr != nil {
		b.WriteString(errorStyle.Render("Error: " + m.lastErr.Error()))
		b.WriteString("\n\n")
	}

	if m.snapshot.Catalog == nil {
		b.WriteString("Waiting for trade catalog...\n")
		return b.String()
	}

	b.WriteString(m.renderHeadline())
	b.WriteString("\n")
	b.WriteString(m.renderRiskSummary())
	b.WriteString("\n")
	b.WriteString(m.renderAlertsTable())
	b.WriteString("\n")
	b.WriteString(m.renderEvents())

	return b.String()
}

func (m RisksModel) renderHeadline() string {
	mt := m.snapshot.Catalog.Metrics
	var b strings.Builder
	b.WriteString(titleStyle.Render("Global Trade"))
	b.WriteString("\n")
	b.WriteString(rowStyle.Render(fmt.Sprintf("  $%.1fT volume · %d routes at risk · %d disruptions · %d critical chokepoints · %.1fd avg delay · $%.0fB losses",
		mt.GlobalTradeVolume, mt.RoutesAtRisk, mt.ActiveDisruptions, mt.CriticalChokepoints,
		mt.AverageDelayDays, mt.EstimatedLosses)))
	b.WriteString("\n")
	return b.String()
}

func (m RisksModel) renderRiskSummary() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Routes by Risk"))
	b.WriteString("\n")

	total := 0
	for _, n := range m.snapshot.RiskCounts {
		total += n
	}
	for i := catalog.NumRiskLevels - 1; i >= 0; i-- {
		r := catalog.RiskLevel(i)
		n := m.snapshot.RiskCounts[i]
		name := fmt.Sprintf("%-9s", r.String())
		b.WriteString("  " + riskStyle(r).Render(name) + " " + riskBar(r, n, total, 12) + fmt.Sprintf(" %d\n", n))
	}
	return b.String()
}

// riskBar draws n of total as a bar in the risk colour.
func riskBar(r catalog.RiskLevel, n, total, width int) string {
	filled := 0
	if total > 0 {
		filled = min(n*width/total, width)
		if n > 0 && filled == 0 {
			filled = 1
		}
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return "[" + riskStyle(r).Render(bar) + "]"
}

func (m RisksModel) renderAlertsTable() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Risk Alerts"))
	b.WriteString("\n")

	header := fmt.Sprintf("%-9s %-30s %-14s %5s %-14s %s",
		"Severity", "Alert", "Category", "Prob", "Timeframe", "Routes")
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	if len(m.alerts) == 0 {
		b.WriteString("  No active alerts\n")
		return b.String()
	}

	maxRows := max(m.height-22, 3)
	start := 0
	if m.cursor >= maxRows {
		start = m.cursor - maxRows + 1
	}
	end := min(start+maxRows, len(m.alerts))

	for i := start; i < end; i++ {
		a := m.alerts[i]
		row := fmt.Sprintf("%-9s %-30s %-14s %4d%% %-14s %s",
			a.Severity,
			truncate(a.Title, 30),
			truncate(a.Category, 14),
			a.Probability,
			truncate(a.Timeframe, 14),
			strings.Join(a.AffectedRoutes, ","),
		)
		if i == m.cursor {
			b.WriteString(selectedRowStyle.Render(row))
		} else {
			b.WriteString(rowStyle.Render(row))
		}
		b.WriteString("\n")
	}

	if a, ok := m.SelectedAlert(); ok {
		b.WriteString(dimText.Render("  " + truncate(a.Impact+". "+a.Description, max(m.width-4, 20))))
		b.WriteString("\n")
	}
	return b.String()
}

func (m RisksModel) renderEvents() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Catalog Changes"))
	b.WriteString("\n")

	events := m.snapshot.Events
	if len(events) == 0 {
		b.WriteString(dimText.Render("  No changes since first load"))
		b.WriteString("\n")
		return b.String()
	}
	if len(events) > recentEventRows {
		events = events[len(events)-recentEventRows:]
	}
	for i := len(events) - 1; i >= 0; i-- {
		e := events[i]
		line := fmt.Sprintf("  %s %-14s %s", e.Timestamp.Format("15:04:05"), e.Type, e.RouteName)
		if e.OldValue != "" || e.NewValue != "" {
			line += fmt.Sprintf(" (%s → %s)", e.OldValue, e.NewValue)
		}
		b.WriteString(rowStyle.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}

// truncate shortens s to maxLen runes, marking the cut with an ellipsis.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 1 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-1]) + "…"
}
