package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/litescript/ls-tradeflow/internal/catalog"
	"github.com/litescript/ls-tradeflow/internal/state"
)

// ScenariosModel lists what-if scenarios and applies them to the map.
type ScenariosModel struct {
	width    int
	height   int
	cursor   int
	snapshot state.Snapshot
}

// NewScenariosModel creates a new scenarios view model.
func NewScenariosModel() ScenariosModel {
	return ScenariosModel{}
}

// SetSize updates the viewport size.
func (m ScenariosModel) SetSize(width, height int) ScenariosModel {
	m.width = width
	m.height = height
	return m
}

// UpdateData updates the model with a new snapshot.
func (m ScenariosModel) UpdateData(snapshot state.Snapshot) ScenariosModel {
	m.snapshot = snapshot
	if n := len(m.scenarios()); m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
	return m
}

func (m ScenariosModel) scenarios() []catalog.Scenario {
	if m.snapshot.Catalog == nil {
		return nil
	}
	return m.snapshot.Catalog.Scenarios
}

// SelectedScenario returns the scenario under the cursor.
func (m ScenariosModel) SelectedScenario() (catalog.Scenario, bool) {
	list := m.scenarios()
	if m.cursor < 0 || m.cursor >= len(list) {
		return catalog.Scenario{}, false
	}
	return list[m.cursor], true
}

// Update handles input messages.
func (m ScenariosModel) Update(msg tea.Msg) (ScenariosModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.scenarios())-1 {
				m.cursor++
			}
		case "enter":
			if sc, ok := m.SelectedScenario(); ok {
				show := ShowOnMapMsg{
					RouteIDs:      sc.Impact.AffectedRoutes,
					ChokepointIDs: sc.Impact.AffectedChokepoints,
					ScenarioID:    sc.ID,
				}
				return m, func() tea.Msg { return show }
			}
		case "c", "backspace":
			return m, func() tea.Msg { return ClearScenarioMsg{} }
		}
	}
	return m, nil
}

// View renders the scenario list and the highlighted scenario's impact.
func (m ScenariosModel) View() string {
	list := m.scenarios()
	if m.snapshot.Catalog == nil {
		return "Waiting for trade catalog...\n"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("What-if Scenarios"))
	b.WriteString("\n")

	header := fmt.Sprintf("  %-32s %-14s %5s  %s", "Scenario", "Category", "Prob", "Timeline")
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	if len(list) == 0 {
		b.WriteString("  No scenarios in catalog\n")
		return b.String()
	}

	activeID := ""
	if m.snapshot.Scenario != nil {
		activeID = m.snapshot.Scenario.ID
	}

	for i, sc := range list {
		marker := "  "
		if sc.ID == activeID {
			marker = accentText.Render("◆ ")
		}
		row := fmt.Sprintf("%-32s %-14s %4d%%  %s",
			truncate(sc.Name, 32), truncate(sc.Category, 14), sc.Probability, sc.Timeline)
		if i == m.cursor {
			b.WriteString(marker + selectedRowStyle.Render(row))
		} else {
			b.WriteString(marker + rowStyle.Render(row))
		}
		b.WriteString("\n")
	}

	if sc, ok := m.SelectedScenario(); ok {
		b.WriteString("\n")
		b.WriteString(m.renderImpact(sc))
	}

	b.WriteString("\n")
	b.WriteString(m.renderOpportunities())
	return b.String()
}

func (m ScenariosModel) renderImpact(sc catalog.Scenario) string {
	c := m.snapshot.Catalog
	var b strings.Builder

	b.WriteString(labelText.Render(sc.Name))
	b.WriteString("\n")
	b.WriteString(dimText.Render("  " + truncate(sc.Description, max(m.width-4, 20))))
	b.WriteString("\n")

	im := sc.Impact
	b.WriteString(rowStyle.Render(fmt.Sprintf("  volume %+.0f%% · delay +%.0fd · cost %+.0f%%",
		im.VolumeChange, im.DelayIncrease, im.CostIncrease)))
	b.WriteString("\n")

	var routes []string
	for _, id := range im.AffectedRoutes {
		if r, ok := c.Route(id); ok {
			routes = append(routes, riskStyle(r.Risk).Render(r.Name))
		}
	}
	if len(routes) > 0 {
		b.WriteString("  routes: " + strings.Join(routes, dimText.Render(", ")) + "\n")
	}

	var cps []string
	for _, id := range im.AffectedChokepoints {
		if cp, ok := c.Chokepoint(id); ok {
			cps = append(cps, riskStyle(cp.Risk).Render(cp.Name))
		}
	}
	if len(cps) > 0 {
		b.WriteString("  chokepoints: " + strings.Join(cps, dimText.Render(", ")) + "\n")
	}

	for _, s := range sc.Mitigations {
		b.WriteString(dimText.Render("  • " + s))
		b.WriteString("\n")
	}
	return b.String()
}

func (m ScenariosModel) renderOpportunities() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Opportunities"))
	b.WriteString("\n")

	opps := m.snapshot.Catalog.Opportunities
	if len(opps) == 0 {
		b.WriteString(dimText.Render("  None listed"))
		b.WriteString("\n")
		return b.String()
	}
	for _, o := range opps {
		b.WriteString(rowStyle.Render(fmt.Sprintf("  %-36s $%5.0fB  %3d%%  %s",
			truncate(o.Title, 36), o.PotentialValue, o.Confidence, o.TimeToRealize)))
		b.WriteString("\n")
	}
	return b.String()
}
