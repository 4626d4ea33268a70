package state

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/litescript/ls-tradeflow/internal/catalog"
	"github.com/litescript/ls-tradeflow/internal/geo"
)

// SnapshotExport is the JSON form of a state snapshot.
type SnapshotExport struct {
	LoadedAt    time.Time          `json:"loaded_at"`
	Loads       int                `json:"loads"`
	Error       string             `json:"error,omitempty"`
	RiskCounts  map[string]int     `json:"risk_counts"`
	Routes      []RouteExport      `json:"routes"`
	Chokepoints []ChokepointExport `json:"chokepoints"`
	Scenario    string             `json:"active_scenario,omitempty"`
	Events      []Event            `json:"events,omitempty"`
}

// RouteExport is a route with derived fields.
type RouteExport struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Origin      geo.GeoPoint `json:"origin"`
	Destination geo.GeoPoint `json:"destination"`
	From        string       `json:"from"`
	To          string       `json:"to"`
	Commodity   string       `json:"commodity"`
	VolumeB     float64      `json:"volume_busd"`
	Risk        string       `json:"risk"`
	Status      string       `json:"status"`
	DistanceKm  float64      `json:"distance_km"`
	Chokepoints []string     `json:"chokepoints,omitempty"`
}

// ChokepointExport is a JSON-friendly chokepoint.
type ChokepointExport struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Location   geo.GeoPoint `json:"location"`
	Kind       string       `json:"kind"`
	Risk       string       `json:"risk"`
	Throughput float64      `json:"throughput_pct"`
	Incidents  int          `json:"incidents"`
}

// ExportSnapshot converts a snapshot to its exportable form.
func ExportSnapshot(s Snapshot) *SnapshotExport {
	export := &SnapshotExport{
		LoadedAt:   s.LastLoad,
		Loads:      s.Loads,
		RiskCounts: make(map[string]int, catalog.NumRiskLevels),
	}
	if s.LastError != nil {
		export.Error = s.LastError.Error()
	}
	for r, n := range s.RiskCounts {
		export.RiskCounts[catalog.RiskLevel(r).String()] = n
	}
	if s.Scenario != nil {
		export.Scenario = s.Scenario.ID
	}
	export.Events = s.Events

	c := s.Catalog
	if c == nil {
		return export
	}
	for _, r := range c.Routes {
		export.Routes = append(export.Routes, RouteExport{
			ID:          r.ID,
			Name:        r.Name,
			Origin:      r.Origin.GeoPoint,
			Destination: r.Destination.GeoPoint,
			From:        r.Origin.Country,
			To:          r.Destination.Country,
			Commodity:   r.Commodity,
			VolumeB:     r.Volume,
			Risk:        r.Risk.String(),
			Status:      r.Status.String(),
			DistanceKm:  geo.DistanceKm(r.Origin.GeoPoint, r.Destination.GeoPoint),
			Chokepoints: r.ChokepointsPassed,
		})
	}
	for _, cp := range c.Chokepoints {
		export.Chokepoints = append(export.Chokepoints, ChokepointExport{
			ID:         cp.ID,
			Name:       cp.Name,
			Location:   cp.Location,
			Kind:       string(cp.Kind),
			Risk:       cp.Risk.String(),
			Throughput: cp.Throughput,
			Incidents:  cp.Incidents,
		})
	}
	return export
}

// WriteJSON writes the export as indented JSON.
func (s *SnapshotExport) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

const summaryWidth = 96

// WriteSummaryTable writes one line per route, most severe first.
func WriteSummaryTable(w io.Writer, s Snapshot) {
	fmt.Fprintf(w, "Trade routes @ %s\n", s.LastLoad.Format(time.RFC3339))
	fmt.Fprintln(w, strings.Repeat("─", summaryWidth))

	export := ExportSnapshot(s)
	if len(export.Routes) == 0 {
		fmt.Fprintln(w, "No routes loaded")
		return
	}

	fmt.Fprintf(w, "%-8s %-24s %-14s %-14s %8s %9s %-8s %-9s\n",
		"ID", "Route", "From", "To", "Vol $B", "Dist km", "Risk", "Status")
	fmt.Fprintln(w, strings.Repeat("─", summaryWidth))

	var total float64
	for _, i := range severityOrder(s.Catalog.Routes) {
		r := export.Routes[i]
		fmt.Fprintf(w, "%-8s %-24s %-14s %-14s %8.0f %9.0f %-8s %-9s\n",
			truncateStr(r.ID, 8),
			truncateStr(r.Name, 24),
			truncateStr(r.From, 14),
			truncateStr(r.To, 14),
			r.VolumeB,
			r.DistanceKm,
			r.Risk,
			r.Status,
		)
		total += r.VolumeB
	}

	fmt.Fprintf(w, "\nTotal: %d routes, $%.0fB\n", len(export.Routes), total)
}

// severityOrder returns route indexes sorted by descending risk, keeping
// catalog order within a level.
func severityOrder(routes []catalog.TradeRoute) []int {
	out := make([]int, 0, len(routes))
	for r := catalog.RiskCritical; r >= catalog.RiskLow; r-- {
		for i, rt := range routes {
			if rt.Risk == r {
				out = append(out, i)
			}
		}
	}
	return out
}

func truncateStr(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-2] + ".."
}
