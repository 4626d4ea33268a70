// Package catalog holds the static trade dataset: routes, chokepoints, alerts,
// opportunities and scenarios.
package catalog

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/litescript/ls-tradeflow/internal/geo"
)

var (
	ErrUnknownRiskLevel  = errors.New("unknown risk level")
	ErrUnknownStatus     = errors.New("unknown route status")
	ErrDuplicateID       = errors.New("duplicate id")
	ErrInvalidCoordinate = errors.New("invalid coordinate")
	ErrUnknownReference  = errors.New("unknown reference")
)

// RiskLevel grades how exposed a route or chokepoint is.
type RiskLevel int

const (
	RiskLow RiskLevel = iota
	RiskMedium
	RiskHigh
	RiskCritical

	// NumRiskLevels sizes arrays indexed by RiskLevel.
	NumRiskLevels = int(RiskCritical) + 1
)

func (r RiskLevel) String() string {
	switch r {
	case RiskLow:
		return "low"
	case RiskMedium:
		return "medium"
	case RiskHigh:
		return "high"
	case RiskCritical:
		return "critical"
	default:
		return fmt.Sprintf("RiskLevel(%d)", int(r))
	}
}

// Valid reports whether r is one of the declared levels.
func (r RiskLevel) Valid() bool {
	return r >= RiskLow && r <= RiskCritical
}

// AtLeast reports whether r is as severe as other.
func (r RiskLevel) AtLeast(other RiskLevel) bool {
	return r >= other
}

// ParseRiskLevel parses "low", "medium", "high" or "critical".
func ParseRiskLevel(s string) (RiskLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return RiskLow, nil
	case "medium":
		return RiskMedium, nil
	case "high":
		return RiskHigh, nil
	case "critical":
		return RiskCritical, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownRiskLevel, s)
	}
}

// MarshalYAML implements yaml.Marshaler.
func (r RiskLevel) MarshalYAML() (interface{}, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownRiskLevel, int(r))
	}
	return r.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (r *RiskLevel) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	lvl, err := ParseRiskLevel(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*r = lvl
	return nil
}

// Status is the operating state of a route.
type Status int

const (
	StatusActive Status = iota
	StatusAtRisk
	StatusDisrupted
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusAtRisk:
		return "at-risk"
	case StatusDisrupted:
		return "disrupted"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// ParseStatus parses "active", "at-risk" or "disrupted".
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "active":
		return StatusActive, nil
	case "at-risk", "atrisk", "at_risk":
		return StatusAtRisk, nil
	case "disrupted":
		return StatusDisrupted, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
}

// MarshalYAML implements yaml.Marshaler.
func (s Status) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *Status) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	st, err := ParseStatus(raw)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*s = st
	return nil
}

// ChokepointKind describes the physical form of a chokepoint.
type ChokepointKind string

const (
	KindStrait ChokepointKind = "strait"
	KindCanal  ChokepointKind = "canal"
	KindPort   ChokepointKind = "port"
)

// Endpoint is a route terminus.
type Endpoint struct {
	geo.GeoPoint `yaml:",inline"`
	Country      string `yaml:"country"`
}

// TradeRoute is a shipping lane between two endpoints.
type TradeRoute struct {
	ID                  string    `yaml:"id"`
	Name                string    `yaml:"name"`
	Origin              Endpoint  `yaml:"origin"`
	Destination         Endpoint  `yaml:"destination"`
	Volume              float64   `yaml:"volume"` // billions USD
	Commodity           string    `yaml:"commodity"`
	Risk                RiskLevel `yaml:"risk"`
	Status              Status    `yaml:"status"`
	ChokepointsPassed   []string  `yaml:"chokepoints_passed"`
	AlternativeRoutes   int       `yaml:"alternative_routes"`
	GeopoliticalFactors []string  `yaml:"geopolitical_factors"`
}

// Chokepoint is a maritime bottleneck.
type Chokepoint struct {
	ID                string         `yaml:"id"`
	Name              string         `yaml:"name"`
	Location          geo.GeoPoint   `yaml:",inline"`
	Kind              ChokepointKind `yaml:"type"`
	Risk              RiskLevel      `yaml:"risk"`
	Throughput        float64        `yaml:"throughput"` // percent of global trade
	Incidents         int            `yaml:"recent_incidents"`
	ControllingNation string         `yaml:"controlling_nation"`
}

// RiskAlert is an active warning against one or more routes.
type RiskAlert struct {
	ID             string    `yaml:"id"`
	Title          string    `yaml:"title"`
	Severity       RiskLevel `yaml:"severity"`
	Category       string    `yaml:"category"`
	AffectedRoutes []string  `yaml:"affected_routes"`
	Impact         string    `yaml:"impact"`
	Probability    int       `yaml:"probability"` // 0-100
	Timeframe      string    `yaml:"timeframe"`
	Description    string    `yaml:"description"`
	LastUpdated    time.Time `yaml:"last_updated"`
}

// Opportunity is a potential upside related to routes.
type Opportunity struct {
	ID             string   `yaml:"id"`
	Title          string   `yaml:"title"`
	Type           string   `yaml:"type"`
	PotentialValue float64  `yaml:"potential_value"` // billions USD
	TimeToRealize  string   `yaml:"time_to_realize"`
	Confidence     int      `yaml:"confidence"` // 0-100
	Description    string   `yaml:"description"`
	RelatedRoutes  []string `yaml:"related_routes"`
}

// ScenarioImpact quantifies a what-if scenario.
type ScenarioImpact struct {
	AffectedRoutes      []string `yaml:"affected_routes"`
	AffectedChokepoints []string `yaml:"affected_chokepoints"`
	VolumeChange        float64  `yaml:"volume_change"`  // percent
	DelayIncrease       float64  `yaml:"delay_increase"` // days
	CostIncrease        float64  `yaml:"cost_increase"`  // percent
}

// Scenario is a geopolitical or environmental what-if.
type Scenario struct {
	ID          string         `yaml:"id"`
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Category    string         `yaml:"category"`
	Probability int            `yaml:"probability"`
	Impact      ScenarioImpact `yaml:"impact"`
	Timeline    string         `yaml:"timeline"`
	Mitigations []string       `yaml:"mitigation_strategies"`
}

// Metrics are the headline figures shown above the map.
type Metrics struct {
	GlobalTradeVolume   float64 `yaml:"global_trade_volume"` // trillions USD
	RoutesAtRisk        int     `yaml:"routes_at_risk"`
	ActiveDisruptions   int     `yaml:"active_disruptions"`
	CriticalChokepoints int     `yaml:"critical_chokepoints"`
	AverageDelayDays    float64 `yaml:"average_delay_days"`
	EstimatedLosses     float64 `yaml:"estimated_losses"` // billions USD
}

// Catalog is the complete read-only dataset.
type Catalog struct {
	Routes        []TradeRoute  `yaml:"routes"`
	Chokepoints   []Chokepoint  `yaml:"chokepoints"`
	Alerts        []RiskAlert   `yaml:"risk_alerts"`
	Opportunities []Opportunity `yaml:"opportunities"`
	Scenarios     []Scenario    `yaml:"scenarios"`
	Metrics       Metrics       `yaml:"metrics"`
}
