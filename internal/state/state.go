// Package state provides thread-safe state management for the application.
package state

import (
	"sync"
	"time"

	"github.com/litescript/ls-tradeflow/internal/catalog"
)

// EventType represents the type of catalog change event.
type EventType string

const (
	EventRouteAdded    EventType = "ROUTE_ADDED"
	EventRouteRemoved  EventType = "ROUTE_REMOVED"
	EventRiskChanged   EventType = "RISK_CHANGED"
	EventStatusChanged EventType = "STATUS_CHANGED"
)

// Event represents a change between two catalog loads.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	RouteID   string    `json:"route_id"`
	RouteName string    `json:"route_name,omitempty"`
	OldValue  string    `json:"old_value,omitempty"`
	NewValue  string    `json:"new_value,omitempty"`
}

// Manager handles all shared application state with thread-safe access.
type Manager struct {
	mu sync.RWMutex

	current      *catalog.Catalog
	lastLoad     time.Time
	lastError    error
	loadDuration time.Duration
	loads        int

	// Event log (ring buffer)
	events       []Event
	maxEvents    int
	eventWriteAt int

	scenarioID string

	refreshInterval time.Duration
}

// Config holds configuration for the state manager.
type Config struct {
	MaxEvents       int
	RefreshInterval time.Duration
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{
		MaxEvents:       50,
		RefreshInterval: 5 * time.Second,
	}
}

// NewManager creates a new state manager.
func NewManager(cfg Config) *Manager {
	maxEvents := cfg.MaxEvents
	if maxEvents <= 0 {
		maxEvents = 50
	}
	return &Manager{
		maxEvents:       maxEvents,
		events:          make([]Event, 0, maxEvents),
		refreshInterval: cfg.RefreshInterval,
	}
}

// Update records a load attempt. A nil catalog keeps the previous one and
// only records the error. It returns the events detected against the
// previous catalog.
func (m *Manager) Update(c *catalog.Catalog, loadDuration time.Duration, err error) []Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastLoad = time.Now()
	m.lastError = err
	m.loadDuration = loadDuration

	if c == nil {
		return nil
	}
	m.loads++

	var events []Event
	if m.current != nil {
		events = diffRoutes(m.current, c, m.lastLoad)
		for _, e := range events {
			m.addEvent(e)
		}
	}
	m.current = c

	if m.scenarioID != "" {
		if _, ok := c.Scenario(m.scenarioID); !ok {
			m.scenarioID = ""
		}
	}
	return events
}

// diffRoutes compares routes by id. Added routes are reported in the new
// catalog's order, removed ones in the old catalog's order.
func diffRoutes(prev, next *catalog.Catalog, now time.Time) []Event {
	var events []Event
	for _, r := range next.Routes {
		old, ok := prev.Route(r.ID)
		if !ok {
			events = append(events, Event{
				Type:      EventRouteAdded,
				Timestamp: now,
				RouteID:   r.ID,
				RouteName: r.Name,
			})
			continue
		}
		if old.Risk != r.Risk {
			events = append(events, Event{
				Type:      EventRiskChanged,
				Timestamp: now,
				RouteID:   r.ID,
				RouteName: r.Name,
				OldValue:  old.Risk.String(),
				NewValue:  r.Risk.String(),
			})
		}
		if old.Status != r.Status {
			events = append(events, Event{
				Type:      EventStatusChanged,
				Timestamp: now,
				RouteID:   r.ID,
				RouteName: r.Name,
				OldValue:  old.Status.String(),
				NewValue:  r.Status.String(),
			})
		}
	}
	for _, r := range prev.Routes {
		if _, ok := next.Route(r.ID); !ok {
			events = append(events, Event{
				Type:      EventRouteRemoved,
				Timestamp: now,
				RouteID:   r.ID,
				RouteName: r.Name,
			})
		}
	}
	return events
}

// addEvent adds an event to the ring buffer.
func (m *Manager) addEvent(e Event) {
	if len(m.events) < m.maxEvents {
		m.events = append(m.events, e)
	} else {
		m.events[m.eventWriteAt] = e
		m.eventWriteAt = (m.eventWriteAt + 1) % m.maxEvents
	}
}

// SetScenario activates a scenario by id. Unknown ids are rejected.
func (m *Manager) SetScenario(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.current.Scenario(id); !ok {
		return false
	}
	m.scenarioID = id
	return true
}

// ClearScenario deactivates the current scenario.
func (m *Manager) ClearScenario() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scenarioID = ""
}

// Snapshot represents an immutable snapshot of current state.
type Snapshot struct {
	Catalog      *catalog.Catalog
	LastLoad     time.Time
	LastError    error
	LoadDuration time.Duration
	Loads        int
	RiskCounts   [catalog.NumRiskLevels]int
	Scenario     *catalog.Scenario
	Events       []Event
}

// Snapshot returns a consistent snapshot of current state. The catalog is
// shared and must be treated as read-only.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var scenario *catalog.Scenario
	if sc, ok := m.current.Scenario(m.scenarioID); ok {
		scenario = &sc
	}

	return Snapshot{
		Catalog:      m.current,
		LastLoad:     m.lastLoad,
		LastError:    m.lastError,
		LoadDuration: m.loadDuration,
		Loads:        m.loads,
		RiskCounts:   m.current.RiskCounts(),
		Scenario:     scenario,
		Events:       m.getEventsOrdered(),
	}
}

// getEventsOrdered returns events in chronological order.
func (m *Manager) getEventsOrdered() []Event {
	if len(m.events) == 0 {
		return nil
	}

	if len(m.events) < m.maxEvents {
		result := make([]Event, len(m.events))
		copy(result, m.events)
		return result
	}

	// Ring buffer is full, reorder from oldest to newest
	result := make([]Event, m.maxEvents)
	for i := 0; i < m.maxEvents; i++ {
		idx := (m.eventWriteAt + i) % m.maxEvents
		result[i] = m.events[idx]
	}
	return result
}

// RecentEvents returns the last n events.
func (m *Manager) RecentEvents(n int) []Event {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := m.getEventsOrdered()
	if len(all) <= n {
		return all
	}
	return all[len(all)-n:]
}

// RefreshInterval returns the configured reload interval.
func (m *Manager) RefreshInterval() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.refreshInterval
}

// SetRefreshInterval updates the reload interval.
func (m *Manager) SetRefreshInterval(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshInterval = d
}

// HasData returns true once a catalog has loaded.
func (m *Manager) HasData() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current != nil
}
