package catalog

import (
	"errors"
	"fmt"
	"sort"
)

// Route returns the route with the given id.
func (c *Catalog) Route(id string) (TradeRoute, bool) {
	if c == nil {
		return TradeRoute{}, false
	}
	for _, r := range c.Routes {
		if r.ID == id {
			return r, true
		}
	}
	return TradeRoute{}, false
}

// Chokepoint returns the chokepoint with the given id.
func (c *Catalog) Chokepoint(id string) (Chokepoint, bool) {
	if c == nil {
		return Chokepoint{}, false
	}
	for _, cp := range c.Chokepoints {
		if cp.ID == id {
			return cp, true
		}
	}
	return Chokepoint{}, false
}

// Scenario returns the scenario with the given id.
func (c *Catalog) Scenario(id string) (Scenario, bool) {
	if c == nil {
		return Scenario{}, false
	}
	for _, s := range c.Scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return Scenario{}, false
}

// Has reports whether id names a route or a chokepoint.
func (c *Catalog) Has(id string) bool {
	if _, ok := c.Route(id); ok {
		return true
	}
	_, ok := c.Chokepoint(id)
	return ok
}

// TopByVolume returns the ids of the n largest routes by volume, largest
// first. Ties keep catalog order.
func (c *Catalog) TopByVolume(n int) []string {
	if c == nil || n <= 0 {
		return nil
	}
	idx := make([]int, len(c.Routes))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return c.Routes[idx[a]].Volume > c.Routes[idx[b]].Volume
	})
	if n > len(idx) {
		n = len(idx)
	}
	ids := make([]string, n)
	for i := 0; i < n; i++ {
		ids[i] = c.Routes[idx[i]].ID
	}
	return ids
}

// RiskCounts tallies routes per risk level.
func (c *Catalog) RiskCounts() [NumRiskLevels]int {
	var counts [NumRiskLevels]int
	if c == nil {
		return counts
	}
	for _, r := range c.Routes {
		if r.Risk.Valid() {
			counts[r.Risk]++
		}
	}
	return counts
}

// TotalVolume sums route volume in billions USD.
func (c *Catalog) TotalVolume() float64 {
	if c == nil {
		return 0
	}
	var total float64
	for _, r := range c.Routes {
		total += r.Volume
	}
	return total
}

// Validate checks ids, coordinates, enums and cross references. All problems
// are reported together.
func (c *Catalog) Validate() error {
	if c == nil {
		return errors.New("nil catalog")
	}
	var errs []error

	seen := make(map[string]string)
	claim := func(kind, id string) {
		if id == "" {
			errs = append(errs, fmt.Errorf("%s with empty id", kind))
			return
		}
		if prev, dup := seen[id]; dup {
			errs = append(errs, fmt.Errorf("%w: %s %q already used by a %s", ErrDuplicateID, kind, id, prev))
			return
		}
		seen[id] = kind
	}

	routeIDs := make(map[string]bool, len(c.Routes))
	for _, r := range c.Routes {
		claim("route", r.ID)
		routeIDs[r.ID] = true
		if !r.Origin.Valid() {
			errs = append(errs, fmt.Errorf("%w: route %q origin %v", ErrInvalidCoordinate, r.ID, r.Origin.GeoPoint))
		}
		if !r.Destination.Valid() {
			errs = append(errs, fmt.Errorf("%w: route %q destination %v", ErrInvalidCoordinate, r.ID, r.Destination.GeoPoint))
		}
		if !r.Risk.Valid() {
			errs = append(errs, fmt.Errorf("%w: route %q", ErrUnknownRiskLevel, r.ID))
		}
		if r.Volume < 0 {
			errs = append(errs, fmt.Errorf("route %q has negative volume %v", r.ID, r.Volume))
		}
	}

	cpIDs := make(map[string]bool, len(c.Chokepoints))
	for _, cp := range c.Chokepoints {
		claim("chokepoint", cp.ID)
		cpIDs[cp.ID] = true
		if !cp.Location.Valid() {
			errs = append(errs, fmt.Errorf("%w: chokepoint %q at %v", ErrInvalidCoordinate, cp.ID, cp.Location))
		}
		if cp.Throughput < 0 || cp.Throughput > 100 {
			errs = append(errs, fmt.Errorf("chokepoint %q throughput %v outside [0,100]", cp.ID, cp.Throughput))
		}
		if cp.Incidents < 0 {
			errs = append(errs, fmt.Errorf("chokepoint %q has negative incident count", cp.ID))
		}
	}

	checkRoutes := func(owner string, ids []string) {
		for _, id := range ids {
			if !routeIDs[id] {
				errs = append(errs, fmt.Errorf("%w: %s references route %q", ErrUnknownReference, owner, id))
			}
		}
	}
	for _, a := range c.Alerts {
		checkRoutes("alert "+a.ID, a.AffectedRoutes)
	}
	for _, o := range c.Opportunities {
		checkRoutes("opportunity "+o.ID, o.RelatedRoutes)
	}
	for _, s := range c.Scenarios {
		checkRoutes("scenario "+s.ID, s.Impact.AffectedRoutes)
		for _, id := range s.Impact.AffectedChokepoints {
			if !cpIDs[id] {
				errs = append(errs, fmt.Errorf("%w: scenario %s references chokepoint %q", ErrUnknownReference, s.ID, id))
			}
		}
	}

	return errors.Join(errs...)
}
