package mapview

import (
	"math"

	"github.com/litescript/ls-tradeflow/internal/catalog"
)

// DefaultStep advances progress roughly once around per second at 60 Hz.
const DefaultStep = 0.016

// Animator owns the shared particle progress in [0,1). A disabled animator
// never advances and the render pass emits no particles.
type Animator struct {
	progress float64
	step     float64
	enabled  bool
}

// NewAnimator creates an animator. reducedMotion disables it.
func NewAnimator(reducedMotion bool) Animator {
	return Animator{step: DefaultStep, enabled: !reducedMotion}
}

// Enabled reports whether particles animate.
func (a Animator) Enabled() bool {
	return a.enabled
}

// Progress returns the current progress.
func (a Animator) Progress() float64 {
	return a.progress
}

// SetReducedMotion toggles the reduced-motion preference at runtime.
func (a *Animator) SetReducedMotion(reduced bool) {
	a.enabled = !reduced
}

// Tick advances progress by one fixed step, wrapping at 1. It is a no-op
// while disabled.
func (a *Animator) Tick() float64 {
	if !a.enabled {
		return a.progress
	}
	a.progress += a.step
	if a.progress >= 1 {
		a.progress -= math.Floor(a.progress)
	}
	return a.progress
}

// Default eligibility policy values.
const (
	DefaultAnimationCap = 20
	DefaultTopVolume    = 10
)

// EligibilityPolicy decides which routes carry a particle. A route qualifies
// when it is among the TopVolume largest, at or above MinRisk, selected or
// hovered. Qualifying routes are then truncated to the first Cap in catalog
// order to bound per-frame cost.
type EligibilityPolicy struct {
	Cap       int
	TopVolume int
	MinRisk   catalog.RiskLevel
}

// DefaultEligibility returns the standard policy.
func DefaultEligibility() EligibilityPolicy {
	return EligibilityPolicy{
		Cap:       DefaultAnimationCap,
		TopVolume: DefaultTopVolume,
		MinRisk:   catalog.RiskHigh,
	}
}

// Eligible returns the set of route ids that animate this frame.
func (p EligibilityPolicy) Eligible(routes []catalog.TradeRoute, sel Selection) map[string]bool {
	out := make(map[string]bool)
	if p.Cap <= 0 {
		return out
	}

	top := make(map[string]bool, p.TopVolume)
	for _, id := range (&catalog.Catalog{Routes: routes}).TopByVolume(p.TopVolume) {
		top[id] = true
	}

	for _, r := range routes {
		if len(out) >= p.Cap {
			break
		}
		if top[r.ID] || r.Risk.AtLeast(p.MinRisk) || sel.IsSelected(r.ID) || sel.Hovered() == r.ID {
			out[r.ID] = true
		}
	}
	return out
}
