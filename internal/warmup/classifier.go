// Package warmup derives an account's sending status and daily limit
// from its age. Mail providers restrict new mailboxes to a multi-week
// ramp; the classifier maps elapsed days to a lifecycle phase and a
// multiplier applied to the operator-configured base limit.
//
// Everything here is pure: no I/O, no clocks. Callers pass "now".
package warmup

import (
	"math"
	"time"

	"github.com/geospark/outreach-scheduler/internal/domain"
)

// Phase is the age-derived lifecycle stage. Phases advance in order and
// never cycle back.
type Phase string

const (
	PhaseWarmup  Phase = "warmup"
	PhaseLimited Phase = "limited"
	PhaseRamping Phase = "ramping"
	PhaseActive  Phase = "active"
)

// Status maps a phase to the flat API status.
func (p Phase) Status() domain.SendStatus {
	switch p {
	case PhaseLimited:
		return domain.StatusLimited
	case PhaseRamping:
		return domain.StatusRamping
	case PhaseActive:
		return domain.StatusActive
	default:
		return domain.StatusWarmup
	}
}

// Default phase boundaries (days since warmup start).
const (
	DefaultLimitedAfterDays = 14
	DefaultRampingAfterDays = 21
	DefaultActiveAfterDays  = 35
)

// Default multipliers applied to the base daily limit per phase. Warmup
// accounts send nothing externally (the provider's internal warmup
// traffic doesn't count against capacity here).
const (
	DefaultLimitedMultiplier = 0.25
	DefaultRampingMultiplier = 0.5
)

// Classifier holds the phase thresholds and multipliers. The zero value
// is not usable; construct with NewClassifier.
type Classifier struct {
	limitedAfterDays  int
	rampingAfterDays  int
	activeAfterDays   int
	limitedMultiplier float64
	rampingMultiplier float64
}

// Option tweaks a Classifier at construction.
type Option func(*Classifier)

// WithThresholds overrides the phase boundaries (days since warmup start).
func WithThresholds(limitedAfter, rampingAfter, activeAfter int) Option {
	return func(c *Classifier) {
		c.limitedAfterDays = limitedAfter
		c.rampingAfterDays = rampingAfter
		c.activeAfterDays = activeAfter
	}
}

// WithMultipliers overrides the limited/ramping capacity multipliers.
func WithMultipliers(limited, ramping float64) Option {
	return func(c *Classifier) {
		c.limitedMultiplier = limited
		c.rampingMultiplier = ramping
	}
}

// NewClassifier creates a classifier with the default 14/21/35 day
// schedule and 0.25/0.5 multipliers.
func NewClassifier(opts ...Option) *Classifier {
	c := &Classifier{
		limitedAfterDays:  DefaultLimitedAfterDays,
		rampingAfterDays:  DefaultRampingAfterDays,
		activeAfterDays:   DefaultActiveAfterDays,
		limitedMultiplier: DefaultLimitedMultiplier,
		rampingMultiplier: DefaultRampingMultiplier,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PhaseForDays maps days-since-warmup-start to a phase. Total: every
// non-negative d maps to exactly one phase; negative d (clock skew on a
// freshly created account) is treated as day zero.
func (c *Classifier) PhaseForDays(d int) Phase {
	switch {
	case d < c.limitedAfterDays:
		return PhaseWarmup
	case d < c.rampingAfterDays:
		return PhaseLimited
	case d < c.activeAfterDays:
		return PhaseRamping
	default:
		return PhaseActive
	}
}

// Multiplier returns the capacity multiplier for a phase.
func (c *Classifier) Multiplier(p Phase) float64 {
	switch p {
	case PhaseLimited:
		return c.limitedMultiplier
	case PhaseRamping:
		return c.rampingMultiplier
	case PhaseActive:
		return 1.0
	default:
		return 0
	}
}

// LimitFor computes the current daily limit for a phase:
// round(base × multiplier).
func (c *Classifier) LimitFor(p Phase, baseDailyLimit int) int {
	if baseDailyLimit <= 0 {
		return 0
	}
	return int(math.Round(float64(baseDailyLimit) * c.Multiplier(p)))
}

// NextPhase returns the phase after d days along with how many days
// remain until it begins. ok is false once the account is active.
func (c *Classifier) NextPhase(d int) (next Phase, daysUntil int, ok bool) {
	if d < 0 {
		d = 0
	}
	switch {
	case d < c.limitedAfterDays:
		return PhaseLimited, c.limitedAfterDays - d, true
	case d < c.rampingAfterDays:
		return PhaseRamping, c.rampingAfterDays - d, true
	case d < c.activeAfterDays:
		return PhaseActive, c.activeAfterDays - d, true
	default:
		return "", 0, false
	}
}

// DaysSince returns whole days elapsed from start to now, clamped at zero.
func DaysSince(start, now time.Time) int {
	d := int(now.Sub(start).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}

// State is the structurally-enforced status shape: an operator/provider
// override, when present, always wins over the age-derived phase. It
// collapses to a flat SendStatus only at the API boundary.
type State struct {
	Override domain.SendStatus // StatusPaused or StatusSuspended; "" when none
	Phase    Phase
}

// Status collapses the state to the flat enum.
func (s State) Status() domain.SendStatus {
	if s.Override != "" {
		return s.Override
	}
	return s.Phase.Status()
}

// Derive recomputes an account's status and current daily limit in
// place, given "now". Overridden accounts (inactive, paused, suspended)
// keep their stored status and get a zero current limit: they must never
// surface as sendable capacity.
func (c *Classifier) Derive(a *domain.Account, now time.Time) State {
	if a.Overridden() {
		st := State{Override: a.Status}
		if st.Override != domain.StatusPaused && st.Override != domain.StatusSuspended {
			// is_active=false with a derived status still stored; treat as paused.
			st.Override = domain.StatusPaused
		}
		a.Status = st.Override
		a.CurrentDailyLimit = 0
		return st
	}

	phase := c.PhaseForDays(DaysSince(a.WarmupStartedAt, now))
	a.Status = phase.Status()
	a.CurrentDailyLimit = c.LimitFor(phase, a.BaseDailyLimit)
	return State{Phase: phase}
}
