package domain

import "time"

// SendStatus is the flat account status exposed at the API and storage
// boundary. warmup/limited/ramping/active are derived from account age;
// paused and suspended are operator/provider overrides and always win
// over the derived phase.
type SendStatus string

const (
	StatusWarmup    SendStatus = "warmup"
	StatusLimited   SendStatus = "limited"
	StatusRamping   SendStatus = "ramping"
	StatusActive    SendStatus = "active"
	StatusPaused    SendStatus = "paused"
	StatusSuspended SendStatus = "suspended"
)

// Valid reports whether s is one of the known statuses.
func (s SendStatus) Valid() bool {
	switch s {
	case StatusWarmup, StatusLimited, StatusRamping, StatusActive, StatusPaused, StatusSuspended:
		return true
	}
	return false
}

// Sendable reports whether the status permits outbound sends at all.
// Warmup accounts send nothing externally; paused/suspended are blocked.
func (s SendStatus) Sendable() bool {
	switch s {
	case StatusLimited, StatusRamping, StatusActive:
		return true
	}
	return false
}

// Account is a single sending identity (one mailbox/domain pair).
//
// CurrentDailyLimit is a display cache: the registry re-derives it from
// Status and BaseDailyLimit on every read, so elapsed warmup time is
// always reflected without a cron. SentToday is reset once per day by
// the reset worker.
type Account struct {
	ID                string     `json:"id" db:"id"`
	Email             string     `json:"email" db:"email"`
	DisplayName       string     `json:"display_name" db:"display_name"`
	Domain            string     `json:"domain" db:"domain"`
	Provider          string     `json:"provider" db:"provider"`
	IsActive          bool       `json:"is_active" db:"is_active"`
	Status            SendStatus `json:"status" db:"status"`
	BaseDailyLimit    int        `json:"base_daily_limit" db:"base_daily_limit"`
	CurrentDailyLimit int        `json:"current_daily_limit" db:"current_daily_limit"`
	SentToday         int        `json:"sent_today" db:"sent_today"`
	WarmupStartedAt   time.Time  `json:"warmup_started_at" db:"warmup_started_at"`
	MarketID          string     `json:"market_id,omitempty" db:"market_id"`
	AgentID           string     `json:"agent_id,omitempty" db:"agent_id"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at" db:"updated_at"`
}

// Remaining returns today's unused quota, clamped at zero. SentToday can
// exceed CurrentDailyLimit after a force-send; remaining never goes negative.
func (a *Account) Remaining() int {
	r := a.CurrentDailyLimit - a.SentToday
	if r < 0 {
		return 0
	}
	return r
}

// Overridden reports whether the account's status is pinned by an external
// signal (deactivation, pause, or provider suspension). The age-derived
// computation is skipped entirely for overridden accounts.
func (a *Account) Overridden() bool {
	return !a.IsActive || a.Status == StatusPaused || a.Status == StatusSuspended
}

// Ready reports whether the account can absorb sends right now.
func (a *Account) Ready() bool {
	return a.Status.Sendable() && a.Remaining() > 0
}
