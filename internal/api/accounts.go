package api

import (
	"database/sql"
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/geospark/outreach-scheduler/internal/domain"
	"github.com/geospark/outreach-scheduler/internal/pkg/httputil"
	"github.com/geospark/outreach-scheduler/internal/registry"
	"github.com/geospark/outreach-scheduler/internal/warmup"
)

// accountView is an account plus the dashboard's computed fields.
type accountView struct {
	domain.Account
	RemainingToday     int     `json:"remaining_today"`
	StatusEmoji        string  `json:"status_emoji"`
	DaysUntilNextPhase *int    `json:"days_until_next_phase"`
	NextPhase          *string `json:"next_phase"`
	CapacityPercentage int     `json:"capacity_percentage"`
}

// accountTotals summarizes a listing.
type accountTotals struct {
	TotalAccounts   int `json:"total_accounts"`
	ActiveAccounts  int `json:"active_accounts"`
	WarmingAccounts int `json:"warming_accounts"`
	TotalCapacity   int `json:"total_capacity"`
	UsedToday       int `json:"used_today"`
	RemainingToday  int `json:"remaining_today"`
}

func statusEmoji(s domain.SendStatus) string {
	switch s {
	case domain.StatusWarmup:
		return "🔴"
	case domain.StatusLimited:
		return "🟡"
	case domain.StatusRamping:
		return "🟠"
	case domain.StatusActive:
		return "🟢"
	case domain.StatusPaused:
		return "⏸️"
	case domain.StatusSuspended:
		return "❌"
	}
	return "❓"
}

// ListAccounts returns the account pool with freshly derived statuses,
// per-account computed fields, and pool totals.
// GET /api/outreach/accounts?market_id=&agent_id=&status=
func (h *Handlers) ListAccounts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := registry.ListFilter{
		MarketID: q.Get("market_id"),
		AgentID:  q.Get("agent_id"),
		Status:   domain.SendStatus(q.Get("status")),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		httputil.BadRequest(w, "unknown status: "+string(filter.Status))
		return
	}

	accounts, err := h.registry.List(r.Context(), filter)
	if err != nil {
		storeUnavailable(w, err)
		return
	}

	classifier := h.registry.Classifier()
	now := h.registry.Now()

	views := make([]accountView, 0, len(accounts))
	totals := accountTotals{}
	for _, a := range accounts {
		v := accountView{
			Account:        a,
			RemainingToday: a.Remaining(),
			StatusEmoji:    statusEmoji(a.Status),
		}
		if next, daysUntil, ok := classifier.NextPhase(warmup.DaysSince(a.WarmupStartedAt, now)); ok {
			status := string(next.Status())
			v.NextPhase = &status
			v.DaysUntilNextPhase = &daysUntil
		}
		if a.CurrentDailyLimit > 0 {
			v.CapacityPercentage = int(math.Round(float64(a.SentToday) / float64(a.CurrentDailyLimit) * 100))
		}
		views = append(views, v)

		totals.TotalAccounts++
		if a.Status.Sendable() {
			totals.ActiveAccounts++
		}
		if a.Status == domain.StatusWarmup {
			totals.WarmingAccounts++
		}
		totals.TotalCapacity += a.CurrentDailyLimit
		totals.UsedToday += a.SentToday
		totals.RemainingToday += v.RemainingToday
	}

	httputil.OK(w, map[string]any{
		"accounts": views,
		"totals":   totals,
	})
}

// createAccountRequest is the registration payload.
type createAccountRequest struct {
	Email           string `json:"email"`
	DisplayName     string `json:"display_name"`
	Domain          string `json:"domain"`
	AgentID         string `json:"agent_id"`
	MarketID        string `json:"market_id"`
	Provider        string `json:"provider"`
	WarmupStartedAt string `json:"warmup_started_at"`
	BaseDailyLimit  int    `json:"base_daily_limit"`
}

// CreateAccount registers a new sending account. New accounts start in
// warmup; a backdated warmup_started_at migrates an already-warm mailbox.
// POST /api/outreach/accounts
func (h *Handlers) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.Email == "" {
		httputil.BadRequest(w, "email is required")
		return
	}

	account := &domain.Account{
		Email:          req.Email,
		DisplayName:    req.DisplayName,
		Domain:         req.Domain,
		Provider:       req.Provider,
		MarketID:       req.MarketID,
		AgentID:        req.AgentID,
		BaseDailyLimit: req.BaseDailyLimit,
	}
	if req.WarmupStartedAt != "" {
		t, err := time.Parse(time.RFC3339, req.WarmupStartedAt)
		if err != nil {
			httputil.BadRequest(w, "warmup_started_at must be RFC 3339")
			return
		}
		account.WarmupStartedAt = t
	}

	created, err := h.registry.Register(r.Context(), account)
	if err != nil {
		var se *registry.StoreError
		if errors.As(err, &se) {
			storeUnavailable(w, err)
			return
		}
		httputil.BadRequest(w, err.Error())
		return
	}

	httputil.Created(w, map[string]any{"account": created})
}

// DeactivateAccount retires an account from the pool. The row is kept;
// history and counters survive.
// DELETE /api/outreach/accounts/{id}
func (h *Handlers) DeactivateAccount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		httputil.BadRequest(w, "account id is required")
		return
	}

	if err := h.registry.Deactivate(r.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			httputil.NotFound(w, "account not found")
			return
		}
		storeUnavailable(w, err)
		return
	}

	httputil.NoContent(w)
}

// storeUnavailable maps a registry storage failure to 503.
func storeUnavailable(w http.ResponseWriter, err error) {
	httputil.ServiceUnavailable(w, "account store unavailable: "+err.Error())
}
