package api

import (
	"errors"
	"net/http"

	"github.com/geospark/outreach-scheduler/internal/capacity"
	"github.com/geospark/outreach-scheduler/internal/domain"
	"github.com/geospark/outreach-scheduler/internal/pkg/httputil"
	"github.com/geospark/outreach-scheduler/internal/registry"
)

// capacityTotals is the aggregate block of a capacity response.
type capacityTotals struct {
	Total          int `json:"total"`
	Used           int `json:"used"`
	Remaining      int `json:"remaining"`
	PercentageUsed int `json:"percentage_used"`
}

// capacityResponse is the wire shape of a capacity read.
type capacityResponse struct {
	Capacity        capacityTotals                             `json:"capacity"`
	ByStatus        map[domain.SendStatus]*domain.StatusBucket `json:"by_status"`
	ReadyAccounts   []domain.ReadyAccount                      `json:"ready_accounts"`
	CanSend         bool                                       `json:"can_send"`
	Warnings        []string                                   `json:"warnings"`
	Recommendations []string                                   `json:"recommendations"`
}

// GetCapacity returns a point-in-time capacity snapshot over the
// filtered account scope, including health warnings. When the SES quota
// checker is wired, an upstream quota warning may be appended.
// GET /api/outreach/capacity?market_id=&agent_id=
func (h *Handlers) GetCapacity(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	snap, err := h.controller.GetCapacity(r.Context(), q.Get("market_id"), q.Get("agent_id"))
	if err != nil {
		storeUnavailable(w, err)
		return
	}

	warnings := snap.Warnings
	if h.quota != nil {
		if msg, warned := h.quota.Warn(r.Context(), snap.TotalRemaining); warned {
			warnings = append(warnings, msg)
		}
	}

	httputil.OK(w, capacityResponse{
		Capacity: capacityTotals{
			Total:          snap.TotalCapacity,
			Used:           snap.TotalUsed,
			Remaining:      snap.TotalRemaining,
			PercentageUsed: snap.PercentageUsed,
		},
		ByStatus:        snap.ByStatus,
		ReadyAccounts:   snap.ReadyAccounts,
		CanSend:         snap.CanSend,
		Warnings:        warnings,
		Recommendations: snap.Recommendations,
	})
}

// planRequest asks whether a batch of lead_count fits today.
type planRequest struct {
	LeadCount int    `json:"lead_count"`
	MarketID  string `json:"market_id"`
	AgentID   string `json:"agent_id"`
}

// PlanDistribution is the dry-run planner: it allocates the requested
// volume across ready accounts without dispatching or counting anything.
// POST /api/outreach/capacity/plan
func (h *Handlers) PlanDistribution(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if !httputil.Decode(w, r, &req) {
		return
	}

	plan, err := h.controller.PlanDistribution(r.Context(), req.LeadCount, req.MarketID, req.AgentID)
	if err != nil {
		if errors.Is(err, capacity.ErrInvalidRequest) {
			httputil.BadRequest(w, "lead_count must be positive")
			return
		}
		var se *registry.StoreError
		if errors.As(err, &se) {
			storeUnavailable(w, err)
			return
		}
		httputil.InternalError(w, err)
		return
	}

	httputil.OK(w, plan)
}
