package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/geospark/outreach-scheduler/internal/pkg/httputil"
)

// Campaign passthrough endpoints proxy the provider's campaign API so
// the dashboard has one origin for pool state and campaign state.

func (h *Handlers) providerConfigured(w http.ResponseWriter) bool {
	if h.campaigns == nil {
		httputil.ServiceUnavailable(w, "send provider not configured")
		return false
	}
	return true
}

// ListCampaigns lists the provider's campaigns.
// GET /api/outreach/campaigns
func (h *Handlers) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	if !h.providerConfigured(w) {
		return
	}

	campaigns, err := h.campaigns.ListCampaigns(r.Context())
	if err != nil {
		httputil.Error(w, http.StatusBadGateway, err.Error())
		return
	}
	httputil.OK(w, map[string]any{"campaigns": campaigns})
}

// GetCampaignStats returns the provider's analytics summary for one campaign.
// GET /api/outreach/campaigns/{id}/stats
func (h *Handlers) GetCampaignStats(w http.ResponseWriter, r *http.Request) {
	if !h.providerConfigured(w) {
		return
	}

	stats, err := h.campaigns.GetCampaignStats(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, http.StatusBadGateway, err.Error())
		return
	}
	httputil.OK(w, stats)
}

// LaunchCampaign activates a provider campaign.
// POST /api/outreach/campaigns/{id}/launch
func (h *Handlers) LaunchCampaign(w http.ResponseWriter, r *http.Request) {
	if !h.providerConfigured(w) {
		return
	}

	if err := h.campaigns.LaunchCampaign(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.Error(w, http.StatusBadGateway, err.Error())
		return
	}
	httputil.OK(w, map[string]any{"status": "launched"})
}

// PauseCampaign pauses a provider campaign.
// POST /api/outreach/campaigns/{id}/pause
func (h *Handlers) PauseCampaign(w http.ResponseWriter, r *http.Request) {
	if !h.providerConfigured(w) {
		return
	}

	if err := h.campaigns.PauseCampaign(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.Error(w, http.StatusBadGateway, err.Error())
		return
	}
	httputil.OK(w, map[string]any{"status": "paused"})
}
