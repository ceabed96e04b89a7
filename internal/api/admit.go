package api

import (
	"errors"
	"net/http"

	"github.com/geospark/outreach-scheduler/internal/admission"
	"github.com/geospark/outreach-scheduler/internal/capacity"
	"github.com/geospark/outreach-scheduler/internal/pkg/httputil"
	"github.com/geospark/outreach-scheduler/internal/registry"
)

// AdmitBatch runs the full admission flow: capacity check, provider
// dispatch, then counter and lead bookkeeping.
// POST /api/outreach/admit
func (h *Handlers) AdmitBatch(w http.ResponseWriter, r *http.Request) {
	var req admission.Request
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.CampaignID == "" {
		httputil.BadRequest(w, "campaign_id is required")
		return
	}

	result, err := h.controller.AdmitBatch(r.Context(), req)
	if err != nil {
		writeAdmissionError(w, err)
		return
	}

	httputil.OK(w, result)
}

// writeAdmissionError maps the admission error taxonomy onto HTTP status
// codes. Capacity rejections carry the structured payload so callers can
// resize the batch without a second round trip.
func writeAdmissionError(w http.ResponseWriter, err error) {
	var capErr *admission.CapacityExceededError
	if errors.As(err, &capErr) {
		httputil.ErrorWithDetails(w, http.StatusConflict, capErr.Error(), "capacity_exceeded", capErr)
		return
	}
	if errors.Is(err, admission.ErrContended) {
		httputil.Conflict(w, err.Error())
		return
	}
	if errors.Is(err, capacity.ErrInvalidRequest) {
		httputil.BadRequest(w, "lead_count must be positive")
		return
	}
	var se *registry.StoreError
	if errors.As(err, &se) {
		storeUnavailable(w, err)
		return
	}
	var pe *admission.ProviderDispatchError
	if errors.As(err, &pe) {
		httputil.Error(w, http.StatusBadGateway, pe.Error())
		return
	}
	httputil.InternalError(w, err)
}
