// Package api exposes the scheduler over HTTP: account pool management,
// capacity reads, dry-run planning, and batch admission.
package api

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/geospark/outreach-scheduler/internal/admission"
	"github.com/geospark/outreach-scheduler/internal/instantly"
	"github.com/geospark/outreach-scheduler/internal/pkg/httputil"
	"github.com/geospark/outreach-scheduler/internal/registry"
	"github.com/geospark/outreach-scheduler/internal/ses"
)

// Handlers carries the wired collaborators for all HTTP endpoints.
type Handlers struct {
	registry   *registry.Registry
	controller *admission.Controller
	campaigns  *instantly.Client // nil when the provider is not configured
	quota      *ses.QuotaChecker // nil when the SES cross-check is off
	db         *sql.DB           // nil in handler tests
}

// NewHandlers creates the handler set.
func NewHandlers(reg *registry.Registry, ctrl *admission.Controller) *Handlers {
	return &Handlers{registry: reg, controller: ctrl}
}

// WithCampaignAPI enables the provider campaign passthrough endpoints.
func (h *Handlers) WithCampaignAPI(client *instantly.Client) *Handlers {
	h.campaigns = client
	return h
}

// WithQuotaChecker enables the upstream SES quota warning on capacity reads.
func (h *Handlers) WithQuotaChecker(q *ses.QuotaChecker) *Handlers {
	h.quota = q
	return h
}

// WithDB wires the database handle used by the health check.
func (h *Handlers) WithDB(db *sql.DB) *Handlers {
	h.db = db
	return h
}

// HealthCheck reports service and database health.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	dbStatus := "not configured"
	if h.db != nil {
		dbStatus = "ok"
		if err := h.db.PingContext(r.Context()); err != nil {
			status = "degraded"
			dbStatus = "unreachable"
		}
	}

	httputil.OK(w, map[string]any{
		"status":    status,
		"database":  dbStatus,
		"timestamp": time.Now().UTC(),
	})
}
