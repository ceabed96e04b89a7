package admission

import (
	"context"
	"fmt"
	"time"

	"github.com/geospark/outreach-scheduler/internal/capacity"
	"github.com/geospark/outreach-scheduler/internal/domain"
	"github.com/geospark/outreach-scheduler/internal/pkg/distlock"
	"github.com/geospark/outreach-scheduler/internal/pkg/logger"
	"github.com/geospark/outreach-scheduler/internal/registry"
)

// LockFactory builds a distributed lock for an admission scope key.
// Nil disables serialization.
type LockFactory func(key string, ttl time.Duration) distlock.DistLock

// Controller is the admission entry point used before dispatching a
// batch of leads to the external send provider.
type Controller struct {
	registry *registry.Registry
	leads    LeadStore
	provider Provider
	locks    LockFactory
	lockTTL  time.Duration
}

// NewController wires the admission controller.
func NewController(reg *registry.Registry, leads LeadStore, provider Provider) *Controller {
	return &Controller{
		registry: reg,
		leads:    leads,
		provider: provider,
		lockTTL:  30 * time.Second,
	}
}

// WithLock enables per-scope serialization of admissions. This is the
// stricter alternative to best-effort admission: it closes the
// check-then-act window at the cost of one batch per scope at a time.
func (c *Controller) WithLock(locks LockFactory, ttl time.Duration) *Controller {
	c.locks = locks
	if ttl > 0 {
		c.lockTTL = ttl
	}
	return c
}

// Request describes one batch admission.
type Request struct {
	CampaignID string   `json:"campaign_id"`
	LeadIDs    []string `json:"lead_ids,omitempty"`
	LeadCount  int      `json:"lead_count"`
	MarketID   string   `json:"market_id,omitempty"`
	AgentID    string   `json:"agent_id,omitempty"`

	// CheckCapacity gates the admission decision and defaults to true
	// when omitted; ForceSend dispatches regardless of capacity. Callers
	// disabling the check either way accept overshoot risk.
	CheckCapacity *bool `json:"check_capacity,omitempty"`
	ForceSend     bool  `json:"force_send"`
}

func (r *Request) count() int {
	if r.LeadCount > 0 {
		return r.LeadCount
	}
	return len(r.LeadIDs)
}

func (r *Request) checkCapacity() bool {
	if r.CheckCapacity == nil {
		return true
	}
	return *r.CheckCapacity
}

// GetCapacity returns a fresh snapshot over the filtered account scope.
func (c *Controller) GetCapacity(ctx context.Context, marketID, agentID string) (*domain.CapacitySnapshot, error) {
	accounts, err := c.registry.List(ctx, registry.ActiveOnly(marketID, agentID))
	if err != nil {
		return nil, err
	}
	return capacity.BuildSnapshot(accounts), nil
}

// PlanDistribution answers "can I send N leads" without side effects.
func (c *Controller) PlanDistribution(ctx context.Context, requested int, marketID, agentID string) (*domain.DistributionPlan, error) {
	snap, err := c.GetCapacity(ctx, marketID, agentID)
	if err != nil {
		return nil, err
	}
	return capacity.PlanDistribution(requested, snap.ReadyAccounts)
}

// AdmitBatch runs the full admission flow. Outcomes:
//   - *CapacityExceededError: rejected, nothing dispatched or counted.
//   - *registry.StoreError: store unavailable, retryable.
//   - *ProviderDispatchError: admitted but the provider failed; no
//     counters were incremented (dispatch-then-count, never the reverse).
//   - nil error: dispatched; counters and lead bookkeeping persisted.
func (c *Controller) AdmitBatch(ctx context.Context, req Request) (*domain.AdmissionResult, error) {
	leadCount := req.count()
	if leadCount <= 0 {
		return nil, capacity.ErrInvalidRequest
	}
	if req.CampaignID == "" {
		return nil, fmt.Errorf("campaign_id is required")
	}

	if c.locks != nil {
		lock := c.locks("admission:"+scopeKey(req.MarketID, req.AgentID), c.lockTTL)
		acquired, err := lock.Acquire(ctx)
		if err != nil {
			return nil, fmt.Errorf("acquire admission lock: %w", err)
		}
		if !acquired {
			return nil, ErrContended
		}
		defer lock.Release(ctx)
	}

	accounts, err := c.registry.List(ctx, registry.ActiveOnly(req.MarketID, req.AgentID))
	if err != nil {
		return nil, err
	}
	snap := capacity.BuildSnapshot(accounts)

	if req.checkCapacity() && !req.ForceSend && leadCount > snap.TotalRemaining {
		logger.Info("batch rejected: capacity exceeded",
			"requested", leadCount, "available", snap.TotalRemaining,
			"market_id", req.MarketID)
		return nil, newCapacityExceeded(leadCount, snap.TotalRemaining)
	}

	// The plan is built even on force-send: it drives counter attribution
	// and telemetry, not the dispatch itself.
	plan, err := capacity.PlanDistribution(leadCount, snap.ReadyAccounts)
	if err != nil {
		return nil, err
	}

	leads, err := c.loadLeads(ctx, req, leadCount)
	if err != nil {
		return nil, &registry.StoreError{Op: "list leads", Err: err}
	}
	if len(leads) == 0 {
		logger.Info("no leads to push", "campaign_id", req.CampaignID)
		return &domain.AdmissionResult{Admitted: true, Plan: plan}, nil
	}

	dispatch, err := c.provider.SendBatch(ctx, req.CampaignID, plan, leads)
	if err != nil {
		return nil, &ProviderDispatchError{Provider: c.provider.Name(), Err: err}
	}

	result := &domain.AdmissionResult{
		Admitted:       true,
		Plan:           plan,
		Uploaded:       dispatch.Uploaded,
		Skipped:        dispatch.Skipped,
		TotalProcessed: len(leads),
	}

	counts, estimated := attributeCounts(plan, dispatch)
	result.CountsEstimate = estimated
	for accountID, n := range counts {
		if err := c.registry.IncrementSent(ctx, accountID, n); err != nil {
			// Sends already happened; failing the batch now would just hide
			// them. Undercounting is the flagged gap, not a rollback reason.
			logger.Error("failed to record sent counter",
				"account_id", accountID, "count", n, "error", err)
		}
	}

	c.recordLeadOutcome(ctx, req.CampaignID, leads)
	return result, nil
}

func (c *Controller) loadLeads(ctx context.Context, req Request, leadCount int) ([]domain.Lead, error) {
	f := LeadFilter{IDs: req.LeadIDs}
	if len(f.IDs) == 0 {
		f.Status = domain.LeadStatusNew
		f.Limit = leadCount
	}
	return c.leads.List(ctx, f)
}

// attributeCounts decides what to add to each account's sent counter.
// Preference order: the provider's own per-account breakdown; otherwise
// the plan's allocations scaled down to the provider-reported uploaded
// total. The scaled path is flagged as an estimate. Smallest allocations
// shed first, so the accounts that absorbed the most load keep their
// attribution.
func attributeCounts(plan *domain.DistributionPlan, dispatch *domain.DispatchResult) (map[string]int, bool) {
	if len(dispatch.PerAccount) > 0 {
		return dispatch.PerAccount, false
	}

	counts := make(map[string]int, len(plan.Allocations))
	for _, alloc := range plan.Allocations {
		counts[alloc.AccountID] += alloc.Count
	}

	deficit := plan.TotalAllocated - dispatch.Uploaded
	if deficit > 0 {
		logger.Warn("provider reported fewer uploads than planned; recording estimated counters",
			"planned", plan.TotalAllocated, "uploaded", dispatch.Uploaded)
		for i := len(plan.Allocations) - 1; i >= 0 && deficit > 0; i-- {
			id := plan.Allocations[i].AccountID
			cut := min(deficit, counts[id])
			counts[id] -= cut
			deficit -= cut
			if counts[id] == 0 {
				delete(counts, id)
			}
		}
	}
	return counts, true
}

func (c *Controller) recordLeadOutcome(ctx context.Context, campaignID string, leads []domain.Lead) {
	ids := make([]string, len(leads))
	activities := make([]domain.LeadActivity, len(leads))
	for i, l := range leads {
		ids[i] = l.ID
		activities[i] = domain.LeadActivity{
			LeadID: l.ID,
			Type:   domain.ActivityEmailSent,
			Notes:  fmt.Sprintf("Added to %s campaign: %s", c.provider.Name(), campaignID),
		}
	}

	if err := c.leads.MarkContacted(ctx, ids, campaignID); err != nil {
		logger.Error("failed to mark leads contacted", "campaign_id", campaignID, "error", err)
	}
	if err := c.leads.AppendActivities(ctx, activities); err != nil {
		logger.Error("failed to append lead activities", "campaign_id", campaignID, "error", err)
	}
}

func scopeKey(marketID, agentID string) string {
	switch {
	case marketID != "" && agentID != "":
		return marketID + ":" + agentID
	case marketID != "":
		return marketID
	case agentID != "":
		return agentID
	}
	return "global"
}
