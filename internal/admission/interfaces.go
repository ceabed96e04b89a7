// Package admission orchestrates a real send request: load and classify
// the account pool, decide whether the batch fits, hand it to the
// external send provider, then persist counters and lead bookkeeping.
//
// Admission is best-effort, not exact exclusion: between the capacity
// read and the counter write, a concurrent batch can slip in and jointly
// overshoot a soft limit by at most one in-flight batch. The storage
// layer's atomic increments keep the counts themselves uncorrupted. An
// optional distributed lock per market scope gives the stricter behavior.
package admission

import (
	"context"

	"github.com/geospark/outreach-scheduler/internal/domain"
)

// LeadFilter narrows a lead listing. When IDs is set the other fields
// are ignored.
type LeadFilter struct {
	IDs    []string
	Status string
	Limit  int
}

// LeadStore is the collaborator owning lead records. Only the contacted
// transition and the audit trail are written from here.
type LeadStore interface {
	List(ctx context.Context, f LeadFilter) ([]domain.Lead, error)
	MarkContacted(ctx context.Context, leadIDs []string, campaignID string) error
	AppendActivities(ctx context.Context, activities []domain.LeadActivity) error
}

// Provider is the upstream ESP that actually delivers email once a batch
// is admitted. The provider fans out per-recipient sending itself; this
// subsystem's obligation ends at "batch is within aggregate capacity".
//
// The plan is advisory: providers that honor per-account routing use its
// allocations, hosted providers may ignore it and report only aggregate
// uploaded/skipped numbers.
type Provider interface {
	Name() string
	SendBatch(ctx context.Context, campaignID string, plan *domain.DistributionPlan, leads []domain.Lead) (*domain.DispatchResult, error)
}
