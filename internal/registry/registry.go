// Package registry loads sending accounts from the backing store and
// guarantees that every account handed out has a freshly derived status
// and current daily limit. Derivation happens on every read, never at
// write time, so elapsed warmup time is always reflected without a cron.
package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/geospark/outreach-scheduler/internal/domain"
	"github.com/geospark/outreach-scheduler/internal/warmup"
)

// ListFilter narrows an account listing. Zero-value fields are ignored.
type ListFilter struct {
	MarketID string
	AgentID  string
	Status   domain.SendStatus
	IsActive *bool
}

// ActiveOnly is a convenience filter for the admission path.
func ActiveOnly(marketID, agentID string) ListFilter {
	active := true
	return ListFilter{MarketID: marketID, AgentID: agentID, IsActive: &active}
}

// AccountRepository is the thin storage contract the registry depends
// on. IncrementSent must be an atomic counter add at the storage layer
// (a single UPDATE, never read-modify-write in application code).
type AccountRepository interface {
	List(ctx context.Context, f ListFilter) ([]domain.Account, error)
	Create(ctx context.Context, a *domain.Account) (string, error)
	Deactivate(ctx context.Context, id string) error
	IncrementSent(ctx context.Context, accountID string, n int) error
	SaveDerived(ctx context.Context, id string, status domain.SendStatus, currentLimit int) error
	ResetDailyCounters(ctx context.Context) (int64, error)
}

// Registry applies the lifecycle classifier on every read and wraps
// storage failures so callers can tell "store unavailable" from "no
// accounts".
type Registry struct {
	repo       AccountRepository
	classifier *warmup.Classifier
	now        func() time.Time

	// DefaultBaseDailyLimit seeds newly registered accounts.
	DefaultBaseDailyLimit int
}

// New creates a registry. classifier must not be nil.
func New(repo AccountRepository, classifier *warmup.Classifier) *Registry {
	return &Registry{
		repo:                  repo,
		classifier:            classifier,
		now:                   time.Now,
		DefaultBaseDailyLimit: 50,
	}
}

// WithClock overrides the clock, for tests.
func (r *Registry) WithClock(now func() time.Time) *Registry {
	r.now = now
	return r
}

// List loads accounts and re-derives status and current limit for each.
// A storage failure surfaces as a *StoreError; it is never collapsed
// into an empty result.
func (r *Registry) List(ctx context.Context, f ListFilter) ([]domain.Account, error) {
	accounts, err := r.repo.List(ctx, f)
	if err != nil {
		return nil, &StoreError{Op: "list accounts", Err: err}
	}

	now := r.now()
	for i := range accounts {
		r.classifier.Derive(&accounts[i], now)
	}

	// Status filters apply to the derived status, not the stored one: an
	// account stored as "limited" that aged into "ramping" must not leak
	// through a status=limited filter.
	if f.Status != "" {
		filtered := accounts[:0]
		for _, a := range accounts {
			if a.Status == f.Status {
				filtered = append(filtered, a)
			}
		}
		accounts = filtered
	}

	return accounts, nil
}

// Register creates a new sending account. Status starts in warmup with
// the warmup clock at now unless the caller backdates WarmupStartedAt
// (migrating an already-warm mailbox in).
func (r *Registry) Register(ctx context.Context, a *domain.Account) (*domain.Account, error) {
	if a.Email == "" {
		return nil, fmt.Errorf("account email is required")
	}
	if a.BaseDailyLimit <= 0 {
		a.BaseDailyLimit = r.DefaultBaseDailyLimit
	}
	if a.WarmupStartedAt.IsZero() {
		a.WarmupStartedAt = r.now()
	}
	a.IsActive = true
	a.Status = domain.StatusWarmup

	if _, err := r.repo.Create(ctx, a); err != nil {
		return nil, &StoreError{Op: "create account", Err: err}
	}

	r.classifier.Derive(a, r.now())
	return a, nil
}

// Deactivate retires an account from the pool. Accounts are never
// deleted by this subsystem.
func (r *Registry) Deactivate(ctx context.Context, id string) error {
	if err := r.repo.Deactivate(ctx, id); err != nil {
		return &StoreError{Op: "deactivate account", Err: err}
	}
	return nil
}

// IncrementSent records n sends against an account. The underlying
// update is a single atomic add, so concurrent batches can overshoot a
// soft limit by at most one in-flight batch but never corrupt the count.
func (r *Registry) IncrementSent(ctx context.Context, accountID string, n int) error {
	if n <= 0 {
		return nil
	}
	if err := r.repo.IncrementSent(ctx, accountID, n); err != nil {
		return &StoreError{Op: "increment sent counter", Err: err}
	}
	return nil
}

// ResetDailyCounters zeroes sent_today across the pool. Returns the
// number of accounts touched. Called once per UTC day by the reset worker.
func (r *Registry) ResetDailyCounters(ctx context.Context) (int64, error) {
	n, err := r.repo.ResetDailyCounters(ctx)
	if err != nil {
		return 0, &StoreError{Op: "reset daily counters", Err: err}
	}
	return n, nil
}

// RefreshDerived writes the freshly derived status/limit back as a
// display cache. Best-effort: the stored values are never ground truth.
func (r *Registry) RefreshDerived(ctx context.Context, accounts []domain.Account) error {
	for i := range accounts {
		a := &accounts[i]
		if err := r.repo.SaveDerived(ctx, a.ID, a.Status, a.CurrentDailyLimit); err != nil {
			return &StoreError{Op: "save derived state", Err: err}
		}
	}
	return nil
}

// Classifier exposes the registry's classifier for read-side callers
// that need phase projections (days-until-next-phase on listings).
func (r *Registry) Classifier() *warmup.Classifier { return r.classifier }

// Now returns the registry's current clock reading.
func (r *Registry) Now() time.Time { return r.now() }
