package admission

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geospark/outreach-scheduler/internal/capacity"
	"github.com/geospark/outreach-scheduler/internal/domain"
	"github.com/geospark/outreach-scheduler/internal/registry"
	"github.com/geospark/outreach-scheduler/internal/warmup"
)

// ---------------------------------------------------------------------------
// fakes
// ---------------------------------------------------------------------------

type fakeAccountRepo struct {
	accounts   []domain.Account
	listErr    error
	increments map[string]int
}

func (f *fakeAccountRepo) List(context.Context, registry.ListFilter) ([]domain.Account, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]domain.Account, len(f.accounts))
	copy(out, f.accounts)
	return out, nil
}

func (f *fakeAccountRepo) Create(_ context.Context, a *domain.Account) (string, error) {
	return a.ID, nil
}
func (f *fakeAccountRepo) Deactivate(context.Context, string) error { return nil }
func (f *fakeAccountRepo) IncrementSent(_ context.Context, id string, n int) error {
	if f.increments == nil {
		f.increments = map[string]int{}
	}
	f.increments[id] += n
	return nil
}
func (f *fakeAccountRepo) SaveDerived(context.Context, string, domain.SendStatus, int) error {
	return nil
}
func (f *fakeAccountRepo) ResetDailyCounters(context.Context) (int64, error) { return 0, nil }

type fakeLeadStore struct {
	leads      []domain.Lead
	contacted  []string
	activities []domain.LeadActivity
}

func (f *fakeLeadStore) List(_ context.Context, filter LeadFilter) ([]domain.Lead, error) {
	if filter.Limit > 0 && filter.Limit < len(f.leads) {
		return f.leads[:filter.Limit], nil
	}
	return f.leads, nil
}
func (f *fakeLeadStore) MarkContacted(_ context.Context, ids []string, _ string) error {
	f.contacted = append(f.contacted, ids...)
	return nil
}
func (f *fakeLeadStore) AppendActivities(_ context.Context, acts []domain.LeadActivity) error {
	f.activities = append(f.activities, acts...)
	return nil
}

type fakeProvider struct {
	result     *domain.DispatchResult
	err        error
	dispatches int
}

func (f *fakeProvider) Name() string { return "instantly" }
func (f *fakeProvider) SendBatch(_ context.Context, _ string, _ *domain.DistributionPlan, leads []domain.Lead) (*domain.DispatchResult, error) {
	f.dispatches++
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &domain.DispatchResult{Uploaded: len(leads)}, nil
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func activeAccount(id string, base, sent int) domain.Account {
	return domain.Account{
		ID:              id,
		Email:           id + "@acme.com",
		IsActive:        true,
		BaseDailyLimit:  base,
		SentToday:       sent,
		WarmupStartedAt: time.Now().AddDate(0, 0, -40),
	}
}

func makeLeads(n int) []domain.Lead {
	out := make([]domain.Lead, n)
	for i := range out {
		out[i] = domain.Lead{ID: string(rune('l')) + string(rune('0'+i)), Email: "lead@x.com", Status: domain.LeadStatusNew}
	}
	return out
}

func newTestController(repo *fakeAccountRepo, leads *fakeLeadStore, provider *fakeProvider) *Controller {
	reg := registry.New(repo, warmup.NewClassifier())
	return NewController(reg, leads, provider)
}

func boolp(b bool) *bool { return &b }

// ---------------------------------------------------------------------------
// tests
// ---------------------------------------------------------------------------

func TestAdmitBatchCapacityExceeded(t *testing.T) {
	// Pool remaining: 80 + 40 = 120.
	repo := &fakeAccountRepo{accounts: []domain.Account{
		activeAccount("a1", 100, 20),
		activeAccount("a2", 50, 10),
	}}
	leads := &fakeLeadStore{leads: makeLeads(5)}
	provider := &fakeProvider{}
	ctrl := newTestController(repo, leads, provider)

	_, err := ctrl.AdmitBatch(context.Background(), Request{
		CampaignID:    "camp-1",
		LeadCount:     500,
		CheckCapacity: boolp(true),
	})

	var capErr *CapacityExceededError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, 500, capErr.Requested)
	assert.Equal(t, 120, capErr.Available)
	assert.Contains(t, capErr.Recommendation, "120")

	assert.Zero(t, provider.dispatches, "rejected batch must not reach the provider")
	assert.Empty(t, repo.increments, "rejected batch must not touch counters")
	assert.Empty(t, leads.contacted)
}

func TestAdmitBatchChecksCapacityByDefault(t *testing.T) {
	// A request that never sets CheckCapacity is still gated: omitting
	// the field must not read as opting out of the check.
	repo := &fakeAccountRepo{accounts: []domain.Account{
		activeAccount("a1", 100, 20), // remaining 80
	}}
	leads := &fakeLeadStore{leads: makeLeads(5)}
	provider := &fakeProvider{}
	ctrl := newTestController(repo, leads, provider)

	_, err := ctrl.AdmitBatch(context.Background(), Request{
		CampaignID: "camp-1",
		LeadCount:  500,
	})

	var capErr *CapacityExceededError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, 500, capErr.Requested)
	assert.Equal(t, 80, capErr.Available)

	assert.Zero(t, provider.dispatches)
	assert.Empty(t, repo.increments)
}

func TestAdmitBatchExplicitCheckOptOut(t *testing.T) {
	repo := &fakeAccountRepo{accounts: []domain.Account{
		activeAccount("a1", 100, 20), // remaining 80
	}}
	leads := &fakeLeadStore{leads: makeLeads(5)}
	provider := &fakeProvider{}
	ctrl := newTestController(repo, leads, provider)

	res, err := ctrl.AdmitBatch(context.Background(), Request{
		CampaignID:    "camp-1",
		LeadCount:     500,
		CheckCapacity: boolp(false),
	})
	require.NoError(t, err)
	assert.True(t, res.Admitted)
	assert.Equal(t, 1, provider.dispatches)
}

func TestAdmitBatchZeroCapacityRecommendation(t *testing.T) {
	repo := &fakeAccountRepo{accounts: []domain.Account{
		{ID: "w1", IsActive: true, BaseDailyLimit: 50, WarmupStartedAt: time.Now().AddDate(0, 0, -3)},
	}}
	ctrl := newTestController(repo, &fakeLeadStore{}, &fakeProvider{})

	_, err := ctrl.AdmitBatch(context.Background(), Request{
		CampaignID: "camp-1", LeadCount: 10, CheckCapacity: boolp(true),
	})

	var capErr *CapacityExceededError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, 0, capErr.Available)
	assert.Contains(t, capErr.Recommendation, "warming up")
}

func TestAdmitBatchSuccess(t *testing.T) {
	repo := &fakeAccountRepo{accounts: []domain.Account{
		activeAccount("a1", 100, 20), // remaining 80
		activeAccount("a2", 50, 10),  // remaining 40
	}}
	leads := &fakeLeadStore{leads: makeLeads(5)}
	provider := &fakeProvider{result: &domain.DispatchResult{Uploaded: 100, Skipped: 0}}
	ctrl := newTestController(repo, leads, provider)

	res, err := ctrl.AdmitBatch(context.Background(), Request{
		CampaignID:    "camp-1",
		LeadCount:     100,
		CheckCapacity: boolp(true),
	})
	require.NoError(t, err)

	assert.True(t, res.Admitted)
	assert.True(t, res.Plan.CanSendAll)
	assert.Equal(t, 100, res.Uploaded)
	// Greedy plan: 80 to a1, 20 to a2; provider gave no per-account
	// breakdown, so the plan is the (estimated) attribution.
	assert.Equal(t, map[string]int{"a1": 80, "a2": 20}, repo.increments)
	assert.True(t, res.CountsEstimate)

	assert.Len(t, leads.contacted, 5)
	assert.Len(t, leads.activities, 5)
	assert.Equal(t, domain.ActivityEmailSent, leads.activities[0].Type)
	assert.Contains(t, leads.activities[0].Notes, "camp-1")
}

func TestAdmitBatchPrefersProviderPerAccountCounts(t *testing.T) {
	repo := &fakeAccountRepo{accounts: []domain.Account{activeAccount("a1", 100, 0)}}
	leads := &fakeLeadStore{leads: makeLeads(3)}
	provider := &fakeProvider{result: &domain.DispatchResult{
		Uploaded:   3,
		PerAccount: map[string]int{"a1": 3},
	}}
	ctrl := newTestController(repo, leads, provider)

	res, err := ctrl.AdmitBatch(context.Background(), Request{
		CampaignID: "camp-1", LeadCount: 3, CheckCapacity: boolp(true),
	})
	require.NoError(t, err)

	assert.False(t, res.CountsEstimate, "provider-reported counts are exact")
	assert.Equal(t, map[string]int{"a1": 3}, repo.increments)
}

func TestAdmitBatchScalesEstimateToUploaded(t *testing.T) {
	repo := &fakeAccountRepo{accounts: []domain.Account{
		activeAccount("a1", 100, 20), // remaining 80
		activeAccount("a2", 50, 10),  // remaining 40
	}}
	leads := &fakeLeadStore{leads: makeLeads(5)}
	// Provider deduplicated: only 90 of the planned 100 made it.
	provider := &fakeProvider{result: &domain.DispatchResult{Uploaded: 90, Skipped: 10}}
	ctrl := newTestController(repo, leads, provider)

	res, err := ctrl.AdmitBatch(context.Background(), Request{
		CampaignID: "camp-1", LeadCount: 100, CheckCapacity: boolp(true),
	})
	require.NoError(t, err)
	require.True(t, res.CountsEstimate)

	// Deficit of 10 shed from the smallest allocation (a2: 20 → 10).
	assert.Equal(t, map[string]int{"a1": 80, "a2": 10}, repo.increments)
}

func TestAdmitBatchProviderFailure(t *testing.T) {
	repo := &fakeAccountRepo{accounts: []domain.Account{activeAccount("a1", 100, 0)}}
	leads := &fakeLeadStore{leads: makeLeads(2)}
	provider := &fakeProvider{err: errors.New("upstream 503")}
	ctrl := newTestController(repo, leads, provider)

	_, err := ctrl.AdmitBatch(context.Background(), Request{
		CampaignID: "camp-1", LeadCount: 2, CheckCapacity: boolp(true),
	})

	var dispatchErr *ProviderDispatchError
	require.ErrorAs(t, err, &dispatchErr)
	assert.Empty(t, repo.increments, "failed dispatch must not be counted")
	assert.Empty(t, leads.contacted)
}

func TestAdmitBatchForceSendSkipsCheck(t *testing.T) {
	// Zero-capacity pool, but force-send dispatches anyway.
	repo := &fakeAccountRepo{accounts: []domain.Account{
		{ID: "w1", IsActive: true, BaseDailyLimit: 50, WarmupStartedAt: time.Now().AddDate(0, 0, -2)},
	}}
	leads := &fakeLeadStore{leads: makeLeads(3)}
	provider := &fakeProvider{}
	ctrl := newTestController(repo, leads, provider)

	res, err := ctrl.AdmitBatch(context.Background(), Request{
		CampaignID:    "camp-1",
		LeadCount:     3,
		CheckCapacity: boolp(true),
		ForceSend:     true,
	})
	require.NoError(t, err)
	assert.True(t, res.Admitted)
	assert.Equal(t, 1, provider.dispatches)
}

func TestAdmitBatchInvalidCount(t *testing.T) {
	ctrl := newTestController(&fakeAccountRepo{}, &fakeLeadStore{}, &fakeProvider{})

	_, err := ctrl.AdmitBatch(context.Background(), Request{CampaignID: "c", LeadCount: 0})
	assert.ErrorIs(t, err, capacity.ErrInvalidRequest)

	_, err = ctrl.AdmitBatch(context.Background(), Request{CampaignID: "c", LeadCount: -5})
	assert.ErrorIs(t, err, capacity.ErrInvalidRequest)
}

func TestAdmitBatchStoreUnavailable(t *testing.T) {
	repo := &fakeAccountRepo{listErr: errors.New("dial tcp: connection refused")}
	ctrl := newTestController(repo, &fakeLeadStore{}, &fakeProvider{})

	_, err := ctrl.AdmitBatch(context.Background(), Request{
		CampaignID: "c", LeadCount: 5, CheckCapacity: boolp(true),
	})

	var storeErr *registry.StoreError
	require.ErrorAs(t, err, &storeErr, "store failure must not read as zero accounts")
}

func TestGetCapacityAndPlanPreview(t *testing.T) {
	repo := &fakeAccountRepo{accounts: []domain.Account{
		activeAccount("a1", 100, 20),
		activeAccount("a2", 50, 10),
	}}
	ctrl := newTestController(repo, &fakeLeadStore{}, &fakeProvider{})

	snap, err := ctrl.GetCapacity(context.Background(), "", "")
	require.NoError(t, err)
	assert.Equal(t, 120, snap.TotalRemaining)

	plan, err := ctrl.PlanDistribution(context.Background(), 200, "", "")
	require.NoError(t, err)
	assert.Equal(t, 120, plan.TotalAllocated)
	assert.Equal(t, 80, plan.Shortfall)
}
