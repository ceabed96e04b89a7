package registry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/geospark/outreach-scheduler/internal/domain"
	"github.com/geospark/outreach-scheduler/internal/warmup"
)

type fakeRepo struct {
	accounts   []domain.Account
	listErr    error
	created    []*domain.Account
	increments map[string]int
}

func (f *fakeRepo) List(_ context.Context, _ ListFilter) ([]domain.Account, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]domain.Account, len(f.accounts))
	copy(out, f.accounts)
	return out, nil
}

func (f *fakeRepo) Create(_ context.Context, a *domain.Account) (string, error) {
	a.ID = "created-1"
	f.created = append(f.created, a)
	return a.ID, nil
}

func (f *fakeRepo) Deactivate(context.Context, string) error { return nil }

func (f *fakeRepo) IncrementSent(_ context.Context, id string, n int) error {
	if f.increments == nil {
		f.increments = map[string]int{}
	}
	f.increments[id] += n
	return nil
}

func (f *fakeRepo) SaveDerived(context.Context, string, domain.SendStatus, int) error { return nil }

func (f *fakeRepo) ResetDailyCounters(context.Context) (int64, error) { return 0, nil }

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestListDerivesOnEveryRead(t *testing.T) {
	now := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
	repo := &fakeRepo{accounts: []domain.Account{
		{
			ID: "a1", IsActive: true,
			Status:            domain.StatusWarmup, // stale: account aged past warmup
			BaseDailyLimit:    100,
			CurrentDailyLimit: 0, // stale display cache
			WarmupStartedAt:   now.AddDate(0, 0, -40),
		},
	}}

	reg := New(repo, warmup.NewClassifier()).WithClock(fixedClock(now))
	accounts, err := reg.List(context.Background(), ListFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	if accounts[0].Status != domain.StatusActive {
		t.Errorf("status = %q, want active (derived, not stored)", accounts[0].Status)
	}
	if accounts[0].CurrentDailyLimit != 100 {
		t.Errorf("current limit = %d, want 100", accounts[0].CurrentDailyLimit)
	}
}

func TestListStatusFilterUsesDerivedStatus(t *testing.T) {
	now := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
	repo := &fakeRepo{accounts: []domain.Account{
		{ID: "aged", IsActive: true, Status: domain.StatusLimited, BaseDailyLimit: 50, WarmupStartedAt: now.AddDate(0, 0, -40)},
		{ID: "young", IsActive: true, Status: domain.StatusWarmup, BaseDailyLimit: 50, WarmupStartedAt: now.AddDate(0, 0, -16)},
	}}

	reg := New(repo, warmup.NewClassifier()).WithClock(fixedClock(now))
	accounts, err := reg.List(context.Background(), ListFilter{Status: domain.StatusLimited})
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	if len(accounts) != 1 || accounts[0].ID != "young" {
		t.Fatalf("filtered accounts = %+v, want only the 16-day-old account", accounts)
	}
}

func TestListWrapsStoreFailure(t *testing.T) {
	repo := &fakeRepo{listErr: errors.New("connection refused")}
	reg := New(repo, warmup.NewClassifier())

	_, err := reg.List(context.Background(), ListFilter{})
	var storeErr *StoreError
	if !errors.As(err, &storeErr) {
		t.Fatalf("error = %v, want *StoreError", err)
	}
	if !storeErr.Retryable() {
		t.Error("store errors must be retryable")
	}
}

func TestRegisterDefaults(t *testing.T) {
	now := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
	repo := &fakeRepo{}
	reg := New(repo, warmup.NewClassifier()).WithClock(fixedClock(now))

	a, err := reg.Register(context.Background(), &domain.Account{Email: "new@acme.com"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if a.Status != domain.StatusWarmup {
		t.Errorf("status = %q, want warmup", a.Status)
	}
	if a.BaseDailyLimit != 50 {
		t.Errorf("base limit = %d, want default 50", a.BaseDailyLimit)
	}
	if !a.WarmupStartedAt.Equal(now) {
		t.Errorf("warmup start = %v, want %v", a.WarmupStartedAt, now)
	}
	if a.CurrentDailyLimit != 0 {
		t.Errorf("current limit = %d, want 0 during warmup", a.CurrentDailyLimit)
	}

	if _, err := reg.Register(context.Background(), &domain.Account{}); err == nil {
		t.Error("Register without email should fail")
	}
}

func TestIncrementSentSkipsNonPositive(t *testing.T) {
	repo := &fakeRepo{}
	reg := New(repo, warmup.NewClassifier())

	if err := reg.IncrementSent(context.Background(), "a1", 0); err != nil {
		t.Fatalf("IncrementSent(0): %v", err)
	}
	if err := reg.IncrementSent(context.Background(), "a1", 25); err != nil {
		t.Fatalf("IncrementSent(25): %v", err)
	}
	if repo.increments["a1"] != 25 {
		t.Errorf("increments = %v, want a1:25 only", repo.increments)
	}
}
