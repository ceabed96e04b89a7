package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/geospark/outreach-scheduler/internal/domain"
	"github.com/geospark/outreach-scheduler/internal/registry"
)

func accountRows(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "email", "display_name", "domain", "provider",
		"is_active", "status", "base_daily_limit", "current_daily_limit", "sent_today",
		"warmup_started_at", "market_id", "agent_id", "created_at", "updated_at",
	}).AddRow(
		"acc-1", "sales1@geospark.io", "Sales One", "geospark.io", "zoho",
		true, "active", 100, 100, 20,
		now.AddDate(0, 0, -40), "m-1", "ag-1", now, now,
	)
}

func TestAccountList(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`FROM email_accounts WHERE 1=1 ORDER BY email`).
		WillReturnRows(accountRows(now))

	repo := NewAccountRepo(db)
	accounts, err := repo.List(context.Background(), registry.ListFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(accounts) != 1 {
		t.Fatalf("accounts = %d", len(accounts))
	}
	a := accounts[0]
	if a.ID != "acc-1" || a.Email != "sales1@geospark.io" || a.SentToday != 20 {
		t.Errorf("account = %+v", a)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestAccountListFilters(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	active := true
	mock.ExpectQuery(`FROM email_accounts WHERE 1=1 AND market_id = \$1 AND agent_id = \$2 AND is_active = \$3 ORDER BY email`).
		WithArgs("m-1", "ag-1", true).
		WillReturnRows(accountRows(time.Now()))

	repo := NewAccountRepo(db)
	_, err = repo.List(context.Background(), registry.ListFilter{
		MarketID: "m-1",
		AgentID:  "ag-1",
		IsActive: &active,
		// Status deliberately set: it must not reach the SQL, the registry
		// filters on the derived status after classification.
		Status: domain.StatusActive,
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestAccountCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`INSERT INTO email_accounts`).
		WithArgs(sqlmock.AnyArg(), "sales2@geospark.io", "", "geospark.io", "zoho",
			"warmup", 50, sqlmock.AnyArg(), "", "").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewAccountRepo(db)
	a := &domain.Account{
		Email:           "Sales2@GeoSpark.io",
		Status:          domain.StatusWarmup,
		BaseDailyLimit:  50,
		WarmupStartedAt: time.Now(),
	}
	id, err := repo.Create(context.Background(), a)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if id == "" {
		t.Error("empty id returned")
	}
	if a.Email != "sales2@geospark.io" {
		t.Errorf("email not lowercased: %s", a.Email)
	}
	if a.Domain != "geospark.io" {
		t.Errorf("domain not derived from email: %s", a.Domain)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestAccountDeactivateMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`UPDATE email_accounts SET is_active = false`).
		WithArgs("nope").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewAccountRepo(db)
	err = repo.Deactivate(context.Background(), "nope")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("err = %v, want sql.ErrNoRows", err)
	}
}

func TestAccountIncrementSentIsAtomic(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	// One UPDATE with an in-place add; the counter is never read first.
	mock.ExpectExec(`UPDATE email_accounts SET sent_today = sent_today \+ \$1`).
		WithArgs(25, "acc-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewAccountRepo(db)
	if err := repo.IncrementSent(context.Background(), "acc-1", 25); err != nil {
		t.Fatalf("IncrementSent: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestResetDailyCounters(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`UPDATE email_accounts SET sent_today = 0, updated_at = NOW\(\) WHERE sent_today <> 0`).
		WillReturnResult(sqlmock.NewResult(0, 7))

	repo := NewAccountRepo(db)
	n, err := repo.ResetDailyCounters(context.Background())
	if err != nil {
		t.Fatalf("ResetDailyCounters: %v", err)
	}
	if n != 7 {
		t.Errorf("rows = %d, want 7", n)
	}
}
