// Package postgres implements the scheduler's storage contracts against
// PostgreSQL. The sent_today counter is only ever touched with single
// atomic UPDATEs so concurrent admissions can never corrupt it.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/geospark/outreach-scheduler/internal/domain"
	"github.com/geospark/outreach-scheduler/internal/registry"
)

// AccountRepo implements registry.AccountRepository against PostgreSQL.
type AccountRepo struct{ db *sql.DB }

// NewAccountRepo creates a Postgres-backed account repository.
func NewAccountRepo(db *sql.DB) *AccountRepo { return &AccountRepo{db: db} }

const accountColumns = `id, email, COALESCE(display_name,''), domain, COALESCE(provider,''),
	       is_active, status, base_daily_limit, current_daily_limit, sent_today,
	       warmup_started_at, COALESCE(market_id,''), COALESCE(agent_id,''), created_at, updated_at`

func (r *AccountRepo) List(ctx context.Context, f registry.ListFilter) ([]domain.Account, error) {
	q := `SELECT ` + accountColumns + ` FROM email_accounts WHERE 1=1`
	args := []interface{}{}
	idx := 1

	if f.MarketID != "" {
		q += fmt.Sprintf(" AND market_id = $%d", idx)
		args = append(args, f.MarketID)
		idx++
	}
	if f.AgentID != "" {
		q += fmt.Sprintf(" AND agent_id = $%d", idx)
		args = append(args, f.AgentID)
		idx++
	}
	if f.IsActive != nil {
		q += fmt.Sprintf(" AND is_active = $%d", idx)
		args = append(args, *f.IsActive)
		idx++
	}
	// Status is intentionally NOT pushed into SQL: the stored status can
	// be stale, so the registry filters on the derived status instead.
	q += " ORDER BY email"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []domain.Account
	for rows.Next() {
		var a domain.Account
		if err := rows.Scan(
			&a.ID, &a.Email, &a.DisplayName, &a.Domain, &a.Provider,
			&a.IsActive, &a.Status, &a.BaseDailyLimit, &a.CurrentDailyLimit, &a.SentToday,
			&a.WarmupStartedAt, &a.MarketID, &a.AgentID, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *AccountRepo) Create(ctx context.Context, a *domain.Account) (string, error) {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	a.Email = strings.ToLower(a.Email)
	if a.Domain == "" {
		if at := strings.Index(a.Email, "@"); at >= 0 {
			a.Domain = a.Email[at+1:]
		}
	}
	if a.Provider == "" {
		a.Provider = "zoho"
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO email_accounts
			(id, email, display_name, domain, provider, is_active, status,
			 base_daily_limit, current_daily_limit, sent_today,
			 warmup_started_at, market_id, agent_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, true, $6, $7, 0, 0, $8, NULLIF($9,''), NULLIF($10,''), NOW(), NOW())
	`, a.ID, a.Email, a.DisplayName, a.Domain, a.Provider, a.Status,
		a.BaseDailyLimit, a.WarmupStartedAt, a.MarketID, a.AgentID)
	if err != nil {
		return "", fmt.Errorf("create account: %w", err)
	}
	return a.ID, nil
}

func (r *AccountRepo) Deactivate(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE email_accounts SET is_active = false, updated_at = NOW() WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("deactivate account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// IncrementSent adds n to the account's sent-today counter. One atomic
// UPDATE: no read-modify-write, no transaction needed.
func (r *AccountRepo) IncrementSent(ctx context.Context, accountID string, n int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE email_accounts SET sent_today = sent_today + $1, updated_at = NOW() WHERE id = $2
	`, n, accountID)
	if err != nil {
		return fmt.Errorf("increment sent_today: %w", err)
	}
	return nil
}

// SaveDerived refreshes the status/current-limit display cache. The
// derived values remain ground truth only in memory.
func (r *AccountRepo) SaveDerived(ctx context.Context, id string, status domain.SendStatus, currentLimit int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE email_accounts SET status = $1, current_daily_limit = $2, updated_at = NOW() WHERE id = $3
	`, status, currentLimit, id)
	if err != nil {
		return fmt.Errorf("save derived state: %w", err)
	}
	return nil
}

// ResetDailyCounters zeroes sent_today across the pool. Called by the
// reset worker once per UTC day.
func (r *AccountRepo) ResetDailyCounters(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE email_accounts SET sent_today = 0, updated_at = NOW() WHERE sent_today <> 0
	`)
	if err != nil {
		return 0, fmt.Errorf("reset daily counters: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
