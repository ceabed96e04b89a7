package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/geospark/outreach-scheduler/internal/admission"
	"github.com/geospark/outreach-scheduler/internal/domain"
)

// LeadRepo implements admission.LeadStore against PostgreSQL. The lead
// table belongs to the CRM; this subsystem reads delivery payload fields
// and flips status to contacted after a successful dispatch.
type LeadRepo struct{ db *sql.DB }

// NewLeadRepo creates a Postgres-backed lead store adapter.
func NewLeadRepo(db *sql.DB) *LeadRepo { return &LeadRepo{db: db} }

func (r *LeadRepo) List(ctx context.Context, f admission.LeadFilter) ([]domain.Lead, error) {
	q := `SELECT id, email, COALESCE(first_name,''), COALESCE(last_name,''),
	       COALESCE(company_name,''), COALESCE(phone,''), COALESCE(website,''), status
	FROM outreach_leads WHERE 1=1`
	args := []interface{}{}
	idx := 1

	if len(f.IDs) > 0 {
		q += fmt.Sprintf(" AND id = ANY($%d)", idx)
		args = append(args, pq.Array(f.IDs))
		idx++
	}
	if f.Status != "" {
		q += fmt.Sprintf(" AND status = $%d", idx)
		args = append(args, f.Status)
		idx++
	}
	if f.Limit > 0 {
		q += fmt.Sprintf(" LIMIT $%d", idx)
		args = append(args, f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	var out []domain.Lead
	for rows.Next() {
		var l domain.Lead
		if err := rows.Scan(&l.ID, &l.Email, &l.FirstName, &l.LastName,
			&l.CompanyName, &l.Phone, &l.Website, &l.Status); err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// MarkContacted flips the given leads to contacted and records the
// provider campaign they were pushed into.
func (r *LeadRepo) MarkContacted(ctx context.Context, leadIDs []string, campaignID string) error {
	if len(leadIDs) == 0 {
		return nil
	}
	_, err := r.db.ExecContext(ctx, `
		UPDATE outreach_leads
		SET status = $1, provider_campaign_id = $2, updated_at = NOW()
		WHERE id = ANY($3)
	`, domain.LeadStatusContacted, campaignID, pq.Array(leadIDs))
	if err != nil {
		return fmt.Errorf("mark leads contacted: %w", err)
	}
	return nil
}

// AppendActivities inserts one audit row per lead.
func (r *LeadRepo) AppendActivities(ctx context.Context, activities []domain.LeadActivity) error {
	if len(activities) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin activities tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO outreach_activities (id, lead_id, type, notes, created_at)
		VALUES ($1, $2, $3, $4, NOW())
	`)
	if err != nil {
		return fmt.Errorf("prepare activity insert: %w", err)
	}
	defer stmt.Close()

	for _, act := range activities {
		id := act.ID
		if id == "" {
			id = uuid.New().String()
		}
		if _, err := stmt.ExecContext(ctx, id, act.LeadID, act.Type, act.Notes); err != nil {
			return fmt.Errorf("insert activity for lead %s: %w", act.LeadID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit activities: %w", err)
	}
	return nil
}
