package instantly

import (
	"context"

	"github.com/geospark/outreach-scheduler/internal/domain"
)

// Provider adapts the API client to the admission controller's dispatch
// interface. Instantly is a hosted sender that routes across its own
// connected inboxes, so the per-account plan is not forwarded; only the
// aggregate uploaded/skipped counts come back.
type Provider struct {
	client *Client
	opts   AddLeadsOptions
}

// NewProvider wraps the given client with duplicate-safe defaults.
func NewProvider(client *Client) *Provider {
	return &Provider{client: client, opts: DefaultAddLeadsOptions()}
}

// Name identifies the provider in dispatch errors and activity notes.
func (p *Provider) Name() string { return "instantly" }

// SendBatch pushes leads into the campaign and reports aggregate counts.
func (p *Provider) SendBatch(ctx context.Context, campaignID string, _ *domain.DistributionPlan, leads []domain.Lead) (*domain.DispatchResult, error) {
	payload := make([]Lead, 0, len(leads))
	for _, l := range leads {
		payload = append(payload, Lead{
			Email:       l.Email,
			FirstName:   l.FirstName,
			LastName:    l.LastName,
			CompanyName: l.CompanyName,
			Phone:       l.Phone,
			Website:     l.Website,
			CustomVariables: map[string]string{
				"geospark_id": l.ID,
				"source":      "geospark_crm",
			},
		})
	}

	result, err := p.client.AddLeads(ctx, campaignID, payload, p.opts)
	if err != nil {
		return nil, err
	}

	return &domain.DispatchResult{
		Uploaded: result.Uploaded,
		Skipped:  result.Skipped,
	}, nil
}
