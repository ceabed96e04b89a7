package instantly

// Lead is the payload shape Instantly expects when adding leads to a
// campaign. Optional fields are omitted when empty.
type Lead struct {
	Email           string            `json:"email"`
	FirstName       string            `json:"first_name,omitempty"`
	LastName        string            `json:"last_name,omitempty"`
	CompanyName     string            `json:"company_name,omitempty"`
	Phone           string            `json:"phone,omitempty"`
	Website         string            `json:"website,omitempty"`
	CustomVariables map[string]string `json:"custom_variables,omitempty"`
}

// Campaign is a sending campaign as reported by the Instantly API.
type Campaign struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Status    string `json:"status"` // active, paused, completed, draft
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// CampaignStats holds the analytics summary for a single campaign.
type CampaignStats struct {
	TotalLeads    int `json:"total_leads"`
	EmailsSent    int `json:"emails_sent"`
	EmailsOpened  int `json:"emails_opened"`
	UniqueOpens   int `json:"unique_opens"`
	EmailsReplied int `json:"emails_replied"`
	EmailsBounced int `json:"emails_bounced"`
	Unsubscribed  int `json:"unsubscribed"`
}

// AddLeadsResult reports how many leads the API accepted versus skipped
// as duplicates.
type AddLeadsResult struct {
	Uploaded int `json:"uploaded"`
	Skipped  int `json:"skipped"`
}

// AddLeadsOptions controls duplicate handling when pushing leads.
// Both default to true so a lead already in the workspace or campaign
// is not contacted twice.
type AddLeadsOptions struct {
	SkipIfInWorkspace bool
	SkipIfInCampaign  bool
}

// DefaultAddLeadsOptions returns the duplicate-safe defaults.
func DefaultAddLeadsOptions() AddLeadsOptions {
	return AddLeadsOptions{SkipIfInWorkspace: true, SkipIfInCampaign: true}
}
