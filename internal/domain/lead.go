package domain

import "time"

// Lead statuses this subsystem reads or writes. The lead store owns the
// full lifecycle; only the transition to contacted happens here.
const (
	LeadStatusNew       = "new"
	LeadStatusContacted = "contacted"
)

// Lead is the minimal lead shape consumed by the scheduler. Everything
// beyond the delivery payload fields belongs to the lead store.
type Lead struct {
	ID          string `json:"id" db:"id"`
	Email       string `json:"email" db:"email"`
	FirstName   string `json:"first_name,omitempty" db:"first_name"`
	LastName    string `json:"last_name,omitempty" db:"last_name"`
	CompanyName string `json:"company_name,omitempty" db:"company_name"`
	Phone       string `json:"phone,omitempty" db:"phone"`
	Website     string `json:"website,omitempty" db:"website"`
	Status      string `json:"status" db:"status"`
}

// LeadActivity is one audit entry appended per lead after a dispatch.
type LeadActivity struct {
	ID        string    `json:"id" db:"id"`
	LeadID    string    `json:"lead_id" db:"lead_id"`
	Type      string    `json:"type" db:"type"`
	Notes     string    `json:"notes" db:"notes"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ActivityEmailSent is the activity type recorded when a lead is handed
// to the send provider.
const ActivityEmailSent = "email_sent"
