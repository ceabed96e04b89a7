package domain

// StatusBucket accumulates per-status totals in a capacity snapshot.
type StatusBucket struct {
	Count    int `json:"count"`
	Capacity int `json:"capacity"`
	Used     int `json:"used"`
}

// ReadyAccount is one sendable account inside a snapshot, carrying its
// remaining quota computed at snapshot time.
type ReadyAccount struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Status    SendStatus `json:"status"`
	Limit     int        `json:"limit"`
	Sent      int        `json:"sent"`
	Remaining int        `json:"remaining"`
}

// CapacitySnapshot is a point-in-time read-only aggregate over a filtered
// account set. It is derived on every read and never persisted.
//
// ReadyAccounts is sorted by remaining capacity descending (ties keep
// input order): accounts with the most headroom absorb load first, which
// keeps the number of accounts touched per batch small.
type CapacitySnapshot struct {
	ByStatus        map[SendStatus]*StatusBucket `json:"by_status"`
	ReadyAccounts   []ReadyAccount               `json:"ready_accounts"`
	TotalCapacity   int                          `json:"total_capacity"`
	TotalUsed       int                          `json:"total_used"`
	TotalRemaining  int                          `json:"total_remaining"`
	PercentageUsed  int                          `json:"percentage_used"`
	CanSend         bool                         `json:"can_send"`
	Warnings        []string                     `json:"warnings"`
	Recommendations []string                     `json:"recommendations"`
}

// Allocation assigns part of a batch to one account.
type Allocation struct {
	AccountID    string `json:"account_id"`
	AccountEmail string `json:"account_email"`
	Count        int    `json:"leads_to_assign"`
}

// DistributionPlan is the output of greedily allocating a requested
// volume across ready accounts.
//
// Invariant: TotalAllocated == Requested - Shortfall == sum of allocation
// counts, and no allocation exceeds its account's remaining at plan time.
type DistributionPlan struct {
	Requested      int          `json:"requested"`
	Allocations    []Allocation `json:"distribution"`
	CanSendAll     bool         `json:"can_send_all"`
	CanSendPartial bool         `json:"can_send_partial"`
	TotalAllocated int          `json:"can_send"`
	Shortfall      int          `json:"cannot_send"`
	Message        string       `json:"message"`
}

// DispatchResult is what the external send provider reports for a batch.
// PerAccount is present only when the provider breaks usage down per
// sending account; most hosted providers report aggregate numbers.
type DispatchResult struct {
	Uploaded   int            `json:"uploaded"`
	Skipped    int            `json:"skipped"`
	PerAccount map[string]int `json:"per_account,omitempty"`
}

// AdmissionResult is returned by the admission controller for an
// admitted (dispatched) batch. Rejections are returned as errors.
type AdmissionResult struct {
	Admitted       bool              `json:"admitted"`
	Plan           *DistributionPlan `json:"plan,omitempty"`
	Uploaded       int               `json:"uploaded"`
	Skipped        int               `json:"skipped"`
	TotalProcessed int               `json:"total_processed"`
	CountsEstimate bool              `json:"counts_estimated,omitempty"`
}
