package capacity

import (
	"errors"
	"fmt"

	"github.com/geospark/outreach-scheduler/internal/domain"
)

// ErrInvalidRequest is returned for a non-positive requested volume.
// A zero or negative request is an input error, never an empty plan.
var ErrInvalidRequest = errors.New("requested lead count must be positive")

// PlanDistribution greedily allocates a requested volume across ready
// accounts. ready must already be sorted by remaining descending (the
// order BuildSnapshot produces).
//
// Greedy-by-remaining-descending minimizes the number of accounts
// touched per batch and wastes no capacity: whenever requested fits
// within the total remaining of the ready set, the shortfall is zero.
func PlanDistribution(requested int, ready []domain.ReadyAccount) (*domain.DistributionPlan, error) {
	if requested <= 0 {
		return nil, ErrInvalidRequest
	}

	plan := &domain.DistributionPlan{
		Requested:   requested,
		Allocations: []domain.Allocation{},
	}

	leadsLeft := requested
	for _, acct := range ready {
		if leadsLeft == 0 {
			break
		}
		take := min(leadsLeft, acct.Remaining)
		if take <= 0 {
			continue
		}
		plan.Allocations = append(plan.Allocations, domain.Allocation{
			AccountID:    acct.ID,
			AccountEmail: acct.Email,
			Count:        take,
		})
		leadsLeft -= take
	}

	plan.Shortfall = leadsLeft
	plan.TotalAllocated = requested - leadsLeft
	plan.CanSendAll = leadsLeft == 0
	plan.CanSendPartial = len(plan.Allocations) > 0

	switch {
	case plan.CanSendAll:
		plan.Message = fmt.Sprintf("All %d leads can be sent today", requested)
	case plan.CanSendPartial:
		plan.Message = fmt.Sprintf("Only %d of %d leads can be sent today (%d must wait)",
			plan.TotalAllocated, requested, plan.Shortfall)
	default:
		plan.Message = "No capacity available - all accounts are at limit or warming up"
	}

	return plan, nil
}
