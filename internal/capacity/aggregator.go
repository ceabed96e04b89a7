// Package capacity computes read-only aggregates over a classified
// account pool: the capacity snapshot with its health warnings, and the
// greedy distribution plan used for admission previews.
//
// Both entry points are pure and safe for unlimited concurrent use; the
// account slice they receive is a point-in-time read, not a transaction
// boundary.
package capacity

import (
	"fmt"
	"math"
	"sort"

	"github.com/geospark/outreach-scheduler/internal/domain"
)

// Pools below this total configured capacity get a "add more domains"
// recommendation, matching operator guidance for small pools.
const lowCapacityThreshold = 100

// BuildSnapshot aggregates an already-classified account set into a
// CapacitySnapshot. Accounts must have been run through the lifecycle
// classifier first (the registry does this on every read).
func BuildSnapshot(accounts []domain.Account) *domain.CapacitySnapshot {
	snap := &domain.CapacitySnapshot{
		ByStatus: map[domain.SendStatus]*domain.StatusBucket{
			domain.StatusWarmup:    {},
			domain.StatusLimited:   {},
			domain.StatusRamping:   {},
			domain.StatusActive:    {},
			domain.StatusPaused:    {},
			domain.StatusSuspended: {},
		},
		Warnings:        []string{},
		Recommendations: []string{},
	}

	for i := range accounts {
		a := &accounts[i]
		bucket, known := snap.ByStatus[a.Status]
		if !known {
			continue
		}
		bucket.Count++
		bucket.Capacity += a.CurrentDailyLimit
		bucket.Used += a.SentToday

		if a.Ready() {
			snap.ReadyAccounts = append(snap.ReadyAccounts, domain.ReadyAccount{
				ID:        a.ID,
				Email:     a.Email,
				Status:    a.Status,
				Limit:     a.CurrentDailyLimit,
				Sent:      a.SentToday,
				Remaining: a.Remaining(),
			})
		}
	}

	// Highest remaining first; stable so equal-headroom accounts keep
	// their input order.
	sort.SliceStable(snap.ReadyAccounts, func(i, j int) bool {
		return snap.ReadyAccounts[i].Remaining > snap.ReadyAccounts[j].Remaining
	})

	for _, b := range snap.ByStatus {
		snap.TotalCapacity += b.Capacity
		snap.TotalUsed += b.Used
	}
	for _, ra := range snap.ReadyAccounts {
		snap.TotalRemaining += ra.Remaining
	}
	if snap.TotalCapacity > 0 {
		snap.PercentageUsed = int(math.Round(float64(snap.TotalUsed) / float64(snap.TotalCapacity) * 100))
	}
	snap.CanSend = snap.TotalRemaining > 0

	if n := snap.ByStatus[domain.StatusWarmup].Count; n > 0 {
		snap.Warnings = append(snap.Warnings, fmt.Sprintf("%d account(s) still warming up", n))
	}
	if n := snap.ByStatus[domain.StatusSuspended].Count; n > 0 {
		snap.Warnings = append(snap.Warnings, fmt.Sprintf("%d account(s) suspended - check bounce rates", n))
	}
	if snap.TotalRemaining == 0 && snap.TotalCapacity > 0 {
		snap.Warnings = append(snap.Warnings, "Daily capacity exhausted - wait until tomorrow")
	}
	if len(snap.ReadyAccounts) == 0 {
		snap.Warnings = append(snap.Warnings, "No accounts ready for sending")
	}

	if snap.TotalCapacity < lowCapacityThreshold {
		snap.Recommendations = append(snap.Recommendations, "Consider adding more domains to increase capacity")
	}
	if snap.ByStatus[domain.StatusWarmup].Count > snap.ByStatus[domain.StatusActive].Count {
		snap.Recommendations = append(snap.Recommendations, "Most accounts are still warming up - be patient")
	}

	return snap
}
