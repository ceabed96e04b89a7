package admission

import (
	"errors"
	"fmt"
)

// ErrContended is returned when admissions are serialized per scope and
// another batch currently holds the scope's lock. Retryable.
var ErrContended = errors.New("another batch is being admitted for this scope")

// CapacityExceededError is a business-rule rejection, not a system
// fault. It always carries an actionable number: how many leads fit, or
// what to do when nothing does.
type CapacityExceededError struct {
	Requested      int    `json:"requested"`
	Available      int    `json:"available"`
	Recommendation string `json:"recommendation"`
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("capacity exceeded: requested %d, available %d", e.Requested, e.Available)
}

func newCapacityExceeded(requested, available int) *CapacityExceededError {
	rec := fmt.Sprintf("Reduce the batch to %d leads or wait until tomorrow", available)
	if available == 0 {
		rec = "No capacity available - wait for accounts to finish warming up or add more accounts"
	}
	return &CapacityExceededError{
		Requested:      requested,
		Available:      available,
		Recommendation: rec,
	}
}

// ProviderDispatchError wraps a provider failure after admission. The
// batch is never retried here and no counters are incremented for it;
// retry policy belongs to the caller.
type ProviderDispatchError struct {
	Provider string
	Err      error
}

func (e *ProviderDispatchError) Error() string {
	return fmt.Sprintf("provider %s dispatch failed: %v", e.Provider, e.Err)
}

func (e *ProviderDispatchError) Unwrap() error { return e.Err }
