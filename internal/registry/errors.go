package registry

import "fmt"

// StoreError wraps a failure from the backing store. It is retryable:
// the caller saw a transport/storage fault, not a business outcome, and
// it must never be conflated with an empty result.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("account store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Retryable marks StoreError for callers that branch on retryability.
func (e *StoreError) Retryable() bool { return true }
