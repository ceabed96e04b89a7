// Package domain holds the shared types of the outreach send-capacity
// scheduler: sending accounts with their warmup-derived limits, the
// capacity snapshot/distribution plan aggregates, and the minimal lead
// shape this subsystem touches.
//
// Types here carry no behavior beyond small derivations (Remaining,
// Overridden). All I/O lives in the repository and provider packages.
package domain
