// Package worker runs the scheduler's background loops. The only loop
// today is the daily counter reset.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/geospark/outreach-scheduler/internal/pkg/distlock"
	"github.com/geospark/outreach-scheduler/internal/pkg/logger"
	"github.com/geospark/outreach-scheduler/internal/registry"
)

// LockFactory builds a distributed lock for a reset date key.
type LockFactory func(key string, ttl time.Duration) distlock.DistLock

// DefaultResetCheckInterval is how often the worker checks whether the
// UTC day has rolled over.
const DefaultResetCheckInterval = 15 * time.Minute

// resetLockTTL outlives the day the lock is for, so a crashed holder
// cannot cause a second reset within the same day.
const resetLockTTL = 26 * time.Hour

// ResetWorker zeroes every account's sent_today once per UTC day and
// refreshes the stored derived status/limit cache at the same time.
// Multiple instances coordinate through a per-date distributed lock.
type ResetWorker struct {
	registry *registry.Registry
	locks    LockFactory
	interval time.Duration

	lastResetDay string

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	mu      sync.Mutex
}

// NewResetWorker creates the worker. locks may be nil in single-instance
// deployments; the per-process date guard still prevents double resets.
func NewResetWorker(reg *registry.Registry, locks LockFactory, interval time.Duration) *ResetWorker {
	if interval <= 0 {
		interval = DefaultResetCheckInterval
	}
	return &ResetWorker{
		registry: reg,
		locks:    locks,
		interval: interval,
	}
}

// Start begins the reset polling loop
func (w *ResetWorker) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("reset worker already running")
	}
	w.running = true
	w.ctx, w.cancel = context.WithCancel(context.Background())
	w.mu.Unlock()

	logger.Info("reset worker starting", "interval", w.interval.String())

	w.wg.Add(1)
	go w.loop()

	return nil
}

// Stop gracefully stops the worker
func (w *ResetWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	w.cancel()
	w.wg.Wait()
	logger.Info("reset worker stopped")
}

func (w *ResetWorker) loop() {
	defer w.wg.Done()

	// Run once at startup so a process that was down over midnight
	// catches up immediately.
	w.RunOnce(w.ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.RunOnce(w.ctx)
		}
	}
}

// RunOnce performs the reset for the current UTC day if it has not been
// done yet. Safe to call repeatedly; only the first call per day acts.
func (w *ResetWorker) RunOnce(ctx context.Context) {
	day := w.registry.Now().UTC().Format("2006-01-02")
	if day == w.lastResetDay {
		return
	}

	if w.locks != nil {
		lock := w.locks("reset:"+day, resetLockTTL)
		acquired, err := lock.Acquire(ctx)
		if err != nil {
			logger.Error("reset lock acquire failed", "day", day, "error", err.Error())
			return
		}
		if !acquired {
			// Another instance already reset today. Record the day so this
			// process stops retrying until tomorrow.
			w.lastResetDay = day
			return
		}
		// The lock is held until its TTL expires. Releasing it would let a
		// late-starting instance reset a second time mid-day.
	}

	n, err := w.registry.ResetDailyCounters(ctx)
	if err != nil {
		logger.Error("daily counter reset failed", "day", day, "error", err.Error())
		return
	}
	w.lastResetDay = day
	logger.Info("daily counters reset", "day", day, "accounts", n)

	w.refreshDerivedCache(ctx)
}

// refreshDerivedCache re-derives every account and writes the display
// cache back. Best-effort: listings derive on read regardless.
func (w *ResetWorker) refreshDerivedCache(ctx context.Context) {
	accounts, err := w.registry.List(ctx, registry.ListFilter{})
	if err != nil {
		logger.Warn("derived cache refresh skipped", "error", err.Error())
		return
	}
	if err := w.registry.RefreshDerived(ctx, accounts); err != nil {
		logger.Warn("derived cache refresh incomplete", "error", err.Error())
	}
}
