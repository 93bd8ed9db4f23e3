// Package sync refreshes the local tables from the remote in the background
// while a long-running command such as serve is up.
package sync

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"habitualize/internal/utils"
)

// Puller pulls every table and reports per-table failures.
type Puller interface {
	Sync(ctx context.Context) (map[string]error, error)
}

// SyncCoordinator runs pulls in the background, at most one at a time.
type SyncCoordinator struct {
	puller  Puller
	timeout time.Duration

	wg       sync.WaitGroup
	syncing  atomic.Bool
	shutdown atomic.Bool
	runs     atomic.Int64
}

// NewSyncCoordinator creates a coordinator. timeout bounds each pull.
func NewSyncCoordinator(puller Puller, timeout time.Duration) *SyncCoordinator {
	return &SyncCoordinator{puller: puller, timeout: timeout}
}

// TriggerPull starts a background pull unless one is already running.
// It returns whether a pull was started.
func (sc *SyncCoordinator) TriggerPull(ctx context.Context) bool {
	if sc.shutdown.Load() {
		return false
	}
	if !sc.syncing.CompareAndSwap(false, true) {
		return false
	}

	sc.wg.Add(1)
	go sc.doPull(ctx)
	return true
}

func (sc *SyncCoordinator) doPull(ctx context.Context) {
	defer sc.wg.Done()
	defer sc.syncing.Store(false)

	defer func() {
		if r := recover(); r != nil {
			utils.Errorf("Panic in background pull: %v", r)
		}
	}()

	if sc.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, sc.timeout)
		defer cancel()
	}

	results, err := sc.puller.Sync(ctx)
	sc.runs.Add(1)
	if err != nil {
		utils.Warnf("Background pull skipped: %v", err)
		return
	}

	failed := 0
	for tableID, tableErr := range results {
		if tableErr != nil {
			failed++
			utils.Debugf("Background pull of %s failed: %v", tableID, tableErr)
		}
	}
	if failed > 0 {
		utils.Warnf("Background pull: %d of %d tables failed", failed, len(results))
	}
}

// Run triggers a pull every interval until ctx is done.
func (sc *SyncCoordinator) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sc.TriggerPull(ctx)
		}
	}
}

// Runs returns how many pulls have finished.
func (sc *SyncCoordinator) Runs() int64 {
	return sc.runs.Load()
}

// Shutdown stops new pulls and waits up to timeout for a running one.
func (sc *SyncCoordinator) Shutdown(timeout time.Duration) {
	sc.shutdown.Store(true)

	done := make(chan struct{})
	go func() {
		sc.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		utils.Warnf("Pending pull did not complete within %v", timeout)
	}
}
