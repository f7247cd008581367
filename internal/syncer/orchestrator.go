package syncer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/fintrack/internal/common"
	"github.com/dmitrijs2005/fintrack/internal/logging"
	"github.com/dmitrijs2005/fintrack/internal/models"
	"github.com/dmitrijs2005/fintrack/internal/store"
)

// Orchestrator runs the reconciler over every collection in the fixed
// order and owns the durable global watermark. A single-flight guard
// rejects overlapping passes: two concurrent passes would race on the same
// local rows for no benefit.
type Orchestrator struct {
	store store.Store
	rec   *Reconciler
	log   logging.Logger
	now   func() int64

	mu sync.Mutex // single-flight guard
}

// OrchestratorOption customizes an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithClock replaces the wall clock (milliseconds) used for the watermark.
func WithClock(now func() int64) OrchestratorOption {
	return func(o *Orchestrator) { o.now = now }
}

// NewOrchestrator builds an orchestrator around an existing reconciler.
func NewOrchestrator(st store.Store, rec *Reconciler, log logging.Logger, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		store: st,
		rec:   rec,
		log:   log,
		now:   func() int64 { return time.Now().UnixMilli() },
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Summary reports one full sync pass.
type Summary struct {
	StartedAt  int64
	FinishedAt int64
	Results    []CollectionResult
}

// Ok reports whether every collection's cycle completed without error.
func (s Summary) Ok() bool {
	for _, r := range s.Results {
		if r.Err != nil {
			return false
		}
	}
	return true
}

// Failed lists the collections whose cycle aborted.
func (s Summary) Failed() []models.Collection {
	var out []models.Collection
	for _, r := range s.Results {
		if r.Err != nil {
			out = append(out, r.Collection)
		}
	}
	return out
}

// SyncAll reconciles every collection for the user, in the fixed order.
//
// A collection's failure never halts the loop: collections are independent
// and the remaining ones still get their cycle. The error return covers
// only whole-pass conditions: common.ErrSyncInProgress when a pass is
// already running, common.ErrNoSession for an empty user, or a failure to
// read/advance the watermark.
//
// The global watermark advances only when every collection succeeded.
// Advancing it after a partial failure could permanently skip the failed
// collection's remote changes once they age past the safety buffer.
func (o *Orchestrator) SyncAll(ctx context.Context, userID string) (Summary, error) {
	if userID == "" {
		return Summary{}, common.ErrNoSession
	}
	if !o.mu.TryLock() {
		return Summary{}, common.ErrSyncInProgress
	}
	defer o.mu.Unlock()

	watermark, err := o.store.LastSyncTimestamp(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to read watermark: %w", err)
	}

	summary := Summary{StartedAt: o.now()}
	for _, col := range models.Collections() {
		res := o.rec.SyncCollection(ctx, col, userID, watermark)
		if res.Err != nil {
			o.log.Error(ctx, "collection sync failed", "collection", col, "error", res.Err)
		} else {
			o.log.Info(ctx, "collection synced", "collection", col,
				"pushed", res.Pushed, "pulled", res.Pulled, "applied", res.Applied, "skipped", res.Skipped)
		}
		summary.Results = append(summary.Results, res)
	}
	summary.FinishedAt = o.now()

	if summary.Ok() {
		if err := o.store.SetLastSyncTimestamp(ctx, summary.FinishedAt); err != nil {
			return summary, fmt.Errorf("failed to advance watermark: %w", err)
		}
	} else {
		o.log.Warn(ctx, "watermark not advanced", "failed", summary.Failed())
	}

	return summary, nil
}
