package syncer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/fintrack/internal/common"
	"github.com/dmitrijs2005/fintrack/internal/logging"
)

// Runner drives periodic sync passes while a session is active. Every
// trigger — the interval tick, an explicit Kick after a local mutation, or
// the startup sync — funnels through the same SyncAll call and therefore
// through its single-flight guard.
type Runner struct {
	interval time.Duration
	timeout  time.Duration
	syncFn   func(ctx context.Context) (Summary, error)
	log      logging.Logger

	kick   chan struct{}
	cancel context.CancelFunc
	wg     sync.WaitGroup

	startOnce sync.Once
	stopOnce  sync.Once
}

// NewRunner builds a runner. timeout bounds each pass so a hung transport
// call cannot hold the single-flight guard forever.
func NewRunner(interval, timeout time.Duration, fn func(ctx context.Context) (Summary, error), log logging.Logger) *Runner {
	return &Runner{
		interval: interval,
		timeout:  timeout,
		syncFn:   fn,
		log:      log,
		kick:     make(chan struct{}, 1),
	}
}

// Start launches the trigger loop. Subsequent calls are no-ops.
func (r *Runner) Start(ctx context.Context) {
	r.startOnce.Do(func() {
		ctx, r.cancel = context.WithCancel(ctx)
		r.wg.Add(1)
		go r.loop(ctx)
	})
}

// Kick requests a pass outside the periodic schedule ("sync now", or
// eagerly after a local mutation). Never blocks; a pending kick coalesces
// with the next one.
func (r *Runner) Kick() {
	select {
	case r.kick <- struct{}{}:
	default:
	}
}

// Stop cancels the loop and waits for an in-flight pass to finish.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() {
		if r.cancel != nil {
			r.cancel()
		}
		r.wg.Wait()
	})
}

func (r *Runner) loop(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.run(ctx)
		case <-r.kick:
			r.run(ctx)
		}
	}
}

func (r *Runner) run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	summary, err := r.syncFn(ctx)
	switch {
	case errors.Is(err, common.ErrSyncInProgress):
		r.log.Debug(ctx, "sync pass skipped, previous still running")
	case errors.Is(err, common.ErrNoSession):
		r.log.Debug(ctx, "sync pass skipped, no session")
	case err != nil:
		r.log.Warn(ctx, "sync pass failed", "error", err)
	case !summary.Ok():
		r.log.Warn(ctx, "sync pass partially failed", "failed", summary.Failed())
	default:
		r.log.Info(ctx, "sync pass complete",
			"collections", len(summary.Results),
			"took_ms", summary.FinishedAt-summary.StartedAt)
	}
}
