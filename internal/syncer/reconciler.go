package syncer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/fintrack/internal/common"
	"github.com/dmitrijs2005/fintrack/internal/logging"
	"github.com/dmitrijs2005/fintrack/internal/models"
	"github.com/dmitrijs2005/fintrack/internal/remote"
	"github.com/dmitrijs2005/fintrack/internal/store"
)

// Reconciler runs the push-then-pull cycle for a single collection. Push
// always precedes pull so a pull can never overwrite a local edit that has
// not been offered to the remote yet.
type Reconciler struct {
	store     store.Store
	transport remote.Transport
	buffer    int64 // safety buffer, milliseconds
	log       logging.Logger
}

// NewReconciler builds a reconciler. buffer widens the pull window to
// absorb clock skew between devices: without it, a record pushed by a
// clock-behind device between two pull windows could be missed forever.
func NewReconciler(st store.Store, tr remote.Transport, buffer time.Duration, log logging.Logger) *Reconciler {
	return &Reconciler{
		store:     st,
		transport: tr,
		buffer:    buffer.Milliseconds(),
		log:       log,
	}
}

// CollectionResult reports what one collection's cycle did.
type CollectionResult struct {
	Collection models.Collection

	// Pushed is the number of unsynced records uploaded.
	Pushed int
	// Pulled is the number of remote rows in the pull window.
	Pulled int
	// Applied is the number of pulled rows written to the local store.
	Applied int
	// Skipped counts pulled rows ignored because the local copy was newer
	// or the timestamps tied (ties favor local).
	Skipped int
	// DecodeFailures counts pulled rows whose payload failed the typed
	// parse step. They are dropped, never written.
	DecodeFailures int

	// Err is set when the cycle aborted. Work done before the failure
	// (e.g. a completed push before a failed pull) stands.
	Err error
}

// SyncCollection reconciles one collection for the user. watermark is the
// global last-sync timestamp in milliseconds; the pull window starts at
// max(0, watermark-buffer).
func (r *Reconciler) SyncCollection(ctx context.Context, col models.Collection, userID string, watermark int64) CollectionResult {
	res := CollectionResult{Collection: col}
	log := r.log.With("collection", col)

	// Push phase. The snapshot read includes tombstones: deletions
	// propagate as ordinary rows with isDeleted set.
	all, err := r.store.GetAll(ctx, col, true)
	if err != nil {
		res.Err = fmt.Errorf("scan failed: %w", err)
		return res
	}

	var unsynced []models.Record
	for _, rec := range all {
		if !rec.IsSynced {
			unsynced = append(unsynced, rec)
		}
	}

	if len(unsynced) > 0 {
		rows := make([]remote.Row, 0, len(unsynced))
		for _, rec := range unsynced {
			if rec.UserId == "" {
				rec.UserId = userID
			}
			data, err := models.EncodeRecord(rec)
			if err != nil {
				res.Err = fmt.Errorf("encode %s: %w", rec.Id, err)
				return res
			}
			rows = append(rows, remote.Row{
				ID:        rec.Id,
				UserID:    userID,
				Data:      data,
				UpdatedAt: rec.UpdatedAt,
			})
		}

		if err := r.transport.Upsert(ctx, col.RemoteTable(), rows); err != nil {
			// Nothing is marked synced; the upsert is idempotent by id, so
			// re-pushing next cycle is safe.
			res.Err = fmt.Errorf("push failed: %w", err)
			return res
		}
		res.Pushed = len(unsynced)

		// Mark exactly the snapshot that was sent. A record edited while
		// the upsert was in flight has a newer updatedAt and is skipped
		// here, leaving it unsynced for the next cycle.
		for _, rec := range unsynced {
			ok, err := r.store.MarkSynced(ctx, col, rec.Id, rec.UpdatedAt)
			if err != nil {
				res.Err = fmt.Errorf("mark synced %s: %w", rec.Id, err)
				return res
			}
			if !ok {
				log.Debug(ctx, "record changed during push, left unsynced", "id", rec.Id)
			}
		}
	}

	// Pull phase.
	since := watermark - r.buffer
	if since < 0 {
		since = 0
	}

	remoteRows, err := r.transport.QueryUpdatedSince(ctx, col.RemoteTable(), userID, since)
	if err != nil {
		res.Err = fmt.Errorf("pull failed: %w", err)
		return res
	}
	res.Pulled = len(remoteRows)

	for _, row := range remoteRows {
		rec, err := models.DecodeRecord(row.Data)
		if err != nil {
			// A malformed row must fail loudly, not leak zero values into
			// the replica. It is dropped; the rest of the window proceeds.
			log.Error(ctx, "dropping malformed remote row", "id", row.ID, "error", err)
			res.DecodeFailures++
			continue
		}

		local, err := r.store.Get(ctx, col, rec.Id)
		switch {
		case errors.Is(err, common.ErrNotFound):
			// New to this replica; materialize even if it is a tombstone,
			// so the deletion cannot resurrect later.
			if _, err := r.store.ApplyRemoteRecord(ctx, col, rec); err != nil {
				res.Err = fmt.Errorf("apply %s: %w", rec.Id, err)
				return res
			}
			res.Applied++
		case err != nil:
			res.Err = fmt.Errorf("lookup %s: %w", rec.Id, err)
			return res
		case rec.UpdatedAt > local.UpdatedAt:
			if _, err := r.store.ApplyRemoteRecord(ctx, col, rec); err != nil {
				res.Err = fmt.Errorf("apply %s: %w", rec.Id, err)
				return res
			}
			res.Applied++
		default:
			// Local copy is newer or tied. Ties deterministically favor the
			// local copy; it was either already pushed above or will be
			// pushed next cycle.
			res.Skipped++
			log.Debug(ctx, "conflict skip", "id", rec.Id,
				"remote_updated_at", rec.UpdatedAt, "local_updated_at", local.UpdatedAt)
		}
	}

	return res
}
