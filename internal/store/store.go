// Package store implements the persistent local replica: one keyed-by-id
// table per collection plus a scalar sync-state value, backed by SQLite.
//
// The store is the only owner of on-disk state. Application code mutates it
// through Insert/Update/SoftDelete (which stamp updatedAt and clear the
// synced flag), while the reconciler materializes pulled data through
// ApplyRemoteRecord (which preserves the remote timestamp) and flips the
// synced flag through MarkSynced. There is no separate outbox: the live
// rows themselves, filtered by the synced flag, are the outbox.
package store

import (
	"context"

	"github.com/dmitrijs2005/fintrack/internal/models"
)

// Store describes the local replica operations used by the application
// shell and the sync engine.
type Store interface {
	// GetAll returns every record of the collection. Tombstones are
	// excluded unless includeDeleted is set; the reconciler always sets it.
	GetAll(ctx context.Context, col models.Collection, includeDeleted bool) ([]models.Record, error)

	// Get returns a single record by id, tombstoned or not.
	// Returns common.ErrNotFound if the id is absent.
	Get(ctx context.Context, col models.Collection, id string) (*models.Record, error)

	// Insert stores a new record: generates an id if absent, stamps
	// createdAt=updatedAt=now, clears isSynced and isDeleted. Returns the
	// stored record.
	Insert(ctx context.Context, col models.Collection, rec models.Record) (*models.Record, error)

	// Update upserts the record by id for application-initiated edits:
	// stamps updatedAt=now and clears isSynced in the same write.
	Update(ctx context.Context, col models.Collection, rec models.Record) (*models.Record, error)

	// ApplyRemoteRecord upserts the record preserving its timestamps and
	// sets isSynced. This is the only write path for pulled data: remote
	// timestamps must survive for future comparisons.
	ApplyRemoteRecord(ctx context.Context, col models.Collection, rec models.Record) (*models.Record, error)

	// MarkSynced sets isSynced on the row only if its updatedAt still
	// equals expectedUpdatedAt. Reports whether the flag was set. A local
	// edit that lands between a push snapshot and its acknowledgement
	// changes updatedAt, so the stale acknowledgement does not mark it.
	MarkSynced(ctx context.Context, col models.Collection, id string, expectedUpdatedAt int64) (bool, error)

	// SoftDelete tombstones the record: sets isDeleted, clears isSynced and
	// stamps updatedAt=now in one write. Returns common.ErrNotFound if the
	// id is absent.
	SoftDelete(ctx context.Context, col models.Collection, id string) error

	// LastSyncTimestamp returns the durable global watermark in wall-clock
	// milliseconds, or 0 before the first successful sync.
	LastSyncTimestamp(ctx context.Context) (int64, error)

	// SetLastSyncTimestamp durably persists the global watermark.
	SetLastSyncTimestamp(ctx context.Context, ts int64) error
}
