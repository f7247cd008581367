// Package remote defines the transport the reconciler pushes to and pulls
// from: a row-per-record remote table keyed by id and partitioned by user.
package remote

import (
	"context"
	"encoding/json"
)

// Row is one remote record: the whole serialized entity in Data plus the
// columns the remote store indexes on. UpdatedAt mirrors the updatedAt
// inside Data.
type Row struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Data      json.RawMessage `json:"data"`
	UpdatedAt int64           `json:"updated_at"`
}

// Transport is the engine's view of the remote store. Implementations must
// provide at-least-once delivery and per-row upsert-by-id semantics: for
// each id the row with the greater updated_at wins, with no server-side
// field merge. The reconciler treats any error as "leave local state
// unchanged, retry next cycle".
type Transport interface {
	// Upsert writes the batch keyed by id. Idempotent: re-sending the same
	// rows is safe, and a stale row never overwrites a newer stored one.
	Upsert(ctx context.Context, table string, rows []Row) error

	// QueryUpdatedSince returns the user's rows with updated_at strictly
	// greater than threshold, in ascending updated_at order.
	QueryUpdatedSince(ctx context.Context, table, userID string, threshold int64) ([]Row, error)
}
