package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
)

// lastSyncKey is the metadata key holding the global pull watermark.
const lastSyncKey = "last_sync_timestamp"

func (s *SQLite) LastSyncTimestamp(ctx context.Context) (int64, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM metadata WHERE key = ?`, lastSyncKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get metadata[%s]: %w", lastSyncKey, err)
	}

	ts, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt metadata[%s]=%q: %w", lastSyncKey, value, err)
	}
	return ts, nil
}

func (s *SQLite) SetLastSyncTimestamp(ctx context.Context, ts int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, lastSyncKey, strconv.FormatInt(ts, 10))
	if err != nil {
		return fmt.Errorf("failed to set metadata[%s]: %w", lastSyncKey, err)
	}
	return nil
}
