package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/fintrack/internal/common"
	"github.com/dmitrijs2005/fintrack/internal/models"
	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

// localTables maps collections to their local table names. Table names are
// interpolated into SQL, so every query goes through this whitelist.
var localTables = map[models.Collection]string{
	models.Transactions: "transactions",
	models.CreditCards:  "credit_cards",
	models.Recurring:    "recurring",
	models.Assets:       "assets",
	models.Budgets:      "budgets",
	models.Categories:   "categories",
	models.Settings:     "settings",
}

// SQLite implements Store over a SQLite database.
type SQLite struct {
	db  *sql.DB
	now func() int64
}

// Option customizes a SQLite store.
type Option func(*SQLite)

// WithClock replaces the wall clock (milliseconds). Tests use this to
// fabricate deterministic timestamps.
func WithClock(now func() int64) Option {
	return func(s *SQLite) { s.now = now }
}

// New wraps an already opened database. The schema must exist, either via
// Open or RunMigrations.
func New(db *sql.DB, opts ...Option) *SQLite {
	s := &SQLite{
		db:  db,
		now: func() int64 { return time.Now().UnixMilli() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open opens (creating if needed) the database at dsn and applies pending
// migrations.
func Open(ctx context.Context, dsn string, opts ...Option) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// modernc.org/sqlite handles one writer at a time; a single connection
	// also keeps :memory: databases coherent.
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return New(db, opts...), nil
}

// DB exposes the underlying handle, mainly for tests and migrations.
func (s *SQLite) DB() *sql.DB { return s.db }

// Close closes the underlying database.
func (s *SQLite) Close() error { return s.db.Close() }

func tableFor(col models.Collection) (string, error) {
	t, ok := localTables[col]
	if !ok {
		return "", fmt.Errorf("%w: %q", common.ErrUnknownCollection, col)
	}
	return t, nil
}

func (s *SQLite) GetAll(ctx context.Context, col models.Collection, includeDeleted bool) ([]models.Record, error) {
	table, err := tableFor(col)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT id, user_id, created_at, updated_at, is_synced, is_deleted, payload
		FROM %s`, table)
	if !includeDeleted {
		query += ` WHERE is_deleted=0`
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", col, err)
	}
	defer rows.Close()

	var result []models.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", col, err)
	}
	return result, nil
}

func (s *SQLite) Get(ctx context.Context, col models.Collection, id string) (*models.Record, error) {
	table, err := tableFor(col)
	if err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, fmt.Sprintf(
		`SELECT id, user_id, created_at, updated_at, is_synced, is_deleted, payload
		 FROM %s WHERE id=?`, table), id)

	var rec models.Record
	err = row.Scan(&rec.Id, &rec.UserId, &rec.CreatedAt, &rec.UpdatedAt, &rec.IsSynced, &rec.IsDeleted, &rec.Payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s/%s: %w", col, id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s/%s: %w", col, id, err)
	}
	return &rec, nil
}

func (s *SQLite) Insert(ctx context.Context, col models.Collection, rec models.Record) (*models.Record, error) {
	table, err := tableFor(col)
	if err != nil {
		return nil, err
	}

	if rec.Id == "" {
		rec.Id = uuid.NewString()
	}
	now := s.now()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	rec.IsSynced = false
	rec.IsDeleted = false
	if len(rec.Payload) == 0 {
		rec.Payload = []byte(`{}`)
	}

	_, err = s.db.ExecContext(ctx, fmt.Sprintf(
		`INSERT INTO %s (id, user_id, created_at, updated_at, is_synced, is_deleted, payload)
		 VALUES (?, ?, ?, ?, 0, 0, ?)`, table),
		rec.Id, rec.UserId, rec.CreatedAt, rec.UpdatedAt, []byte(rec.Payload))
	if err != nil {
		return nil, fmt.Errorf("failed to insert into %s: %w", col, err)
	}
	return &rec, nil
}

func (s *SQLite) Update(ctx context.Context, col models.Collection, rec models.Record) (*models.Record, error) {
	table, err := tableFor(col)
	if err != nil {
		return nil, err
	}
	if rec.Id == "" {
		return nil, fmt.Errorf("update %s: %w: empty id", col, common.ErrNotFound)
	}

	rec.UpdatedAt = s.now()
	rec.IsSynced = false
	if rec.CreatedAt == 0 {
		rec.CreatedAt = rec.UpdatedAt
	}
	if len(rec.Payload) == 0 {
		rec.Payload = []byte(`{}`)
	}

	// Upsert: an edit to a row that does not exist yet behaves as a create,
	// but an existing row keeps its created_at.
	_, err = s.db.ExecContext(ctx, fmt.Sprintf(
		`INSERT INTO %s (id, user_id, created_at, updated_at, is_synced, is_deleted, payload)
		 VALUES (?, ?, ?, ?, 0, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			updated_at = excluded.updated_at,
			is_synced = 0,
			is_deleted = excluded.is_deleted,
			payload = excluded.payload`, table),
		rec.Id, rec.UserId, rec.CreatedAt, rec.UpdatedAt, rec.IsDeleted, []byte(rec.Payload))
	if err != nil {
		return nil, fmt.Errorf("failed to update %s/%s: %w", col, rec.Id, err)
	}
	return &rec, nil
}

func (s *SQLite) ApplyRemoteRecord(ctx context.Context, col models.Collection, rec models.Record) (*models.Record, error) {
	table, err := tableFor(col)
	if err != nil {
		return nil, err
	}
	if rec.Id == "" {
		return nil, fmt.Errorf("apply remote %s: %w: empty id", col, common.ErrNotFound)
	}

	rec.IsSynced = true
	if len(rec.Payload) == 0 {
		rec.Payload = []byte(`{}`)
	}

	_, err = s.db.ExecContext(ctx, fmt.Sprintf(
		`INSERT INTO %s (id, user_id, created_at, updated_at, is_synced, is_deleted, payload)
		 VALUES (?, ?, ?, ?, 1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			is_synced = 1,
			is_deleted = excluded.is_deleted,
			payload = excluded.payload`, table),
		rec.Id, rec.UserId, rec.CreatedAt, rec.UpdatedAt, rec.IsDeleted, []byte(rec.Payload))
	if err != nil {
		return nil, fmt.Errorf("failed to apply remote %s/%s: %w", col, rec.Id, err)
	}
	return &rec, nil
}

func (s *SQLite) MarkSynced(ctx context.Context, col models.Collection, id string, expectedUpdatedAt int64) (bool, error) {
	table, err := tableFor(col)
	if err != nil {
		return false, err
	}

	res, err := s.db.ExecContext(ctx, fmt.Sprintf(
		`UPDATE %s SET is_synced=1 WHERE id=? AND updated_at=?`, table),
		id, expectedUpdatedAt)
	if err != nil {
		return false, fmt.Errorf("failed to mark %s/%s synced: %w", col, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n == 1, nil
}

func (s *SQLite) SoftDelete(ctx context.Context, col models.Collection, id string) error {
	table, err := tableFor(col)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, fmt.Sprintf(
		`UPDATE %s SET is_deleted=1, is_synced=0, updated_at=? WHERE id=?`, table),
		s.now(), id)
	if err != nil {
		return fmt.Errorf("failed to soft delete %s/%s: %w", col, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s/%s: %w", col, id, common.ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (models.Record, error) {
	var rec models.Record
	err := row.Scan(&rec.Id, &rec.UserId, &rec.CreatedAt, &rec.UpdatedAt, &rec.IsSynced, &rec.IsDeleted, &rec.Payload)
	if err != nil {
		return models.Record{}, fmt.Errorf("failed to scan record: %w", err)
	}
	return rec, nil
}

var _ Store = (*SQLite)(nil)
