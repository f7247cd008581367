package store

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/fintrack/internal/dbx"
	"github.com/dmitrijs2005/fintrack/internal/models"
)

// Seed writes the default settings row on first run. It is a no-op when the
// replica already holds any settings (including a tombstoned row pulled
// from another device). The whole check-and-write runs in one transaction
// so two concurrent first-run callers cannot both seed.
func (s *SQLite) Seed(ctx context.Context, userID string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var n int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM settings`).Scan(&n); err != nil {
			return fmt.Errorf("failed to count settings: %w", err)
		}
		if n > 0 {
			return nil
		}

		payload, err := models.MarshalPayload(models.DefaultSettings())
		if err != nil {
			return err
		}

		now := s.now()
		_, err = tx.ExecContext(ctx,
			`INSERT INTO settings (id, user_id, created_at, updated_at, is_synced, is_deleted, payload)
			 VALUES (?, ?, ?, ?, 0, 0, ?)`,
			models.SettingsRecordID, userID, now, now, []byte(payload))
		if err != nil {
			return fmt.Errorf("failed to seed settings: %w", err)
		}
		return nil
	})
}

// LoadState reads the full replica view handed to the application shell.
// Tombstones are excluded, per the default listing contract.
func (s *SQLite) LoadState(ctx context.Context) (*models.FinancialState, error) {
	state := &models.FinancialState{}

	dests := map[models.Collection]*[]models.Record{
		models.Transactions: &state.Transactions,
		models.CreditCards:  &state.CreditCards,
		models.Recurring:    &state.Recurring,
		models.Assets:       &state.Assets,
		models.Budgets:      &state.Budgets,
		models.Categories:   &state.Categories,
	}
	for _, col := range models.Collections() {
		dst, ok := dests[col]
		if !ok {
			continue
		}
		recs, err := s.GetAll(ctx, col, false)
		if err != nil {
			return nil, err
		}
		*dst = recs
	}

	settings, err := s.GetAll(ctx, models.Settings, false)
	if err != nil {
		return nil, err
	}
	if len(settings) > 0 {
		state.Settings = &settings[0]
	}
	return state, nil
}
