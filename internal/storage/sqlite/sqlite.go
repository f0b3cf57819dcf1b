// Package sqlite provides a SQLite-backed implementation of the
// storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/tallyhq/tally/internal/errs"
	"github.com/tallyhq/tally/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path. It creates
// the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// applyDeltas adjusts balance rows inside an open transaction. Each update
// is guarded by the row's version; a version that moved underneath us means
// a concurrent writer touched an overlapping member set, and the whole
// transaction must be rolled back and retried. Rows are materialized lazily
// at the delta's value on first reference.
func applyDeltas(ctx context.Context, tx *sql.Tx, groupID string, deltas []storage.BalanceDelta) error {
	for _, d := range deltas {
		var (
			amount  string
			version int64
		)
		err := tx.QueryRowContext(ctx,
			"SELECT amount, version FROM balances WHERE group_id = ? AND member_id = ?",
			groupID, d.Member.String(),
		).Scan(&amount, &version)

		switch {
		case err == sql.ErrNoRows:
			_, err = tx.ExecContext(ctx,
				"INSERT INTO balances (group_id, member_id, amount, currency, version) VALUES (?, ?, ?, ?, 1)",
				groupID, d.Member.String(), d.Delta.String(), d.Currency,
			)
			if err != nil {
				// Two writers materializing the same row race on the
				// primary key; that is a retryable conflict.
				if strings.Contains(err.Error(), "UNIQUE constraint failed") {
					return &errs.ConflictError{GroupID: groupID}
				}
				return fmt.Errorf("failed to insert balance: %w", err)
			}
		case err != nil:
			return fmt.Errorf("failed to read balance: %w", err)
		default:
			current, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("corrupt balance amount %q: %w", amount, err)
			}
			res, err := tx.ExecContext(ctx,
				"UPDATE balances SET amount = ?, version = ? WHERE group_id = ? AND member_id = ? AND version = ?",
				current.Add(d.Delta).String(), version+1, groupID, d.Member.String(), version,
			)
			if err != nil {
				return fmt.Errorf("failed to update balance: %w", err)
			}
			affected, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to read update result: %w", err)
			}
			if affected == 0 {
				return &errs.ConflictError{GroupID: groupID}
			}
		}
	}
	return nil
}
