package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Dialect selects placeholder syntax for the SQL adapter.
type Dialect int

const (
	Postgres Dialect = iota
	SQLite
)

const table = "kv_items"

// SQL stores every key as one row of a two-column table.
type SQL struct {
	DB      *sql.DB
	Dialect Dialect
}

func NewSQL(db *sql.DB, dialect Dialect) *SQL {
	return &SQL{DB: db, Dialect: dialect}
}

// Migrate creates the backing table if it does not exist yet.
func (s *SQL) Migrate(ctx context.Context) error {
	_, err := s.DB.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS `+table+` (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
)`)
	if err != nil {
		return fmt.Errorf("%w: migrate: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *SQL) GetItem(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.DB.QueryRowContext(ctx, "SELECT value FROM "+table+" WHERE key = "+s.arg(1), key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: get %s: %v", ErrUnavailable, key, err)
	}
	return value, true, nil
}

func (s *SQL) SetItem(ctx context.Context, key, value string) error {
	query := "INSERT INTO " + table + " (key, value) VALUES (" + s.arg(1) + ", " + s.arg(2) + ")" +
		" ON CONFLICT (key) DO UPDATE SET value = excluded.value"
	if _, err := s.DB.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("%w: set %s: %v", ErrUnavailable, key, err)
	}
	return nil
}

func (s *SQL) RemoveItem(ctx context.Context, key string) error {
	if _, err := s.DB.ExecContext(ctx, "DELETE FROM "+table+" WHERE key = "+s.arg(1), key); err != nil {
		return fmt.Errorf("%w: remove %s: %v", ErrUnavailable, key, err)
	}
	return nil
}

func (s *SQL) arg(n int) string {
	if s.Dialect == SQLite {
		return "?"
	}
	return fmt.Sprintf("$%d", n)
}
