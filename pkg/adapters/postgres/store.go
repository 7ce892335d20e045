// Package postgres provides a PostgreSQL-backed progress store: one row per
// progress key in a shared table.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/storyboard/pkg/domain"
	"github.com/aretw0/storyboard/pkg/ports"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema creates the progress table. Migrate runs it.
const Schema = `
CREATE TABLE IF NOT EXISTS storyboard_progress (
    entry_key  TEXT PRIMARY KEY,
    value_json JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements ports.KVStore on PostgreSQL.
type Store struct {
	db   DBTX
	pool *pgxpool.Pool
}

var (
	_ ports.KVStore   = (*Store)(nil)
	_ ports.KeyLister = (*Store)(nil)
)

// Open connects a pool to dsn and ensures the schema exists.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	store := &Store{db: pool, pool: pool}
	if err := store.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

// New wraps an existing connection, pool or transaction. The caller owns
// its lifecycle and is expected to have run Migrate.
func New(db DBTX) *Store {
	return &Store{db: db}
}

// Migrate creates the progress table if needed.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("create progress table: %w", err)
	}
	return nil
}

// Close closes the pool opened by Open.
func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// Set upserts the row for key. value must be valid JSON.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO storyboard_progress (entry_key, value_json, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (entry_key) DO UPDATE SET
			value_json = EXCLUDED.value_json,
			updated_at = NOW()`,
		key, string(value),
	)
	if err != nil {
		return fmt.Errorf("put progress entry %q: %w", key, err)
	}
	return nil
}

// Get loads the row for key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := s.db.QueryRow(ctx, `SELECT value_json::text FROM storyboard_progress WHERE entry_key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProgressNotFound
		}
		return nil, fmt.Errorf("get progress entry %q: %w", key, err)
	}
	return []byte(value), nil
}

// Delete removes the row for key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM storyboard_progress WHERE entry_key = $1`, key); err != nil {
		return fmt.Errorf("delete progress entry %q: %w", key, err)
	}
	return nil
}

// Keys lists keys starting with prefix, in key order.
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.Query(ctx,
		`SELECT entry_key FROM storyboard_progress WHERE starts_with(entry_key, $1) ORDER BY entry_key`, prefix)
	if err != nil {
		return nil, fmt.Errorf("list progress entries: %w", err)
	}
	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan progress entries: %w", err)
	}
	return keys, nil
}
