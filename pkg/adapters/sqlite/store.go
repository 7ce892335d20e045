// Package sqlite provides a SQLite-backed progress store for server
// deployments that keep one row per (scenario, act).
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/storyboard/pkg/domain"
	"github.com/aretw0/storyboard/pkg/ports"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS progress_entries (
    entry_key  TEXT PRIMARY KEY,
    value_json BLOB NOT NULL,
    updated_at INTEGER NOT NULL
)`

// Store implements ports.KVStore on a single SQLite table.
type Store struct {
	sqlDB *sql.DB
}

var (
	_ ports.KVStore   = (*Store)(nil)
	_ ports.KeyLister = (*Store)(nil)
)

// Open opens (creating if needed) the database at path and ensures the
// schema exists. Use ":memory:" for a throwaway database.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := path
	if path != ":memory:" {
		dsn = filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	}
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if path == ":memory:" {
		// Each connection to ":memory:" is its own database.
		sqlDB.SetMaxOpenConns(1)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close releases the underlying SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Set upserts the row for key.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return fmt.Errorf("key is required")
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO progress_entries (entry_key, value_json, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(entry_key) DO UPDATE SET
		    value_json = excluded.value_json,
		    updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("put progress entry: %w", err)
	}
	return nil
}

// Get loads the row for key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT value_json FROM progress_entries WHERE entry_key = ?`, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProgressNotFound
		}
		return nil, fmt.Errorf("get progress entry: %w", err)
	}
	return value, nil
}

// Delete removes the row for key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM progress_entries WHERE entry_key = ?`, key); err != nil {
		return fmt.Errorf("delete progress entry: %w", err)
	}
	return nil
}

// Keys lists keys starting with prefix, in key order.
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT entry_key FROM progress_entries WHERE entry_key LIKE ? ESCAPE '\' ORDER BY entry_key`,
		likePrefix(prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("list progress entries: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan progress entry: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate progress entries: %w", err)
	}
	return keys, nil
}

func likePrefix(prefix string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(prefix) + "%"
}
