// Package keystore is the durable client-side key-value state. The only
// value that survives a process restart is the session bearer token; it
// lives in a small SQLite database so reads and writes are atomic.
package keystore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// tokenKey is the fixed key the session token is stored under.
const tokenKey = "session.token"

type Store struct {
	db *sql.DB
}

func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open state database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping state database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Get returns the value for key, or "" when the key is absent.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM keystore WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read key %q: %w", key, err)
	}
	return value, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO keystore (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value)
	if err != nil {
		return fmt.Errorf("write key %q: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM keystore WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete key %q: %w", key, err)
	}
	return nil
}

// Token returns the persisted session token, "" when signed out.
func (s *Store) Token(ctx context.Context) (string, error) {
	return s.Get(ctx, tokenKey)
}

func (s *Store) SetToken(ctx context.Context, token string) error {
	return s.Set(ctx, tokenKey, token)
}

func (s *Store) DeleteToken(ctx context.Context) error {
	return s.Delete(ctx, tokenKey)
}

// CompareAndDeleteToken removes the stored token only when it still
// equals tok. It reports whether a delete happened. This is the guard
// that keeps a retried request from tearing the session down twice.
func (s *Store) CompareAndDeleteToken(ctx context.Context, tok string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM keystore WHERE key = ? AND value = ?`, tokenKey, tok)
	if err != nil {
		return false, fmt.Errorf("compare-and-delete token: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("compare-and-delete token: %w", err)
	}
	return n > 0, nil
}
