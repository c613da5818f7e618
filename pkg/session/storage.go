package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// Storage keys for the persisted session state
const (
	keyAccessToken        = "access_token"
	keyRefreshToken       = "refresh_token"
	keyAccessTokenExp     = "access_token_exp"
	keyRefreshTokenExp    = "refresh_token_exp"
	keyUserData           = "user_data"
	keyLastBackgroundTime = "last_background_time"
)

// Storage is durable device-local key-value storage for session state.
// Get returns ok=false when the key is absent.
type Storage interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// SQLiteStorage persists session state in a local SQLite database
type SQLiteStorage struct {
	db *sql.DB
}

// OpenStorage opens (and creates if needed) the SQLite database at path.
// ":memory:" gives a non-durable store for tests.
func OpenStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session storage: %w", err)
	}
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS session_state (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)
	`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to init session storage: %w", err)
	}
	return &SQLiteStorage{db: db}, nil
}

// NewSQLiteStorage wraps an already-open database handle
func NewSQLiteStorage(db *sql.DB) *SQLiteStorage {
	return &SQLiteStorage{db: db}
}

// Get reads one key
func (s *SQLiteStorage) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM session_state WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, true, nil
}

// Set upserts one key
func (s *SQLiteStorage) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO session_state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// Delete removes one key; deleting an absent key is not an error
func (s *SQLiteStorage) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM session_state WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Clear wipes all session state
func (s *SQLiteStorage) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM session_state`)
	if err != nil {
		return fmt.Errorf("failed to clear session storage: %w", err)
	}
	return nil
}

// Close closes the underlying database
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
