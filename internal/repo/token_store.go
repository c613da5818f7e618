package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type tokenStore struct {
	db *sql.DB
}

// NewTokenStore creates a Postgres-backed TokenStore. Rows are never pruned by
// expiry; tokens whose embedded exp has passed are rejected by signature
// verification, not by this store.
func NewTokenStore(db *sql.DB) TokenStore {
	return &tokenStore{db: db}
}

// Insert records an issued refresh token
func (s *tokenStore) Insert(ctx context.Context, token string) error {
	query := `
		INSERT INTO tokens (token_id, token)
		VALUES ($1, $2)
	`
	_, err := s.db.ExecContext(ctx, query, uuid.New().String(), token)
	if err != nil {
		return fmt.Errorf("failed to insert token: %w", err)
	}
	return nil
}

// Exists reports whether the exact token string is currently recorded
func (s *tokenStore) Exists(ctx context.Context, token string) (bool, error) {
	var tokenID string
	err := s.db.QueryRowContext(ctx, `
		SELECT token_id FROM tokens WHERE token = $1
	`, token).Scan(&tokenID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to query token: %w", err)
	}
	return true, nil
}

// Consume deletes the token in a single statement; the rows-affected count
// decides whether it was still unconsumed. Two concurrent consumers of the
// same token cannot both observe a deletion.
func (s *tokenStore) Consume(ctx context.Context, token string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM tokens WHERE token = $1
	`, token)
	if err != nil {
		return false, fmt.Errorf("failed to delete token: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n > 0, nil
}
