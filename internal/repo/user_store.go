package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pocketauth/pocketauth/internal/model"
)

type userStore struct {
	db *sql.DB
}

// NewUserStore creates a Postgres-backed UserStore
func NewUserStore(db *sql.DB) UserStore {
	return &userStore{db: db}
}

// GetByID retrieves a user by id
func (s *userStore) GetByID(ctx context.Context, userID int64) (model.User, error) {
	query := `
		SELECT user_id, username, phone
		FROM users
		WHERE user_id = $1
	`
	var user model.User
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&user.UserID,
		&user.Username,
		&user.Phone,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, fmt.Errorf("failed to query user: %w", err)
	}
	return user, nil
}

// CreateIfAbsent inserts the user, ignoring the insert when the id is taken
func (s *userStore) CreateIfAbsent(ctx context.Context, user model.User) error {
	query := `
		INSERT INTO users (user_id, username, phone)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query, user.UserID, user.Username, user.Phone)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// UpdatePhone sets the phone column and returns the updated row
func (s *userStore) UpdatePhone(ctx context.Context, userID int64, phone string) (model.User, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users SET phone = $2 WHERE user_id = $1
	`, userID, phone)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to update phone: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return model.User{}, ErrNotFound
	}
	return s.GetByID(ctx, userID)
}
