package repo

import (
	"context"
	"errors"

	"github.com/pocketauth/pocketauth/internal/model"
)

// ErrNotFound is returned when a lookup matches no row
var ErrNotFound = errors.New("not found")

// UserStore defines user persistence operations
type UserStore interface {
	GetByID(ctx context.Context, userID int64) (model.User, error)
	// CreateIfAbsent inserts the user unless a row with the same id already
	// exists. Existing rows are left untouched.
	CreateIfAbsent(ctx context.Context, user model.User) error
	UpdatePhone(ctx context.Context, userID int64, phone string) (model.User, error)
}

// TokenStore is the single-use refresh-token ledger. A refresh token is valid
// only while its exact string is present here; rotation removes it.
type TokenStore interface {
	Insert(ctx context.Context, token string) error
	Exists(ctx context.Context, token string) (bool, error)
	// Consume atomically removes the token and reports whether it was
	// present. Check-and-delete must be a single operation so that two
	// concurrent refresh attempts with the same token cannot both succeed.
	Consume(ctx context.Context, token string) (bool, error)
}
