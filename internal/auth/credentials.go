package auth

import (
	"context"

	"golang.org/x/crypto/bcrypt"
)

// CredentialVerifier checks a username/password pair and resolves it to a user
// id. Implementations must not reveal which of the two inputs was wrong.
type CredentialVerifier interface {
	Verify(ctx context.Context, username, password string) (int64, error)
}

// StaticVerifier accepts exactly one fixed credential pair. It exists for the
// demo deployment; production swaps in a hash-backed verifier.
type StaticVerifier struct {
	Username string
	Password string
	UserID   int64
}

// NewTestUserVerifier returns the demo credential set
func NewTestUserVerifier() *StaticVerifier {
	return &StaticVerifier{
		Username: "testuser",
		Password: "secret",
		UserID:   123,
	}
}

// Verify compares against the fixed pair with plain equality
func (v *StaticVerifier) Verify(_ context.Context, username, password string) (int64, error) {
	if username != v.Username || password != v.Password {
		return 0, ErrWrongCredentials
	}
	return v.UserID, nil
}

// CredentialLookup resolves a username to its user id and stored bcrypt hash
type CredentialLookup func(ctx context.Context, username string) (userID int64, passwordHash []byte, err error)

// BcryptVerifier verifies passwords against bcrypt hashes resolved through a
// pluggable lookup. Lookup misses and hash mismatches both map to
// ErrWrongCredentials.
type BcryptVerifier struct {
	Lookup CredentialLookup
}

// Verify resolves the username and compares the password against its hash
func (v *BcryptVerifier) Verify(ctx context.Context, username, password string) (int64, error) {
	userID, hash, err := v.Lookup(ctx, username)
	if err != nil {
		return 0, ErrWrongCredentials
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return 0, ErrWrongCredentials
	}
	return userID, nil
}
