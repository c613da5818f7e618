package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/pocketauth/pocketauth/internal/model"
	"github.com/pocketauth/pocketauth/internal/repo"
	"github.com/pocketauth/pocketauth/internal/token"
)

var (
	// ErrWrongCredentials is returned when login credentials do not match
	ErrWrongCredentials = errors.New("wrong credentials")
	// ErrInvalidRefreshToken covers every refresh failure: bad signature,
	// expired token, token already consumed. Callers get no finer detail.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

// Service orchestrates credential verification, token issuance and
// refresh-token rotation.
type Service struct {
	verifier CredentialVerifier
	issuer   *token.Issuer
	refresh  *token.Codec
	users    repo.UserStore
	tokens   repo.TokenStore
}

// NewService creates an auth service
func NewService(
	verifier CredentialVerifier,
	issuer *token.Issuer,
	refresh *token.Codec,
	users repo.UserStore,
	tokens repo.TokenStore,
) *Service {
	return &Service{
		verifier: verifier,
		issuer:   issuer,
		refresh:  refresh,
		users:    users,
		tokens:   tokens,
	}
}

// Login verifies the credentials, creates the user row on first login and
// issues a token pair
func (s *Service) Login(ctx context.Context, username, password string) (model.TokenPair, error) {
	userID, err := s.verifier.Verify(ctx, username, password)
	if err != nil {
		return model.TokenPair{}, ErrWrongCredentials
	}

	user := model.User{UserID: userID, Username: username, Phone: ""}
	if err := s.users.CreateIfAbsent(ctx, user); err != nil {
		return model.TokenPair{}, fmt.Errorf("failed to create user: %w", err)
	}

	return s.issuer.Issue(ctx, userID)
}

// Refresh rotates a refresh token: verify signature and expiry, consume the
// old token, mint a new pair for the same user. Consumption is atomic, so a
// token presented twice succeeds at most once regardless of timing.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error) {
	userID, err := s.refresh.Verify(refreshToken)
	if err != nil {
		return model.TokenPair{}, ErrInvalidRefreshToken
	}

	consumed, err := s.tokens.Consume(ctx, refreshToken)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("failed to consume refresh token: %w", err)
	}
	if !consumed {
		return model.TokenPair{}, ErrInvalidRefreshToken
	}

	return s.issuer.Issue(ctx, userID)
}

// GetAccount returns the user row for userID
func (s *Service) GetAccount(ctx context.Context, userID int64) (model.User, error) {
	return s.users.GetByID(ctx, userID)
}

// UpdateAccount sets the phone for userID and returns the updated row. Phone
// format is validated by the HTTP layer before this call.
func (s *Service) UpdateAccount(ctx context.Context, userID int64, phone string) (model.User, error) {
	return s.users.UpdatePhone(ctx, userID, phone)
}
