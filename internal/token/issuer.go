package token

import (
	"context"
	"fmt"
	"time"

	"github.com/pocketauth/pocketauth/internal/model"
	"github.com/pocketauth/pocketauth/internal/repo"
)

const (
	// AccessTokenTTL is the fixed access-token lifetime
	AccessTokenTTL = 5 * time.Minute
	// RefreshTokenTTL is the fixed refresh-token lifetime
	RefreshTokenTTL = 30 * 24 * time.Hour
)

// Issuer mints matched access/refresh token pairs and records every issued
// refresh token in the ledger.
type Issuer struct {
	access  *Codec
	refresh *Codec
	store   repo.TokenStore
	now     func() time.Time
}

// NewIssuer creates an issuer signing with the given codecs and recording
// refresh tokens in store
func NewIssuer(access, refresh *Codec, store repo.TokenStore) *Issuer {
	return &Issuer{
		access:  access,
		refresh: refresh,
		store:   store,
		now:     time.Now,
	}
}

// Issue creates a token pair for userID. The refresh token is inserted into
// the ledger before the pair is returned; a failed insert fails the whole
// issuance with no retry.
func (i *Issuer) Issue(ctx context.Context, userID int64) (model.TokenPair, error) {
	now := i.now()
	accessExp := now.Add(AccessTokenTTL)
	refreshExp := now.Add(RefreshTokenTTL)

	refreshToken, err := i.refresh.Sign(userID, refreshExp)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("failed to sign refresh token: %w", err)
	}
	if err := i.store.Insert(ctx, refreshToken); err != nil {
		return model.TokenPair{}, fmt.Errorf("failed to record refresh token: %w", err)
	}

	accessToken, err := i.access.Sign(userID, accessExp)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("failed to sign access token: %w", err)
	}

	return model.TokenPair{
		AccessToken:     accessToken,
		RefreshToken:    refreshToken,
		AccessTokenExp:  accessExp.Unix(),
		RefreshTokenExp: refreshExp.Unix(),
	}, nil
}
