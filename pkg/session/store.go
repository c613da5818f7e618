package session

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"
)

// backgroundTimeout is how long the app may stay backgrounded before the
// session is treated as stale.
const backgroundTimeout = 10 * time.Minute

// Store owns the on-device session: the current token pair, the cached user,
// and the last time the app went to background. Every mutation of tokens or
// user is written through to durable storage. Store decides synchronously
// whether the session is usable; network work happens only in Login and
// RefreshTokens.
type Store struct {
	mu      sync.Mutex
	api     *authTransport
	storage Storage
	now     func() time.Time

	tokens             *TokenPair
	user               *User
	lastBackgroundTime int64 // unix seconds, 0 = not backgrounded
	authenticated      bool
	lastError          string
}

// NewStore creates a session store talking to the auth server at baseURL and
// persisting through storage. Call Load to hydrate previously persisted state.
func NewStore(baseURL string, storage Storage) *Store {
	return &Store{
		api:     newAuthTransport(baseURL),
		storage: storage,
		now:     time.Now,
	}
}

// Login authenticates against the server and persists the returned token pair.
// On failure the previous session state is left untouched and LastError is
// set to a human-readable message.
func (s *Store) Login(ctx context.Context, username, password string) bool {
	pair, err := s.api.login(ctx, username, password)
	if err != nil {
		s.mu.Lock()
		s.lastError = errorMessage(err, "Login failed")
		s.mu.Unlock()
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = &pair
	s.authenticated = true
	s.lastError = ""
	s.persistTokens(ctx)
	return true
}

// RefreshTokens exchanges the stored refresh token for a new pair. Any failure
// is terminal for the session: the store logs out and returns false.
func (s *Store) RefreshTokens(ctx context.Context) bool {
	s.mu.Lock()
	if s.tokens == nil || s.tokens.RefreshToken == "" {
		s.logoutLocked()
		s.mu.Unlock()
		return false
	}
	refreshToken := s.tokens.RefreshToken
	s.mu.Unlock()

	pair, err := s.api.refresh(ctx, refreshToken)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.logoutLocked()
		return false
	}
	s.tokens = &pair
	s.persistTokens(ctx)
	return true
}

// CheckAuthStatus is the synchronous route-guard check. It returns false and
// clears the session when no tokens are stored, when the refresh token has
// expired, or when the app was backgrounded for more than ten minutes.
func (s *Store) CheckAuthStatus() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tokens == nil {
		s.logoutLocked()
		return false
	}

	now := s.now().Unix()

	if now >= s.tokens.RefreshTokenExp {
		s.logoutLocked()
		return false
	}

	if s.lastBackgroundTime != 0 && now-s.lastBackgroundTime > int64(backgroundTimeout.Seconds()) {
		s.logoutLocked()
		return false
	}

	return true
}

// SetBackgroundTime records when the app went to background; zero clears it.
// Overwriting an existing value is safe, repeated background events are
// harmless.
func (s *Store) SetBackgroundTime(t int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastBackgroundTime = t
	_ = s.storage.Set(context.Background(), keyLastBackgroundTime, strconv.FormatInt(t, 10))
}

// MarkBackground records the current time as the background timestamp
func (s *Store) MarkBackground() {
	s.SetBackgroundTime(s.now().Unix())
}

// UpdateUser caches and persists the user object
func (s *Store) UpdateUser(user User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = &user
	if data, err := json.Marshal(user); err == nil {
		_ = s.storage.Set(context.Background(), keyUserData, string(data))
	}
}

// Logout clears all session state, in memory and in storage
func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logoutLocked()
}

// Load hydrates the store from durable storage. Corrupt state clears the
// storage and leaves the store logged out.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	accessToken, okAT, err := s.storage.Get(ctx, keyAccessToken)
	if err != nil {
		return err
	}
	refreshToken, okRT, err := s.storage.Get(ctx, keyRefreshToken)
	if err != nil {
		return err
	}
	accessExpStr, okAE, err := s.storage.Get(ctx, keyAccessTokenExp)
	if err != nil {
		return err
	}
	refreshExpStr, okRE, err := s.storage.Get(ctx, keyRefreshTokenExp)
	if err != nil {
		return err
	}

	if !okAT || !okRT || !okAE || !okRE {
		return nil
	}

	accessExp, errA := strconv.ParseInt(accessExpStr, 10, 64)
	refreshExp, errR := strconv.ParseInt(refreshExpStr, 10, 64)
	if errA != nil || errR != nil {
		s.logoutLocked()
		return nil
	}

	s.tokens = &TokenPair{
		AccessToken:     accessToken,
		RefreshToken:    refreshToken,
		AccessTokenExp:  accessExp,
		RefreshTokenExp: refreshExp,
	}

	if userData, ok, _ := s.storage.Get(ctx, keyUserData); ok {
		var user User
		if err := json.Unmarshal([]byte(userData), &user); err == nil {
			s.user = &user
		}
	}
	if bgStr, ok, _ := s.storage.Get(ctx, keyLastBackgroundTime); ok {
		if bg, err := strconv.ParseInt(bgStr, 10, 64); err == nil {
			s.lastBackgroundTime = bg
		}
	}

	s.authenticated = s.checkAuthStatusLocked()
	return nil
}

// Tokens returns a copy of the current token pair, or nil when logged out
func (s *Store) Tokens() *TokenPair {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tokens == nil {
		return nil
	}
	copied := *s.tokens
	return &copied
}

// User returns a copy of the cached user, or nil
func (s *Store) User() *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	copied := *s.user
	return &copied
}

// IsAuthenticated reports the current authentication flag
func (s *Store) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

// LastError returns the user-visible message from the most recent failed login
func (s *Store) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

// logoutLocked clears state and storage; callers hold s.mu
func (s *Store) logoutLocked() {
	s.tokens = nil
	s.user = nil
	s.lastBackgroundTime = 0
	s.authenticated = false
	s.lastError = ""
	_ = s.storage.Clear(context.Background())
}

// checkAuthStatusLocked mirrors CheckAuthStatus; callers hold s.mu
func (s *Store) checkAuthStatusLocked() bool {
	if s.tokens == nil {
		return false
	}
	now := s.now().Unix()
	if now >= s.tokens.RefreshTokenExp {
		s.logoutLocked()
		return false
	}
	if s.lastBackgroundTime != 0 && now-s.lastBackgroundTime > int64(backgroundTimeout.Seconds()) {
		s.logoutLocked()
		return false
	}
	return true
}

// persistTokens writes the current pair through to storage; callers hold s.mu
func (s *Store) persistTokens(ctx context.Context) {
	if s.tokens == nil {
		return
	}
	_ = s.storage.Set(ctx, keyAccessToken, s.tokens.AccessToken)
	_ = s.storage.Set(ctx, keyRefreshToken, s.tokens.RefreshToken)
	_ = s.storage.Set(ctx, keyAccessTokenExp, strconv.FormatInt(s.tokens.AccessTokenExp, 10))
	_ = s.storage.Set(ctx, keyRefreshTokenExp, strconv.FormatInt(s.tokens.RefreshTokenExp, 10))
}

// errorMessage extracts a user-visible message, falling back when empty
func errorMessage(err error, fallback string) string {
	if err == nil || err.Error() == "" {
		return fallback
	}
	return err.Error()
}
