package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubServer is a minimal stand-in for the auth server: one valid credential
// pair, rotating single-use refresh tokens, one account.
type stubServer struct {
	*httptest.Server

	mu            sync.Mutex
	counter       int
	validRefresh  map[string]bool
	currentAccess string
	refreshCalls  int
	accountCalls  int

	accessTTL  time.Duration
	refreshTTL time.Duration
}

func newStubServer(t *testing.T) *stubServer {
	t.Helper()
	s := &stubServer{
		validRefresh: make(map[string]bool),
		accessTTL:    5 * time.Minute,
		refreshTTL:   30 * 24 * time.Hour,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /login", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req["username"] != "testuser" || req["password"] != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "Wrong credentials"})
			return
		}
		_ = json.NewEncoder(w).Encode(s.issuePair())
	})
	mux.HandleFunc("POST /refresh", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.refreshCalls++
		s.mu.Unlock()
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)

		s.mu.Lock()
		ok := s.validRefresh[req["refreshToken"]]
		delete(s.validRefresh, req["refreshToken"])
		s.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "Invalid refreshToken"})
			return
		}
		_ = json.NewEncoder(w).Encode(s.issuePair())
	})
	mux.HandleFunc("GET /account", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.accountCalls++
		expected := "Bearer " + s.currentAccess
		s.mu.Unlock()
		if r.Header.Get("Authorization") != expected {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid or expired token"})
			return
		}
		_ = json.NewEncoder(w).Encode(User{UserID: 123, Username: "testuser", Phone: ""})
	})
	mux.HandleFunc("PATCH /account", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		_ = json.NewEncoder(w).Encode(User{UserID: 123, Username: "testuser", Phone: req["phone"]})
	})

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

func (s *stubServer) issuePair() TokenPair {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counter++
	now := time.Now()
	pair := TokenPair{
		AccessToken:     fmt.Sprintf("access-%d", s.counter),
		RefreshToken:    fmt.Sprintf("refresh-%d", s.counter),
		AccessTokenExp:  now.Add(s.accessTTL).Unix(),
		RefreshTokenExp: now.Add(s.refreshTTL).Unix(),
	}
	s.validRefresh[pair.RefreshToken] = true
	s.currentAccess = pair.AccessToken
	return pair
}

func newTestStore(t *testing.T, baseURL string) *Store {
	t.Helper()
	return NewStore(baseURL, newTestStorage(t))
}

func TestLoginPersistsSession(t *testing.T) {
	server := newStubServer(t)
	store := newTestStore(t, server.URL)
	ctx := context.Background()

	require.True(t, store.Login(ctx, "testuser", "secret"))
	assert.True(t, store.IsAuthenticated())
	assert.Empty(t, store.LastError())

	tokens := store.Tokens()
	require.NotNil(t, tokens)
	assert.Equal(t, "access-1", tokens.AccessToken)

	// A second store over the same storage hydrates the session
	restored := NewStore(server.URL, store.storage)
	require.NoError(t, restored.Load(ctx))
	assert.True(t, restored.IsAuthenticated())
	require.NotNil(t, restored.Tokens())
	assert.Equal(t, tokens.RefreshToken, restored.Tokens().RefreshToken)
}

func TestLoginFailureKeepsPriorState(t *testing.T) {
	server := newStubServer(t)
	store := newTestStore(t, server.URL)
	ctx := context.Background()

	require.True(t, store.Login(ctx, "testuser", "secret"))
	before := store.Tokens()

	require.False(t, store.Login(ctx, "testuser", "wrong"))
	assert.Equal(t, "Wrong credentials", store.LastError())

	// Prior session untouched
	assert.True(t, store.IsAuthenticated())
	require.NotNil(t, store.Tokens())
	assert.Equal(t, before.AccessToken, store.Tokens().AccessToken)
}

func TestLoginNoNetwork(t *testing.T) {
	store := newTestStore(t, "http://127.0.0.1:1")

	require.False(t, store.Login(context.Background(), "testuser", "secret"))
	assert.Equal(t, "Network request failed", store.LastError())
	assert.False(t, store.IsAuthenticated())
}

func TestRefreshTokensRotates(t *testing.T) {
	server := newStubServer(t)
	store := newTestStore(t, server.URL)
	ctx := context.Background()

	require.True(t, store.Login(ctx, "testuser", "secret"))
	old := store.Tokens()

	require.True(t, store.RefreshTokens(ctx))
	rotated := store.Tokens()
	require.NotNil(t, rotated)
	assert.NotEqual(t, old.RefreshToken, rotated.RefreshToken)

	// New pair is persisted
	value, ok, err := store.storage.Get(ctx, keyRefreshToken)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, rotated.RefreshToken, value)
}

func TestRefreshFailureIsTerminal(t *testing.T) {
	server := newStubServer(t)
	store := newTestStore(t, server.URL)
	ctx := context.Background()

	require.True(t, store.Login(ctx, "testuser", "secret"))

	// First refresh consumes the token server-side; rewind the stored pair to
	// simulate a stale device presenting an already-used token
	stale := store.Tokens()
	require.True(t, store.RefreshTokens(ctx))
	store.mu.Lock()
	store.tokens = stale
	store.mu.Unlock()

	require.False(t, store.RefreshTokens(ctx))

	// Failed refresh clears everything, memory and storage
	assert.False(t, store.IsAuthenticated())
	assert.Nil(t, store.Tokens())
	_, ok, err := store.storage.Get(ctx, keyRefreshToken)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRefreshWithoutTokensLogsOut(t *testing.T) {
	server := newStubServer(t)
	store := newTestStore(t, server.URL)

	require.False(t, store.RefreshTokens(context.Background()))
	assert.False(t, store.IsAuthenticated())
}

func TestCheckAuthStatusNoTokens(t *testing.T) {
	server := newStubServer(t)
	store := newTestStore(t, server.URL)

	assert.False(t, store.CheckAuthStatus())
}

func TestCheckAuthStatusRefreshTokenExpired(t *testing.T) {
	server := newStubServer(t)
	store := newTestStore(t, server.URL)
	ctx := context.Background()

	require.True(t, store.Login(ctx, "testuser", "secret"))

	// Jump past the refresh-token expiry; the still-valid access token does
	// not keep the session alive
	store.mu.Lock()
	exp := store.tokens.RefreshTokenExp
	store.mu.Unlock()
	store.now = func() time.Time { return time.Unix(exp, 0) }

	assert.False(t, store.CheckAuthStatus())
	assert.Nil(t, store.Tokens())
	_, ok, err := store.storage.Get(ctx, keyAccessToken)
	require.NoError(t, err)
	assert.False(t, ok, "storage must be cleared")
}

func TestCheckAuthStatusBackgroundTimeout(t *testing.T) {
	server := newStubServer(t)

	cases := []struct {
		name string
		away time.Duration
		want bool
	}{
		{"resumed within window", 9 * time.Minute, true},
		{"exactly at boundary", 10 * time.Minute, true},
		{"past the window", 10*time.Minute + time.Second, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newTestStore(t, server.URL)
			require.True(t, store.Login(context.Background(), "testuser", "secret"))

			backgroundAt := time.Now()
			store.SetBackgroundTime(backgroundAt.Unix())
			store.now = func() time.Time { return backgroundAt.Add(tc.away) }

			assert.Equal(t, tc.want, store.CheckAuthStatus())
			if !tc.want {
				assert.Nil(t, store.Tokens())
			}
		})
	}
}

func TestUpdateUserPersists(t *testing.T) {
	server := newStubServer(t)
	store := newTestStore(t, server.URL)
	ctx := context.Background()

	require.True(t, store.Login(ctx, "testuser", "secret"))
	store.UpdateUser(User{UserID: 123, Username: "testuser", Phone: "5551234567"})

	restored := NewStore(server.URL, store.storage)
	require.NoError(t, restored.Load(ctx))
	user := restored.User()
	require.NotNil(t, user)
	assert.Equal(t, "5551234567", user.Phone)
}

func TestLoadCorruptExpClearsSession(t *testing.T) {
	server := newStubServer(t)
	storage := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, storage.Set(ctx, keyAccessToken, "a"))
	require.NoError(t, storage.Set(ctx, keyRefreshToken, "r"))
	require.NoError(t, storage.Set(ctx, keyAccessTokenExp, "not-a-number"))
	require.NoError(t, storage.Set(ctx, keyRefreshTokenExp, "12345"))

	store := NewStore(server.URL, storage)
	require.NoError(t, store.Load(ctx))
	assert.False(t, store.IsAuthenticated())
	assert.Nil(t, store.Tokens())

	_, ok, err := storage.Get(ctx, keyAccessToken)
	require.NoError(t, err)
	assert.False(t, ok, "corrupt state must be wiped")
}

func TestClientProactiveRefresh(t *testing.T) {
	server := newStubServer(t)
	// Server issues access tokens that are already inside the 60 s window
	server.accessTTL = 30 * time.Second

	store := newTestStore(t, server.URL)
	require.True(t, store.Login(context.Background(), "testuser", "secret"))

	client := NewClient(server.URL, store)
	user, err := client.GetAccount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(123), user.UserID)

	server.mu.Lock()
	defer server.mu.Unlock()
	assert.Equal(t, 1, server.refreshCalls, "client must refresh before the call")
	assert.Equal(t, 1, server.accountCalls)
}

func TestClientSkipsRefreshWhenTokenFresh(t *testing.T) {
	server := newStubServer(t)
	store := newTestStore(t, server.URL)
	require.True(t, store.Login(context.Background(), "testuser", "secret"))

	client := NewClient(server.URL, store)
	_, err := client.GetAccount(context.Background())
	require.NoError(t, err)

	server.mu.Lock()
	defer server.mu.Unlock()
	assert.Equal(t, 0, server.refreshCalls)
}

func TestClientAbortsWhenProactiveRefreshFails(t *testing.T) {
	server := newStubServer(t)
	server.accessTTL = 30 * time.Second

	store := newTestStore(t, server.URL)
	require.True(t, store.Login(context.Background(), "testuser", "secret"))

	// Invalidate the refresh token server-side so the proactive refresh 401s
	server.mu.Lock()
	server.validRefresh = make(map[string]bool)
	server.mu.Unlock()

	client := NewClient(server.URL, store)
	_, err := client.GetAccount(context.Background())
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Failed to refresh token", apiErr.Message)

	// The original request was never attempted
	server.mu.Lock()
	defer server.mu.Unlock()
	assert.Equal(t, 0, server.accountCalls)

	// And the failed refresh logged the session out
	assert.False(t, store.IsAuthenticated())
}

func TestClientWithoutTokens(t *testing.T) {
	server := newStubServer(t)
	store := newTestStore(t, server.URL)

	client := NewClient(server.URL, store)
	_, err := client.GetAccount(context.Background())

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.True(t, strings.Contains(apiErr.Message, "No authentication tokens"))
}

func TestClientUpdateAccount(t *testing.T) {
	server := newStubServer(t)
	store := newTestStore(t, server.URL)
	require.True(t, store.Login(context.Background(), "testuser", "secret"))

	client := NewClient(server.URL, store)
	user, err := client.UpdateAccount(context.Background(), "5551234567")
	require.NoError(t, err)
	assert.Equal(t, "5551234567", user.Phone)
}
