package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// refreshAhead is the window before access-token expiry in which outbound
// calls refresh proactively instead of using the current token.
const refreshAhead = 60 * time.Second

// authTransport performs the unauthenticated login/refresh calls for Store
type authTransport struct {
	baseURL    string
	httpClient *http.Client
}

func newAuthTransport(baseURL string) *authTransport {
	return &authTransport{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (t *authTransport) login(ctx context.Context, username, password string) (TokenPair, error) {
	var pair TokenPair
	err := doJSON(ctx, t.httpClient, http.MethodPost, t.baseURL+"/login",
		map[string]string{"username": username, "password": password}, "", &pair)
	return pair, err
}

func (t *authTransport) refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	var pair TokenPair
	err := doJSON(ctx, t.httpClient, http.MethodPost, t.baseURL+"/refresh",
		map[string]string{"refreshToken": refreshToken}, "", &pair)
	return pair, err
}

// Client calls the authenticated account endpoints. Before every call it
// consults the session store: when the access token expires within a minute it
// refreshes first, and a failed refresh aborts the call with an auth error
// without attempting the original request.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *Store
	now        func() time.Time
}

// NewClient creates an API client bound to the given session store
func NewClient(baseURL string, session *Store) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		session:    session,
		now:        time.Now,
	}
}

// GetAccount fetches the authenticated user's account
func (c *Client) GetAccount(ctx context.Context) (User, error) {
	var user User
	accessToken, err := c.accessToken(ctx)
	if err != nil {
		return User{}, err
	}
	if err := doJSON(ctx, c.httpClient, http.MethodGet, c.baseURL+"/account", nil, accessToken, &user); err != nil {
		return User{}, err
	}
	return user, nil
}

// UpdateAccount sets the account phone number and returns the updated account
func (c *Client) UpdateAccount(ctx context.Context, phone string) (User, error) {
	var user User
	accessToken, err := c.accessToken(ctx)
	if err != nil {
		return User{}, err
	}
	err = doJSON(ctx, c.httpClient, http.MethodPatch, c.baseURL+"/account",
		map[string]string{"phone": phone}, accessToken, &user)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

// accessToken returns a usable access token, refreshing proactively when the
// current one expires within the refreshAhead window
func (c *Client) accessToken(ctx context.Context) (string, error) {
	tokens := c.session.Tokens()
	if tokens == nil {
		c.session.Logout()
		return "", &Error{Message: "No authentication tokens available", Status: http.StatusUnauthorized}
	}

	expiresSoon := tokens.AccessTokenExp-c.now().Unix() < int64(refreshAhead.Seconds())
	if !expiresSoon {
		return tokens.AccessToken, nil
	}

	if !c.session.RefreshTokens(ctx) {
		return "", &Error{Message: "Failed to refresh token", Status: http.StatusUnauthorized}
	}
	refreshed := c.session.Tokens()
	if refreshed == nil {
		return "", &Error{Message: "Failed to refresh token", Status: http.StatusUnauthorized}
	}
	return refreshed.AccessToken, nil
}

// doJSON issues one JSON request and decodes the 2xx response into out.
// Failures are normalized into *Error: transport problems get Status 0,
// non-2xx responses carry the server's error message and status code.
func doJSON(ctx context.Context, client *http.Client, method, url string, body interface{}, bearer string, out interface{}) error {
	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &Error{Message: err.Error(), Status: 0}
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return &Error{Message: err.Error(), Status: 0}
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := client.Do(req)
	if err != nil {
		return &Error{Message: "Network request failed", Status: 0}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errBody struct {
			Error string `json:"error"`
		}
		message := fmt.Sprintf("HTTP %d", resp.StatusCode)
		if err := json.NewDecoder(resp.Body).Decode(&errBody); err == nil && errBody.Error != "" {
			message = errBody.Error
		}
		return &Error{Message: message, Status: resp.StatusCode}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &Error{Message: "Network request failed", Status: 0}
		}
	}
	return nil
}
