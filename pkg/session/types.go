package session

// TokenPair mirrors the server's token-pair response. The exp values are unix
// seconds.
type TokenPair struct {
	AccessToken     string `json:"accessToken"`
	RefreshToken    string `json:"refreshToken"`
	AccessTokenExp  int64  `json:"accessTokenExp"`
	RefreshTokenExp int64  `json:"refreshTokenExp"`
}

// User mirrors the server's account object
type User struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	Phone    string `json:"phone"`
}
