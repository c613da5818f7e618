package model

// User represents an account in the system
type User struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	Phone    string `json:"phone"`
}

// TokenPair is a matched access/refresh token pair. The exp values are unix
// seconds and duplicate what is embedded in the signed tokens so that clients
// can check expiry without decoding them.
type TokenPair struct {
	AccessToken     string `json:"accessToken"`
	RefreshToken    string `json:"refreshToken"`
	AccessTokenExp  int64  `json:"accessTokenExp"`
	RefreshTokenExp int64  `json:"refreshTokenExp"`
}

// RefreshTokenRecord is one row of the single-use refresh-token ledger
type RefreshTokenRecord struct {
	TokenID string
	Token   string
}
