package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for every verification failure: bad signature,
// expired token, malformed token. Callers must not distinguish between them.
var ErrInvalidToken = errors.New("invalid token")

// Claims carried by both access and refresh tokens. The user id is duplicated
// in "sub" and "userId".
type Claims struct {
	UserID int64 `json:"userId"`
	jwt.RegisteredClaims
}

// Codec signs and verifies compact tokens with a single HMAC-SHA256 key.
// Access and refresh tokens use separate Codec instances with distinct keys so
// one kind cannot be presented in place of the other.
type Codec struct {
	key []byte
}

// NewCodec creates a codec for the given symmetric key
func NewCodec(key string) *Codec {
	return &Codec{key: []byte(key)}
}

// Sign produces a signed token for userID expiring at expiresAt
func (c *Codec) Sign(userID int64, expiresAt time.Time) (string, error) {
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry and returns the embedded user id.
// Every failure maps to ErrInvalidToken.
func (c *Codec) Verify(tokenString string) (int64, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.key, nil
	})
	if err != nil {
		return 0, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return 0, ErrInvalidToken
	}
	return claims.UserID, nil
}
