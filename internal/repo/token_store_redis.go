package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisTokenPrefix = "refresh:"

type redisTokenStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisTokenStore creates a Redis-backed TokenStore. Keys carry a TTL equal
// to the refresh-token lifetime, so never-consumed rows expire on their own
// instead of accumulating like in the SQL backend.
func NewRedisTokenStore(client *redis.Client, ttl time.Duration) TokenStore {
	return &redisTokenStore{client: client, ttl: ttl}
}

func redisTokenKey(token string) string {
	return redisTokenPrefix + token
}

// Insert records an issued refresh token
func (s *redisTokenStore) Insert(ctx context.Context, token string) error {
	if err := s.client.Set(ctx, redisTokenKey(token), "1", s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to insert token: %w", err)
	}
	return nil
}

// Exists reports whether the token is currently recorded
func (s *redisTokenStore) Exists(ctx context.Context, token string) (bool, error) {
	n, err := s.client.Exists(ctx, redisTokenKey(token)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to query token: %w", err)
	}
	return n > 0, nil
}

// Consume removes the token with a single GETDEL round trip. Redis executes
// commands serially, so concurrent consumers of one token see exactly one hit.
func (s *redisTokenStore) Consume(ctx context.Context, token string) (bool, error) {
	_, err := s.client.GetDel(ctx, redisTokenKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to delete token: %w", err)
	}
	return true, nil
}
