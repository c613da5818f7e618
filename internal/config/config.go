package config

import (
	"fmt"
	"os"
)

// Config holds the application configuration
type Config struct {
	DatabaseURL     string
	RedisURL        string
	Port            string
	AccessTokenKey  string
	RefreshTokenKey string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port: "8080", // default port
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}
	cfg.DatabaseURL = databaseURL

	if port := os.Getenv("PORT"); port != "" {
		cfg.Port = port
	}

	accessKey := os.Getenv("ACCESS_TOKEN_KEY")
	if accessKey == "" {
		return nil, fmt.Errorf("ACCESS_TOKEN_KEY environment variable is required")
	}
	cfg.AccessTokenKey = accessKey

	refreshKey := os.Getenv("REFRESH_TOKEN_KEY")
	if refreshKey == "" {
		return nil, fmt.Errorf("REFRESH_TOKEN_KEY environment variable is required")
	}
	cfg.RefreshTokenKey = refreshKey

	// Same key for both would let one token kind stand in for the other
	if cfg.AccessTokenKey == cfg.RefreshTokenKey {
		return nil, fmt.Errorf("ACCESS_TOKEN_KEY and REFRESH_TOKEN_KEY must differ")
	}

	// Optional: when set, the refresh-token ledger lives in Redis
	cfg.RedisURL = os.Getenv("REDIS_URL")

	return cfg, nil
}
