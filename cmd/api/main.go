package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/pocketauth/pocketauth/internal/auth"
	"github.com/pocketauth/pocketauth/internal/config"
	"github.com/pocketauth/pocketauth/internal/db"
	httphandler "github.com/pocketauth/pocketauth/internal/http"
	"github.com/pocketauth/pocketauth/internal/http/handlers"
	"github.com/pocketauth/pocketauth/internal/repo"
	"github.com/pocketauth/pocketauth/internal/token"
)

func main() {
	_ = godotenv.Load(".env")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	log.Printf("DB DSN (masked): %s", db.RedactDSN(cfg.DatabaseURL))
	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	userStore := repo.NewUserStore(database)

	// The refresh-token ledger lives in Postgres by default; REDIS_URL moves
	// it to Redis, where per-key TTLs prune expired tokens.
	var tokenStore repo.TokenStore
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to parse REDIS_URL: %v", err)
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			log.Fatalf("Failed to ping redis: %v", err)
		}
		defer client.Close()
		tokenStore = repo.NewRedisTokenStore(client, token.RefreshTokenTTL)
		log.Println("Token ledger: redis")
	} else {
		tokenStore = repo.NewTokenStore(database)
		log.Println("Token ledger: postgres")
	}

	accessCodec := token.NewCodec(cfg.AccessTokenKey)
	refreshCodec := token.NewCodec(cfg.RefreshTokenKey)
	issuer := token.NewIssuer(accessCodec, refreshCodec, tokenStore)

	verifier := auth.NewTestUserVerifier()
	authService := auth.NewService(verifier, issuer, refreshCodec, userStore, tokenStore)

	authHandler := handlers.NewAuthHandler(authService)
	accountHandler := handlers.NewAccountHandler(authService)

	router := httphandler.NewRouter(authHandler, accountHandler, accessCodec)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
