package http

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/pocketauth/pocketauth/internal/http/handlers"
	"github.com/pocketauth/pocketauth/internal/middleware"
	"github.com/pocketauth/pocketauth/internal/token"
)

// NewRouter creates the HTTP router with all routes configured
func NewRouter(
	authHandler *handlers.AuthHandler,
	accountHandler *handlers.AccountHandler,
	access *token.Codec,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	healthHandler := handlers.NewHealthHandler()
	r.Get("/health", healthHandler.ServeHTTP)

	r.Post("/login", authHandler.HandleLogin)
	r.Post("/refresh", authHandler.HandleRefresh)

	// Protected routes (require valid access token)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAccessToken(access))
		r.Get("/account", accountHandler.HandleGetAccount)
		r.Patch("/account", accountHandler.HandleUpdateAccount)
	})

	return r
}
