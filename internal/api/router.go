// internal/api/router.go
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"rebels-bot/internal/api/handler"
)

// NewRouter sets up and returns the ops HTTP router.
func NewRouter(accountHandler *handler.AccountHandler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middlewares
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(handler.DefaultTimeout))

	r.Get("/health", accountHandler.Health)

	r.Get("/accounts/{userID}", accountHandler.GetAccount)
	r.Get("/leaderboard", accountHandler.Leaderboard)

	return r
}
