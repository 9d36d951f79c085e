// internal/api/handler/account.go
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"rebels-bot/internal/api/types"
	"rebels-bot/internal/domain"
	"rebels-bot/internal/service"
	"rebels-bot/internal/util"
)

// DefaultTimeout is the per-request timeout applied by the router.
const DefaultTimeout = 10 * time.Second

// MaxLeaderboardLimit caps the limit query parameter.
const MaxLeaderboardLimit = 100

// Pinger reports whether the datastore is reachable. *sqlx.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// AccountHandler serves read-only account endpoints for operators.
type AccountHandler struct {
	service         service.AccountService
	db              Pinger
	logger          *slog.Logger
	leaderboardSize int
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(svc service.AccountService, db Pinger, leaderboardSize int, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{
		service:         svc,
		db:              db,
		logger:          logger,
		leaderboardSize: leaderboardSize,
	}
}

// Helper function to send JSON responses.
func (h *AccountHandler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// Helper function to send error responses.
func (h *AccountHandler) respondWithError(w http.ResponseWriter, err error) {
	statusCode := http.StatusInternalServerError
	message := "Internal server error"

	switch {
	case util.IsError(err, util.ErrInvalidInput):
		statusCode = http.StatusBadRequest
		message = err.Error()
	case util.IsError(err, util.ErrNotFound):
		statusCode = http.StatusNotFound
		message = "Resource not found"
	case util.IsError(err, util.ErrStorageTimeout):
		statusCode = http.StatusGatewayTimeout
		message = "Storage timeout"
		h.logger.Error("Storage timeout", "error", err)
	case util.IsError(err, util.ErrStorageUnavailable):
		statusCode = http.StatusServiceUnavailable
		message = "Storage unavailable"
		h.logger.Error("Storage unavailable", "error", err)
	default:
		h.logger.Error("Unhandled service error", "error", err)
	}

	h.respondWithJSON(w, statusCode, types.ErrorResponse{Error: message})
}

// Health pings the datastore.
// GET /health
func (h *AccountHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		h.logger.Error("Health check failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("UNAVAILABLE"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// GetAccount returns the balance of an existing account without creating it.
// GET /accounts/{userID}
func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}

	account, err := h.service.GetAccount(r.Context(), userID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, types.AccountResponse{
		UserID:      account.UserID,
		DisplayName: account.DisplayName,
		Balance:     account.Balance,
		Tier:        domain.TierFor(account.Balance).Name,
	})
}

// Leaderboard returns the richest accounts.
// GET /leaderboard?limit=10
func (h *AccountHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := h.leaderboardSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > MaxLeaderboardLimit {
			h.respondWithError(w, util.ErrInvalidInput)
			return
		}
		limit = parsed
	}

	accounts, err := h.service.TopByBalance(r.Context(), limit)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	total, err := h.service.CountAccounts(r.Context())
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, types.ListResponse[domain.RankedAccount]{
		Data:       domain.Rank(accounts),
		Limit:      limit,
		TotalCount: total,
	})
}
