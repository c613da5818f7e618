package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pocketauth/pocketauth/internal/auth"
	"github.com/pocketauth/pocketauth/internal/middleware"
	"github.com/pocketauth/pocketauth/internal/repo"
)

const (
	phoneMinLen = 10
	phoneMaxLen = 15
)

// AccountHandler handles the account endpoints. Both routes sit behind the
// access-token middleware; the bearer's subject is the operated-on user.
type AccountHandler struct {
	authService *auth.Service
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(authService *auth.Service) *AccountHandler {
	return &AccountHandler{authService: authService}
}

// updateAccountRequest is the body for PATCH /account
type updateAccountRequest struct {
	Phone *string `json:"phone"`
}

// HandleGetAccount handles GET /account
func (h *AccountHandler) HandleGetAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.authService.GetAccount(r.Context(), userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "User not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// HandleUpdateAccount handles PATCH /account
func (h *AccountHandler) HandleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req updateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondValidationError(w, []Issue{{Code: "invalid_type", Message: "Invalid JSON body", Path: []string{}}})
		return
	}

	if issue := requiredString(req.Phone, "phone"); issue != nil {
		respondValidationError(w, []Issue{*issue})
		return
	}
	if issue := boundedString(*req.Phone, "phone", phoneMinLen, phoneMaxLen); issue != nil {
		respondValidationError(w, []Issue{*issue})
		return
	}

	user, err := h.authService.UpdateAccount(r.Context(), userID, *req.Phone)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "User not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(w, http.StatusOK, user)
}
