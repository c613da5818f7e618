package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pocketauth/pocketauth/internal/auth"
)

// AuthHandler handles the login and refresh endpoints
type AuthHandler struct {
	authService *auth.Service
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *auth.Service) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// loginRequest is the body for POST /login. Pointers distinguish absent fields
// for the validation response.
type loginRequest struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
}

// refreshRequest is the body for POST /refresh
type refreshRequest struct {
	RefreshToken *string `json:"refreshToken"`
}

// HandleLogin handles POST /login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondValidationError(w, []Issue{{Code: "invalid_type", Message: "Invalid JSON body", Path: []string{}}})
		return
	}

	var issues []Issue
	if issue := requiredString(req.Username, "username"); issue != nil {
		issues = append(issues, *issue)
	}
	if issue := requiredString(req.Password, "password"); issue != nil {
		issues = append(issues, *issue)
	}
	if len(issues) > 0 {
		respondValidationError(w, issues)
		return
	}

	pair, err := h.authService.Login(r.Context(), *req.Username, *req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrWrongCredentials) {
			respondWithError(w, http.StatusUnauthorized, "Wrong credentials")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(w, http.StatusOK, pair)
}

// HandleRefresh handles POST /refresh
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondValidationError(w, []Issue{{Code: "invalid_type", Message: "Invalid JSON body", Path: []string{}}})
		return
	}

	if issue := requiredString(req.RefreshToken, "refreshToken"); issue != nil {
		respondValidationError(w, []Issue{*issue})
		return
	}

	pair, err := h.authService.Refresh(r.Context(), *req.RefreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidRefreshToken) {
			respondWithError(w, http.StatusUnauthorized, "Invalid refreshToken")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(w, http.StatusOK, pair)
}
