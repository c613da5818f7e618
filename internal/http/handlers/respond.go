package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Issue is one field-level validation failure
type Issue struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Path    []string `json:"path"`
}

// validationError is the body shape for 400 responses:
// {success:false, error:{name, issues}, message}
type validationError struct {
	Success bool                 `json:"success"`
	Error   validationErrorInner `json:"error"`
	Message string               `json:"message,omitempty"`
}

type validationErrorInner struct {
	Name   string  `json:"name"`
	Issues []Issue `json:"issues"`
}

// respondJSON writes v as an application/json response
func respondJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

// respondWithError sends a JSON error response
func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, map[string]string{"error": message})
}

// respondValidationError sends the 400 validation-failure shape with
// field-level issues
func respondValidationError(w http.ResponseWriter, issues []Issue) {
	respondJSON(w, http.StatusBadRequest, validationError{
		Success: false,
		Error: validationErrorInner{
			Name:   "ValidationError",
			Issues: issues,
		},
		Message: "Validation error, see error object",
	})
}

// requiredString returns an issue if the field is absent or empty
func requiredString(value *string, field string) *Issue {
	if value == nil {
		return &Issue{Code: "invalid_type", Message: "Required", Path: []string{field}}
	}
	return nil
}

// boundedString returns an issue if the string length is outside [min, max]
func boundedString(value, field string, min, max int) *Issue {
	if len(value) < min {
		return &Issue{
			Code:    "too_small",
			Message: fmt.Sprintf("String must contain at least %d character(s)", min),
			Path:    []string{field},
		}
	}
	if len(value) > max {
		return &Issue{
			Code:    "too_big",
			Message: fmt.Sprintf("String must contain at most %d character(s)", max),
			Path:    []string{field},
		}
	}
	return nil
}
