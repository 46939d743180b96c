package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/nvdoan/wavelink-backend/internal/apperror"
)

// errorResponse is the JSON shape for all failures: {"error": ..., "details": ...}.
type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeAppError maps the error taxonomy to HTTP. Idempotent no-ops
// (already following, already joined) come back 200 with an informational
// body rather than an error.
func writeAppError(w http.ResponseWriter, err error) {
	var app *apperror.AppError
	message := err.Error()
	details := ""
	if errors.As(err, &app) {
		message = app.Message
		details = app.Details
	}

	switch {
	case errors.Is(err, apperror.ErrAlreadyExists):
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"message":        message,
			"already_exists": true,
		})
	case errors.Is(err, apperror.ErrAuthRequired):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: message})
	case errors.Is(err, apperror.ErrSelfAction):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: message})
	case errors.Is(err, apperror.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: message})
	default:
		log.Printf("internal error: %v (%s)", err, details)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: message, Details: details})
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// authenticatedUser resolves the request to a user id via the session
// token (Authorization: Bearer <token>). Empty id means not signed in.
func authenticatedUser(r *http.Request) string {
	token := extractBearerToken(r.Header.Get("Authorization"))
	if token == "" {
		return ""
	}
	userID, ok, err := validateSession(token)
	if err != nil || !ok {
		return ""
	}
	return userID
}

func extractBearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return header[len(prefix):]
	}
	return ""
}
