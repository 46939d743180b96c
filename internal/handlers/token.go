package handlers

import (
	"net/http"
	"time"

	"github.com/nvdoan/wavelink-backend/pkg/call"
)

var engineConfig call.EngineConfig

// SetEngineConfig records the deployment's engine binding. Called once on
// startup before mounting routes.
func SetEngineConfig(cfg call.EngineConfig) {
	engineConfig = cfg
}

// CallToken is GET /api/token?userID=: issues the signed token a client
// presents when joining a call room.
func CallToken(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userID")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "userID is required")
		return
	}

	signed, err := tokenIssuer.Issue(userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": signed})
}

// CallConfig is GET /api/call/config: which engine binding this deployment
// runs and the public vendor identifier the client SDK bootstraps with.
// Secrets never leave the server.
func CallConfig(w http.ResponseWriter, r *http.Request) {
	if err := engineConfig.Validate(); err != nil {
		writeError(w, http.StatusServiceUnavailable, "Calling is not configured")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"binding":   engineConfig.Binding,
		"public_id": engineConfig.PublicID(),
	})
}

// Health is GET /api/health.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
