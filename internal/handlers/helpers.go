package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Noe001/work-optimizer-sub001/internal/services"
	"github.com/google/uuid"
)

// extractBearerToken pulls the token out of an Authorization header.
func extractBearerToken(header string) string {
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}

// currentUser authenticates the request via JWT or session token.
func currentUser(r *http.Request) (uuid.UUID, bool) {
	token := extractBearerToken(r.Header.Get("Authorization"))
	if token == "" {
		// Browser WebSocket clients cannot set headers; allow query fallback.
		token = r.URL.Query().Get("token")
	}
	return services.ResolveToken(token)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"message": message,
	})
}
