package handlers

import (
	"encoding/json"
	"net"
	"net/http"

	"github.com/Noe001/work-optimizer-sub001/internal/middleware"
	"github.com/Noe001/work-optimizer-sub001/internal/tasks"
)

// GetFailedTasks lists recently abandoned background tasks so operators can
// spot notification or cache work that kept failing after retries.
func GetFailedTasks(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentUser(r); !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	failed := []tasks.FailedTask{}
	if d := tasks.Default(); d != nil {
		failed = d.FailedTasks()
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"failed_tasks": failed,
		"total":        len(failed),
	})
}

type UnblockIPRequest struct {
	IPAddress string `json:"ip_address"`
}

// UnblockIP lifts a rate-limit block early instead of waiting out the
// block window.
func UnblockIP(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentUser(r); !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req UnblockIPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if net.ParseIP(req.IPAddress) == nil {
		writeError(w, http.StatusBadRequest, "Invalid IP address")
		return
	}

	if err := middleware.UnblockIP(req.IPAddress); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to unblock IP")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}
