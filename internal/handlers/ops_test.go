package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Noe001/work-optimizer-sub001/internal/services"
	"github.com/google/uuid"
)

func TestGetFailedTasksRequiresAuth(t *testing.T) {
	rec := httptest.NewRecorder()
	GetFailedTasks(rec, httptest.NewRequest("GET", "/api/ops/failed-tasks", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestGetFailedTasksAuthenticated(t *testing.T) {
	services.InitTokenManager("ops-test-secret")
	token, err := services.IssueAccessToken(uuid.New())
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}

	req := httptest.NewRequest("GET", "/api/ops/failed-tasks", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	GetFailedTasks(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var body struct {
		Success     bool              `json:"success"`
		FailedTasks []json.RawMessage `json:"failed_tasks"`
		Total       int               `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if !body.Success {
		t.Error("expected success=true")
	}
	if body.FailedTasks == nil {
		t.Error("failed_tasks must be a list, not null")
	}
}

func TestUnblockIPRejectsBadRequests(t *testing.T) {
	services.InitTokenManager("ops-test-secret")
	token, err := services.IssueAccessToken(uuid.New())
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}

	cases := []struct {
		name string
		body string
		auth bool
		want int
	}{
		{"unauthenticated", `{"ip_address":"10.0.0.1"}`, false, http.StatusUnauthorized},
		{"malformed body", `{`, true, http.StatusBadRequest},
		{"missing address", `{}`, true, http.StatusBadRequest},
		{"not an ip", `{"ip_address":"example.com"}`, true, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("PUT", "/api/ops/unblock-ip", strings.NewReader(tc.body))
			if tc.auth {
				req.Header.Set("Authorization", "Bearer "+token)
			}
			rec := httptest.NewRecorder()
			UnblockIP(rec, req)
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}
