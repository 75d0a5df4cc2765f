package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
)

func TestExtractBearerToken(t *testing.T) {
	cases := []struct {
		name   string
		header string
		want   string
	}{
		{"bearer token", "Bearer abc123", "abc123"},
		{"trims whitespace", "Bearer  abc123 ", "abc123"},
		{"empty header", "", ""},
		{"no bearer prefix", "abc123", ""},
		{"basic auth", "Basic dXNlcjpwYXNz", ""},
		{"lowercase bearer", "bearer abc123", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := extractBearerToken(tc.header); got != tc.want {
				t.Errorf("extractBearerToken(%q) = %q, want %q", tc.header, got, tc.want)
			}
		})
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, 403, "You do not have access to this room")

	if rec.Code != 403 {
		t.Errorf("status = %d, want 403", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}

	var body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body.Success {
		t.Error("error responses must carry success=false")
	}
	if body.Message != "You do not have access to this room" {
		t.Errorf("message = %q", body.Message)
	}
}
