package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetAttachmentRejectsMalformedLinks(t *testing.T) {
	cases := []struct {
		name   string
		target string
	}{
		{"missing everything", "/api/attachments"},
		{"missing id", "/api/attachments?exp=123&sig=abc"},
		{"missing sig", "/api/attachments?id=x&exp=123"},
		{"non-numeric expiry", "/api/attachments?id=x&exp=soon&sig=abc"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			GetAttachment(rec, httptest.NewRequest("GET", tc.target, nil))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestGetAttachmentRejectsExpiredToken(t *testing.T) {
	// exp in the past fails verification regardless of the signature.
	rec := httptest.NewRecorder()
	GetAttachment(rec, httptest.NewRequest("GET", "/api/attachments?id=x&exp=1&sig=abc", nil))
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}
