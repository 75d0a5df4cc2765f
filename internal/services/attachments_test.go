package services

import (
	"net/url"
	"strconv"
	"testing"
	"time"
)

func TestValidateAttachmentAccepts(t *testing.T) {
	cases := []struct {
		name     string
		filename string
		mimeType string
		size     int64
	}{
		{"png image", "screenshot.png", "image/png", 9 << 20},
		{"pdf", "report.pdf", "application/pdf", 1024},
		{"csv", "export.csv", "text/csv", 1},
		{"ooxml word", "notes.docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document", 4096},
		{"exact size limit", "big.jpg", "image/jpeg", MaxAttachmentSize},
		{"mime case insensitive", "photo.jpg", "Image/JPEG", 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := ValidateAttachment(tc.filename, tc.mimeType, tc.size); err != nil {
				t.Errorf("ValidateAttachment(%q, %q, %d) = %v, want nil", tc.filename, tc.mimeType, tc.size, err)
			}
		})
	}
}

func TestValidateAttachmentRejects(t *testing.T) {
	longName := make([]byte, MaxAttachmentFilenameLen+1)
	for i := range longName {
		longName[i] = 'a'
	}

	cases := []struct {
		name     string
		filename string
		mimeType string
		size     int64
	}{
		{"oversize", "movie.pdf", "application/pdf", MaxAttachmentSize + 1},
		{"executable", "setup.exe", "application/pdf", 100},
		{"executable spoofed mime", "malware.exe", "image/png", 100},
		{"executable mixed case", "Setup.EXE", "image/png", 100},
		{"batch script", "run.bat", "text/plain", 100},
		{"screensaver", "fun.scr", "image/gif", 100},
		{"vbscript", "macro.vbs", "text/plain", 100},
		{"unsupported mime", "archive.zip", "application/zip", 100},
		{"svg not allowed", "logo.svg", "image/svg+xml", 100},
		{"filename too long", string(longName), "image/png", 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := ValidateAttachment(tc.filename, tc.mimeType, tc.size); err == nil {
				t.Errorf("ValidateAttachment(%q, %q, %d) = nil, want error", tc.filename, tc.mimeType, tc.size)
			}
		})
	}
}

func TestValidateAttachmentBlockedExtensionBeatsMime(t *testing.T) {
	err := ValidateAttachment("invoice.exe", "application/pdf", 100)
	if err == nil {
		t.Fatal("expected rejection for .exe regardless of declared type")
	}
	if err.Reason != "file type is not allowed" {
		t.Errorf("expected extension rejection, got %q", err.Reason)
	}
}

func TestVerifyURLToken(t *testing.T) {
	store := &AttachmentStore{apiSecret: "test-secret"}
	expires := time.Now().Add(time.Hour).Unix()
	sig := store.signReference("chat_attachments/abc123", expires)

	if !store.VerifyURLToken("chat_attachments/abc123", expires, sig) {
		t.Error("valid token should verify")
	}
	if store.VerifyURLToken("chat_attachments/other", expires, sig) {
		t.Error("token bound to a different reference should fail")
	}
	if store.VerifyURLToken("chat_attachments/abc123", expires+1, sig) {
		t.Error("token with altered expiry should fail")
	}
	if store.VerifyURLToken("chat_attachments/abc123", expires, sig+"00") {
		t.Error("tampered signature should fail")
	}

	past := time.Now().Add(-time.Minute).Unix()
	expiredSig := store.signReference("chat_attachments/abc123", past)
	if store.VerifyURLToken("chat_attachments/abc123", past, expiredSig) {
		t.Error("expired token should fail even with a valid signature")
	}
}

func TestSignedURLRoundTrip(t *testing.T) {
	store := &AttachmentStore{apiSecret: "test-secret"}
	link := store.SignedURL("chat_attachments/abc123", time.Hour)

	u, err := url.Parse(link)
	if err != nil {
		t.Fatalf("SignedURL produced an unparseable link %q: %v", link, err)
	}
	if u.Path != AttachmentRoutePath {
		t.Errorf("link path = %q, want %q", u.Path, AttachmentRoutePath)
	}

	q := u.Query()
	if q.Get("id") != "chat_attachments/abc123" {
		t.Errorf("link id = %q", q.Get("id"))
	}
	exp, err := strconv.ParseInt(q.Get("exp"), 10, 64)
	if err != nil {
		t.Fatalf("link exp %q: %v", q.Get("exp"), err)
	}
	if !store.VerifyURLToken(q.Get("id"), exp, q.Get("sig")) {
		t.Error("freshly issued link must verify")
	}
}

func TestResolveAttachmentAssetRejectsBadTokens(t *testing.T) {
	old := attachmentStore
	defer func() { attachmentStore = old }()

	attachmentStore = &AttachmentStore{apiSecret: "test-secret"}
	future := time.Now().Add(time.Hour).Unix()

	if _, err := ResolveAttachmentAsset("ref", future, "forged"); err != ErrAttachmentTokenInvalid {
		t.Errorf("forged signature: err = %v, want ErrAttachmentTokenInvalid", err)
	}

	past := time.Now().Add(-time.Minute).Unix()
	expiredSig := attachmentStore.signReference("ref", past)
	if _, err := ResolveAttachmentAsset("ref", past, expiredSig); err != ErrAttachmentTokenInvalid {
		t.Errorf("expired token: err = %v, want ErrAttachmentTokenInvalid", err)
	}

	attachmentStore = nil
	if _, err := ResolveAttachmentAsset("ref", future, "any"); err != ErrAttachmentTokenInvalid {
		t.Errorf("no store configured: err = %v, want ErrAttachmentTokenInvalid", err)
	}
}

func TestVerifyURLTokenDifferentSecrets(t *testing.T) {
	a := &AttachmentStore{apiSecret: "secret-a"}
	b := &AttachmentStore{apiSecret: "secret-b"}
	expires := time.Now().Add(time.Hour).Unix()

	sig := a.signReference("ref", expires)
	if b.VerifyURLToken("ref", expires, sig) {
		t.Error("token signed under another secret should fail")
	}
}
