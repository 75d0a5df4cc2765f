package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

const (
	// MaxAttachmentSize is 10 MiB.
	MaxAttachmentSize = 10 << 20
	// MaxAttachmentFilenameLen bounds the stored filename.
	MaxAttachmentFilenameLen = 255
	// AttachmentURLLifetime is how long a resolved attachment link stays valid.
	AttachmentURLLifetime = 1 * time.Hour

	attachmentFolder = "chat_attachments"

	// AttachmentRoutePath is where signed attachment links point. The
	// handler there verifies the token before redirecting to the asset.
	AttachmentRoutePath = "/api/attachments"
)

// ErrAttachmentTokenInvalid rejects expired or forged attachment links.
var ErrAttachmentTokenInvalid = errors.New("attachment link is invalid or expired")

// allowedAttachmentTypes is the explicit MIME allow-list: common images,
// PDF, plain text/CSV, and Word/Excel in both legacy and OOXML forms.
var allowedAttachmentTypes = map[string]struct{}{
	"image/jpeg":         {},
	"image/png":          {},
	"image/gif":          {},
	"image/webp":         {},
	"application/pdf":    {},
	"text/plain":         {},
	"text/csv":           {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
	"application/vnd.ms-excel": {},
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": {},
}

// blockedExtensions are rejected by filename alone. A spoofed Content-Type
// does not get around this list.
var blockedExtensions = []string{".exe", ".bat", ".cmd", ".scr", ".vbs"}

// ValidateAttachment checks filename, declared MIME type, and size against
// the upload constraints. Returns a field-attributable error on rejection.
func ValidateAttachment(filename, mimeType string, size int64) *ValidationError {
	if size > MaxAttachmentSize {
		return &ValidationError{Field: "attachment", Reason: "file exceeds the 10MB size limit"}
	}
	if len(filename) > MaxAttachmentFilenameLen {
		return &ValidationError{Field: "attachment", Reason: "filename is too long"}
	}
	lower := strings.ToLower(filename)
	for _, ext := range blockedExtensions {
		if strings.HasSuffix(lower, ext) {
			return &ValidationError{Field: "attachment", Reason: "file type is not allowed"}
		}
	}
	if _, ok := allowedAttachmentTypes[strings.ToLower(strings.TrimSpace(mimeType))]; !ok {
		return &ValidationError{Field: "attachment", Reason: "unsupported content type"}
	}
	return nil
}

// AttachmentStore wraps Cloudinary for storing message attachments and
// resolving signed, time-limited delivery URLs.
type AttachmentStore struct {
	cld       *cloudinary.Cloudinary
	apiSecret string
}

func NewAttachmentStore(cloudName, apiKey, apiSecret string) (*AttachmentStore, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}

	return &AttachmentStore{cld: cld, apiSecret: apiSecret}, nil
}

// Upload stores the blob and returns its public reference in the file store.
func (s *AttachmentStore) Upload(ctx context.Context, file multipart.File) (string, error) {
	fileBytes, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	uploadResult, err := s.cld.Upload.Upload(ctx, fileBytes, uploader.UploadParams{
		Folder:       attachmentFolder,
		ResourceType: "auto", // Automatically detect image, video, or raw
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to Cloudinary: %w", err)
	}

	return uploadResult.PublicID, nil
}

// SignedURL builds a time-limited link for a stored attachment. The link
// goes through the attachment endpoint, which rejects the request unless
// the token verifies; the token binds the reference and the expiry, so
// tampering with either invalidates the signature.
func (s *AttachmentStore) SignedURL(publicID string, lifetime time.Duration) string {
	expires := time.Now().Add(lifetime).Unix()
	q := url.Values{}
	q.Set("id", publicID)
	q.Set("exp", strconv.FormatInt(expires, 10))
	q.Set("sig", s.signReference(publicID, expires))
	return AttachmentRoutePath + "?" + q.Encode()
}

// AssetURL resolves the backing delivery URL for a stored attachment.
func (s *AttachmentStore) AssetURL(publicID string) (string, error) {
	img, err := s.cld.Image(publicID)
	if err != nil {
		return "", fmt.Errorf("failed to resolve attachment %s: %w", publicID, err)
	}
	u, err := img.String()
	if err != nil {
		return "", fmt.Errorf("failed to build URL for attachment %s: %w", publicID, err)
	}
	return u, nil
}

// VerifyURLToken checks a (reference, expiry, signature) triple from a
// previously issued URL. Expired or forged tokens are rejected.
func (s *AttachmentStore) VerifyURLToken(publicID string, expires int64, sig string) bool {
	if time.Now().Unix() > expires {
		return false
	}
	expected := s.signReference(publicID, expires)
	return hmac.Equal([]byte(expected), []byte(sig))
}

func (s *AttachmentStore) signReference(publicID string, expires int64) string {
	mac := hmac.New(sha256.New, []byte(s.apiSecret))
	mac.Write([]byte(publicID + ":" + strconv.FormatInt(expires, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}

// ResolveAttachmentAsset verifies a signed attachment token and returns the
// backing asset URL the attachment endpoint redirects to.
func ResolveAttachmentAsset(publicID string, expires int64, sig string) (string, error) {
	if attachmentStore == nil {
		return "", ErrAttachmentTokenInvalid
	}
	if !attachmentStore.VerifyURLToken(publicID, expires, sig) {
		return "", ErrAttachmentTokenInvalid
	}
	return attachmentStore.AssetURL(publicID)
}
