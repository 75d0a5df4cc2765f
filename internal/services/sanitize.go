package services

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// messagePolicy keeps only a small set of inline formatting tags and no
// attributes at all. Everything else, script and style included, is
// stripped before the content is ever persisted. The policy is idempotent:
// sanitizing already-sanitized content returns it unchanged.
var messagePolicy = func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("b", "i", "em", "strong", "u")
	return p
}()

// SanitizeMessageContent strips disallowed HTML from message content.
// Applied before length validation and before persistence.
func SanitizeMessageContent(content string) string {
	return strings.TrimSpace(messagePolicy.Sanitize(content))
}
