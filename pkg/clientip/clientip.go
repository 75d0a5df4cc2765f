package clientip

import (
	"net"
	"net/http"
	"strings"
)

// RealClientIP returns the canonical client IP from the request. Uses
// r.RemoteAddr only (no proxy headers); suitable for rate limiting when
// traffic reaches the app directly rather than through a CDN.
//
// The result is normalized with net.ParseIP so that equivalent textual
// forms of the same address ("2001:DB8::1" and "2001:db8::1") map to the
// same rate-limit bucket.
func RealClientIP(r *http.Request) string {
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	} else {
		// Bare IPv6 addresses may still carry brackets.
		addr = strings.TrimPrefix(strings.TrimSuffix(addr, "]"), "[")
	}
	if ip := net.ParseIP(addr); ip != nil {
		return ip.String()
	}
	return addr
}
