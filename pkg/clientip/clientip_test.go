package clientip

import (
	"net/http/httptest"
	"testing"
)

func TestRealClientIP(t *testing.T) {
	cases := []struct {
		name       string
		remoteAddr string
		want       string
	}{
		{"ipv4 with port", "192.168.1.10:52000", "192.168.1.10"},
		{"ipv4 bare", "10.0.0.7", "10.0.0.7"},
		{"ipv6 with port", "[::1]:8080", "::1"},
		{"ipv6 canonicalized", "[2001:DB8::1]:443", "2001:db8::1"},
		{"ipv6 bare bracketed", "[fe80::2]", "fe80::2"},
		{"garbage passes through", "not-an-ip", "not-an-ip"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tc.remoteAddr
			if got := RealClientIP(r); got != tc.want {
				t.Errorf("RealClientIP(%q) = %q, want %q", tc.remoteAddr, got, tc.want)
			}
		})
	}
}
