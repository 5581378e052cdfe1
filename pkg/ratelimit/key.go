package ratelimit

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP resolves the client address behind proxies. Header priority:
// X-Forwarded-For (first entry), X-Real-IP, CF-Connecting-IP, then the
// raw socket address.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first, _, ok := strings.Cut(fwd, ","); ok {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(fwd)
	}
	if real := r.Header.Get("X-Real-IP"); real != "" {
		return strings.TrimSpace(real)
	}
	if cf := r.Header.Get("CF-Connecting-IP"); cf != "" {
		return strings.TrimSpace(cf)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// DeriveKey builds the counter key for a request. Authenticated traffic
// is limited per identity (ip:userID); anonymous traffic falls back to
// IP alone.
func DeriveKey(r *http.Request, userID string) string {
	ip := ClientIP(r)
	if userID != "" {
		return ip + ":" + userID
	}
	return ip
}
