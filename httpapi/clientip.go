package httpapi

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the address the rate limiter keys on. With trustProxy it prefers
// the first X-Forwarded-For hop, then X-Real-IP. It falls back to the host part of
// RemoteAddr and returns "" when nothing is usable.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
		if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}
