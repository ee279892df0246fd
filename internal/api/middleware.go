package api

import (
	"net"
	"net/http"
	"strings"
)

// ClientKey derives the admission key for a request. Submissions are
// rate-limited per client address, so proxy forwarding headers take
// precedence over the socket peer.
func ClientKey(r *http.Request) string {
	// X-Forwarded-For may hold a comma-separated chain; the first entry
	// is the originating client.
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if idx := strings.Index(forwarded, ","); idx != -1 {
			return strings.TrimSpace(forwarded[:idx])
		}
		return strings.TrimSpace(forwarded)
	}

	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return strings.TrimSpace(realIP)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
