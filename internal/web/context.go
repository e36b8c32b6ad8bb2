package web

import (
	"context"
	"net"
	"net/http"

	"github.com/JonMunkholm/FeedStatus/internal/core"
)

// withRequestMetadata attaches the client address and user agent for the
// audit entries written while handling r.
func withRequestMetadata(r *http.Request) context.Context {
	return core.WithSource(r.Context(), core.Source{IP: clientIP(r), UserAgent: r.UserAgent()})
}

// clientIP is r.RemoteAddr without the port. TrustedRealIP has already
// replaced it with the forwarded address when the proxy is trusted.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
