package ratelimit

import (
	"net"
	"net/http"
	"strings"
)

const (
	// UnknownClient is the shared bucket for requests that carry no usable address.
	UnknownClient = "unknown"
	// DefaultProviderHeader is the hosting provider's client address header.
	DefaultProviderHeader = "CF-Connecting-IP"
)

// ClientIdentifier derives the client key for r: the first X-Forwarded-For entry, then
// X-Real-IP, then providerHeader, then the connection's remote host, else UnknownClient.
func ClientIdentifier(r *http.Request, providerHeader string) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if v := strings.TrimSpace(r.Header.Get("X-Real-IP")); v != "" {
		return v
	}
	if providerHeader != "" {
		if v := strings.TrimSpace(r.Header.Get(providerHeader)); v != "" {
			return v
		}
	}
	if host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr)); err == nil && host != "" {
		return host
	}
	if v := strings.TrimSpace(r.RemoteAddr); v != "" {
		return v
	}
	return UnknownClient
}
