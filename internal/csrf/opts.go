package csrf

import (
	"io"
	"log/slog"
	"strings"
)

// WithLogger sets the logger used by the guard.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Guard) {
		g.logger = logger
	}
}

// WithSecure marks issued cookies Secure. Enable it in production.
func WithSecure(secure bool) Option {
	return func(g *Guard) {
		g.secure = secure
	}
}

// WithTokenBytes sets the number of random bytes per token. Values below 16 are raised to 16.
func WithTokenBytes(n int) Option {
	return func(g *Guard) {
		g.tokenBytes = n
	}
}

// WithExemptPaths adds paths that skip verification. A trailing "/" makes the entry a prefix.
func WithExemptPaths(paths ...string) Option {
	return func(g *Guard) {
		for _, p := range paths {
			if p = strings.TrimSpace(p); p != "" {
				g.exempt = append(g.exempt, p)
			}
		}
	}
}

// WithRandom replaces the random source.
func WithRandom(r io.Reader) Option {
	return func(g *Guard) {
		g.random = r
	}
}
