// Package csrf provides stateless double-submit cookie protection: a random token is set in a
// script-readable cookie and must be echoed back in a request header on state-changing requests.
package csrf

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/isometry/storefront-integrity/internal/helpers"
	"github.com/pkg/errors"
)

const (
	// CookieName is the cookie holding the token.
	CookieName = "csrf-token"
	// HeaderName is the request header the client echoes the token in.
	HeaderName = "X-CSRF-Token"
	// TokenTTL is the lifetime of an issued token.
	TokenTTL = 24 * time.Hour

	minTokenBytes     = 16
	defaultTokenBytes = 32
)

var (
	// ErrTokenMissing is returned when the cookie or the header is absent.
	ErrTokenMissing = errors.New("csrf token missing")
	// ErrTokenMismatch is returned when cookie and header disagree.
	ErrTokenMismatch = errors.New("csrf token mismatch")
)

// Token is a freshly issued token together with the cookie that carries it.
type Token struct {
	Value  string
	Cookie *http.Cookie
}

// Option configures a Guard.
type Option func(*Guard)

// Guard issues and verifies double-submit tokens. It keeps no per-token state.
type Guard struct {
	logger     *slog.Logger
	random     io.Reader
	tokenBytes int
	secure     bool
	exempt     []string
}

// NewGuard returns a Guard configured by opts.
func NewGuard(opts ...Option) *Guard {
	_inst := &Guard{
		logger:     helpers.NewNoopLogger(),
		random:     rand.Reader,
		tokenBytes: defaultTokenBytes,
	}
	for _, opt := range opts {
		opt(_inst)
	}
	if _inst.tokenBytes < minTokenBytes {
		_inst.tokenBytes = minTokenBytes
	}
	return _inst
}

// IssueToken generates a new token. A failing random source is an error; there is no fallback.
func (g *Guard) IssueToken() (*Token, error) {
	b := make([]byte, g.tokenBytes)
	if _, err := io.ReadFull(g.random, b); err != nil {
		return nil, errors.Wrap(err, "failed to read random bytes")
	}
	value := hex.EncodeToString(b)
	return &Token{
		Value: value,
		Cookie: &http.Cookie{
			Name:     CookieName,
			Value:    value,
			Path:     "/",
			MaxAge:   int(TokenTTL.Seconds()),
			HttpOnly: false,
			Secure:   g.secure,
			SameSite: http.SameSiteStrictMode,
		},
	}, nil
}

// Verify checks r. Safe methods and exempt paths always pass.
func (g *Guard) Verify(r *http.Request) error {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return nil
	}
	if g.Exempt(r.URL.Path) {
		g.logger.Debug("csrf check skipped for exempt path", slog.String("path", r.URL.Path))
		return nil
	}

	header := r.Header.Get(HeaderName)
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" || header == "" {
		return ErrTokenMissing
	}
	if subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(header)) != 1 {
		return ErrTokenMismatch
	}
	return nil
}

// Exempt reports whether path bypasses the check. Entries ending in "/" match as prefixes.
func (g *Guard) Exempt(path string) bool {
	for _, e := range g.exempt {
		if strings.HasSuffix(e, "/") {
			if strings.HasPrefix(path, e) {
				return true
			}
			continue
		}
		if path == e {
			return true
		}
	}
	return false
}
