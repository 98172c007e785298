package csrf_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/isometry/storefront-integrity/internal/csrf"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGuard(opts ...csrf.Option) *csrf.Guard {
	return csrf.NewGuard(append([]csrf.Option{
		csrf.WithExemptPaths("/api/webhooks/", "/api/csrf-token"),
	}, opts...)...)
}

func TestIssueToken(t *testing.T) {
	testCases := []struct {
		Name          string
		Options       []csrf.Option
		ExpectedBytes int
		Secure        bool
	}{
		{
			Name:          "default",
			ExpectedBytes: 32,
		},
		{
			Name:          "secure",
			Options:       []csrf.Option{csrf.WithSecure(true)},
			ExpectedBytes: 32,
			Secure:        true,
		},
		{
			Name:          "too_short_is_raised",
			Options:       []csrf.Option{csrf.WithTokenBytes(4)},
			ExpectedBytes: 16,
		},
		{
			Name:          "custom_length",
			Options:       []csrf.Option{csrf.WithTokenBytes(24)},
			ExpectedBytes: 24,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			token, err := newGuard(tc.Options...).IssueToken()
			require.NoError(t, err)

			assert.Len(t, token.Value, tc.ExpectedBytes*2)
			assert.Regexp(t, "^[0-9a-f]+$", token.Value)

			c := token.Cookie
			assert.Equal(t, csrf.CookieName, c.Name)
			assert.Equal(t, token.Value, c.Value)
			assert.Equal(t, "/", c.Path)
			assert.Equal(t, 86400, c.MaxAge)
			assert.False(t, c.HttpOnly)
			assert.Equal(t, tc.Secure, c.Secure)
			assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
		})
	}
}

func TestIssueTokenUnique(t *testing.T) {
	g := newGuard()
	a, err := g.IssueToken()
	require.NoError(t, err)
	b, err := g.IssueToken()
	require.NoError(t, err)
	assert.NotEqual(t, a.Value, b.Value)
}

func TestIssueTokenRandomFailure(t *testing.T) {
	g := newGuard(csrf.WithRandom(iotest.ErrReader(errors.New("entropy exhausted"))))
	token, err := g.IssueToken()
	assert.Error(t, err)
	assert.Nil(t, token)
}

func TestIssueTokenDeterministicSource(t *testing.T) {
	g := newGuard(csrf.WithTokenBytes(16), csrf.WithRandom(bytes.NewReader(bytes.Repeat([]byte{0xab}, 16))))
	token, err := g.IssueToken()
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("ab", 16), token.Value)
}

func TestVerify(t *testing.T) {
	const token = "0123456789abcdef0123456789abcdef"

	testCases := []struct {
		Name        string
		Method      string
		Path        string
		Cookie      string
		Header      string
		ExpectedErr error
	}{
		{Name: "get_without_anything", Method: http.MethodGet, Path: "/api/orders"},
		{Name: "head_without_anything", Method: http.MethodHead, Path: "/api/orders"},
		{Name: "options_without_anything", Method: http.MethodOptions, Path: "/api/orders"},
		{Name: "get_with_mismatch", Method: http.MethodGet, Path: "/api/orders", Cookie: token, Header: "nope"},
		{Name: "post_matching", Method: http.MethodPost, Path: "/api/orders", Cookie: token, Header: token},
		{Name: "put_matching", Method: http.MethodPut, Path: "/api/orders/1", Cookie: token, Header: token},
		{Name: "post_missing_header", Method: http.MethodPost, Path: "/api/orders", Cookie: token, ExpectedErr: csrf.ErrTokenMissing},
		{Name: "post_missing_cookie", Method: http.MethodPost, Path: "/api/orders", Header: token, ExpectedErr: csrf.ErrTokenMissing},
		{Name: "post_missing_both", Method: http.MethodPost, Path: "/api/orders", ExpectedErr: csrf.ErrTokenMissing},
		{Name: "delete_mismatch", Method: http.MethodDelete, Path: "/api/orders/1", Cookie: token, Header: strings.Repeat("f", len(token)), ExpectedErr: csrf.ErrTokenMismatch},
		{Name: "patch_different_length", Method: http.MethodPatch, Path: "/api/orders/1", Cookie: token, Header: token[:len(token)-1], ExpectedErr: csrf.ErrTokenMismatch},
		{Name: "post_prefix_of_cookie", Method: http.MethodPost, Path: "/api/orders", Cookie: token + "00", Header: token, ExpectedErr: csrf.ErrTokenMismatch},
		{Name: "webhook_exempt", Method: http.MethodPost, Path: "/api/webhooks/payment"},
		{Name: "token_endpoint_exempt", Method: http.MethodPost, Path: "/api/csrf-token"},
		{Name: "token_endpoint_exact_only", Method: http.MethodPost, Path: "/api/csrf-token/other", ExpectedErr: csrf.ErrTokenMissing},
		{Name: "webhook_namespace_root_not_exempt", Method: http.MethodPost, Path: "/api/webhooks", ExpectedErr: csrf.ErrTokenMissing},
	}

	g := newGuard()
	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			req := httptest.NewRequest(tc.Method, tc.Path, nil)
			if tc.Cookie != "" {
				req.AddCookie(&http.Cookie{Name: csrf.CookieName, Value: tc.Cookie})
			}
			if tc.Header != "" {
				req.Header.Set(csrf.HeaderName, tc.Header)
			}

			err := g.Verify(req)
			if tc.ExpectedErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.ExpectedErr)
			}
		})
	}
}

func TestVerifyIssuedToken(t *testing.T) {
	g := newGuard()
	token, err := g.IssueToken()
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/payments/checkout", nil)
	req.AddCookie(token.Cookie)
	req.Header.Set(csrf.HeaderName, token.Value)
	assert.NoError(t, g.Verify(req))

	other, err := g.IssueToken()
	require.NoError(t, err)
	req.Header.Set(csrf.HeaderName, other.Value)
	assert.ErrorIs(t, g.Verify(req), csrf.ErrTokenMismatch)
}
