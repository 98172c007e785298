// Package signature implements the canonical field encoding and MD5 signing scheme used by the
// payment gateway to authenticate checkout redirects and payment notifications.
package signature

import (
	"crypto/md5" //nolint:gosec // required by the gateway protocol
	"crypto/subtle"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

const (
	// FieldSignature is the name of the field carrying the signature. It never signs itself.
	FieldSignature = "signature"
	// FieldPassphrase is the name under which the merchant passphrase is appended.
	FieldPassphrase = "passphrase"
)

// Fields is an unordered set of payment fields. A key that is absent and a key whose value is the
// empty string are both excluded from the canonical string.
type Fields map[string]string

// Canonicalize returns the gateway-compatible query string for fields.
// Keys are sorted in byte order, the signature field and empty values are dropped, and the
// passphrase is appended last when non-empty.
func Canonicalize(fields Fields, passphrase string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		v := fields[k]
		if k == FieldSignature || v == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(GatewayEscape(v))
	}
	if passphrase != "" {
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(FieldPassphrase)
		b.WriteByte('=')
		b.WriteString(GatewayEscape(passphrase))
	}
	return b.String()
}

// Sign returns the lower-case hexadecimal MD5 digest of the canonical string.
func Sign(fields Fields, passphrase string) string {
	sum := md5.Sum([]byte(Canonicalize(fields, passphrase))) //nolint:gosec
	return hex.EncodeToString(sum[:])
}

// Verify reports whether the signature field of fields matches the signature of the remaining
// fields. A missing or empty signature never verifies.
func Verify(fields Fields, passphrase string) bool {
	got := fields[FieldSignature]
	if got == "" {
		return false
	}
	want := Sign(fields, passphrase)
	return subtle.ConstantTimeCompare([]byte(want), []byte(got)) == 1
}

// FromValues converts a decoded form body into Fields, keeping the first value of each key.
func FromValues(values url.Values) Fields {
	fields := make(Fields, len(values))
	for k, v := range values {
		if len(v) == 0 {
			continue
		}
		fields[k] = v[0]
	}
	return fields
}

// Without returns a copy of fields minus the named keys.
func (f Fields) Without(keys ...string) Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	for _, k := range keys {
		delete(out, k)
	}
	return out
}
