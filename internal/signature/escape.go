package signature

import "strings"

const upperhex = "0123456789ABCDEF"

// GatewayEscape encodes a field value the way the gateway's legacy urlencode does: standard
// URI component escaping, then every encoded space (%20) becomes a literal '+'.
// This substitution is part of the wire protocol. Do not replace it with url.QueryEscape, which
// disagrees on ! ' ( ) * and would break signatures.
func GatewayEscape(s string) string {
	return strings.ReplaceAll(escapeComponent(s), "%20", "+")
}

// escapeComponent percent-encodes every byte outside the URI component unreserved set.
func escapeComponent(s string) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if !unreserved(s[i]) {
			n++
		}
	}
	if n == 0 {
		return s
	}

	buf := make([]byte, 0, len(s)+2*n)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreserved(c) {
			buf = append(buf, c)
			continue
		}
		buf = append(buf, '%', upperhex[c>>4], upperhex[c&15])
	}
	return string(buf)
}

func unreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
