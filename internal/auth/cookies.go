package auth

import (
	"maps"
	"slices"
	"strings"

	"github.com/thoreinstein/miuitask/internal/errors"
)

// ErrMalformedCookie indicates a cookie segment without a "=" separator.
var ErrMalformedCookie = errors.New("malformed cookie segment")

// Cookies maps cookie names to values.
type Cookies map[string]string

// ParseCookies converts a Cookie header style string ("k1=v1; k2=v2") into
// a mapping. Empty input, or input without any "=", yields an empty mapping.
//
// Segments are trimmed and split once on the first "="; values may contain
// further "=" characters. Segments that are empty after trimming (for example
// from a trailing ";") are skipped. A non-empty segment without "=" fails the
// whole parse with ErrMalformedCookie.
func ParseCookies(s string) (Cookies, error) {
	cookies := Cookies{}
	if s == "" || !strings.Contains(s, "=") {
		return cookies, nil
	}

	for _, segment := range strings.Split(s, ";") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		key, value, ok := strings.Cut(segment, "=")
		if !ok {
			return nil, errors.Wrapf(ErrMalformedCookie, "%q", segment)
		}
		cookies[key] = value
	}
	return cookies, nil
}

// String renders the cookies as a header value with keys in sorted order.
func (c Cookies) String() string {
	var b strings.Builder
	for i, k := range slices.Sorted(maps.Keys(c)) {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(c[k])
	}
	return b.String()
}
