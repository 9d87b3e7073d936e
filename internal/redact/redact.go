// Package redact masks credentials before they reach logs or terminal output.
package redact

import (
	"net/url"
	"strings"
)

// SecretKeyPatterns contains substrings that indicate a key likely contains sensitive data.
// Keys are matched case-insensitively.
var SecretKeyPatterns = []string{
	"TOKEN",
	"KEY",
	"SECRET",
	"PASSWORD",
	"PASSWD",
	"COOKIE",
	"AUTH",
	"CREDENTIAL",
	"PRIVATE",
}

// MaskValue masks a potentially sensitive string value.
// Values with 4 or fewer characters are fully masked as "********".
// Longer values show the last 4 characters: "****xxxx".
// Empty values stay empty so that "not set" remains visible.
func MaskValue(value string) string {
	if value == "" {
		return ""
	}
	if len(value) <= 4 {
		return "********"
	}
	return "****" + value[len(value)-4:]
}

// MaskMap returns a copy of m with every value masked.
func MaskMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	masked := make(map[string]string, len(m))
	for k, v := range m {
		masked[k] = MaskValue(v)
	}
	return masked
}

// MaskURL redacts credentials from URLs.
// URLs with embedded credentials (user:pass@host) become (user:****@host).
// If the URL cannot be parsed, it is returned unchanged.
func MaskURL(rawURL string) string {
	if rawURL == "" {
		return rawURL
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	if parsed.User == nil {
		return rawURL
	}

	password, hasPassword := parsed.User.Password()
	if !hasPassword || password == "" {
		return rawURL
	}

	parsed.User = url.UserPassword(parsed.User.Username(), MaskValue(password))
	return parsed.String()
}

// ShouldMask returns true if the key name suggests it contains sensitive data.
// Matching is case-insensitive.
func ShouldMask(key string) bool {
	upper := strings.ToUpper(key)
	for _, pattern := range SecretKeyPatterns {
		if strings.Contains(upper, pattern) {
			return true
		}
	}
	return false
}
