// Package auth holds the credential helpers shared by account handling:
// the password digest stored in configuration files and the cookie header
// parser.
package auth

import (
	"crypto/md5" //nolint:gosec // digest format required by the account service, not used for security
	"encoding/hex"
	"strings"
)

// DigestLen is the length of a hex encoded MD5 digest.
const DigestLen = 32

// EmptyDigest is the stored form of an empty password.
const EmptyDigest = "D41D8CD98F00B204E9800998ECF8427E"

// HashPassword returns the uppercase hex MD5 digest of the UTF-8 bytes of p.
// The digest is unsalted; it matches what the account service expects and
// provides no protection at rest.
func HashPassword(p string) string {
	sum := md5.Sum([]byte(p)) //nolint:gosec
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// IsDigest reports whether s already looks like a stored password digest:
// exactly 32 hexadecimal characters, either case.
func IsDigest(s string) bool {
	if len(s) != DigestLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case '0' <= c && c <= '9', 'a' <= c && c <= 'f', 'A' <= c && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// NormalizePassword returns the value to persist for a password field.
// Digests are kept as they are, so normalizing twice is a no-op. The empty
// string is hashed like any other value.
func NormalizePassword(p string) string {
	if IsDigest(p) {
		return p
	}
	return HashPassword(p)
}

// HasPassword reports whether a stored value holds a real password, that is
// neither empty nor the digest of the empty string.
func HasPassword(stored string) bool {
	return stored != "" && !strings.EqualFold(stored, EmptyDigest)
}
