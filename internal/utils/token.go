package utils // package utils provides helper functions for token creation and hashing

import (
	"crypto/rand"   // secure random number generation
	"crypto/sha256" // SHA‑256 hashing for stored tokens
	"encoding/hex"  // hex encoding of random bytes and digests
	"strings"
)

// TokenPrefix marks every issued auth token so it is easy to recognise in
// logs and headers.
const TokenPrefix = "token_"

// tokenBytes is the amount of entropy per token (128 bits).
const tokenBytes = 16

// recognised Authorization schemes, compared case-insensitively.
var authSchemes = []string{"Token", "Bearer"}

// NewAuthToken returns a fresh bearer token: the fixed prefix followed by
// 32 hex characters read from crypto/rand.
func NewAuthToken() (string, error) {
	raw, err := randomHex(tokenBytes)
	if err != nil {
		return "", err
	}
	return TokenPrefix + raw, nil
}

// HashToken returns the SHA‑256 hash of the raw token as a hex string.
// Only this digest is persisted, so a leaked table cannot be replayed.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// ParseAuthorization extracts the token from an Authorization header
// value.  Both a bare token and "<scheme> <token>" with a single space are
// accepted.  Unknown schemes, repeated spaces or any other whitespace make
// the credential invalid.
func ParseAuthorization(header string) (string, bool) {
	if header == "" {
		return "", false
	}
	scheme, value, found := strings.Cut(header, " ")
	if !found {
		value = header
	} else {
		known := false
		for _, s := range authSchemes {
			if strings.EqualFold(scheme, s) {
				known = true
				break
			}
		}
		if !known {
			return "", false
		}
	}
	if value == "" || strings.ContainsAny(value, " \t\r\n") {
		return "", false
	}
	return value, true
}

// randomHex returns a hex‑encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
