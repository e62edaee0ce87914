package secrets

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// tokenBytes is the entropy of a generated token: 256 bits, enough that
// collisions are statistically impossible and no uniqueness check is run.
const tokenBytes = 32

// GenerateToken returns a URL-safe, high-entropy opaque token. The caller
// hands the plaintext to the client; everything persisted server-side must
// go through HashToken first.
func GenerateToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// HashToken returns the hex-encoded SHA-256 digest of a token. Session and
// OAuth state tokens are stored and compared only in this form, so a leaked
// store does not yield usable tokens.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// SecureCompare reports whether a and b are equal without leaking timing
// information about where a mismatch occurs. A length mismatch
// short-circuits to false; the length itself is not secret.
func SecureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
