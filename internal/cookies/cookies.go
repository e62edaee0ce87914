// Package cookies signs and verifies the cookies the auth endpoints set.
// Values are wrapped as value.base64url(hmac-sha256(name|value)) so a
// tampered or transplanted cookie is rejected before any lookup happens.
package cookies

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"
	"time"
)

const (
	// SessionCookie carries the opaque session token.
	SessionCookie = "session"

	// StateCookie carries the digest of the pending OAuth state nonce
	// while the user is off at the provider.
	StateCookie = "oauth_state"

	// StateCookieTTL bounds how long an OAuth round trip may take.
	StateCookieTTL = 10 * time.Minute
)

// Signer issues and verifies HMAC-signed cookies.
type Signer struct {
	secret []byte
	secure bool
}

// NewSigner returns a Signer keyed with secret. secure controls the
// Secure attribute on every cookie it writes.
func NewSigner(secret string, secure bool) *Signer {
	return &Signer{secret: []byte(secret), secure: secure}
}

// SetSession writes the session cookie with an expiry matching the
// server-side session row.
func (s *Signer) SetSession(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    s.sign(SessionCookie, token),
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// SetState writes the short-lived OAuth state cookie holding the digest
// of the state nonce embedded in the authorization URL.
func (s *Signer) SetState(w http.ResponseWriter, stateHash string) {
	http.SetCookie(w, &http.Cookie{
		Name:     StateCookie,
		Value:    s.sign(StateCookie, stateHash),
		Path:     "/",
		MaxAge:   int(StateCookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Read returns the verified value of the named cookie. ok is false when
// the cookie is absent or its signature does not check out.
func (s *Signer) Read(r *http.Request, name string) (value string, ok bool) {
	c, err := r.Cookie(name)
	if err != nil {
		return "", false
	}
	return s.verify(name, c.Value)
}

// Clear expires the named cookie.
func (s *Signer) Clear(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Signer) sign(name, value string) string {
	return value + "." + base64.RawURLEncoding.EncodeToString(s.mac(name, value))
}

func (s *Signer) verify(name, signed string) (string, bool) {
	idx := strings.LastIndexByte(signed, '.')
	if idx < 0 {
		return "", false
	}
	value, tag := signed[:idx], signed[idx+1:]
	want, err := base64.RawURLEncoding.DecodeString(tag)
	if err != nil {
		return "", false
	}
	if !hmac.Equal(want, s.mac(name, value)) {
		return "", false
	}
	return value, true
}

func (s *Signer) mac(name, value string) []byte {
	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(name))
	h.Write([]byte{'|'})
	h.Write([]byte(value))
	return h.Sum(nil)
}
