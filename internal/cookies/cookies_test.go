package cookies

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func requestWithCookies(rec *httptest.ResponseRecorder) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		r.AddCookie(c)
	}
	return r
}

func TestSignRoundTrip(t *testing.T) {
	t.Parallel()

	signer := NewSigner("0123456789abcdef0123456789abcdef", true)
	rec := httptest.NewRecorder()
	signer.SetSession(rec, "tok-abc", time.Now().Add(time.Hour))

	got, ok := signer.Read(requestWithCookies(rec), SessionCookie)
	if !ok {
		t.Fatal("Read() rejected a cookie we just signed")
	}
	if got != "tok-abc" {
		t.Errorf("Read() = %q, want tok-abc", got)
	}
}

func TestTamperedValueRejected(t *testing.T) {
	t.Parallel()

	signer := NewSigner("0123456789abcdef0123456789abcdef", true)
	rec := httptest.NewRecorder()
	signer.SetSession(rec, "tok-abc", time.Now().Add(time.Hour))

	c := rec.Result().Cookies()[0]
	c.Value = strings.Replace(c.Value, "tok-abc", "tok-abd", 1)
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(c)

	if _, ok := signer.Read(r, SessionCookie); ok {
		t.Error("Read() accepted a tampered cookie value")
	}
}

func TestWrongKeyRejected(t *testing.T) {
	t.Parallel()

	signer := NewSigner("0123456789abcdef0123456789abcdef", true)
	other := NewSigner("fedcba9876543210fedcba9876543210", true)
	rec := httptest.NewRecorder()
	signer.SetSession(rec, "tok-abc", time.Now().Add(time.Hour))

	if _, ok := other.Read(requestWithCookies(rec), SessionCookie); ok {
		t.Error("Read() accepted a cookie signed with a different key")
	}
}

func TestNameBoundSignature(t *testing.T) {
	t.Parallel()

	// A state cookie value must not verify as a session cookie even
	// though both were signed with the same key.
	signer := NewSigner("0123456789abcdef0123456789abcdef", true)
	rec := httptest.NewRecorder()
	signer.SetState(rec, "statehash")

	c := rec.Result().Cookies()[0]
	c.Name = SessionCookie
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(c)

	if _, ok := signer.Read(r, SessionCookie); ok {
		t.Error("state cookie signature verified under the session cookie name")
	}
}

func TestMissingCookie(t *testing.T) {
	t.Parallel()

	signer := NewSigner("0123456789abcdef0123456789abcdef", true)
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := signer.Read(r, SessionCookie); ok {
		t.Error("Read() reported ok for an absent cookie")
	}
}

func TestCookieAttributes(t *testing.T) {
	t.Parallel()

	signer := NewSigner("0123456789abcdef0123456789abcdef", true)
	rec := httptest.NewRecorder()
	expires := time.Now().Add(time.Hour)
	signer.SetSession(rec, "tok", expires)

	c := rec.Result().Cookies()[0]
	if !c.HttpOnly {
		t.Error("session cookie is not HttpOnly")
	}
	if !c.Secure {
		t.Error("session cookie is not Secure")
	}
	if c.SameSite != http.SameSiteLaxMode {
		t.Errorf("SameSite = %v, want Lax", c.SameSite)
	}
	if c.Expires.Unix() != expires.Unix() {
		t.Errorf("Expires = %v, want %v", c.Expires, expires)
	}
}

func TestClear(t *testing.T) {
	t.Parallel()

	signer := NewSigner("0123456789abcdef0123456789abcdef", false)
	rec := httptest.NewRecorder()
	signer.Clear(rec, SessionCookie)

	c := rec.Result().Cookies()[0]
	if c.MaxAge >= 0 {
		t.Errorf("MaxAge = %d, want negative", c.MaxAge)
	}
	if c.Secure {
		t.Error("Secure set despite secure=false signer")
	}
}
