package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/bennettsh/authkit/internal/cookies"
	"github.com/bennettsh/authkit/internal/database/fake"
	"github.com/bennettsh/authkit/internal/models"
	"github.com/bennettsh/authkit/internal/oauth"
	"github.com/bennettsh/authkit/internal/session"
)

const frontendURL = "https://app.example.com/dashboard"

type stubProvider struct {
	user *oauth.UserInfo
}

func (s *stubProvider) Name() models.Provider { return models.ProviderGoogle }

func (s *stubProvider) AuthCodeURL(state string) string {
	return "https://provider.example.com/authorize?state=" + url.QueryEscape(state)
}

func (s *stubProvider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	return &oauth2.Token{AccessToken: "access-" + code}, nil
}

func (s *stubProvider) FetchUser(ctx context.Context, token *oauth2.Token) (*oauth.UserInfo, error) {
	return s.user, nil
}

func newOAuthRouter(t *testing.T) (*mux.Router, *cookies.Signer) {
	t.Helper()

	store := fake.New()
	logger := zap.NewNop()
	sessions := session.NewManager(store.Sessions(), logger)
	provider := &stubProvider{user: &oauth.UserInfo{
		ExternalID: "g-12345",
		Name:       "Ada",
		Email:      "ada@example.com",
	}}
	manager := oauth.NewManager([]oauth.Provider{provider}, store.Users(), store.Accounts(), sessions, store, logger)
	signer := cookies.NewSigner(testSecret, false)
	handler := NewOAuthHandler(manager, signer, frontendURL, logger)

	router := mux.NewRouter()
	router.HandleFunc("/api/auth/oauth/{provider}", handler.Initiate).Methods(http.MethodGet)
	router.HandleFunc("/api/auth/oauth/{provider}/callback", handler.Callback).Methods(http.MethodGet)
	return router, signer
}

func TestInitiateRedirectsWithStateCookie(t *testing.T) {
	t.Parallel()

	router, signer := newOAuthRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/oauth/google", nil))

	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want 307", rec.Code)
	}
	location := rec.Header().Get("Location")
	if !strings.HasPrefix(location, "https://provider.example.com/authorize") {
		t.Errorf("Location = %q, want provider authorize URL", location)
	}

	// The cookie holds the digest of the state embedded in the URL.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	if _, ok := signer.Read(req, cookies.StateCookie); !ok {
		t.Error("no verifiable state cookie set")
	}
}

func TestInitiateUnknownProvider(t *testing.T) {
	t.Parallel()

	router, _ := newOAuthRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/oauth/myspace", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

// runFlow performs initiate and returns the callback request primed with
// the state cookie and, unless tampered, the matching query state.
func runFlow(t *testing.T, router *mux.Router, queryState string) *http.Request {
	t.Helper()

	initRec := httptest.NewRecorder()
	router.ServeHTTP(initRec, httptest.NewRequest(http.MethodGet, "/api/auth/oauth/google", nil))
	if initRec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("initiate status = %d", initRec.Code)
	}

	location, err := url.Parse(initRec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse Location: %v", err)
	}
	if queryState == "" {
		queryState = location.Query().Get("state")
	}

	callback := httptest.NewRequest(http.MethodGet,
		"/api/auth/oauth/google/callback?code=good-code&state="+url.QueryEscape(queryState), nil)
	for _, c := range initRec.Result().Cookies() {
		callback.AddCookie(c)
	}
	return callback
}

func TestCallbackSuccess(t *testing.T) {
	t.Parallel()

	router, signer := newOAuthRouter(t)
	callback := runFlow(t, router, "")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, callback)

	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Location"); got != frontendURL {
		t.Errorf("Location = %q, want %q", got, frontendURL)
	}

	var sawSession, clearedState bool
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		switch c.Name {
		case cookies.SessionCookie:
			req.AddCookie(c)
			sawSession = true
		case cookies.StateCookie:
			clearedState = c.MaxAge < 0
		}
	}
	if !sawSession {
		t.Fatal("no session cookie set")
	}
	if !clearedState {
		t.Error("state cookie not cleared")
	}
	if _, ok := signer.Read(req, cookies.SessionCookie); !ok {
		t.Error("session cookie does not verify")
	}
}

func TestCallbackStateMismatch(t *testing.T) {
	t.Parallel()

	router, _ := newOAuthRouter(t)
	callback := runFlow(t, router, "attacker-chosen-state")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, callback)

	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d", rec.Code)
	}
	location, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse Location: %v", err)
	}
	if got := location.Query().Get("error"); got != "oauth_rejected" {
		t.Errorf("error param = %q, want oauth_rejected", got)
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == cookies.SessionCookie {
			t.Error("session cookie set on rejected callback")
		}
	}
}

func TestCallbackMissingStateCookie(t *testing.T) {
	t.Parallel()

	router, _ := newOAuthRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/auth/oauth/google/callback?code=good-code&state=whatever", nil))

	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d", rec.Code)
	}
	location, _ := url.Parse(rec.Header().Get("Location"))
	if got := location.Query().Get("error"); got != "oauth_rejected" {
		t.Errorf("error param = %q, want oauth_rejected", got)
	}
}

func TestCallbackProviderError(t *testing.T) {
	t.Parallel()

	router, _ := newOAuthRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/auth/oauth/google/callback?error=access_denied", nil))

	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d", rec.Code)
	}
	location, _ := url.Parse(rec.Header().Get("Location"))
	if got := location.Query().Get("error"); got != "oauth_rejected" {
		t.Errorf("error param = %q, want oauth_rejected", got)
	}
}
