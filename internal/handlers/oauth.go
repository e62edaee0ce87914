package handlers

import (
	"net/http"
	"net/url"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/bennettsh/authkit/internal/apperr"
	"github.com/bennettsh/authkit/internal/cookies"
	"github.com/bennettsh/authkit/internal/models"
	"github.com/bennettsh/authkit/internal/oauth"
	"github.com/bennettsh/authkit/internal/secrets"
)

// OAuthHandler serves the browser-facing OAuth endpoints. Unlike the JSON
// endpoints these respond with redirects: the user agent is mid-flight
// between the app and the provider.
type OAuthHandler struct {
	manager     *oauth.Manager
	signer      *cookies.Signer
	frontendURL string
	logger      *zap.Logger
}

// NewOAuthHandler creates an OAuth handler. frontendURL is where the
// browser lands after the flow completes, successfully or not.
func NewOAuthHandler(manager *oauth.Manager, signer *cookies.Signer, frontendURL string, logger *zap.Logger) *OAuthHandler {
	return &OAuthHandler{manager: manager, signer: signer, frontendURL: frontendURL, logger: logger}
}

// Initiate handles GET /api/auth/oauth/{provider}: issues a state nonce,
// stores its digest in a short-lived signed cookie, and redirects to the
// provider's consent page.
func (h *OAuthHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	provider := models.Provider(mux.Vars(r)["provider"])

	initiation, err := h.manager.Initiate(provider)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}

	h.signer.SetState(w, secrets.HashToken(initiation.State))
	http.Redirect(w, r, initiation.AuthURL, http.StatusTemporaryRedirect)
}

// Callback handles GET /api/auth/oauth/{provider}/callback. The state
// cookie is cleared before anything else so a failed attempt cannot be
// replayed against a fresh callback.
func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	storedHash, _ := h.signer.Read(r, cookies.StateCookie)
	h.signer.Clear(w, cookies.StateCookie)

	query := r.URL.Query()
	params := oauth.CallbackParams{
		Provider:        models.Provider(mux.Vars(r)["provider"]),
		StoredStateHash: storedHash,
		QueryState:      query.Get("state"),
		Code:            query.Get("code"),
		ProviderError:   query.Get("error"),
	}

	result, err := h.manager.HandleCallback(r.Context(), params)
	if err != nil {
		kind := apperr.KindOf(err)
		if kind == apperr.KindInternal {
			h.logger.Error("oauth_callback_failed", zap.Error(err))
		} else {
			h.logger.Warn("oauth_callback_rejected",
				zap.String("provider", string(params.Provider)),
				zap.Error(err),
			)
		}
		h.redirectError(w, r, kind)
		return
	}

	h.signer.SetSession(w, result.Session.Token, result.Session.Session.ExpiresAt)
	http.Redirect(w, r, h.frontendURL, http.StatusTemporaryRedirect)
}

// redirectError sends the browser back to the frontend with a coarse
// error code in the query string. Details stay in the log.
func (h *OAuthHandler) redirectError(w http.ResponseWriter, r *http.Request, kind apperr.Kind) {
	code := "oauth_failed"
	if kind == apperr.KindUnauthorized || kind == apperr.KindValidation {
		code = "oauth_rejected"
	}

	target, err := url.Parse(h.frontendURL)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal server error", nil)
		return
	}
	q := target.Query()
	q.Set("error", code)
	target.RawQuery = q.Encode()
	http.Redirect(w, r, target.String(), http.StatusTemporaryRedirect)
}
