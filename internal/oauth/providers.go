// Package oauth drives the OAuth authorization-code flow for the
// configured providers: CSRF-safe state handling, code exchange, user-info
// normalization, and transactional account linking.
package oauth

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/bennettsh/authkit/internal/models"
)

// UserInfo is the provider-neutral shape of a fetched identity. Email is
// already normalized (lowercased, trimmed).
type UserInfo struct {
	ExternalID string
	Name       string
	Email      string
	Image      *string
}

// Provider abstracts one OAuth2 provider: building the authorization URL,
// exchanging the code, and fetching a normalized identity.
type Provider interface {
	Name() models.Provider
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	FetchUser(ctx context.Context, token *oauth2.Token) (*UserInfo, error)
}

// ClientCredentials holds one provider's OAuth application credentials.
type ClientCredentials struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// exchange runs the code exchange through the given client so tests can
// point providers at a local token endpoint.
func exchange(ctx context.Context, cfg *oauth2.Config, client *http.Client, code string) (*oauth2.Token, error) {
	if client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, client)
	}
	return cfg.Exchange(ctx, code)
}

func authGet(ctx context.Context, client *http.Client, url, accessToken string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &statusError{url: url, status: resp.StatusCode}
	}
	return decodeJSON(resp.Body, out)
}
