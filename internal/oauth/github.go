package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"

	"github.com/bennettsh/authkit/internal/models"
)

const githubAPIURL = "https://api.github.com"

// GitHub implements the Provider interface for GitHub sign-in.
type GitHub struct {
	config     *oauth2.Config
	apiURL     string
	httpClient *http.Client
}

// NewGitHub creates a GitHub provider from application credentials.
func NewGitHub(creds ClientCredentials) *GitHub {
	return &GitHub{
		config: &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			RedirectURL:  creds.RedirectURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		},
		apiURL: githubAPIURL,
	}
}

func (g *GitHub) Name() models.Provider { return models.ProviderGitHub }

func (g *GitHub) AuthCodeURL(state string) string {
	return g.config.AuthCodeURL(state)
}

func (g *GitHub) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	return exchange(ctx, g.config, g.httpClient, code)
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// FetchUser retrieves and normalizes the GitHub profile. GitHub profiles
// often omit the public email, so the address is resolved from the
// /user/emails list: the entry marked both primary and verified wins, the
// profile email is the fallback, and no usable email at all is a failure.
func (g *GitHub) FetchUser(ctx context.Context, token *oauth2.Token) (*UserInfo, error) {
	var profile struct {
		ID        int64  `json:"id"`
		Login     string `json:"login"`
		Name      string `json:"name"`
		Email     string `json:"email"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := authGet(ctx, g.httpClient, g.apiURL+"/user", token.AccessToken, &profile); err != nil {
		return nil, err
	}
	if profile.ID == 0 {
		return nil, errors.New("github profile missing id")
	}

	var emails []githubEmail
	if err := authGet(ctx, g.httpClient, g.apiURL+"/user/emails", token.AccessToken, &emails); err != nil {
		return nil, err
	}

	email := resolveGitHubEmail(emails, profile.Email)
	if email == "" {
		return nil, errors.New("github account has no usable email")
	}

	name := profile.Name
	if name == "" {
		name = profile.Login
	}

	info := &UserInfo{
		ExternalID: strconv.FormatInt(profile.ID, 10),
		Name:       name,
		Email:      models.NormalizeEmail(email),
	}
	if profile.AvatarURL != "" {
		info.Image = &profile.AvatarURL
	}
	return info, nil
}

// resolveGitHubEmail picks the primary+verified address, falling back to
// the profile email when no such entry exists.
func resolveGitHubEmail(emails []githubEmail, profileEmail string) string {
	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email
		}
	}
	return profileEmail
}

type statusError struct {
	url    string
	status int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%s returned status %d", e.url, e.status)
}

func decodeJSON(r io.Reader, out any) error {
	if err := json.NewDecoder(r).Decode(out); err != nil {
		return fmt.Errorf("failed to decode provider response: %w", err)
	}
	return nil
}
