package oauth

import (
	"context"
	"errors"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/bennettsh/authkit/internal/models"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// Google implements the Provider interface for Google sign-in.
type Google struct {
	config      *oauth2.Config
	userInfoURL string
	httpClient  *http.Client
}

// NewGoogle creates a Google provider from application credentials.
func NewGoogle(creds ClientCredentials) *Google {
	return &Google{
		config: &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			RedirectURL:  creds.RedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL: googleUserInfoURL,
	}
}

func (g *Google) Name() models.Provider { return models.ProviderGoogle }

func (g *Google) AuthCodeURL(state string) string {
	return g.config.AuthCodeURL(state)
}

func (g *Google) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	return exchange(ctx, g.config, g.httpClient, code)
}

// FetchUser retrieves and normalizes the Google profile.
func (g *Google) FetchUser(ctx context.Context, token *oauth2.Token) (*UserInfo, error) {
	var profile struct {
		ID            string `json:"id"`
		Email         string `json:"email"`
		VerifiedEmail bool   `json:"verified_email"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}
	if err := authGet(ctx, g.httpClient, g.userInfoURL, token.AccessToken, &profile); err != nil {
		return nil, err
	}

	if profile.ID == "" {
		return nil, errors.New("google profile missing id")
	}
	if profile.Email == "" {
		return nil, errors.New("google profile missing email")
	}

	info := &UserInfo{
		ExternalID: profile.ID,
		Name:       profile.Name,
		Email:      models.NormalizeEmail(profile.Email),
	}
	if profile.Picture != "" {
		info.Image = &profile.Picture
	}
	return info, nil
}
