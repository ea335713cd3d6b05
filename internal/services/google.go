package services

import (
	"fmt"

	"github.com/desertthunder/melodymind/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// YouTubeScope grants playlist management on the user's YouTube account.
const YouTubeScope = "https://www.googleapis.com/auth/youtube"

// GoogleOAuthConfig builds the OAuth2 client for the destination service.
func GoogleOAuthConfig(cfg shared.OAuthClientConfig) (*oauth2.Config, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%w: google client_id and client_secret are required", shared.ErrMissingCredentials)
	}
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Scopes:       []string{YouTubeScope},
		Endpoint:     google.Endpoint,
	}, nil
}

// GoogleAuthURL returns a consent URL that always yields a refresh token.
func GoogleAuthURL(cfg *oauth2.Config, state string) string {
	return cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}
