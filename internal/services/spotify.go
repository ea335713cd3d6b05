// Spotify playlist source backed by github.com/zmb3/spotify/v2.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/melodymind/internal/models"
	"github.com/desertthunder/melodymind/internal/shared"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
)

// spotifyPageSize is the largest page the Web API serves for playlist items.
const spotifyPageSize = 100

// SpotifyAuth drives the Spotify authorization code flow.
type SpotifyAuth struct {
	auth *spotifyauth.Authenticator
	opts []spotify.ClientOption
}

// NewSpotifyAuth creates an authenticator from client credentials.
func NewSpotifyAuth(cfg shared.OAuthClientConfig, opts ...spotify.ClientOption) (*SpotifyAuth, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%w: spotify client_id and client_secret are required", shared.ErrMissingCredentials)
	}

	auth := spotifyauth.New(
		spotifyauth.WithClientID(cfg.ClientID),
		spotifyauth.WithClientSecret(cfg.ClientSecret),
		spotifyauth.WithRedirectURL(cfg.RedirectURI),
		spotifyauth.WithScopes(
			spotifyauth.ScopePlaylistReadPrivate,
			spotifyauth.ScopePlaylistReadCollaborative,
			spotifyauth.ScopeUserLibraryRead,
		),
	)
	return &SpotifyAuth{auth: auth, opts: opts}, nil
}

// AuthURL returns the consent page URL for state.
func (a *SpotifyAuth) AuthURL(state string) string {
	return a.auth.AuthURL(state)
}

// Exchange trades an authorization code for a token.
func (a *SpotifyAuth) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	tok, err := a.auth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: spotify token exchange: %v", shared.ErrAuthFailed, err)
	}
	return tok, nil
}

// Source returns a playlist source authorised by token. The client refreshes the token as needed.
func (a *SpotifyAuth) Source(ctx context.Context, token *oauth2.Token) Source {
	return NewSpotifySource(spotify.New(a.auth.Client(ctx, token), a.opts...))
}

// SpotifySource implements [Source] for Spotify.
type SpotifySource struct {
	client *spotify.Client
}

// NewSpotifySource wraps an authenticated client.
func NewSpotifySource(client *spotify.Client) *SpotifySource {
	return &SpotifySource{client: client}
}

// ListPlaylistItems returns tracks in playlist order, skipping episodes and local files.
// limit <= 0 walks every page.
func (s *SpotifySource) ListPlaylistItems(ctx context.Context, playlistID string, limit int) ([]models.TrackRef, error) {
	pageSize := spotifyPageSize
	if limit > 0 && limit < pageSize {
		pageSize = limit
	}

	page, err := s.client.GetPlaylistItems(ctx, spotify.ID(playlistID), spotify.Limit(pageSize))
	if err != nil {
		return nil, fmt.Errorf("%w: get playlist items %s: %v", shared.ErrAPIRequest, playlistID, err)
	}

	var tracks []models.TrackRef
	for {
		for _, item := range page.Items {
			if ref, ok := trackRef(item); ok {
				tracks = append(tracks, ref)
			}
			if limit > 0 && len(tracks) == limit {
				return tracks, nil
			}
		}

		err := s.client.NextPage(ctx, page)
		if errors.Is(err, spotify.ErrNoMorePages) {
			break
		}
		if err != nil {
			return tracks, fmt.Errorf("%w: playlist pagination: %v", shared.ErrAPIRequest, err)
		}
	}

	return tracks, nil
}

// ListPlaylists returns the current user's playlists.
func (s *SpotifySource) ListPlaylists(ctx context.Context, limit int) ([]models.PlaylistSummary, error) {
	var opts []spotify.RequestOption
	if limit > 0 {
		opts = append(opts, spotify.Limit(limit))
	}

	page, err := s.client.CurrentUsersPlaylists(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: list playlists: %v", shared.ErrAPIRequest, err)
	}

	out := make([]models.PlaylistSummary, 0, len(page.Playlists))
	for _, pl := range page.Playlists {
		summary := models.PlaylistSummary{ID: pl.ID.String(), Name: pl.Name}
		if len(pl.Images) > 0 {
			summary.Image = pl.Images[0].URL
		}
		out = append(out, summary)
	}
	return out, nil
}

func trackRef(item spotify.PlaylistItem) (models.TrackRef, bool) {
	t := item.Track.Track
	if t == nil || t.Name == "" || len(t.Artists) == 0 {
		return models.TrackRef{}, false
	}
	return models.TrackRef{Title: t.Name, Artist: t.Artists[0].Name}, true
}
