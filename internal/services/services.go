package services

import (
	"context"

	"github.com/desertthunder/melodymind/internal/models"
	"golang.org/x/oauth2"
)

// SearchFilterSongs restricts destination searches to the songs category.
const SearchFilterSongs = "songs"

// Source lists playlists and their tracks on the source music service.
type Source interface {
	// ListPlaylistItems returns up to limit tracks of a playlist in order, primary artist only.
	ListPlaylistItems(ctx context.Context, playlistID string, limit int) ([]models.TrackRef, error)

	// ListPlaylists returns the user's playlists.
	ListPlaylists(ctx context.Context, limit int) ([]models.PlaylistSummary, error)
}

// Destination is the music service playlists are transferred to.
type Destination interface {
	// Authenticate binds a token bundle to a session. A nil token wraps shared.ErrNotAuthenticated.
	Authenticate(ctx context.Context, token *oauth2.Token) (DestinationSession, error)
}

// DestinationSession performs authenticated destination calls.
type DestinationSession interface {
	// Probe makes a lightweight authenticated read; failures wrap shared.ErrAuthExpired.
	Probe(ctx context.Context) error

	// CreatePlaylist creates a private playlist and returns its id.
	CreatePlaylist(ctx context.Context, title, description string) (string, error)

	// Search returns ranked catalog candidates for query.
	Search(ctx context.Context, query, filter string) ([]models.MatchCandidate, error)

	// AddItems appends ids to a playlist in one call.
	AddItems(ctx context.Context, playlistID string, ids []string) error
}

// TokenStore keeps destination token bundles per session.
type TokenStore interface {
	Load(session string) (*oauth2.Token, error)
	Save(session string, token *oauth2.Token) error
}
