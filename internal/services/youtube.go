// YouTube Music destination.
//
// Communicates with the FastAPI proxy server wrapping ytmusicapi. Requests carry the
// session's OAuth2 bearer token; the oauth2 transport refreshes it when a client config is set.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/melodymind/internal/models"
	"github.com/desertthunder/melodymind/internal/shared"
	"golang.org/x/oauth2"
)

const defaultYTBaseURL string = "http://localhost:8080"

// YouTubeArtist represents an artist in YouTube Music responses.
type YouTubeArtist struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// YouTubeTrack represents a song search result from YouTube Music.
type YouTubeTrack struct {
	VideoID    string          `json:"videoId"`
	Title      string          `json:"title"`
	Artists    []YouTubeArtist `json:"artists"`
	ResultType string          `json:"resultType,omitempty"`
}

// Candidate converts the result into a [models.MatchCandidate].
func (t YouTubeTrack) Candidate() models.MatchCandidate {
	artists := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		artists = append(artists, a.Name)
	}
	return models.MatchCandidate{ExternalID: t.VideoID, Title: t.Title, Artists: artists}
}

// YouTubeMusic implements [Destination] through the proxy.
type YouTubeMusic struct {
	baseURL    string
	oauth      *oauth2.Config
	httpClient *http.Client
}

// NewYouTubeMusic creates a destination client. oauth may be nil, in which case tokens are used as-is.
func NewYouTubeMusic(baseURL string, oauth *oauth2.Config) *YouTubeMusic {
	if baseURL == "" {
		baseURL = defaultYTBaseURL
	}
	return &YouTubeMusic{
		baseURL:    strings.TrimRight(baseURL, "/"),
		oauth:      oauth,
		httpClient: http.DefaultClient,
	}
}

// Authenticate implements [Destination].
func (y *YouTubeMusic) Authenticate(ctx context.Context, token *oauth2.Token) (DestinationSession, error) {
	if token == nil || (token.AccessToken == "" && token.RefreshToken == "") {
		return nil, fmt.Errorf("%w: no destination token", shared.ErrNotAuthenticated)
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, y.httpClient)

	var src oauth2.TokenSource
	if y.oauth != nil {
		src = y.oauth.TokenSource(ctx, token)
	} else {
		src = oauth2.StaticTokenSource(token)
	}

	return &youtubeSession{
		baseURL: y.baseURL,
		client:  oauth2.NewClient(ctx, src),
	}, nil
}

type youtubeSession struct {
	baseURL string
	client  *http.Client
}

func (s *youtubeSession) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: request failed: %v", shared.ErrDestinationAPI, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Detail string `json:"detail"`
		}
		kind := shared.ErrDestinationAPI
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			kind = shared.ErrAuthExpired
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Detail != "" {
			return fmt.Errorf("%w: youtube music status %d: %s", kind, resp.StatusCode, errResp.Detail)
		}
		return fmt.Errorf("%w: youtube music status %d", kind, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("%w: failed to decode response: %v", shared.ErrDestinationAPI, err)
		}
	}
	return nil
}

// Probe fetches a single liked song.
//
// Calls GET /api/library/liked-songs?limit=1 on the proxy.
func (s *youtubeSession) Probe(ctx context.Context) error {
	if err := s.doRequest(ctx, http.MethodGet, "/api/library/liked-songs?limit=1", nil, nil); err != nil {
		return fmt.Errorf("%w: probe failed: %v", shared.ErrAuthExpired, err)
	}
	return nil
}

// CreatePlaylist creates a private playlist.
//
// Calls POST /api/playlists on the proxy.
func (s *youtubeSession) CreatePlaylist(ctx context.Context, title, description string) (string, error) {
	req := struct {
		Title         string `json:"title"`
		Description   string `json:"description"`
		PrivacyStatus string `json:"privacy_status"`
	}{Title: title, Description: description, PrivacyStatus: "PRIVATE"}

	var resp struct {
		PlaylistID string `json:"playlist_id"`
	}
	if err := s.doRequest(ctx, http.MethodPost, "/api/playlists", req, &resp); err != nil {
		return "", err
	}
	if resp.PlaylistID == "" {
		return "", fmt.Errorf("%w: create playlist returned no id", shared.ErrDestinationAPI)
	}
	return resp.PlaylistID, nil
}

// Search returns ranked candidates.
//
// Calls GET /api/search?q={query}&filter={filter} on the proxy.
func (s *youtubeSession) Search(ctx context.Context, query, filter string) ([]models.MatchCandidate, error) {
	params := url.Values{"q": {query}}
	if filter != "" {
		params.Set("filter", filter)
	}

	var results []YouTubeTrack
	if err := s.doRequest(ctx, http.MethodGet, "/api/search?"+params.Encode(), nil, &results); err != nil {
		return nil, err
	}

	candidates := make([]models.MatchCandidate, 0, len(results))
	for _, r := range results {
		if r.VideoID == "" {
			continue
		}
		candidates = append(candidates, r.Candidate())
	}
	return candidates, nil
}

// AddItems appends video ids to a playlist.
//
// Calls POST /api/playlists/{id}/items on the proxy.
func (s *youtubeSession) AddItems(ctx context.Context, playlistID string, ids []string) error {
	req := struct {
		VideoIDs []string `json:"video_ids"`
	}{VideoIDs: ids}

	endpoint := fmt.Sprintf("/api/playlists/%s/items", url.PathEscape(playlistID))
	return s.doRequest(ctx, http.MethodPost, endpoint, req, nil)
}
