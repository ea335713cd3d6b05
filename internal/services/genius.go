// Genius lyrics provider.
//
// Song lookup goes through the Genius search API; lyrics are scraped from the song page
// with goquery since the API does not serve them.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/desertthunder/melodymind/internal/shared"
)

const defaultGeniusAPI = "https://api.genius.com"

var sectionHeader = regexp.MustCompile(`^\[[^\]]*\]$`)

// GeniusProvider implements lyrics.Provider.
type GeniusProvider struct {
	token      string
	apiURL     string
	httpClient *http.Client
}

// NewGeniusProvider creates a provider. An empty apiURL targets the public API.
func NewGeniusProvider(token, apiURL string, client *http.Client) *GeniusProvider {
	if apiURL == "" {
		apiURL = defaultGeniusAPI
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &GeniusProvider{token: token, apiURL: strings.TrimRight(apiURL, "/"), httpClient: client}
}

type geniusHit struct {
	Result struct {
		Title         string `json:"title"`
		URL           string `json:"url"`
		PrimaryArtist struct {
			Name string `json:"name"`
		} `json:"primary_artist"`
	} `json:"result"`
}

// SearchSong finds a song and returns its lyrics with section headers removed.
func (g *GeniusProvider) SearchSong(ctx context.Context, title, artist string) (string, error) {
	if g.token == "" {
		return "", fmt.Errorf("%w: genius token", shared.ErrMissingCredentials)
	}

	pageURL, err := g.search(ctx, title, artist)
	if err != nil {
		return "", err
	}

	text, err := g.scrape(ctx, pageURL)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: empty lyrics page for %s", shared.ErrLyricsNotFound, shared.SongLabel(title, artist))
	}
	return text, nil
}

func (g *GeniusProvider) search(ctx context.Context, title, artist string) (string, error) {
	endpoint := g.apiURL + "/search?" + url.Values{"q": {title + " " + artist}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.token)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: genius search: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: genius search status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	var body struct {
		Response struct {
			Hits []geniusHit `json:"hits"`
		} `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("%w: failed to decode genius search: %v", shared.ErrAPIRequest, err)
	}

	hits := body.Response.Hits
	if len(hits) == 0 {
		return "", fmt.Errorf("%w: %s", shared.ErrLyricsNotFound, shared.SongLabel(title, artist))
	}

	want := shared.NormalizeArtist(artist)
	for _, h := range hits {
		got := shared.NormalizeArtist(h.Result.PrimaryArtist.Name)
		if got != "" && (strings.Contains(got, want) || strings.Contains(want, got)) {
			return h.Result.URL, nil
		}
	}
	return hits[0].Result.URL, nil
}

func (g *GeniusProvider) scrape(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: genius page: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("%w: page %s", shared.ErrLyricsNotFound, pageURL)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: genius page status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: failed to parse lyrics page: %v", shared.ErrAPIRequest, err)
	}

	return ExtractLyrics(doc), nil
}

// ExtractLyrics pulls lyric lines out of a Genius song page, dropping [Section] headers.
func ExtractLyrics(doc *goquery.Document) string {
	var lines []string
	doc.Find(`[data-lyrics-container="true"]`).Each(func(_ int, sel *goquery.Selection) {
		sel.Find(`[data-exclude-from-selection="true"]`).Remove()
		sel.Find("br").ReplaceWithHtml("\n")
		for _, line := range strings.Split(sel.Text(), "\n") {
			line = strings.TrimSpace(line)
			if line == "" || sectionHeader.MatchString(line) {
				continue
			}
			lines = append(lines, line)
		}
	})
	return strings.Join(lines, "\n")
}
