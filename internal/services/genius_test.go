package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/desertthunder/melodymind/internal/shared"
)

const lyricsPage = `<html><body>
<div data-lyrics-container="true">[Verse 1]<br/>Hey Jude, don't make it bad<br/>Take a sad song<span data-exclude-from-selection="true">Embed</span><br/>And make it better</div>
<div data-lyrics-container="true">[Chorus]<br/><i>Na na na</i><br/></div>
<div class="footer">not lyrics</div>
</body></html>`

func TestExtractLyrics(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(lyricsPage))
	if err != nil {
		t.Fatalf("failed to parse fixture: %v", err)
	}

	got := ExtractLyrics(doc)
	want := "Hey Jude, don't make it bad\nTake a sad song\nAnd make it better\nNa na na"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestGeniusProvider(t *testing.T) {
	newServer := func(t *testing.T, hits string) *httptest.Server {
		t.Helper()
		var server *httptest.Server
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/search":
				if got := r.Header.Get("Authorization"); got != "Bearer tok" {
					t.Errorf("expected bearer token, got %q", got)
				}
				w.Write([]byte(strings.ReplaceAll(hits, "{{base}}", server.URL)))
			case "/songs/hey-jude":
				w.Write([]byte(lyricsPage))
			case "/songs/cover":
				w.Write([]byte(`<div data-lyrics-container="true">wrong song</div>`))
			default:
				http.NotFound(w, r)
			}
		}))
		t.Cleanup(server.Close)
		return server
	}

	t.Run("missing token", func(t *testing.T) {
		g := NewGeniusProvider("", "", nil)
		if _, err := g.SearchSong(context.Background(), "Hey Jude", "The Beatles"); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("prefers hit by matching artist", func(t *testing.T) {
		server := newServer(t, `{"response":{"hits":[
			{"result":{"url":"{{base}}/songs/cover","primary_artist":{"name":"Cover Band"}}},
			{"result":{"url":"{{base}}/songs/hey-jude","primary_artist":{"name":"The Beatles"}}}
		]}}`)
		g := NewGeniusProvider("tok", server.URL, server.Client())

		got, err := g.SearchSong(context.Background(), "Hey Jude", "The Beatles")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.HasPrefix(got, "Hey Jude, don't make it bad") {
			t.Errorf("unexpected lyrics %q", got)
		}
	})

	t.Run("no hits", func(t *testing.T) {
		server := newServer(t, `{"response":{"hits":[]}}`)
		g := NewGeniusProvider("tok", server.URL, server.Client())
		if _, err := g.SearchSong(context.Background(), "Nothing", "Nobody"); !errors.Is(err, shared.ErrLyricsNotFound) {
			t.Errorf("expected ErrLyricsNotFound, got %v", err)
		}
	})

	t.Run("missing page", func(t *testing.T) {
		server := newServer(t, `{"response":{"hits":[{"result":{"url":"{{base}}/songs/gone","primary_artist":{"name":"X"}}}]}}`)
		g := NewGeniusProvider("tok", server.URL, server.Client())
		if _, err := g.SearchSong(context.Background(), "Gone", "X"); !errors.Is(err, shared.ErrLyricsNotFound) {
			t.Errorf("expected ErrLyricsNotFound, got %v", err)
		}
	})
}
