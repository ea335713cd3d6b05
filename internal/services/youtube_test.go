package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/melodymind/internal/shared"
	"golang.org/x/oauth2"
)

func newYouTubeSession(t *testing.T, handler http.HandlerFunc) DestinationSession {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	yt := NewYouTubeMusic(server.URL, nil)
	sess, err := yt.Authenticate(context.Background(), &oauth2.Token{AccessToken: "access-123"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	return sess
}

func TestYouTubeMusic(t *testing.T) {
	t.Run("NewYouTubeMusic", func(t *testing.T) {
		t.Run("creates client with default URL", func(t *testing.T) {
			if yt := NewYouTubeMusic("", nil); yt.baseURL != defaultYTBaseURL {
				t.Errorf("expected baseURL to be %s, got %s", defaultYTBaseURL, yt.baseURL)
			}
		})

		t.Run("trims trailing slash", func(t *testing.T) {
			if yt := NewYouTubeMusic("http://localhost:9000/", nil); yt.baseURL != "http://localhost:9000" {
				t.Errorf("expected trimmed baseURL, got %s", yt.baseURL)
			}
		})
	})

	t.Run("Authenticate", func(t *testing.T) {
		yt := NewYouTubeMusic("", nil)
		ctx := context.Background()

		for _, tok := range []*oauth2.Token{nil, {}} {
			if _, err := yt.Authenticate(ctx, tok); !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Errorf("expected ErrNotAuthenticated, got %v", err)
			}
		}
	})

	t.Run("sends bearer token", func(t *testing.T) {
		var auth string
		sess := newYouTubeSession(t, func(w http.ResponseWriter, r *http.Request) {
			auth = r.Header.Get("Authorization")
			w.Write([]byte(`[]`))
		})

		if err := sess.Probe(context.Background()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if auth != "Bearer access-123" {
			t.Errorf("expected bearer header, got %q", auth)
		}
	})

	t.Run("login check", func(t *testing.T) {
		t.Run("requests one liked song", func(t *testing.T) {
			sess := newYouTubeSession(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/library/liked-songs" {
					t.Errorf("expected liked-songs path, got %s", r.URL.Path)
				}
				if got := r.URL.Query().Get("limit"); got != "1" {
					t.Errorf("expected limit=1, got %s", got)
				}
				w.Write([]byte(`[]`))
			})
			if err := sess.Probe(context.Background()); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})

		t.Run("server error maps to auth expired", func(t *testing.T) {
			sess := newYouTubeSession(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			})
			if err := sess.Probe(context.Background()); !errors.Is(err, shared.ErrAuthExpired) {
				t.Errorf("expected ErrAuthExpired, got %v", err)
			}
		})
	})

	t.Run("CreatePlaylist", func(t *testing.T) {
		t.Run("creates private playlist", func(t *testing.T) {
			sess := newYouTubeSession(t, func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost || r.URL.Path != "/api/playlists" {
					t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
				}
				var body map[string]string
				json.NewDecoder(r.Body).Decode(&body)
				if body["title"] != "Road Trip" {
					t.Errorf("expected title 'Road Trip', got %q", body["title"])
				}
				if body["description"] != "Transferred by MelodyMind" {
					t.Errorf("unexpected description %q", body["description"])
				}
				if body["privacy_status"] != "PRIVATE" {
					t.Errorf("expected PRIVATE, got %q", body["privacy_status"])
				}
				w.Write([]byte(`{"playlist_id":"PL999"}`))
			})

			id, err := sess.CreatePlaylist(context.Background(), "Road Trip", "Transferred by MelodyMind")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if id != "PL999" {
				t.Errorf("expected PL999, got %s", id)
			}
		})

		t.Run("missing id is an error", func(t *testing.T) {
			sess := newYouTubeSession(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{}`))
			})
			if _, err := sess.CreatePlaylist(context.Background(), "x", ""); !errors.Is(err, shared.ErrDestinationAPI) {
				t.Errorf("expected ErrDestinationAPI, got %v", err)
			}
		})

		t.Run("unauthorized maps to auth expired", func(t *testing.T) {
			sess := newYouTubeSession(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"detail":"token revoked"}`))
			})
			_, err := sess.CreatePlaylist(context.Background(), "x", "")
			if !errors.Is(err, shared.ErrAuthExpired) {
				t.Errorf("expected ErrAuthExpired, got %v", err)
			}
		})
	})

	t.Run("Search", func(t *testing.T) {
		sess := newYouTubeSession(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/search" {
				t.Errorf("expected search path, got %s", r.URL.Path)
			}
			if q := r.URL.Query().Get("q"); q != "Hey Jude by The Beatles" {
				t.Errorf("unexpected query %q", q)
			}
			if f := r.URL.Query().Get("filter"); f != SearchFilterSongs {
				t.Errorf("expected filter songs, got %q", f)
			}
			w.Write([]byte(`[
				{"videoId":"v1","title":"Hey Jude","artists":[{"name":"The Beatles","id":"a1"}]},
				{"videoId":"","title":"No id"},
				{"videoId":"v2","title":"Hey Jude (Cover)","artists":[{"name":"Someone"},{"name":"Else"}]}
			]`))
		})

		got, err := sess.Search(context.Background(), "Hey Jude by The Beatles", SearchFilterSongs)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 candidates, got %d", len(got))
		}
		if got[0].ExternalID != "v1" || got[0].Artists[0] != "The Beatles" {
			t.Errorf("unexpected first candidate %+v", got[0])
		}
		if len(got[1].Artists) != 2 {
			t.Errorf("expected 2 artists, got %v", got[1].Artists)
		}
	})

	t.Run("AddItems", func(t *testing.T) {
		var ids []string
		sess := newYouTubeSession(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/playlists/PL1/items" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			var body struct {
				VideoIDs []string `json:"video_ids"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			ids = body.VideoIDs
			w.WriteHeader(http.StatusNoContent)
		})

		if err := sess.AddItems(context.Background(), "PL1", []string{"a", "b"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
			t.Errorf("unexpected ids %v", ids)
		}
	})
}
