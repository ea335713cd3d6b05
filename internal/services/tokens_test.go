package services

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/melodymind/internal/shared"
	"golang.org/x/oauth2"
)

func TestFileTokenStore(t *testing.T) {
	t.Run("load from missing file", func(t *testing.T) {
		store := NewFileTokenStore(filepath.Join(t.TempDir(), "tokens.json"))
		if _, err := store.Load("default"); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("save and load per session", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "tokens.json")
		store := NewFileTokenStore(path)

		if err := store.Save("a", &oauth2.Token{AccessToken: "one", RefreshToken: "r1"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if err := store.Save("b", &oauth2.Token{AccessToken: "two"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		tok, err := store.Load("a")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if tok.AccessToken != "one" || tok.RefreshToken != "r1" {
			t.Errorf("unexpected token %+v", tok)
		}

		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("expected token file, got %v", err)
		}
		if perm := info.Mode().Perm(); perm != 0600 {
			t.Errorf("expected 0600 permissions, got %o", perm)
		}
		if store.Path() != path {
			t.Errorf("expected path %s, got %s", path, store.Path())
		}
	})

	t.Run("corrupt file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tokens.json")
		os.WriteFile(path, []byte("{not json"), 0600)
		if _, err := NewFileTokenStore(path).Load("a"); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestGoogleOAuthConfig(t *testing.T) {
	t.Run("requires credentials", func(t *testing.T) {
		if _, err := GoogleOAuthConfig(shared.OAuthClientConfig{ClientID: "id"}); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("builds offline consent url", func(t *testing.T) {
		cfg, err := GoogleOAuthConfig(shared.OAuthClientConfig{
			ClientID: "id", ClientSecret: "secret", RedirectURI: "http://127.0.0.1:8000/google_callback",
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(cfg.Scopes) != 1 || cfg.Scopes[0] != YouTubeScope {
			t.Errorf("unexpected scopes %v", cfg.Scopes)
		}

		u := GoogleAuthURL(cfg, "state-1")
		for _, want := range []string{"access_type=offline", "prompt=consent", "state=state-1"} {
			if !strings.Contains(u, want) {
				t.Errorf("expected %q in %s", want, u)
			}
		}
	})
}
