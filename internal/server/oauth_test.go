package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/desertthunder/melodymind/internal/shared"
	"golang.org/x/oauth2"
)

func exchangeOK(_ context.Context, code string) (*oauth2.Token, error) {
	return &oauth2.Token{AccessToken: "tok-" + code}, nil
}

func TestOAuthHandler(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	t.Run("delivers token", func(t *testing.T) {
		h := NewOAuthHandler("/google_callback", "s1", exchangeOK)
		if got := h.Routes(); len(got) != 1 || got[0] != "/google_callback" {
			t.Fatalf("unexpected routes %v", got)
		}

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/google_callback?state=s1&code=c", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		tok, err := h.Await(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tok.AccessToken != "tok-c" {
			t.Errorf("unexpected token %q", tok.AccessToken)
		}
	})

	t.Run("default route", func(t *testing.T) {
		if got := NewOAuthHandler("", "s", exchangeOK).Routes()[0]; got != "/callback" {
			t.Errorf("expected /callback, got %q", got)
		}
	})

	t.Run("state mismatch", func(t *testing.T) {
		h := NewOAuthHandler("", "s1", exchangeOK)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=other&code=c", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if _, err := h.Await(ctx); !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
	})

	t.Run("exchange failure", func(t *testing.T) {
		h := NewOAuthHandler("", "s1", func(context.Context, string) (*oauth2.Token, error) {
			return nil, errors.New("invalid_grant")
		})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=s1&code=c", nil))
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
		if _, err := h.Await(ctx); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("second callback rejected", func(t *testing.T) {
		h := NewOAuthHandler("", "s1", exchangeOK)
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/callback?state=s1&code=c", nil))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=s1&code=c", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("await honours context", func(t *testing.T) {
		h := NewOAuthHandler("", "s1", exchangeOK)
		short, stop := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer stop()
		if _, err := h.Await(short); !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
	})

	t.Run("states are random", func(t *testing.T) {
		a, b := NewState(), NewState()
		if a == b || len(a) != 32 {
			t.Errorf("unexpected states %q %q", a, b)
		}
	})
}

func TestNewHTTPServer(t *testing.T) {
	tests := []struct {
		cfg  shared.ServerConfig
		addr string
	}{
		{shared.ServerConfig{}, "127.0.0.1:8000"},
		{shared.ServerConfig{Host: "0.0.0.0", Port: 9000}, "0.0.0.0:9000"},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			if got := NewHTTPServer(tt.cfg, http.NotFoundHandler()).Addr; got != tt.addr {
				t.Errorf("expected %s, got %s", tt.addr, got)
			}
		})
	}
}
