package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func text(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(body))
	})
}

func TestBasicRouter(t *testing.T) {
	router := NewBasicRouter()
	router.Handle(http.MethodGet, "/items", text("list"))
	router.Handle(http.MethodPost, "/items", text("create"))
	router.Use(CORS([]string{"http://127.0.0.1:5173"}))

	serve := func(method, path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		req.Header.Set("Origin", "http://127.0.0.1:5173")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	tests := []struct {
		name   string
		method string
		path   string
		code   int
		body   string
	}{
		{"get", http.MethodGet, "/items", http.StatusOK, "list"},
		{"post same path", http.MethodPost, "/items", http.StatusOK, "create"},
		{"method not allowed", http.MethodDelete, "/items", http.StatusMethodNotAllowed, "method not allowed"},
		{"not found", http.MethodGet, "/nope", http.StatusNotFound, "not found"},
		{"preflight", http.MethodOptions, "/items", http.StatusNoContent, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(tt.method, tt.path)
			if rec.Code != tt.code {
				t.Fatalf("expected %d, got %d", tt.code, rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tt.body) {
				t.Errorf("expected body containing %q, got %q", tt.body, rec.Body.String())
			}
			if rec.Header().Get("Access-Control-Allow-Origin") == "" {
				t.Error("expected middleware added after registration to apply")
			}
		})
	}

	t.Run("allow header", func(t *testing.T) {
		if got := serve(http.MethodPut, "/items").Header().Get("Allow"); got != "GET, POST" {
			t.Errorf("expected Allow 'GET, POST', got %q", got)
		}
	})
}
