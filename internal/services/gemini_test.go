package services

import (
	"context"
	"errors"
	"testing"

	"github.com/desertthunder/melodymind/internal/shared"
	"github.com/google/generative-ai-go/genai"
)

func TestNewGeminiClient(t *testing.T) {
	if _, err := NewGeminiClient(context.Background(), shared.GeminiConfig{}, nil); !errors.Is(err, shared.ErrMissingCredentials) {
		t.Errorf("expected ErrMissingCredentials, got %v", err)
	}
}

func TestExtractText(t *testing.T) {
	tests := []struct {
		name string
		resp *genai.GenerateContentResponse
		want string
	}{
		{name: "nil response", resp: nil, want: ""},
		{name: "no candidates", resp: &genai.GenerateContentResponse{}, want: ""},
		{
			name: "joins text parts",
			resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{
				{Content: &genai.Content{Parts: []genai.Part{genai.Text(`{"question":`), genai.Text(`"q"}`)}}},
			}},
			want: `{"question":"q"}`,
		},
		{
			name: "skips empty content and non-text parts",
			resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{
				{Content: nil},
				{Content: &genai.Content{Parts: []genai.Part{genai.Blob{MIMEType: "image/png"}, genai.Text("ok")}}},
			}},
			want: "ok",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractText(tt.resp); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
