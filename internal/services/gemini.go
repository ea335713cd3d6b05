// Gemini generative and embedding models.
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/melodymind/internal/shared"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	defaultGeminiModel    = "gemini-2.5-flash"
	defaultEmbeddingModel = "text-embedding-004"

	// embedBatchLimit is the most texts the API embeds per request.
	embedBatchLimit = 100
)

// GeminiClient implements structured generation and text embedding.
type GeminiClient struct {
	client         *genai.Client
	model          string
	embeddingModel string
	logger         *log.Logger
}

// NewGeminiClient connects to the Gemini API.
func NewGeminiClient(ctx context.Context, cfg shared.GeminiConfig, logger *log.Logger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: gemini api_key", shared.ErrMissingCredentials)
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	g := &GeminiClient{
		client:         client,
		model:          cfg.Model,
		embeddingModel: cfg.EmbeddingModel,
		logger:         shared.WithLogger(logger, "component", "gemini"),
	}
	if g.model == "" {
		g.model = defaultGeminiModel
	}
	if g.embeddingModel == "" {
		g.embeddingModel = defaultEmbeddingModel
	}
	return g, nil
}

// Close releases the underlying connection.
func (g *GeminiClient) Close() error {
	return g.client.Close()
}

// Generate sends prompt and returns the JSON text conforming to schema.
func (g *GeminiClient) Generate(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(0.7)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = schema

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("%w: gemini: %v", shared.ErrAPIRequest, err)
	}

	for i, cand := range resp.Candidates {
		if cand.FinishReason != genai.FinishReasonStop {
			g.logger.Warn("generation stopped early", "candidate", i, "reason", cand.FinishReason)
		}
	}

	text := extractText(resp)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: empty model response", shared.ErrSynthesisParse)
	}
	return text, nil
}

// Encode embeds texts in batches, preserving order.
func (g *GeminiClient) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	em := g.client.EmbeddingModel(g.embeddingModel)

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += embedBatchLimit {
		end := min(start+embedBatchLimit, len(texts))

		batch := em.NewBatch()
		for _, t := range texts[start:end] {
			batch.AddContent(genai.Text(t))
		}

		res, err := em.BatchEmbedContents(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrEmbeddingFailure, err)
		}
		if len(res.Embeddings) != end-start {
			return nil, fmt.Errorf("%w: expected %d embeddings, got %d", shared.ErrEmbeddingFailure, end-start, len(res.Embeddings))
		}
		for _, e := range res.Embeddings {
			out = append(out, e.Values)
		}
	}
	return out, nil
}

func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				text.WriteString(string(t))
			}
		}
	}
	return text.String()
}
