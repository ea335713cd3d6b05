package trivia

import (
	"context"

	"github.com/google/generative-ai-go/genai"
)

// Generator produces JSON text that conforms to schema.
type Generator interface {
	Generate(ctx context.Context, prompt string, schema *genai.Schema) (string, error)
}

// QuestionSchema is the response schema for a single quiz question.
func QuestionSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"question": {
				Type:        genai.TypeString,
				Description: "The text of the question.",
			},
			"options": {
				Type:        genai.TypeArray,
				Description: "Exactly four multiple-choice options.",
				Items:       &genai.Schema{Type: genai.TypeString},
			},
			"correct_answer": {
				Type:        genai.TypeString,
				Description: "The correct answer, copied verbatim from the options.",
			},
			"explanation": {
				Type:        genai.TypeString,
				Description: "A brief explanation of why the answer is correct.",
			},
		},
		Required: []string{"question", "options", "correct_answer", "explanation"},
	}
}
