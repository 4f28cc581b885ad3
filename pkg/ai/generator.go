package ai

import "context"

// TextGenerator generates text from a system prompt and user prompt.
// All providers (Gemini, OpenAI-compatible) implement this interface.
type TextGenerator interface {
	GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// GenerationConfig tunes sampling for a generator. Zero values are omitted
// from the provider request, leaving the provider default in effect.
type GenerationConfig struct {
	Temperature     float64
	TopP            float64
	TopK            int
	MaxOutputTokens int
}
