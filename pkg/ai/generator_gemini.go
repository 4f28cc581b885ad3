package ai

import "context"

// GeminiGenerator wraps GeminiClient with a fixed model and sampling config.
type GeminiGenerator struct {
	client *GeminiClient
	model  string
	cfg    GenerationConfig
}

// NewGeminiGenerator builds a Gemini-based TextGenerator.
func NewGeminiGenerator(client *GeminiClient, model string, cfg GenerationConfig) *GeminiGenerator {
	return &GeminiGenerator{client: client, model: model, cfg: cfg}
}

// GenerateText implements TextGenerator using Gemini.
func (g *GeminiGenerator) GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return g.client.GenerateText(ctx, g.model, systemPrompt, userPrompt, g.cfg)
}
