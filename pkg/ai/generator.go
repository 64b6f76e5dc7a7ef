package ai

import "context"

// TextGenerator generates text from a system prompt and user prompt.
// The production implementation talks to an OpenAI-compatible chat
// completions endpoint; tests substitute stubs.
type TextGenerator interface {
	GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
