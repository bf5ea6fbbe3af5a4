package domain

import "context"

// LLM generates text from a prompt using a (fine-tuned) model adapter.
type LLM interface {
	Complete(ctx context.Context, prompt string, opts CompletionOptions) (Completion, error)
}

// CompletionOptions tune a single generation call.
type CompletionOptions struct {
	MaxTokens   int
	Temperature float32
}

// Completion is the generated text with usage where the provider reports it.
type Completion struct {
	Text             string
	FinishReason     string
	PromptTokens     int
	CompletionTokens int
}
