package domain

import "fmt"

// LLMSettings bind generation to a model adapter.
type LLMSettings struct {
	Provider    string
	AdapterID   string
	MaxTokens   int
	Temperature float32
}

// EmbeddingSettings select the embedding model.
type EmbeddingSettings struct {
	Provider         string
	ModelSlug        string
	QueryInstruction string
}

// RetrievalConfig bundles everything the indexer and query engine need.
// Built per session and passed explicitly; nothing reads it from package state.
type RetrievalConfig struct {
	LLM          LLMSettings
	Embedding    EmbeddingSettings
	ChunkSize    int
	ChunkOverlap int
	TopK         int
}

// Validate rejects configurations the pipeline cannot run with.
func (c RetrievalConfig) Validate() error {
	switch {
	case c.LLM.AdapterID == "":
		return fmt.Errorf("%w: llm adapter id is required", ErrInvalidConfig)
	case c.LLM.MaxTokens <= 0:
		return fmt.Errorf("%w: llm max tokens must be positive, got %d", ErrInvalidConfig, c.LLM.MaxTokens)
	case c.Embedding.ModelSlug == "":
		return fmt.Errorf("%w: embedding model slug is required", ErrInvalidConfig)
	case c.ChunkSize <= 0:
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidConfig, c.ChunkSize)
	case c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize:
		return fmt.Errorf("%w: chunk overlap must be in [0, %d), got %d", ErrInvalidConfig, c.ChunkSize, c.ChunkOverlap)
	case c.TopK <= 0:
		return fmt.Errorf("%w: top k must be positive, got %d", ErrInvalidConfig, c.TopK)
	}
	return nil
}

// WithAdapter returns a copy bound to another adapter.
func (c RetrievalConfig) WithAdapter(adapterID string) RetrievalConfig {
	c.LLM.AdapterID = adapterID
	return c
}
