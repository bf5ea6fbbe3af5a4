package chat

import (
	"context"

	"github.com/kailas-cloud/pdfchat/internal/domain"
)

// Loader extracts page text from uploaded bytes.
type Loader interface {
	Load(ctx context.Context, filename string, data []byte) ([]domain.Page, error)
}

// Models hands out model clients for a retrieval configuration.
type Models interface {
	Embedder(settings domain.EmbeddingSettings) domain.Embedder
	LLM(settings domain.LLMSettings) domain.LLM
}
