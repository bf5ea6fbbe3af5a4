// Package retrieval builds a vector index over document chunks and answers
// questions against it with a completion model.
package retrieval

import (
	"context"

	"github.com/kailas-cloud/pdfchat/internal/domain"
)

// Index holds the embedded chunks of one document.
type Index interface {
	Add(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error
	Search(ctx context.Context, vector []float32, k int) ([]domain.ScoredChunk, error)
	Drop(ctx context.Context) error
	Len() int
}

// IndexFactory creates an empty index sized to the embedding dimension.
type IndexFactory interface {
	New(ctx context.Context, name string, dim int) (Index, error)
}
