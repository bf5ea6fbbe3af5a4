package retrieval

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/pdfchat/internal/domain"
	"github.com/kailas-cloud/pdfchat/internal/logger"
)

// Indexer embeds chunks and loads them into a fresh index.
type Indexer struct {
	embedder domain.Embedder
	factory  IndexFactory
	logger   *zap.Logger
}

// NewIndexer creates an indexer.
func NewIndexer(embedder domain.Embedder, factory IndexFactory, l *zap.Logger) *Indexer {
	return &Indexer{embedder: embedder, factory: factory, logger: l}
}

// Build embeds all chunks and returns a populated index. On failure nothing is left behind.
func (ix *Indexer) Build(ctx context.Context, name string, chunks []domain.Chunk) (Index, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no extractable text: %w", domain.ErrInvalidDocument)
	}
	log := logger.FromContextOr(ctx, ix.logger)
	start := time.Now()

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	res, err := domain.EmbedAll(ctx, ix.embedder, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(res.Embeddings) != len(chunks) {
		return nil, fmt.Errorf("embed chunks: expected %d vectors, got %d: %w",
			len(chunks), len(res.Embeddings), domain.ErrEmbeddingProviderError)
	}

	dim := len(res.Embeddings[0])
	idx, err := ix.factory.New(ctx, name, dim)
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}

	if err := idx.Add(ctx, chunks, res.Embeddings); err != nil {
		if dropErr := idx.Drop(context.WithoutCancel(ctx)); dropErr != nil {
			log.Warn("Failed to drop partial index", zap.String("index", name), zap.Error(dropErr))
		}
		return nil, fmt.Errorf("add chunks: %w", err)
	}

	log.Info("Index built",
		zap.String("index", name),
		zap.Int("chunks", len(chunks)),
		zap.Int("dimensions", dim),
		zap.Duration("duration", time.Since(start)),
	)
	return idx, nil
}
