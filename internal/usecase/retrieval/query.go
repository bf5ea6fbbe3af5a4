package retrieval

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/pdfchat/internal/domain"
	"github.com/kailas-cloud/pdfchat/internal/logger"
)

// DefaultTopK is the number of chunks placed in the prompt context.
const DefaultTopK = 2

const qaTemplate = "Context information is below.\n" +
	"---------------------\n" +
	"%s\n" +
	"---------------------\n" +
	"Given the context information and not prior knowledge, answer the query.\n" +
	"Query: %s\n" +
	"Answer: "

// BuildPrompt renders the question-answering prompt for the retrieved chunks.
func BuildPrompt(hits []domain.ScoredChunk, query string) string {
	parts := make([]string, len(hits))
	for i, h := range hits {
		parts[i] = h.Text
	}
	return fmt.Sprintf(qaTemplate, strings.Join(parts, "\n\n"), query)
}

// QueryEngine answers questions from one index with one adapter.
type QueryEngine struct {
	index    Index
	embedder domain.Embedder
	llm      domain.LLM
	cfg      domain.RetrievalConfig
	logger   *zap.Logger
}

// NewQueryEngine binds an index to the models in cfg.
func NewQueryEngine(
	index Index, embedder domain.Embedder, llm domain.LLM, cfg domain.RetrievalConfig, l *zap.Logger,
) *QueryEngine {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	return &QueryEngine{index: index, embedder: embedder, llm: llm, cfg: cfg, logger: l}
}

// Index returns the underlying index.
func (q *QueryEngine) Index() Index { return q.index }

// Config returns the configuration the engine was built with.
func (q *QueryEngine) Config() domain.RetrievalConfig { return q.cfg }

// Query retrieves context for text and returns the model's answer.
func (q *QueryEngine) Query(ctx context.Context, text string) (string, error) {
	log := logger.FromContextOr(ctx, q.logger)
	start := time.Now()

	emb, err := q.embedder.Embed(ctx, text)
	if err != nil {
		return "", fmt.Errorf("embed query: %w", err)
	}

	hits, err := q.index.Search(ctx, emb.Embedding, q.cfg.TopK)
	if err != nil {
		return "", fmt.Errorf("search index: %w", err)
	}

	out, err := q.llm.Complete(ctx, BuildPrompt(hits, text), domain.CompletionOptions{
		MaxTokens:   q.cfg.LLM.MaxTokens,
		Temperature: q.cfg.LLM.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("complete: %w", err)
	}

	log.Debug("Query answered",
		zap.String("adapter_id", q.cfg.LLM.AdapterID),
		zap.Int("hits", len(hits)),
		zap.String("finish_reason", out.FinishReason),
		zap.Duration("duration", time.Since(start)),
	)
	return strings.TrimSpace(out.Text), nil
}
