package gradient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/kailas-cloud/pdfchat/internal/domain"
	"github.com/kailas-cloud/pdfchat/internal/metrics"
)

type embedRequest struct {
	Inputs []embedInput `json:"inputs"`
}

type embedInput struct {
	Input string `json:"input"`
}

type embedResponse struct {
	Embeddings []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"embeddings"`
}

// Embedder vectorizes text with a hosted embedding model.
type Embedder struct {
	client *Client
	slug   string
}

// NewEmbedder binds the client to an embedding model slug.
func (c *Client) NewEmbedder(slug string) *Embedder {
	return &Embedder{client: c, slug: slug}
}

// Embed implements domain.Embedder.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	res, err := e.BatchEmbed(ctx, []string{text})
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{Embedding: res.Embeddings[0]}, nil
}

// BatchEmbed implements domain.BatchEmbedder. The platform does not report token usage.
func (e *Embedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}

	in := embedRequest{Inputs: make([]embedInput, len(texts))}
	for i, t := range texts {
		in.Inputs[i] = embedInput{Input: t}
	}

	start := time.Now()
	var out embedResponse
	err := e.client.do(ctx, http.MethodPost, "/embeddings/"+url.PathEscape(e.slug), nil, in, &out,
		domain.ErrEmbeddingProviderError)
	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(providerName, e.slug, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(providerName, e.slug, "api_error").Inc()
		return domain.BatchEmbeddingResult{}, fmt.Errorf("embed with %s: %w", e.slug, err)
	}
	if len(out.Embeddings) != len(texts) {
		metrics.EmbeddingRequestsTotal.WithLabelValues(providerName, e.slug, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(providerName, e.slug, "count_mismatch").Inc()
		return domain.BatchEmbeddingResult{}, fmt.Errorf("expected %d embeddings, got %d: %w",
			len(texts), len(out.Embeddings), domain.ErrEmbeddingProviderError)
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(providerName, e.slug, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(providerName, e.slug).Observe(time.Since(start).Seconds())

	embeddings := make([][]float32, len(texts))
	for i, item := range out.Embeddings {
		idx := item.Index
		if idx < 0 || idx >= len(texts) {
			idx = i
		}
		embeddings[idx] = item.Embedding
	}
	for i, v := range embeddings {
		if len(v) == 0 {
			return domain.BatchEmbeddingResult{}, fmt.Errorf("missing embedding for input %d: %w",
				i, domain.ErrEmbeddingProviderError)
		}
	}

	return domain.BatchEmbeddingResult{Embeddings: embeddings}, nil
}

// HealthCheck delegates to the client.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	return e.client.HealthCheck(ctx)
}
