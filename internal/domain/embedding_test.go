package domain

import (
	"context"
	"errors"
	"testing"
)

type stubEmbedder struct {
	result EmbeddingResult
	err    error
	got    []string
}

func (s *stubEmbedder) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	s.got = append(s.got, text)
	return s.result, s.err
}

type stubBatchEmbedder struct {
	stubEmbedder
	batchResult BatchEmbeddingResult
	batchErr    error
	batchTexts  []string
}

func (s *stubBatchEmbedder) BatchEmbed(_ context.Context, texts []string) (BatchEmbeddingResult, error) {
	s.batchTexts = texts
	return s.batchResult, s.batchErr
}

func TestBatchFallback_Success(t *testing.T) {
	inner := &stubEmbedder{result: EmbeddingResult{
		Embedding:    []float32{0.1, 0.2},
		PromptTokens: 5,
		TotalTokens:  5,
	}}
	res, err := BatchFallback(context.Background(), inner, []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embeddings) != 3 {
		t.Fatalf("expected 3 embeddings, got %d", len(res.Embeddings))
	}
	if res.TotalTokens != 15 {
		t.Errorf("expected TotalTokens=15, got %d", res.TotalTokens)
	}
}

func TestBatchFallback_Error(t *testing.T) {
	innerErr := errors.New("fail")
	inner := &stubEmbedder{err: innerErr}
	_, err := BatchFallback(context.Background(), inner, []string{"a"})
	if !errors.Is(err, innerErr) {
		t.Errorf("expected wrapped inner error, got %v", err)
	}
}

func TestEmbedAll_PrefersNativeBatch(t *testing.T) {
	inner := &stubBatchEmbedder{batchResult: BatchEmbeddingResult{Embeddings: [][]float32{{1}, {2}}}}

	res, err := EmbedAll(context.Background(), inner, []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embeddings) != 2 {
		t.Fatalf("expected 2 embeddings, got %d", len(res.Embeddings))
	}
	if len(inner.got) != 0 {
		t.Errorf("single Embed should not be called, got %v", inner.got)
	}
}

func TestQueryEmbedder_PrefixesQueriesOnly(t *testing.T) {
	inner := &stubBatchEmbedder{
		stubEmbedder: stubEmbedder{result: EmbeddingResult{Embedding: []float32{0.5}}},
		batchResult:  BatchEmbeddingResult{Embeddings: [][]float32{{0.1}, {0.2}}},
	}
	emb := NewQueryEmbedder(inner, "Represent this sentence for searching relevant passages: ")

	if _, err := emb.Embed(context.Background(), "what is due?"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.got[0] != "Represent this sentence for searching relevant passages: what is due?" {
		t.Errorf("expected prefixed query, got %q", inner.got[0])
	}

	if _, err := emb.BatchEmbed(context.Background(), []string{"p1", "p2"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.batchTexts[0] != "p1" || inner.batchTexts[1] != "p2" {
		t.Errorf("passages must not be prefixed, got %v", inner.batchTexts)
	}
}

func TestQueryEmbedder_ErrorPropagation(t *testing.T) {
	innerErr := errors.New("provider down")
	emb := NewQueryEmbedder(&stubEmbedder{err: innerErr}, "q: ")

	_, err := emb.Embed(context.Background(), "hello")
	if !errors.Is(err, innerErr) {
		t.Errorf("expected wrapped inner error, got %v", err)
	}
}

func TestRequestUsage(t *testing.T) {
	if UsageFromContext(context.Background()) != nil {
		t.Fatal("expected nil usage")
	}
	var nilUsage *RequestUsage
	nilUsage.AddEmbeddingTokens(3) // must not panic

	ctx, u := NewContextWithUsage(context.Background())
	UsageFromContext(ctx).AddEmbeddingTokens(3)
	UsageFromContext(ctx).AddCompletionTokens(7)
	if u.EmbeddingTokens != 3 || u.CompletionTokens != 7 {
		t.Errorf("unexpected usage %+v", *u)
	}
}
