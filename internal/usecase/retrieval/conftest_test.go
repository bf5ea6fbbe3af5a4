package retrieval

import (
	"context"
	"strings"

	"github.com/kailas-cloud/pdfchat/internal/domain"
)

// wordEmbedder maps text to a fixed-size vector of keyword hits.
type wordEmbedder struct {
	vocab      []string
	err        error
	embedTexts []string
}

func (e *wordEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	if e.err != nil {
		return domain.EmbeddingResult{}, e.err
	}
	e.embedTexts = append(e.embedTexts, text)
	return domain.EmbeddingResult{Embedding: e.vector(text)}, nil
}

func (e *wordEmbedder) vector(text string) []float32 {
	v := make([]float32, len(e.vocab))
	lower := strings.ToLower(text)
	for i, w := range e.vocab {
		if strings.Contains(lower, w) {
			v[i] = 1
		}
	}
	return v
}

type fakeIndex struct {
	chunks  []domain.Chunk
	vectors [][]float32
	addErr  error
	hits    []domain.ScoredChunk
	lastK   int
	dropped bool
}

func (f *fakeIndex) Add(_ context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.chunks = append(f.chunks, chunks...)
	f.vectors = append(f.vectors, vectors...)
	return nil
}

func (f *fakeIndex) Search(_ context.Context, _ []float32, k int) ([]domain.ScoredChunk, error) {
	f.lastK = k
	return f.hits, nil
}

func (f *fakeIndex) Drop(_ context.Context) error {
	f.dropped = true
	return nil
}

func (f *fakeIndex) Len() int { return len(f.chunks) }

type fakeFactory struct {
	index   *fakeIndex
	err     error
	gotName string
	gotDim  int
}

func (f *fakeFactory) New(_ context.Context, name string, dim int) (Index, error) {
	f.gotName, f.gotDim = name, dim
	if f.err != nil {
		return nil, f.err
	}
	return f.index, nil
}

type fakeLLM struct {
	prompt string
	opts   domain.CompletionOptions
	text   string
	err    error
}

func (l *fakeLLM) Complete(_ context.Context, prompt string, opts domain.CompletionOptions) (domain.Completion, error) {
	l.prompt, l.opts = prompt, opts
	if l.err != nil {
		return domain.Completion{}, l.err
	}
	return domain.Completion{Text: l.text}, nil
}
