package chat

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/kailas-cloud/pdfchat/internal/domain"
)

// textLoader treats everything after the PDF header as page text, one page per "\f".
type textLoader struct {
	err   error
	calls int
}

func (l *textLoader) Load(_ context.Context, _ string, data []byte) ([]domain.Page, error) {
	l.calls++
	if l.err != nil {
		return nil, l.err
	}
	body := strings.TrimPrefix(string(data), "%PDF-1.4\n")
	var pages []domain.Page
	for i, p := range strings.Split(body, "\f") {
		if strings.TrimSpace(p) != "" {
			pages = append(pages, domain.Page{Number: i + 1, Text: p})
		}
	}
	if len(pages) == 0 {
		return nil, domain.ErrInvalidDocument
	}
	return pages, nil
}

func pdfUpload(name, text string) Upload {
	return Upload{Filename: name, ContentType: "application/pdf", Data: []byte("%PDF-1.4\n" + text)}
}

var vocab = []string{"refund", "warranty", "deadline", "penalty", "training"}

type keywordEmbedder struct {
	err error
}

func (e *keywordEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	if e.err != nil {
		return domain.EmbeddingResult{}, e.err
	}
	v := make([]float32, len(vocab)+1)
	v[len(vocab)] = 0.01 // keeps zero-keyword texts off the origin
	lower := strings.ToLower(text)
	for i, w := range vocab {
		if strings.Contains(lower, w) {
			v[i] = 1
		}
	}
	return domain.EmbeddingResult{Embedding: v}, nil
}

// echoLLM answers with the context block so tests can see what was retrieved.
type echoLLM struct {
	adapterID string
	err       error
	mu        sync.Mutex
	prompts   []string
}

func (l *echoLLM) Complete(_ context.Context, prompt string, _ domain.CompletionOptions) (domain.Completion, error) {
	l.mu.Lock()
	l.prompts = append(l.prompts, prompt)
	l.mu.Unlock()
	if l.err != nil {
		return domain.Completion{}, l.err
	}
	ctxBlock := prompt
	if parts := strings.Split(prompt, "---------------------\n"); len(parts) >= 3 {
		ctxBlock = parts[1]
	}
	return domain.Completion{Text: "[" + l.adapterID + "] " + ctxBlock}, nil
}

type fakeModels struct {
	embedder *keywordEmbedder
	llmErr   error
	mu       sync.Mutex
	llms     []*echoLLM
}

func newFakeModels() *fakeModels {
	return &fakeModels{embedder: &keywordEmbedder{}}
}

func (m *fakeModels) Embedder(_ domain.EmbeddingSettings) domain.Embedder { return m.embedder }

func (m *fakeModels) LLM(settings domain.LLMSettings) domain.LLM {
	m.mu.Lock()
	defer m.mu.Unlock()
	l := &echoLLM{adapterID: settings.AdapterID, err: m.llmErr}
	m.llms = append(m.llms, l)
	return l
}

var errBoom = errors.New("boom")
