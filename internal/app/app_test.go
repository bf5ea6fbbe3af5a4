package app

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/pdfchat/internal/config"
	"github.com/kailas-cloud/pdfchat/internal/domain"
	"github.com/kailas-cloud/pdfchat/internal/transport/gradient"
	"github.com/kailas-cloud/pdfchat/internal/usecase/completion"
	embeddinguc "github.com/kailas-cloud/pdfchat/internal/usecase/embedding"
)

func testConfig() config.Config {
	cfg := config.Config{
		HTTP:     config.HTTPConfig{Port: 8080},
		Platform: config.PlatformConfig{AccessToken: "token", WorkspaceID: "ws"},
		LLM:      config.LLMConfig{AdapterID: "adapter-1"},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestRetrievalConfig(t *testing.T) {
	cfg := testConfig()
	rc := RetrievalConfig(&cfg, "adapter-1")

	if err := rc.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if rc.LLM.AdapterID != "adapter-1" || rc.LLM.MaxTokens != 400 || rc.LLM.Provider != config.ProviderGradient {
		t.Errorf("unexpected llm settings: %+v", rc.LLM)
	}
	if rc.Embedding.ModelSlug != "bge-large" || rc.ChunkSize != 256 || rc.TopK != 2 {
		t.Errorf("unexpected retrieval settings: %+v", rc)
	}
}

func newTestModels(t *testing.T) *Models {
	t.Helper()
	gc, err := gradient.NewClient(gradient.Config{
		BaseURL: "http://127.0.0.1:1", AccessToken: "token", WorkspaceID: "ws",
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	cfg := testConfig()
	return NewModels(cfg.Platform, gc, nil, cfg.Index.KeyPrefix, zap.NewNop())
}

func TestModels_EmbedderMemoized(t *testing.T) {
	m := newTestModels(t)
	s := domain.EmbeddingSettings{Provider: config.ProviderGradient, ModelSlug: "bge-large"}

	a := m.Embedder(s)
	if a != m.Embedder(s) {
		t.Error("expected the same embedder for identical settings")
	}
	if _, ok := a.(*embeddinguc.InstrumentedEmbedder); !ok {
		t.Errorf("expected instrumented embedder, got %T", a)
	}

	s.QueryInstruction = "Represent this question: "
	q := m.Embedder(s)
	if _, ok := q.(*domain.QueryEmbedder); !ok {
		t.Errorf("expected query embedder outermost, got %T", q)
	}
}

func TestModels_LLM(t *testing.T) {
	m := newTestModels(t)
	for _, provider := range []string{config.ProviderGradient, config.ProviderOpenAI} {
		llm := m.LLM(domain.LLMSettings{Provider: provider, AdapterID: "a"})
		if _, ok := llm.(*completion.InstrumentedLLM); !ok {
			t.Errorf("%s: expected instrumented llm, got %T", provider, llm)
		}
	}
}

func TestNewChat_MemoryDriver(t *testing.T) {
	cfg := testConfig()
	cfg.Platform.BaseURL = "http://127.0.0.1:1"

	a, err := NewChat(context.Background(), &cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("NewChat: %v", err)
	}
	defer a.Close()

	sess := a.Service.Create(context.Background())
	if sess.AdapterID != "adapter-1" {
		t.Errorf("expected configured adapter, got %q", sess.AdapterID)
	}
	if len(a.Service.Questions()) != 16 {
		t.Errorf("expected preset questions")
	}
}
