package app

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/pdfchat/internal/config"
	"github.com/kailas-cloud/pdfchat/internal/db"
	"github.com/kailas-cloud/pdfchat/internal/domain"
	"github.com/kailas-cloud/pdfchat/internal/metrics"
	"github.com/kailas-cloud/pdfchat/internal/repository/embcache"
	"github.com/kailas-cloud/pdfchat/internal/transport/gradient"
	openaiT "github.com/kailas-cloud/pdfchat/internal/transport/openai"
	"github.com/kailas-cloud/pdfchat/internal/usecase/chat"
	"github.com/kailas-cloud/pdfchat/internal/usecase/completion"
	embeddinguc "github.com/kailas-cloud/pdfchat/internal/usecase/embedding"
)

var _ chat.Models = (*Models)(nil)

// Models builds provider clients for a session's retrieval configuration.
// Embedder chains are memoized per provider, slug and instruction.
type Models struct {
	platform config.PlatformConfig
	gradient *gradient.Client
	cache    db.KVStore // nil disables the embedding cache
	prefix   string
	logger   *zap.Logger

	mu        sync.Mutex
	embedders map[string]domain.Embedder
}

// NewModels creates the provider factory. gc may be nil when no setting selects gradient.
func NewModels(
	platform config.PlatformConfig, gc *gradient.Client, cache db.KVStore, prefix string, logger *zap.Logger,
) *Models {
	return &Models{
		platform:  platform,
		gradient:  gc,
		cache:     cache,
		prefix:    prefix,
		logger:    logger,
		embedders: make(map[string]domain.Embedder),
	}
}

// Embedder returns the chain: provider -> cache -> instrumented -> query instruction.
func (m *Models) Embedder(s domain.EmbeddingSettings) domain.Embedder {
	key := s.Provider + "|" + s.ModelSlug + "|" + s.QueryInstruction

	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.embedders[key]; ok {
		return e
	}

	var e domain.Embedder
	switch s.Provider {
	case config.ProviderOpenAI:
		e = openaiT.NewEmbedder(&openaiT.Config{
			APIKey:  m.platform.AccessToken,
			BaseURL: m.platform.BaseURL,
			Model:   s.ModelSlug,
			Logger:  m.logger,
		})
	default:
		e = m.gradient.NewEmbedder(s.ModelSlug)
	}

	// The cache sits below the instrumented layer so hits report zero tokens.
	if m.cache != nil {
		e = embcache.New(e, m.cache, m.prefix, s.ModelSlug, metrics.EmbeddingCacheTotal, m.logger)
	}
	e = embeddinguc.NewInstrumentedEmbedder(e, s.Provider, s.ModelSlug, m.logger)
	if s.QueryInstruction != "" {
		e = domain.NewQueryEmbedder(e, s.QueryInstruction)
	}

	m.embedders[key] = e
	return e
}

// LLM returns a completion client bound to the adapter in s.
func (m *Models) LLM(s domain.LLMSettings) domain.LLM {
	var llm domain.LLM
	switch s.Provider {
	case config.ProviderOpenAI:
		llm = openaiT.NewLLM(&openaiT.Config{
			APIKey:  m.platform.AccessToken,
			BaseURL: m.platform.BaseURL,
			Model:   s.AdapterID,
			Logger:  m.logger,
		})
	default:
		llm = m.gradient.NewLLM(s.AdapterID)
	}
	return completion.NewInstrumentedLLM(llm, s.Provider, s.AdapterID, m.logger)
}

// newGradientClient builds the platform client when any setting uses gradient.
func newGradientClient(cfg *config.Config, logger *zap.Logger) (*gradient.Client, error) {
	if cfg.Platform.Provider != config.ProviderGradient && cfg.Embedding.Provider != config.ProviderGradient {
		return nil, nil
	}
	// base_url belongs to whichever provider the platform section names
	baseURL := ""
	if cfg.Platform.Provider == config.ProviderGradient {
		baseURL = cfg.Platform.BaseURL
	}
	gc, err := gradient.NewClient(gradient.Config{
		BaseURL:     baseURL,
		AccessToken: cfg.Platform.AccessToken,
		WorkspaceID: cfg.Platform.WorkspaceID,
		Timeout:     cfg.PlatformTimeout(),
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("gradient client: %w", err)
	}
	return gc, nil
}
