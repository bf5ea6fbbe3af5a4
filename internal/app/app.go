// Package app wires configuration into the chat services shared by the HTTP
// server and the terminal UI.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/pdfchat/internal/config"
	"github.com/kailas-cloud/pdfchat/internal/db"
	dbValkey "github.com/kailas-cloud/pdfchat/internal/db/valkey"
	"github.com/kailas-cloud/pdfchat/internal/domain"
	"github.com/kailas-cloud/pdfchat/internal/loader"
	"github.com/kailas-cloud/pdfchat/internal/repository/chunkindex"
	"github.com/kailas-cloud/pdfchat/internal/usecase/chat"
	healthuc "github.com/kailas-cloud/pdfchat/internal/usecase/health"
	"github.com/kailas-cloud/pdfchat/internal/usecase/retrieval"
)

// Chat holds the services of a running chat process.
type Chat struct {
	Service *chat.Service
	Health  *healthuc.Service
	Models  *Models

	store  db.Store
	logger *zap.Logger
}

// RetrievalConfig builds the per-session retrieval template from cfg.
func RetrievalConfig(cfg *config.Config, adapterID string) domain.RetrievalConfig {
	return domain.RetrievalConfig{
		LLM: domain.LLMSettings{
			Provider:    cfg.Platform.Provider,
			AdapterID:   adapterID,
			MaxTokens:   cfg.LLM.MaxTokens,
			Temperature: cfg.LLM.Temperature,
		},
		Embedding: domain.EmbeddingSettings{
			Provider:         cfg.Embedding.Provider,
			ModelSlug:        cfg.Embedding.ModelSlug,
			QueryInstruction: cfg.Embedding.QueryInstruction,
		},
		ChunkSize:    cfg.Index.ChunkSize,
		ChunkOverlap: cfg.Index.Overlap(),
		TopK:         cfg.Index.TopK,
	}
}

// NewChat connects to the configured backends and builds the chat service.
func NewChat(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Chat, error) {
	a := &Chat{logger: logger}

	if cfg.UsesDatabase() {
		store, err := dbValkey.NewStore(dbValkey.Config{
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
			Driver:   cfg.Database.Driver,
		})
		if err != nil {
			return nil, fmt.Errorf("create database store: %w", err)
		}
		if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
			store.Close()
			return nil, fmt.Errorf("database not ready: %w", err)
		}
		a.store = store
		logger.Info("Connected to database",
			zap.String("driver", cfg.Database.Driver),
			zap.Strings("addrs", cfg.Database.Addrs),
		)
	}

	gc, err := newGradientClient(cfg, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	// Pass a nil interface, not a typed nil pointer, when caching is off.
	var cache db.KVStore
	if cfg.Embedding.Cache && a.store != nil {
		cache = a.store
	}
	a.Models = NewModels(cfg.Platform, gc, cache, cfg.Index.KeyPrefix, logger)

	var factory retrieval.IndexFactory
	switch cfg.Index.Driver {
	case config.IndexDriverValkey:
		factory = chunkindex.NewValkeyFactory(
			a.store, cfg.Index.KeyPrefix, cfg.Index.HNSWM, cfg.Index.HNSWEFConstruct, logger,
		)
	default:
		factory = chunkindex.NewMemoryFactory()
	}

	adapterID, err := cfg.ResolveAdapterID()
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("resolve adapter: %w", err)
	}
	if adapterID == "" {
		logger.Warn("No fine-tuned adapter configured; documents cannot be processed until one is selected")
	}

	a.Service = chat.New(loader.NewPDF(logger), a.Models, factory, chat.Options{
		Config:         RetrievalConfig(cfg, adapterID),
		MaxUploadBytes: int64(cfg.HTTP.MaxUploadMB) << 20,
	}, logger)

	var pinger healthuc.DBPinger
	if a.store != nil {
		pinger = a.store
	}
	probe := domain.EmbeddingSettings{Provider: cfg.Embedding.Provider, ModelSlug: cfg.Embedding.ModelSlug}
	a.Health = healthuc.New(pinger, newEmbeddingHealthChecker(a.Models.Embedder(probe)), logger)

	logger.Info("Chat service ready",
		zap.String("provider", cfg.Platform.Provider),
		zap.String("embedding_model", cfg.Embedding.ModelSlug),
		zap.String("index_driver", cfg.Index.Driver),
		zap.String("adapter_id", adapterID),
	)
	return a, nil
}

// Close drops every session's index and releases the database connection.
func (a *Chat) Close() {
	if a.Service != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		a.Service.Close(ctx)
		cancel()
	}
	if a.store != nil {
		a.store.Close()
	}
}

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}
