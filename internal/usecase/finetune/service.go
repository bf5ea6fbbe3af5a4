// Package finetune creates a model adapter and trains it with repeated
// full-batch submissions of a labeled sample set.
package finetune

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/pdfchat/internal/domain"
	"github.com/kailas-cloud/pdfchat/internal/metrics"
)

// Defaults for a run.
const (
	DefaultBaseModelSlug = "llama2-7b-chat"
	DefaultAdapterName   = "FineTunedLlama2"
	DefaultIterations    = 5
	DefaultMaxTokens     = 200
	DefaultEmbeddingSlug = "bge-large"
	DefaultChunkSize     = 256
)

// Operation names carried by returned errors.
const (
	OpValidate      = "validate"
	OpGetBaseModel  = "get_base_model"
	OpCreateAdapter = "create_model_adapter"
	OpFineTune      = "fine_tune"
)

// Options control one run.
type Options struct {
	BaseModelSlug   string
	AdapterName     string
	Iterations      int
	MaxTokens       int
	LLMProvider     string
	Embedding       domain.EmbeddingSettings
	ChunkSize       int
	ChunkOverlap    int
	TopK            int
	DeleteOnFailure bool
	// OnIteration, when set, is called after each successful submission.
	OnIteration func(iteration, total int, res domain.FineTuneResult)
}

func (o *Options) applyDefaults() {
	if o.BaseModelSlug == "" {
		o.BaseModelSlug = DefaultBaseModelSlug
	}
	if o.AdapterName == "" {
		o.AdapterName = DefaultAdapterName
	}
	if o.Iterations == 0 {
		o.Iterations = DefaultIterations
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = DefaultMaxTokens
	}
	if o.Embedding.ModelSlug == "" {
		o.Embedding.ModelSlug = DefaultEmbeddingSlug
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.TopK <= 0 {
		o.TopK = 2
	}
}

// Result is the trained adapter and the retrieval configuration bound to it.
type Result struct {
	Adapter domain.ModelAdapter
	Config  domain.RetrievalConfig
}

// Service runs the fine-tune sequence.
type Service struct {
	platform Platform
	opts     Options
	logger   *zap.Logger
}

// New creates a fine-tune service.
func New(platform Platform, opts Options, logger *zap.Logger) *Service {
	opts.applyDefaults()
	return &Service{platform: platform, opts: opts, logger: logger}
}

// Run looks up the base model, creates one adapter and submits samples
// Iterations times in order. The first failure stops the run.
func (s *Service) Run(ctx context.Context, samples []domain.Sample) (Result, error) {
	if err := s.validate(samples); err != nil {
		return Result{}, domain.NewError(domain.KindInput, OpValidate, err)
	}

	base, err := s.platform.GetBaseModel(ctx, s.opts.BaseModelSlug)
	if err != nil {
		return Result{}, domain.NewError(domain.KindRemote, OpGetBaseModel, err)
	}

	adapter, err := s.platform.CreateModelAdapter(ctx, base.ID, s.opts.AdapterName)
	if err != nil {
		return Result{}, domain.NewError(domain.KindRemote, OpCreateAdapter, err)
	}
	s.logger.Info("Created model adapter",
		zap.String("adapter_id", adapter.ID),
		zap.String("adapter_name", adapter.Name),
		zap.String("base_model", base.Slug),
	)

	for i := 1; i <= s.opts.Iterations; i++ {
		if err := ctx.Err(); err != nil {
			return Result{}, s.fail(adapter, domain.NewError(domain.KindRemote, OpFineTune, err))
		}

		s.logger.Info("Fine-tuning the model",
			zap.Int("iteration", i),
			zap.Int("iterations", s.opts.Iterations),
			zap.String("adapter_id", adapter.ID),
		)

		start := time.Now()
		res, err := s.platform.FineTune(ctx, adapter.ID, samples)
		metrics.FineTuneIterationDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.FineTuneIterationsTotal.WithLabelValues("error").Inc()
			return Result{}, s.fail(adapter, domain.NewError(domain.KindRemote, OpFineTune,
				fmt.Errorf("iteration %d: %w", i, err)))
		}
		metrics.FineTuneIterationsTotal.WithLabelValues("success").Inc()

		s.logger.Debug("Fine-tune iteration completed",
			zap.Int("iteration", i),
			zap.Int("trainable_tokens", res.TrainableTokens),
			zap.Float64("sum_loss", res.SumLoss),
		)
		if s.opts.OnIteration != nil {
			s.opts.OnIteration(i, s.opts.Iterations, res)
		}
	}

	return Result{Adapter: adapter, Config: s.config(adapter)}, nil
}

func (s *Service) validate(samples []domain.Sample) error {
	switch {
	case s.opts.Iterations <= 0:
		return fmt.Errorf("iterations must be positive, got %d: %w", s.opts.Iterations, domain.ErrInvalidConfig)
	case s.opts.AdapterName == "" || s.opts.BaseModelSlug == "":
		return fmt.Errorf("adapter name and base model are required: %w", domain.ErrInvalidConfig)
	case len(samples) == 0:
		return fmt.Errorf("sample set is empty: %w", domain.ErrInvalidConfig)
	}
	return nil
}

// fail logs the stranded adapter and removes it when configured to.
func (s *Service) fail(adapter domain.ModelAdapter, err error) error {
	if !s.opts.DeleteOnFailure {
		s.logger.Error("Fine-tune failed; adapter left on the platform",
			zap.String("adapter_id", adapter.ID),
			zap.Error(err),
		)
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if delErr := s.platform.DeleteModelAdapter(ctx, adapter.ID); delErr != nil {
		s.logger.Error("Fine-tune failed; adapter cleanup failed",
			zap.String("adapter_id", adapter.ID),
			zap.Error(err),
			zap.NamedError("cleanup_error", delErr),
		)
		return err
	}
	s.logger.Warn("Fine-tune failed; adapter deleted",
		zap.String("adapter_id", adapter.ID),
		zap.Error(err),
	)
	return err
}

func (s *Service) config(adapter domain.ModelAdapter) domain.RetrievalConfig {
	return domain.RetrievalConfig{
		LLM: domain.LLMSettings{
			Provider:  s.opts.LLMProvider,
			AdapterID: adapter.ID,
			MaxTokens: s.opts.MaxTokens,
		},
		Embedding:    s.opts.Embedding,
		ChunkSize:    s.opts.ChunkSize,
		ChunkOverlap: s.opts.ChunkOverlap,
		TopK:         s.opts.TopK,
	}
}
