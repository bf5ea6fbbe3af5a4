// Package completion decorates LLM providers with logging and usage accounting.
package completion

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/pdfchat/internal/domain"
	"github.com/kailas-cloud/pdfchat/internal/logger"
)

var _ domain.LLM = (*InstrumentedLLM)(nil)

// InstrumentedLLM wraps an LLM with logging and per-request token accounting.
// Transport metrics live in the transports.
type InstrumentedLLM struct {
	inner     domain.LLM
	provider  string
	adapterID string
	logger    *zap.Logger
}

// NewInstrumentedLLM wraps an LLM bound to adapterID.
func NewInstrumentedLLM(inner domain.LLM, provider, adapterID string, l *zap.Logger) *InstrumentedLLM {
	return &InstrumentedLLM{inner: inner, provider: provider, adapterID: adapterID, logger: l}
}

// Complete delegates to the inner LLM and records usage.
func (p *InstrumentedLLM) Complete(
	ctx context.Context, prompt string, opts domain.CompletionOptions,
) (domain.Completion, error) {
	log := logger.FromContextOr(ctx, p.logger).With(
		zap.String("provider", p.provider),
		zap.String("adapter_id", p.adapterID),
	)
	start := time.Now()

	out, err := p.inner.Complete(ctx, prompt, opts)
	duration := time.Since(start)
	if err != nil {
		log.Error("Completion request failed", zap.Duration("duration", duration), zap.Error(err))
		return domain.Completion{}, fmt.Errorf("complete: %w", err)
	}

	domain.UsageFromContext(ctx).AddCompletionTokens(out.CompletionTokens)

	log.Debug("Completion request completed",
		zap.Duration("duration", duration),
		zap.Int("max_tokens", opts.MaxTokens),
		zap.Int("completion_tokens", out.CompletionTokens),
		zap.String("finish_reason", out.FinishReason),
	)
	return out, nil
}
