package openai

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/pdfchat/internal/domain"
	"github.com/kailas-cloud/pdfchat/internal/metrics"
)

// LLM answers prompts through the chat completions API. Model is the
// fine-tuned model id, so the adapter id from the fine-tune run is used as-is.
type LLM struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewLLM creates a chat-completion backed domain.LLM.
func NewLLM(cfg *Config) *LLM {
	return &LLM{
		client: newClient(cfg),
		model:  cfg.Model,
		logger: cfg.Logger,
	}
}

// Complete implements domain.LLM.
func (l *LLM) Complete(ctx context.Context, prompt string, opts domain.CompletionOptions) (domain.Completion, error) {
	req := openai.ChatCompletionRequest{
		Model: l.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	}

	start := time.Now()
	resp, err := l.client.CreateChatCompletion(ctx, req)
	metrics.LLMRequestDuration.WithLabelValues(providerName).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues(providerName, "error").Inc()
		return domain.Completion{}, parseAPIError("completion", err, domain.ErrLLMProviderError)
	}
	if len(resp.Choices) == 0 {
		metrics.LLMRequestsTotal.WithLabelValues(providerName, "error").Inc()
		return domain.Completion{}, fmt.Errorf("empty completion response: %w", domain.ErrLLMProviderError)
	}

	metrics.LLMRequestsTotal.WithLabelValues(providerName, "success").Inc()
	metrics.LLMTokensTotal.WithLabelValues(providerName, "prompt").Add(float64(resp.Usage.PromptTokens))
	metrics.LLMTokensTotal.WithLabelValues(providerName, "completion").Add(float64(resp.Usage.CompletionTokens))

	choice := resp.Choices[0]
	return domain.Completion{
		Text:             choice.Message.Content,
		FinishReason:     string(choice.FinishReason),
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}
