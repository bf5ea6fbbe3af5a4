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

type completeRequest struct {
	Query                  string   `json:"query"`
	MaxGeneratedTokenCount int      `json:"maxGeneratedTokenCount,omitempty"`
	Temperature            *float32 `json:"temperature,omitempty"`
}

type completeResponse struct {
	GeneratedOutput string `json:"generatedOutput"`
	FinishReason    string `json:"finishReason"`
}

// LLM generates text with one model adapter.
type LLM struct {
	client    *Client
	adapterID string
}

// NewLLM binds the client to an adapter.
func (c *Client) NewLLM(adapterID string) *LLM {
	return &LLM{client: c, adapterID: adapterID}
}

// Complete implements domain.LLM.
func (l *LLM) Complete(ctx context.Context, prompt string, opts domain.CompletionOptions) (domain.Completion, error) {
	in := completeRequest{Query: prompt, MaxGeneratedTokenCount: opts.MaxTokens}
	if opts.Temperature > 0 {
		t := opts.Temperature
		in.Temperature = &t
	}

	start := time.Now()
	var out completeResponse
	path := "/models/" + url.PathEscape(l.adapterID) + "/complete"
	err := l.client.do(ctx, http.MethodPost, path, nil, in, &out, domain.ErrLLMProviderError)
	metrics.LLMRequestDuration.WithLabelValues(providerName).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues(providerName, "error").Inc()
		return domain.Completion{}, fmt.Errorf("complete with %s: %w", l.adapterID, err)
	}

	metrics.LLMRequestsTotal.WithLabelValues(providerName, "success").Inc()
	return domain.Completion{Text: out.GeneratedOutput, FinishReason: out.FinishReason}, nil
}
