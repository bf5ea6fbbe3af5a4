package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/pdfchat/internal/domain"
)

func TestLLM_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req struct {
			Model     string `json:"model"`
			MaxTokens int    `json:"max_tokens"`
			Messages  []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "ft:adapter-1" {
			t.Errorf("expected adapter model, got %q", req.Model)
		}
		if req.MaxTokens != 400 {
			t.Errorf("expected max_tokens 400, got %d", req.MaxTokens)
		}
		if len(req.Messages) != 1 || req.Messages[0].Content != "prompt text" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": "the answer"},
				"finish_reason": "stop",
			}},
			"usage": map[string]any{"prompt_tokens": 12, "completion_tokens": 3, "total_tokens": 15},
		})
	}))
	defer server.Close()

	llm := NewLLM(&Config{APIKey: "k", BaseURL: server.URL, Model: "ft:adapter-1", Logger: zap.NewNop()})
	got, err := llm.Complete(context.Background(), "prompt text", domain.CompletionOptions{MaxTokens: 400})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if got.Text != "the answer" || got.FinishReason != "stop" {
		t.Errorf("unexpected completion: %+v", got)
	}
	if got.CompletionTokens != 3 {
		t.Errorf("expected 3 completion tokens, got %d", got.CompletionTokens)
	}
}

func TestLLM_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","choices":[]}`))
	}))
	defer server.Close()

	llm := NewLLM(&Config{APIKey: "k", BaseURL: server.URL, Model: "m", Logger: zap.NewNop()})
	_, err := llm.Complete(context.Background(), "p", domain.CompletionOptions{MaxTokens: 10})
	if !errors.Is(err, domain.ErrLLMProviderError) {
		t.Fatalf("expected ErrLLMProviderError, got %v", err)
	}
}

func TestLLM_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"message":"model not found","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	llm := NewLLM(&Config{APIKey: "k", BaseURL: server.URL, Model: "missing", Logger: zap.NewNop()})
	_, err := llm.Complete(context.Background(), "p", domain.CompletionOptions{MaxTokens: 10})
	if !errors.Is(err, domain.ErrLLMProviderError) {
		t.Fatalf("expected ErrLLMProviderError, got %v", err)
	}
}
