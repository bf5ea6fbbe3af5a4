// Package gradient is a client for the hosted adapter platform: base model
// lookup, adapter lifecycle, fine-tuning, completion and embeddings.
package gradient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/pdfchat/internal/domain"
)

// DefaultBaseURL is the public API endpoint.
const DefaultBaseURL = "https://api.gradient.ai/api"

const providerName = "gradient"

// Config holds credentials; they are injected here and nowhere else.
type Config struct {
	BaseURL     string
	AccessToken string
	WorkspaceID string
	Timeout     time.Duration
	Logger      *zap.Logger
}

// Client talks to the platform REST API.
type Client struct {
	baseURL     string
	accessToken string
	workspaceID string
	http        *http.Client
	logger      *zap.Logger
}

// NewClient validates credentials and builds a client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.AccessToken == "" {
		return nil, fmt.Errorf("%w: access token is required", domain.ErrInvalidConfig)
	}
	if cfg.WorkspaceID == "" {
		return nil, fmt.Errorf("%w: workspace id is required", domain.ErrInvalidConfig)
	}
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:     strings.TrimRight(base, "/"),
		accessToken: cfg.AccessToken,
		workspaceID: cfg.WorkspaceID,
		http:        &http.Client{Timeout: timeout},
		logger:      logger,
	}, nil
}

// APIError is a non-2xx platform response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("platform API error %d: %s", e.StatusCode, e.Message)
}

// do sends a JSON request and decodes a JSON response into out (nil to discard).
// Failures wrap sentinel; 429 wraps domain.ErrRateLimited and 404 domain.ErrNotFound instead.
func (c *Client) do(
	ctx context.Context, method, path string, query url.Values, in, out any, sentinel error,
) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("x-gradient-workspace-id", c.workspaceID)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %v: %w", method, path, err, sentinel)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: readErrorMessage(resp.Body)}
		switch resp.StatusCode {
		case http.StatusTooManyRequests:
			sentinel = domain.ErrRateLimited
		case http.StatusNotFound:
			sentinel = domain.ErrNotFound
		}
		return fmt.Errorf("%s %s: %w", method, path, errors.Join(apiErr, sentinel))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %v: %w", path, err, sentinel)
	}
	return nil
}

func readErrorMessage(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, 4096))
	var parsed struct {
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	if json.Unmarshal(data, &parsed) == nil {
		if parsed.Message != "" {
			return parsed.Message
		}
		if parsed.Detail != "" {
			return parsed.Detail
		}
	}
	return strings.TrimSpace(string(data))
}

// HealthCheck lists base models, a read-only call.
func (c *Client) HealthCheck(ctx context.Context) error {
	var out listModelsResponse
	if err := c.do(ctx, http.MethodGet, "/models", url.Values{"onlyBase": {"true"}}, nil, &out, domain.ErrPlatformError); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}
