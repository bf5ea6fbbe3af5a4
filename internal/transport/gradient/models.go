package gradient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/kailas-cloud/pdfchat/internal/domain"
)

type listModelsResponse struct {
	BaseModels []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Slug string `json:"slug"`
	} `json:"baseModels"`
}

type createAdapterRequest struct {
	Model struct {
		BaseModelID string `json:"baseModelId"`
		Name        string `json:"name"`
	} `json:"model"`
}

type createAdapterResponse struct {
	ID string `json:"id"`
}

type fineTuneRequest struct {
	Samples []domain.Sample `json:"samples"`
}

type fineTuneResponse struct {
	NumberOfTrainableTokens int     `json:"numberOfTrainableTokens"`
	SumLoss                 float64 `json:"sumLoss"`
}

// GetBaseModel resolves a base model by slug.
func (c *Client) GetBaseModel(ctx context.Context, slug string) (domain.BaseModel, error) {
	var out listModelsResponse
	err := c.do(ctx, http.MethodGet, "/models", url.Values{"onlyBase": {"true"}}, nil, &out, domain.ErrPlatformError)
	if err != nil {
		return domain.BaseModel{}, fmt.Errorf("list base models: %w", err)
	}
	for _, m := range out.BaseModels {
		if m.Slug == slug {
			return domain.BaseModel{ID: m.ID, Slug: m.Slug, Name: m.Name}, nil
		}
	}
	return domain.BaseModel{}, fmt.Errorf("base model %q: %w", slug, domain.ErrNotFound)
}

// CreateModelAdapter creates a named adapter on a base model.
func (c *Client) CreateModelAdapter(ctx context.Context, baseModelID, name string) (domain.ModelAdapter, error) {
	var in createAdapterRequest
	in.Model.BaseModelID = baseModelID
	in.Model.Name = name

	var out createAdapterResponse
	if err := c.do(ctx, http.MethodPost, "/models", nil, in, &out, domain.ErrPlatformError); err != nil {
		return domain.ModelAdapter{}, fmt.Errorf("create adapter %q: %w", name, err)
	}
	if out.ID == "" {
		return domain.ModelAdapter{}, fmt.Errorf("create adapter %q: empty id: %w", name, domain.ErrPlatformError)
	}

	c.logger.Debug("Model adapter created",
		zap.String("adapter_id", out.ID),
		zap.String("base_model_id", baseModelID),
	)
	return domain.ModelAdapter{ID: out.ID, Name: name, BaseModelID: baseModelID}, nil
}

// FineTune submits one pass of samples to an adapter.
func (c *Client) FineTune(ctx context.Context, adapterID string, samples []domain.Sample) (domain.FineTuneResult, error) {
	var out fineTuneResponse
	path := "/models/" + url.PathEscape(adapterID) + "/fine-tune"
	if err := c.do(ctx, http.MethodPost, path, nil, fineTuneRequest{Samples: samples}, &out, domain.ErrPlatformError); err != nil {
		return domain.FineTuneResult{}, fmt.Errorf("fine-tune %s: %w", adapterID, err)
	}
	return domain.FineTuneResult{
		TrainableTokens: out.NumberOfTrainableTokens,
		SumLoss:         out.SumLoss,
	}, nil
}

// DeleteModelAdapter removes an adapter.
func (c *Client) DeleteModelAdapter(ctx context.Context, adapterID string) error {
	path := "/models/" + url.PathEscape(adapterID)
	if err := c.do(ctx, http.MethodDelete, path, nil, nil, nil, domain.ErrPlatformError); err != nil {
		return fmt.Errorf("delete adapter %s: %w", adapterID, err)
	}
	return nil
}
