package finetune

import (
	"context"

	"github.com/kailas-cloud/pdfchat/internal/domain"
)

// Platform is the hosted model-adapter API the driver runs against.
type Platform interface {
	GetBaseModel(ctx context.Context, slug string) (domain.BaseModel, error)
	CreateModelAdapter(ctx context.Context, baseModelID, name string) (domain.ModelAdapter, error)
	FineTune(ctx context.Context, adapterID string, samples []domain.Sample) (domain.FineTuneResult, error)
	DeleteModelAdapter(ctx context.Context, adapterID string) error
}
