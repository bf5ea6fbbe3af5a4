package domain

// BaseModel is a foundation model hosted by the platform.
type BaseModel struct {
	ID   string
	Slug string
	Name string
}

// ModelAdapter is a named fine-tunable adapter layered on a base model.
// Created once by the platform and never mutated locally.
type ModelAdapter struct {
	ID          string
	Name        string
	BaseModelID string
}

// Sample is one labeled training example in the platform's instruction format.
type Sample struct {
	Inputs string `json:"inputs" yaml:"inputs"`
}

// FineTuneResult is the platform's response to one fine-tune submission.
type FineTuneResult struct {
	TrainableTokens int
	SumLoss         float64
}
