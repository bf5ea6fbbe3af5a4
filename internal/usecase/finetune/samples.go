package finetune

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/pdfchat/internal/domain"
)

// LoadSamples reads a labeled sample set from a YAML or JSON list of {inputs: ...}.
func LoadSamples(path string) ([]domain.Sample, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from operator config
	if err != nil {
		return nil, domain.NewError(domain.KindLocalIO, "load_samples", err)
	}

	var samples []domain.Sample
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &samples)
	default:
		err = yaml.Unmarshal(data, &samples)
	}
	if err != nil {
		return nil, domain.NewError(domain.KindInput, "load_samples", fmt.Errorf("parse %s: %w", path, err))
	}

	for i, s := range samples {
		if strings.TrimSpace(s.Inputs) == "" {
			return nil, domain.NewError(domain.KindInput, "load_samples",
				fmt.Errorf("sample %d has empty inputs: %w", i, domain.ErrInvalidConfig))
		}
	}
	if len(samples) == 0 {
		return nil, domain.NewError(domain.KindInput, "load_samples",
			fmt.Errorf("%s: no samples: %w", path, domain.ErrInvalidConfig))
	}
	return samples, nil
}
