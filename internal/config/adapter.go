package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// AdapterRecord is written by the fine-tune driver and read by the chat
// binaries, so the adapter id reaches the chat session without being pasted
// into source or config by hand.
type AdapterRecord struct {
	AdapterID     string    `yaml:"adapter_id"`
	Name          string    `yaml:"name"`
	BaseModelSlug string    `yaml:"base_model_slug"`
	Iterations    int       `yaml:"iterations"`
	CreatedAt     time.Time `yaml:"created_at"`
}

// LoadAdapterRecord reads an adapter record file.
func LoadAdapterRecord(path string) (AdapterRecord, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return AdapterRecord{}, err
	}
	var rec AdapterRecord
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return AdapterRecord{}, fmt.Errorf("parse adapter record %s: %w", path, err)
	}
	if rec.AdapterID == "" {
		return AdapterRecord{}, fmt.Errorf("adapter record %s has no adapter_id", path)
	}
	return rec, nil
}

// SaveAdapterRecord writes the record, replacing any previous file atomically.
func SaveAdapterRecord(path string, rec AdapterRecord) error {
	data, err := yaml.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal adapter record: %w", err)
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".adapter-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write adapter record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close adapter record: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename adapter record: %w", err)
	}
	return nil
}
