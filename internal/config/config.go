package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Supported platform providers.
const (
	ProviderGradient = "gradient"
	ProviderOpenAI   = "openai"
)

// Supported index drivers.
const (
	IndexDriverMemory = "memory"
	IndexDriverValkey = "valkey"
)

// Config holds the pdfchat configuration shared by all binaries.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
	Platform  PlatformConfig  `yaml:"platform"`
	LLM       LLMConfig       `yaml:"llm"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Index     IndexConfig     `yaml:"index"`
	Database  DatabaseConfig  `yaml:"database"`
	Chat      ChatConfig      `yaml:"chat"`
	FineTune  FineTuneConfig  `yaml:"finetune"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
	File  string `yaml:"file"`  // used by the terminal UI, which owns stdout
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
	MaxUploadMB     int `yaml:"max_upload_mb"`
}

// PlatformConfig holds credentials for the hosted model platform.
type PlatformConfig struct {
	Provider    string `yaml:"provider"` // gradient, openai (default: gradient)
	BaseURL     string `yaml:"base_url"`
	AccessToken string `yaml:"access_token"`
	WorkspaceID string `yaml:"workspace_id"`
	TimeoutSec  int    `yaml:"timeout_sec"`
}

// LLMConfig holds settings of the adapter used for answering.
type LLMConfig struct {
	AdapterID   string  `yaml:"adapter_id"`
	AdapterFile string  `yaml:"adapter_file"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float32 `yaml:"temperature"`
}

// EmbeddingConfig holds embedding model settings.
type EmbeddingConfig struct {
	Provider         string `yaml:"provider"` // default: platform.provider
	ModelSlug        string `yaml:"model_slug"`
	QueryInstruction string `yaml:"query_instruction"`
	Cache            bool   `yaml:"cache"`
}

// IndexConfig holds chunking, retrieval and HNSW settings.
type IndexConfig struct {
	Driver          string `yaml:"driver"` // memory, valkey (default: memory)
	ChunkSize       int    `yaml:"chunk_size"`
	ChunkOverlap    *int   `yaml:"chunk_overlap"` // nil: default; 0 disables overlap
	TopK            int    `yaml:"top_k"`
	HNSWM           int    `yaml:"hnsw_m"`
	HNSWEFConstruct int    `yaml:"hnsw_ef_construction"`
	KeyPrefix       string `yaml:"key_prefix"`
}

const defaultChunkOverlap = 20

// Overlap returns the chunk overlap in words; zero when unset.
func (c IndexConfig) Overlap() int {
	if c.ChunkOverlap == nil {
		return 0
	}
	return *c.ChunkOverlap
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // valkey, redis (default: valkey)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// ChatConfig holds chat session settings.
type ChatConfig struct {
	SessionIdleTimeoutMin int `yaml:"session_idle_timeout_min"`
	SweepIntervalSec      int `yaml:"sweep_interval_sec"`
}

// FineTuneConfig holds settings of the fine-tune driver.
type FineTuneConfig struct {
	BaseModelSlug          string `yaml:"base_model_slug"`
	AdapterName            string `yaml:"adapter_name"`
	Iterations             int    `yaml:"iterations"`
	MaxTokens              int    `yaml:"max_tokens"`
	SamplesFile            string `yaml:"samples_file"`
	OutputFile             string `yaml:"output_file"`
	DeleteAdapterOnFailure bool   `yaml:"delete_adapter_on_failure"`
}

// UsesDatabase reports whether any component needs a Valkey connection.
func (c *Config) UsesDatabase() bool {
	return c.Index.Driver == IndexDriverValkey || c.Embedding.Cache
}

// PlatformTimeout is the per-request timeout of platform calls.
func (c *Config) PlatformTimeout() time.Duration {
	return time.Duration(c.Platform.TimeoutSec) * time.Second
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		// processing a PDF embeds every chunk before responding
		c.HTTP.WriteTimeoutSec = 300
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.MaxUploadMB <= 0 {
		c.HTTP.MaxUploadMB = 32
	}
	if c.Platform.Provider == "" {
		c.Platform.Provider = ProviderGradient
	}
	if c.Platform.TimeoutSec <= 0 {
		c.Platform.TimeoutSec = 120
	}
	if c.LLM.MaxTokens <= 0 {
		c.LLM.MaxTokens = 400
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = c.Platform.Provider
	}
	if c.Embedding.ModelSlug == "" {
		c.Embedding.ModelSlug = "bge-large"
	}
	if c.Index.Driver == "" {
		c.Index.Driver = IndexDriverMemory
	}
	if c.Index.ChunkSize <= 0 {
		c.Index.ChunkSize = 256
	}
	if c.Index.ChunkOverlap == nil {
		overlap := defaultChunkOverlap
		if overlap >= c.Index.ChunkSize {
			overlap = c.Index.ChunkSize / 10
		}
		c.Index.ChunkOverlap = &overlap
	}
	if c.Index.TopK <= 0 {
		c.Index.TopK = 2
	}
	if c.Index.HNSWM <= 0 {
		c.Index.HNSWM = 16
	}
	if c.Index.HNSWEFConstruct <= 0 {
		c.Index.HNSWEFConstruct = 200
	}
	if c.Index.KeyPrefix == "" {
		c.Index.KeyPrefix = "pdfchat:"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "valkey"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Chat.SessionIdleTimeoutMin <= 0 {
		c.Chat.SessionIdleTimeoutMin = 60
	}
	if c.Chat.SweepIntervalSec <= 0 {
		c.Chat.SweepIntervalSec = 60
	}
	if c.FineTune.BaseModelSlug == "" {
		c.FineTune.BaseModelSlug = "llama2-7b-chat"
	}
	if c.FineTune.AdapterName == "" {
		c.FineTune.AdapterName = "FineTunedLlama2"
	}
	if c.FineTune.Iterations == 0 {
		c.FineTune.Iterations = 5
	}
	if c.FineTune.MaxTokens <= 0 {
		c.FineTune.MaxTokens = 200
	}
	if c.FineTune.OutputFile == "" {
		c.FineTune.OutputFile = "adapter.yaml"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Platform.Provider {
	case ProviderGradient, ProviderOpenAI:
	default:
		return fmt.Errorf("platform.provider must be %q or %q, got %q",
			ProviderGradient, ProviderOpenAI, c.Platform.Provider)
	}
	if c.Platform.AccessToken == "" {
		return fmt.Errorf("platform.access_token is required")
	}
	if c.Platform.Provider == ProviderGradient && c.Platform.WorkspaceID == "" {
		return fmt.Errorf("platform.workspace_id is required for provider %q", ProviderGradient)
	}
	switch c.Embedding.Provider {
	case ProviderGradient, ProviderOpenAI:
	default:
		return fmt.Errorf("embedding.provider must be %q or %q, got %q",
			ProviderGradient, ProviderOpenAI, c.Embedding.Provider)
	}
	switch c.Index.Driver {
	case IndexDriverMemory, IndexDriverValkey:
	default:
		return fmt.Errorf("index.driver must be %q or %q, got %q",
			IndexDriverMemory, IndexDriverValkey, c.Index.Driver)
	}
	if overlap := c.Index.Overlap(); overlap < 0 || overlap >= c.Index.ChunkSize {
		return fmt.Errorf("index.chunk_overlap (%d) must be in [0, index.chunk_size (%d))",
			overlap, c.Index.ChunkSize)
	}
	if c.UsesDatabase() && len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required when index.driver is valkey or embedding.cache is on")
	}
	if c.FineTune.Iterations <= 0 {
		return fmt.Errorf("finetune.iterations must be positive, got %d", c.FineTune.Iterations)
	}
	return nil
}

// ResolveAdapterID returns the configured adapter id, falling back to the
// adapter record written by the fine-tune driver. Empty when neither is set.
func (c *Config) ResolveAdapterID() (string, error) {
	if c.LLM.AdapterID != "" {
		return c.LLM.AdapterID, nil
	}
	if c.LLM.AdapterFile == "" {
		return "", nil
	}
	rec, err := LoadAdapterRecord(c.LLM.AdapterFile)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return rec.AdapterID, nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
