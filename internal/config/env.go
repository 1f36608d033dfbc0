package config

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var ErrMissingRequired = errors.New("missing required configuration")

type Config struct {
	DataDir  string `envconfig:"DATA_DIR" default:"data"`
	InputDir string `envconfig:"INPUT_DIR"`   // defaults to <DataDir>/inputs
	Ledger   string `envconfig:"LEDGER_PATH"` // defaults to <DataDir>/registry.txt

	DatabaseURL string `envconfig:"DATABASE_URL"`

	// Embedding provider: "gemini" or "openai" (any OpenAI-compatible
	// endpoint, including a local Ollama).
	EmbedProvider string `envconfig:"EMBED_PROVIDER" default:"gemini"`
	EmbedModel    string `envconfig:"EMBED_MODEL" default:"text-embedding-004"`
	EmbedDim      int    `envconfig:"EMBED_DIM" default:"768"`
	EmbedBaseURL  string `envconfig:"EMBED_BASE_URL"`
	GeminiAPIKey  string `envconfig:"GEMINI_API_KEY"`
	OpenAIAPIKey  string `envconfig:"OPENAI_API_KEY"`

	ChunkSize    int `envconfig:"CHUNK_SIZE" default:"1500"`
	ChunkOverlap int `envconfig:"CHUNK_OVERLAP" default:"200"`
	BatchSize    int `envconfig:"BATCH_SIZE" default:"100"`
	TopK         int `envconfig:"TOP_K" default:"4"`

	SettingsPath string `envconfig:"SETTINGS_PATH"` // defaults to <DataDir>/user_config.json
}

// Load reads .env (if present), then the environment, and fills in the
// paths derived from DataDir.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	if cfg.InputDir == "" {
		cfg.InputDir = filepath.Join(cfg.DataDir, "inputs")
	}
	if cfg.Ledger == "" {
		cfg.Ledger = filepath.Join(cfg.DataDir, "registry.txt")
	}
	if cfg.SettingsPath == "" {
		cfg.SettingsPath = filepath.Join(cfg.DataDir, "user_config.json")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("%w: DATABASE_URL", ErrMissingRequired)
	}
	if c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("chunk overlap %d must be smaller than chunk size %d", c.ChunkOverlap, c.ChunkSize)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", c.BatchSize)
	}
	return nil
}
