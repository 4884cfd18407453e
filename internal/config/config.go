package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	Embedding EmbeddingConfig `yaml:"embedding"`
	Storage   StorageConfig   `yaml:"storage,omitempty"`
	Search    SearchConfig    `yaml:"search,omitempty"`
	Audit     AuditConfig     `yaml:"audit,omitempty"`
}

// EmbeddingConfig holds embedding model configuration
type EmbeddingConfig struct {
	Provider string `yaml:"provider"` // "hashing" | "openai"
	Model    string `yaml:"model"`

	// OpenAI specific
	APIKey   string `yaml:"api_key,omitempty"`
	Endpoint string `yaml:"endpoint,omitempty"`

	// Embedding parameters
	Dimensions int `yaml:"dimensions"` // vector width
	BatchSize  int `yaml:"batch_size"` // texts per encode batch
}

// StorageConfig holds the on-disk layout of the knowledge base.
// All persisted state (chunk store, vector index, keyword index,
// audit database, logs) lives under a single directory.
type StorageConfig struct {
	Dir string `yaml:"dir,omitempty"`
}

// ChunksPath returns the path of the chunk store file.
func (s StorageConfig) ChunksPath() string {
	return filepath.Join(s.Dir, "chunks.jsonl")
}

// IndexPath returns the path of the vector index file.
func (s StorageConfig) IndexPath() string {
	return filepath.Join(s.Dir, "vectors.index")
}

// KeywordDir returns the directory of the keyword index.
func (s StorageConfig) KeywordDir() string {
	return filepath.Join(s.Dir, "keyword.bleve")
}

// AuditPath returns the path of the audit database.
func (s StorageConfig) AuditPath() string {
	return filepath.Join(s.Dir, "audit.db")
}

// LogDir returns the directory for run log files.
func (s StorageConfig) LogDir() string {
	return filepath.Join(s.Dir, "logs")
}

// SearchConfig holds search-specific configuration
type SearchConfig struct {
	DefaultTopK   int  `yaml:"default_top_k,omitempty"`  // Default number of results
	ContextBudget int  `yaml:"context_budget,omitempty"` // Max chars of formatted context
	Keyword       bool `yaml:"keyword"`                  // Maintain a keyword index beside the vector index
}

// AuditConfig holds interaction-log configuration
type AuditConfig struct {
	Enabled bool `yaml:"enabled,omitempty"`
}

// DefaultPath returns the default config file location: ./aipstedu.yaml
func DefaultPath() string {
	return "aipstedu.yaml"
}

// Load loads configuration from the default config file.
// A missing file is not an error: the local hashing provider needs no
// secrets, so full defaults are returned instead.
func Load() (*Config, error) {
	return LoadFromFile(DefaultPath())
}

// LoadFromFile loads configuration from a specific file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := &Config{}
			cfg.applyDefaults()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "hashing"
	}

	if c.Embedding.Model == "" {
		switch c.Embedding.Provider {
		case "openai":
			c.Embedding.Model = "text-embedding-3-small"
		default:
			c.Embedding.Model = "bow-hash-v1"
		}
	}

	if c.Embedding.Dimensions == 0 {
		switch c.Embedding.Provider {
		case "openai":
			c.Embedding.Dimensions = 1536
		default:
			c.Embedding.Dimensions = 256
		}
	}

	if c.Embedding.BatchSize == 0 {
		c.Embedding.BatchSize = 32
	}

	if c.Embedding.Endpoint == "" {
		c.Embedding.Endpoint = "https://api.openai.com/v1/embeddings"
	}

	if c.Storage.Dir == "" {
		c.Storage.Dir = "storage"
	}
	c.Storage.Dir = expandPath(c.Storage.Dir)

	if c.Search.DefaultTopK == 0 {
		c.Search.DefaultTopK = 5
	}
	if c.Search.ContextBudget == 0 {
		c.Search.ContextBudget = 2000
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Embedding.Provider {
	case "hashing":
		// local model, no credentials required
	case "openai":
		if c.Embedding.APIKey == "" {
			return fmt.Errorf("openai provider requires api_key")
		}
	default:
		return fmt.Errorf("unsupported embedding provider: %s", c.Embedding.Provider)
	}

	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("dimensions must be positive, got: %d", c.Embedding.Dimensions)
	}

	if c.Embedding.BatchSize <= 0 || c.Embedding.BatchSize > 1024 {
		return fmt.Errorf("batch_size must be between 1 and 1024, got: %d", c.Embedding.BatchSize)
	}

	if c.Search.DefaultTopK <= 0 {
		return fmt.Errorf("default_top_k must be positive, got: %d", c.Search.DefaultTopK)
	}

	return nil
}

// SaveToFile saves the configuration to a specific file
func (c *Config) SaveToFile(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// expandPath expands ~ and $HOME to the user's home directory
func expandPath(path string) string {
	if strings.HasPrefix(path, "$HOME/") || path == "$HOME" {
		homeDir := os.Getenv("HOME")
		if homeDir == "" {
			var err error
			homeDir, err = os.UserHomeDir()
			if err != nil {
				return path
			}
		}
		if path == "$HOME" {
			return homeDir
		}
		return filepath.Join(homeDir, path[6:])
	}

	if strings.HasPrefix(path, "~/") || path == "~" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		if path == "~" {
			return homeDir
		}
		return filepath.Join(homeDir, path[2:])
	}

	return path
}

const defaultConfigTemplate = `# aipstedu configuration
#
# Copy and edit this file for your environment.
# Default location: ./aipstedu.yaml

embedding:
  # Provider: "hashing" (local, no network) or "openai"
  provider: hashing
  model: bow-hash-v1
  dimensions: 256
  batch_size: 32

  # OpenAI configuration (alternative)
  # provider: openai
  # model: text-embedding-3-small
  # api_key: your-openai-api-key
  # dimensions: 1536

storage:
  dir: storage

search:
  default_top_k: 5
  context_budget: 2000
  keyword: true

audit:
  enabled: true
`

// WriteDefaultTemplate creates a default configuration file if it does not exist.
// It returns true if a file was created, false if it already existed.
func WriteDefaultTemplate(path string) (bool, error) {
	if path == "" {
		return false, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to stat config file: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return false, fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(defaultConfigTemplate), 0644); err != nil {
		return false, fmt.Errorf("failed to write config template: %w", err)
	}

	return true, nil
}
