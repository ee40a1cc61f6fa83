// Package config loads and validates uiground configuration from YAML.
//
// Configuration is optional: a missing file yields Defaults(). Values in
// the file override defaults field by field, and Validate catches
// out-of-range settings before any subsystem starts.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/uiground/internal/errors"
	"github.com/Aman-CERP/uiground/internal/logging"
)

// Config is the root configuration for the uiground server.
type Config struct {
	Query    QueryConfig    `yaml:"query"`
	Semantic SemanticConfig `yaml:"semantic"`
	Cache    CacheConfig    `yaml:"cache"`
	Logging  logging.Config `yaml:"logging"`
}

// QueryConfig tunes the lexical query engine.
type QueryConfig struct {
	// DefaultLimit caps result counts when a query does not set one.
	DefaultLimit int `yaml:"default_limit"`

	// NearRadius is the default pixel radius for proximity filters.
	NearRadius float64 `yaml:"near_radius"`
}

// SemanticConfig tunes the semantic re-ranking stage.
type SemanticConfig struct {
	// Enabled turns semantic re-ranking on for queries that request it.
	Enabled bool `yaml:"enabled"`

	// Threshold is the minimum similarity for a semantic match.
	Threshold float64 `yaml:"threshold"`

	// TopK caps the number of semantically ranked results.
	TopK int `yaml:"top_k"`

	// BatchSize is the number of texts embedded per provider call.
	BatchSize int `yaml:"batch_size"`
}

// CacheConfig tunes the embedding fingerprint cache.
type CacheConfig struct {
	// Capacity is the maximum number of cached embeddings.
	Capacity int `yaml:"capacity"`
}

// Defaults returns the configuration used when no file is present.
func Defaults() *Config {
	return &Config{
		Query: QueryConfig{
			DefaultLimit: 10,
			NearRadius:   200,
		},
		Semantic: SemanticConfig{
			Enabled:   true,
			Threshold: 0.3,
			TopK:      10,
			BatchSize: 8,
		},
		Cache: CacheConfig{
			Capacity: 10000,
		},
		Logging: logging.DefaultConfig(),
	}
}

// DefaultPath returns ~/.uiground/config.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "uiground", "config.yaml")
	}
	return filepath.Join(home, ".uiground", "config.yaml")
}

// Load reads configuration from path. A missing file is not an error;
// Defaults() is returned instead. An explicit empty path means
// DefaultPath().
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Defaults(), nil
		}
		return nil, errors.New(errors.ErrCodeConfigNotFound,
			fmt.Sprintf("read config %s", path), err)
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.New(errors.ErrCodeConfigInvalid,
			fmt.Sprintf("parse config %s", path), err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that every setting is within its legal range.
func (c *Config) Validate() error {
	if c.Query.DefaultLimit <= 0 {
		return errors.New(errors.ErrCodeConfigInvalid,
			"query.default_limit must be positive", nil)
	}
	if c.Query.NearRadius <= 0 {
		return errors.New(errors.ErrCodeConfigInvalid,
			"query.near_radius must be positive", nil)
	}
	if c.Semantic.Threshold < 0 || c.Semantic.Threshold > 1 {
		return errors.New(errors.ErrCodeConfigInvalid,
			"semantic.threshold must be in [0, 1]", nil)
	}
	if c.Semantic.TopK <= 0 {
		return errors.New(errors.ErrCodeConfigInvalid,
			"semantic.top_k must be positive", nil)
	}
	if c.Semantic.BatchSize <= 0 {
		return errors.New(errors.ErrCodeConfigInvalid,
			"semantic.batch_size must be positive", nil)
	}
	if c.Cache.Capacity <= 0 {
		return errors.New(errors.ErrCodeConfigInvalid,
			"cache.capacity must be positive", nil)
	}
	return nil
}
