package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/uiground/internal/errors"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	assert.Equal(t, 10, cfg.Query.DefaultLimit)
	assert.Equal(t, 200.0, cfg.Query.NearRadius)
	assert.True(t, cfg.Semantic.Enabled)
	assert.Equal(t, 0.3, cfg.Semantic.Threshold)
	assert.Equal(t, 10, cfg.Semantic.TopK)
	assert.Equal(t, 8, cfg.Semantic.BatchSize)
	assert.Equal(t, 10000, cfg.Cache.Capacity)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	// Given: a config file that only sets a few fields
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
query:
  default_limit: 25
semantic:
  enabled: false
  threshold: 0.5
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	// When: loading it
	cfg, err := Load(path)
	require.NoError(t, err)

	// Then: set fields override, the rest keep their defaults
	assert.Equal(t, 25, cfg.Query.DefaultLimit)
	assert.False(t, cfg.Semantic.Enabled)
	assert.Equal(t, 0.5, cfg.Semantic.Threshold)
	assert.Equal(t, 200.0, cfg.Query.NearRadius)
	assert.Equal(t, 10000, cfg.Cache.Capacity)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("query: [not a map"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeConfigInvalid, errors.GetCode(err))
}

func TestLoad_RejectsOutOfRangeValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("semantic:\n  threshold: 1.5\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeConfigInvalid, errors.GetCode(err))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero default limit", func(c *Config) { c.Query.DefaultLimit = 0 }},
		{"negative near radius", func(c *Config) { c.Query.NearRadius = -1 }},
		{"threshold below zero", func(c *Config) { c.Semantic.Threshold = -0.1 }},
		{"threshold above one", func(c *Config) { c.Semantic.Threshold = 1.1 }},
		{"zero top k", func(c *Config) { c.Semantic.TopK = 0 }},
		{"zero batch size", func(c *Config) { c.Semantic.BatchSize = 0 }},
		{"zero cache capacity", func(c *Config) { c.Cache.Capacity = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Equal(t, errors.ErrCodeConfigInvalid, errors.GetCode(err))
		})
	}
}

func TestDefaultPath(t *testing.T) {
	path := DefaultPath()
	assert.True(t, filepath.IsAbs(path))
	assert.Equal(t, "config.yaml", filepath.Base(path))
}
