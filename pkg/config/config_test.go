package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 1, cfg.Calculate.Parallel)
	assert.False(t, cfg.Calculate.DetailFiles)
	assert.True(t, cfg.Progress.Enabled)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TREESUM_PARALLEL", "8")
	t.Setenv("TREESUM_DETAIL_FILES", "true")
	t.Setenv("TREESUM_PROGRESS", "false")
	t.Setenv("TREESUM_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, 8, cfg.Calculate.Parallel)
	assert.True(t, cfg.Calculate.DetailFiles)
	assert.False(t, cfg.Progress.Enabled)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromEnvIgnoresInvalidParallel(t *testing.T) {
	t.Setenv("TREESUM_PARALLEL", "not-a-number")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())
	assert.Equal(t, 1, cfg.Calculate.Parallel)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
calculate:
  parallel: 4
  detail_files: true
logging:
  level: warn
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, 4, cfg.Calculate.Parallel)
	assert.True(t, cfg.Calculate.DetailFiles)
	assert.Equal(t, "warn", cfg.Logging.Level)
	// Untouched sections keep their defaults.
	assert.True(t, cfg.Progress.Enabled)
}

func TestFlagsOverrideEnv(t *testing.T) {
	t.Setenv("TREESUM_PARALLEL", "2")

	cfg, err := Load("", map[string]interface{}{"parallel": 6})
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.Calculate.Parallel)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"Defaults", func(c *Config) {}, false},
		{"ZeroParallel", func(c *Config) { c.Calculate.Parallel = 0 }, true},
		{"NegativeParallel", func(c *Config) { c.Calculate.Parallel = -3 }, true},
		{"ExcessiveParallel", func(c *Config) { c.Calculate.Parallel = 500 }, true},
		{"BadLogLevel", func(c *Config) { c.Logging.Level = "loud" }, true},
		{"WarnLevel", func(c *Config) { c.Logging.Level = "warn" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
