package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/typelink/internal/errors"
)

// Test Plan for Config System:
// - Default() returns valid configuration with all expected defaults
// - Load() uses defaults when no config file exists
// - Load() reads .typelink/config.yml and .typelink/config.yaml
// - Load() merges a partial config file with defaults
// - Environment variables override config file values and defaults
// - Load() returns error for malformed YAML and for invalid values
// - Validate() rejects empty includes, bad globs, empty attribute, negative cache size
// - Validate() rejects unbalanced braces and accepts balanced or escaped ones
// - Validate() reports every violation at once

func writeConfig(t *testing.T, dir, name, content string) {
	t.Helper()
	configDir := filepath.Join(dir, DirName)
	require.NoError(t, os.MkdirAll(configDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(configDir, name), []byte(content), 0644))
}

func TestDefault_ReturnsValidConfiguration(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NotNil(t, cfg)

	assert.Equal(t, []string{"**/*.rs"}, cfg.Paths.Include)
	assert.Equal(t, []string{"target/**", ".git/**", "vendor/**"}, cfg.Paths.Ignore)
	assert.Equal(t, "typelink", cfg.Select.Attribute)
	assert.False(t, cfg.Select.All)
	assert.False(t, cfg.Analysis.FailFast)
	assert.Equal(t, 1024, cfg.Analysis.CacheSize)
	assert.Equal(t, ".typelink/model.json", cfg.Output.Model)
	assert.Empty(t, cfg.Output.Database)

	assert.NoError(t, Validate(cfg))
}

func TestLoadConfig_UsesDefaultsWhenNoConfigFile(t *testing.T) {
	t.Parallel()

	cfg, err := NewLoader(t.TempDir()).Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadConfig_LoadsFromConfigYml(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	writeConfig(t, tempDir, "config.yml", `
paths:
  include:
    - "src/**/*.rs"
  ignore:
    - "src/generated/**"
select:
  attribute: export
analysis:
  fail_fast: true
  cache_size: 16
output:
  model: out/model.json
  database: out/typelink.db
`)

	cfg, err := NewLoader(tempDir).Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"src/**/*.rs"}, cfg.Paths.Include)
	assert.Equal(t, []string{"src/generated/**"}, cfg.Paths.Ignore)
	assert.Equal(t, "export", cfg.Select.Attribute)
	assert.True(t, cfg.Analysis.FailFast)
	assert.Equal(t, 16, cfg.Analysis.CacheSize)
	assert.Equal(t, "out/model.json", cfg.Output.Model)
	assert.Equal(t, "out/typelink.db", cfg.Output.Database)
}

func TestLoadConfig_LoadsFromConfigYaml(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	writeConfig(t, tempDir, "config.yaml", `
select:
  all: true
`)

	cfg, err := LoadConfigFromDir(tempDir)
	require.NoError(t, err)
	assert.True(t, cfg.Select.All)
}

func TestLoadConfig_MergesConfigWithDefaults(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	writeConfig(t, tempDir, "config.yml", `
analysis:
  cache_size: 0
`)

	cfg, err := NewLoader(tempDir).Load()
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.Analysis.CacheSize)
	assert.Equal(t, Default().Paths, cfg.Paths)
	assert.Equal(t, "typelink", cfg.Select.Attribute)
}

func TestLoadConfig_EnvironmentVariablesOverrideConfigFile(t *testing.T) {
	// Note: Cannot use t.Parallel() with t.Setenv()
	tempDir := t.TempDir()
	writeConfig(t, tempDir, "config.yml", `
select:
  attribute: from-file
output:
  model: file.json
`)

	t.Setenv("TYPELINK_SELECT_ATTRIBUTE", "from-env")
	t.Setenv("TYPELINK_ANALYSIS_FAIL_FAST", "true")

	cfg, err := NewLoader(tempDir).Load()
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Select.Attribute)
	assert.True(t, cfg.Analysis.FailFast)
	// Not overridden, comes from the file
	assert.Equal(t, "file.json", cfg.Output.Model)
}

func TestLoadConfig_EnvironmentVariablesOverrideDefaults(t *testing.T) {
	t.Setenv("TYPELINK_OUTPUT_DATABASE", "env.db")
	t.Setenv("TYPELINK_ANALYSIS_CACHE_SIZE", "8")

	cfg, err := NewLoader(t.TempDir()).Load()
	require.NoError(t, err)

	assert.Equal(t, "env.db", cfg.Output.Database)
	assert.Equal(t, 8, cfg.Analysis.CacheSize)
}

func TestLoadConfig_ReturnsErrorForMalformedYaml(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	writeConfig(t, tempDir, "config.yml", `
select:
  attribute: "unclosed quote
  all: not-a-bool
`)

	cfg, err := NewLoader(tempDir).Load()
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoadConfig_ReturnsErrorForInvalidValues(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	writeConfig(t, tempDir, "config.yml", `
analysis:
  cache_size: -1
`)

	cfg, err := NewLoader(tempDir).Load()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.True(t, errors.Is(err, ErrInvalidCacheSize))
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"empty include", func(c *Config) { c.Paths.Include = nil }, ErrEmptyInclude},
		{"bad include glob", func(c *Config) { c.Paths.Include = []string{"src/[a-"} }, ErrInvalidPattern},
		{"bad ignore glob", func(c *Config) { c.Paths.Ignore = []string{"{a,b"} }, ErrInvalidPattern},
		{"unclosed include brace", func(c *Config) { c.Paths.Include = []string{"src/{lib,main.rs"} }, ErrInvalidPattern},
		{"stray closing brace", func(c *Config) { c.Paths.Include = []string{"src/*.rs}"} }, ErrInvalidPattern},
		{"empty attribute", func(c *Config) { c.Select.Attribute = "  " }, ErrEmptyAttribute},
		{"negative cache size", func(c *Config) { c.Analysis.CacheSize = -5 }, ErrInvalidCacheSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.mutate(cfg)
			err := Validate(cfg)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestValidate_BalancedBraces(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Paths.Include = []string{"{src,benches}/**/*.rs", `src/\{literal.rs`}
	cfg.Paths.Ignore = []string{"target/{debug,release}/**"}
	assert.NoError(t, Validate(cfg))
}

func TestValidate_EmptyAttributeAllowedWithSelectAll(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Select.Attribute = ""
	cfg.Select.All = true
	assert.NoError(t, Validate(cfg))
}

func TestValidate_EmptyAttributeCarriesHint(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Select.Attribute = ""
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, errors.GetAllHints(err), "set select.attribute or enable select.all")
}

func TestValidate_ReturnsMultipleErrorsForMultipleInvalidFields(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Paths.Include = nil
	cfg.Select.Attribute = ""
	cfg.Analysis.CacheSize = -1

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
	assert.True(t, errors.Is(err, ErrEmptyInclude))
	assert.True(t, errors.Is(err, ErrEmptyAttribute))
	assert.True(t, errors.Is(err, ErrInvalidCacheSize))
}
