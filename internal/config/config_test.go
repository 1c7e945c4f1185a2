package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/r4phael/exception-miner/internal/syntax"
)

// Test Plan for Config System:
// - Default() returns a valid configuration with the expected defaults
// - Load() uses defaults when no config file exists
// - Load() merges .exminer/config.yml (or .yaml) with defaults
// - Environment variables override the config file
// - An explicit config file must exist
// - Load() rejects malformed YAML and invalid values
// - Validate() reports every invalid field, each matchable with errors.Is
// - IncludePatterns() derives globs from the language when none are set

func writeConfig(t *testing.T, dir, name, content string) {
	t.Helper()
	configDir := filepath.Join(dir, ConfigDir)
	require.NoError(t, os.MkdirAll(configDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(configDir, name), []byte(content), 0644))
}

func TestDefault_ReturnsValidConfiguration(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NotNil(t, cfg)

	assert.Equal(t, "java", cfg.Language)
	assert.Equal(t, 7, cfg.Filter.MinLines)
	assert.Equal(t, 100, cfg.Filter.MaxLines)
	assert.Equal(t, uint64(10), cfg.Sampling.Seed)
	assert.Equal(t, 0.6, cfg.Split.Train)
	assert.Equal(t, 0.2, cfg.Split.Valid)
	assert.Equal(t, "output", cfg.Output.Dir)
	assert.Equal(t, "exminer.db", cfg.Output.Database)
	assert.Contains(t, cfg.Exceptions.Java, "IOException")
	assert.NotEmpty(t, cfg.Exceptions.Python)
	assert.NotEmpty(t, cfg.Paths.Ignore)

	assert.NoError(t, Validate(cfg))
}

func TestLoad_UsesDefaultsWhenNoConfigFile(t *testing.T) {
	t.Parallel()

	cfg, err := NewLoader(t.TempDir()).Load()
	require.NoError(t, err)

	want := Default()
	assert.Equal(t, want.Language, cfg.Language)
	assert.Equal(t, want.Filter, cfg.Filter)
	assert.Equal(t, want.Exceptions, cfg.Exceptions)
	assert.Equal(t, want.Sampling, cfg.Sampling)
	assert.Equal(t, want.Split, cfg.Split)
	assert.Equal(t, want.Output, cfg.Output)
	assert.Equal(t, want.Cache, cfg.Cache)
	assert.Equal(t, want.Paths.Ignore, cfg.Paths.Ignore)
	assert.Empty(t, cfg.Paths.Include)
}

func TestLoad_MergesConfigFile(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"config.yml", "config.yaml"} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			writeConfig(t, dir, name, `
language: python
filter:
  max_lines: 50
exceptions:
  python: [ValueError, KeyError]
paths:
  include: ["src/**/*.py"]
`)

			cfg, err := NewLoader(dir).Load()
			require.NoError(t, err)
			assert.Equal(t, "python", cfg.Language)
			assert.Equal(t, 50, cfg.Filter.MaxLines)
			assert.Equal(t, 7, cfg.Filter.MinLines, "unset keys keep defaults")
			assert.Equal(t, []string{"ValueError", "KeyError"}, cfg.Exceptions.Python)
			assert.Equal(t, []string{"src/**/*.py"}, cfg.IncludePatterns())
		})
	}
}

// No t.Parallel(): t.Setenv
func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.yml", "workers: 2\nsampling:\n  seed: 3\n")

	t.Setenv("EXMINER_WORKERS", "8")
	t.Setenv("EXMINER_OUTPUT_DIR", "/tmp/out")

	cfg, err := NewLoader(dir).Load()
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, "/tmp/out", cfg.Output.Dir)
	assert.Equal(t, uint64(3), cfg.Sampling.Seed)
}

func TestFileLoader(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yml")
	require.NoError(t, os.WriteFile(path, []byte("cache:\n  capacity: 16\n"), 0644))

	cfg, err := NewFileLoader(path).Load()
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.Cache.Capacity)

	_, err = NewFileLoader(filepath.Join(dir, "missing.yml")).Load()
	assert.Error(t, err)
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	t.Run("malformed yaml", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		writeConfig(t, dir, "config.yml", "language: [java\n")
		_, err := NewLoader(dir).Load()
		assert.Error(t, err)
	})

	t.Run("invalid value", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		writeConfig(t, dir, "config.yml", "language: cobol\n")
		_, err := NewLoader(dir).Load()
		assert.ErrorIs(t, err, ErrInvalidLanguage)
	})
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"bad language", func(c *Config) { c.Language = "go" }, ErrInvalidLanguage},
		{"bad include glob", func(c *Config) { c.Paths.Include = []string{"[a-"} }, ErrInvalidPattern},
		{"negative min lines", func(c *Config) { c.Filter.MinLines = -1 }, ErrInvalidFilter},
		{"max not above min", func(c *Config) { c.Filter.MaxLines = 7 }, ErrInvalidFilter},
		{"empty allow-list", func(c *Config) { c.Exceptions.Java = nil }, ErrEmptyAllowList},
		{"zero train", func(c *Config) { c.Split.Train = 0 }, ErrInvalidSplit},
		{"fractions above one", func(c *Config) { c.Split.Valid = 0.5 }, ErrInvalidSplit},
		{"empty output dir", func(c *Config) { c.Output.Dir = " " }, ErrEmptyOutput},
		{"empty database", func(c *Config) { c.Output.Database = "" }, ErrEmptyOutput},
		{"negative workers", func(c *Config) { c.Workers = -1 }, ErrInvalidWorkers},
		{"negative cache", func(c *Config) { c.Cache.Capacity = -1 }, ErrInvalidCacheSettings},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.modify(cfg)
			assert.ErrorIs(t, Validate(cfg), tt.want)
		})
	}
}

func TestValidate_ReportsEveryField(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Workers = -1
	cfg.Split.Train = 0
	cfg.Output.Dir = ""

	err := Validate(cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidWorkers)
	assert.ErrorIs(t, err, ErrInvalidSplit)
	assert.ErrorIs(t, err, ErrEmptyOutput)
	assert.Contains(t, err.Error(), "validation failed:")
}

func TestIncludePatterns(t *testing.T) {
	t.Parallel()

	cfg := Default()
	assert.Equal(t, []string{"**/*.java"}, cfg.IncludePatterns())

	cfg.Language = "python"
	assert.Equal(t, []string{"**/*.py"}, cfg.IncludePatterns())
	assert.Equal(t, cfg.Exceptions.Python, cfg.AllowList(syntax.Python))

	cfg.Language = "nope"
	assert.Empty(t, cfg.IncludePatterns())
}

func TestToMinerConfig(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Language = "python"
	cfg.Workers = 3

	mc, err := cfg.ToMinerConfig("/src")
	require.NoError(t, err)
	assert.Equal(t, "/src", mc.RootDir)
	assert.Equal(t, syntax.Python, mc.Language)
	assert.Equal(t, []string{"**/*.py"}, mc.IncludePattern)
	assert.Equal(t, cfg.Exceptions.Python, mc.AllowList)
	assert.Equal(t, 0.6, mc.Split.Train)
	assert.Equal(t, 3, mc.Workers)

	cfg.Language = "cobol"
	_, err = cfg.ToMinerConfig("/src")
	assert.ErrorIs(t, err, syntax.ErrUnsupportedLanguage)
}
