// Package config loads exminer configuration.
//
// Configuration Hierarchy (highest to lowest priority):
//  1. Environment variables (EXMINER_*)
//  2. Project config (.exminer/config.yml) or an explicit --config file
//  3. Built-in defaults
//
// Nested fields map to environment variables with underscores, e.g.
// EXMINER_FILTER_MAX_LINES overrides filter.max_lines.
package config

import (
	"slices"

	"github.com/r4phael/exception-miner/internal/analysis"
	"github.com/r4phael/exception-miner/internal/syntax"
)

// Config represents the complete exminer configuration.
type Config struct {
	Language   string           `yaml:"language" mapstructure:"language"` // "java" or "python"
	Paths      PathsConfig      `yaml:"paths" mapstructure:"paths"`
	Filter     FilterConfig     `yaml:"filter" mapstructure:"filter"`
	Exceptions ExceptionsConfig `yaml:"exceptions" mapstructure:"exceptions"`
	Sampling   SamplingConfig   `yaml:"sampling" mapstructure:"sampling"`
	Split      SplitConfig      `yaml:"split" mapstructure:"split"`
	Output     OutputConfig     `yaml:"output" mapstructure:"output"`
	Workers    int              `yaml:"workers" mapstructure:"workers"` // 0 means one per CPU
	Cache      CacheConfig      `yaml:"cache" mapstructure:"cache"`
}

// PathsConfig defines which files to mine and which to ignore.
type PathsConfig struct {
	Include []string `yaml:"include" mapstructure:"include"` // glob patterns; empty means every file of the language
	Ignore  []string `yaml:"ignore" mapstructure:"ignore"`   // glob patterns to ignore
}

// FilterConfig bounds the size of functions that enter the datasets.
type FilterConfig struct {
	MinLines int `yaml:"min_lines" mapstructure:"min_lines"` // exclusive
	MaxLines int `yaml:"max_lines" mapstructure:"max_lines"` // inclusive
}

// ExceptionsConfig holds the handler type allow-lists per language.
type ExceptionsConfig struct {
	Java   []string `yaml:"java" mapstructure:"java"`
	Python []string `yaml:"python" mapstructure:"python"`
}

// SamplingConfig seeds negative sampling and the split shuffle.
type SamplingConfig struct {
	Seed uint64 `yaml:"seed" mapstructure:"seed"`
}

// SplitConfig holds the train/valid fractions; test takes the rest.
type SplitConfig struct {
	Train float64 `yaml:"train" mapstructure:"train"`
	Valid float64 `yaml:"valid" mapstructure:"valid"`
}

// OutputConfig locates generated files.
type OutputConfig struct {
	Dir      string `yaml:"dir" mapstructure:"dir"`
	Database string `yaml:"database" mapstructure:"database"` // relative paths resolve under Dir
}

// CacheConfig sizes the per-file result cache.
type CacheConfig struct {
	Capacity int `yaml:"capacity" mapstructure:"capacity"` // entries; 0 disables the cache
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Language: syntax.Java.String(),
		Paths: PathsConfig{
			Include: []string{},
			Ignore: []string{
				".git/**",
				".exminer/**",
				"node_modules/**",
				"build/**",
				"target/**",
				"__pycache__/**",
				".venv/**",
				"venv/**",
			},
		},
		Filter: FilterConfig{
			MinLines: 7,
			MaxLines: 100,
		},
		Exceptions: ExceptionsConfig{
			Java:   slices.Clone(analysis.DefaultAllowList(syntax.Java)),
			Python: slices.Clone(analysis.DefaultAllowList(syntax.Python)),
		},
		Sampling: SamplingConfig{Seed: 10},
		Split:    SplitConfig{Train: 0.6, Valid: 0.2},
		Output: OutputConfig{
			Dir:      "output",
			Database: "exminer.db",
		},
		Workers: 0,
		Cache:   CacheConfig{Capacity: 4096},
	}
}

// ParsedLanguage returns the configured language.
func (c *Config) ParsedLanguage() (syntax.Language, error) {
	return syntax.ParseLanguage(c.Language)
}

// IncludePatterns returns the include globs, deriving them from the
// language's file extensions when none are configured.
func (c *Config) IncludePatterns() []string {
	if len(c.Paths.Include) > 0 {
		return c.Paths.Include
	}
	lang, err := c.ParsedLanguage()
	if err != nil {
		return nil
	}
	var patterns []string
	for _, ext := range lang.Extensions() {
		patterns = append(patterns, "**/*"+ext)
	}
	return patterns
}

// AllowList returns the handler allow-list for lang.
func (c *Config) AllowList(lang syntax.Language) []string {
	switch lang {
	case syntax.Java:
		return c.Exceptions.Java
	case syntax.Python:
		return c.Exceptions.Python
	}
	return nil
}
