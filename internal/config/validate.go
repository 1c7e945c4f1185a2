package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

var (
	// ErrInvalidLanguage indicates an unsupported source language
	ErrInvalidLanguage = errors.New("invalid language")

	// ErrInvalidPattern indicates a glob pattern that does not compile
	ErrInvalidPattern = errors.New("invalid glob pattern")

	// ErrInvalidFilter indicates inconsistent function size bounds
	ErrInvalidFilter = errors.New("invalid function filter")

	// ErrEmptyAllowList indicates a language without accepted handler types
	ErrEmptyAllowList = errors.New("empty exception allow-list")

	// ErrInvalidSplit indicates split fractions that do not describe a partition
	ErrInvalidSplit = errors.New("invalid split fractions")

	// ErrEmptyOutput indicates a missing output location
	ErrEmptyOutput = errors.New("empty output location")

	// ErrInvalidWorkers indicates a negative worker count
	ErrInvalidWorkers = errors.New("invalid worker count")

	// ErrInvalidCacheSettings indicates invalid cache configuration
	ErrInvalidCacheSettings = errors.New("invalid cache settings")
)

// Validate checks that the configuration is valid and complete. Every
// invalid field is reported; the result matches each cause with errors.Is.
func Validate(cfg *Config) error {
	var errs []error

	lang, err := cfg.ParsedLanguage()
	if err != nil {
		errs = append(errs, fmt.Errorf("%w: must be 'java' or 'python', got '%s'", ErrInvalidLanguage, cfg.Language))
	}

	errs = append(errs, validatePaths(&cfg.Paths)...)
	errs = append(errs, validateFilter(&cfg.Filter)...)

	if err == nil && len(cfg.AllowList(lang)) == 0 {
		errs = append(errs, fmt.Errorf("%w: exceptions.%s needs at least one type", ErrEmptyAllowList, lang))
	}

	errs = append(errs, validateSplit(&cfg.Split)...)

	if strings.TrimSpace(cfg.Output.Dir) == "" {
		errs = append(errs, fmt.Errorf("%w: output.dir is required", ErrEmptyOutput))
	}
	if strings.TrimSpace(cfg.Output.Database) == "" {
		errs = append(errs, fmt.Errorf("%w: output.database is required", ErrEmptyOutput))
	}

	if cfg.Workers < 0 {
		errs = append(errs, fmt.Errorf("%w: workers cannot be negative, got %d", ErrInvalidWorkers, cfg.Workers))
	}
	if cfg.Cache.Capacity < 0 {
		errs = append(errs, fmt.Errorf("%w: cache.capacity cannot be negative, got %d", ErrInvalidCacheSettings, cfg.Cache.Capacity))
	}

	return joinErrors(errs)
}

func validatePaths(cfg *PathsConfig) []error {
	var errs []error
	for _, group := range []struct {
		key      string
		patterns []string
	}{
		{"paths.include", cfg.Include},
		{"paths.ignore", cfg.Ignore},
	} {
		for _, pattern := range group.patterns {
			if _, err := glob.Compile(pattern, '/'); err != nil {
				errs = append(errs, fmt.Errorf("%w: %s entry '%s': %v", ErrInvalidPattern, group.key, pattern, err))
			}
		}
	}
	return errs
}

func validateFilter(cfg *FilterConfig) []error {
	var errs []error
	if cfg.MinLines < 0 {
		errs = append(errs, fmt.Errorf("%w: min_lines cannot be negative, got %d", ErrInvalidFilter, cfg.MinLines))
	}
	if cfg.MaxLines <= cfg.MinLines {
		errs = append(errs, fmt.Errorf("%w: max_lines (%d) must be greater than min_lines (%d)", ErrInvalidFilter, cfg.MaxLines, cfg.MinLines))
	}
	return errs
}

func validateSplit(cfg *SplitConfig) []error {
	var errs []error
	if cfg.Train <= 0 || cfg.Train > 1 {
		errs = append(errs, fmt.Errorf("%w: train must be in (0, 1], got %.2f", ErrInvalidSplit, cfg.Train))
	}
	if cfg.Valid < 0 {
		errs = append(errs, fmt.Errorf("%w: valid cannot be negative, got %.2f", ErrInvalidSplit, cfg.Valid))
	}
	if cfg.Train+cfg.Valid > 1 {
		errs = append(errs, fmt.Errorf("%w: train + valid must not exceed 1, got %.2f", ErrInvalidSplit, cfg.Train+cfg.Valid))
	}
	return errs
}

// joinErrors combines multiple errors into a single error with clear
// formatting while keeping every cause reachable through errors.Is.
func joinErrors(errs []error) error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	}

	format := "validation failed:" + strings.Repeat("\n  - %w", len(errs))
	args := make([]any, len(errs))
	for i, err := range errs {
		args[i] = err
	}
	return fmt.Errorf(format, args...)
}
