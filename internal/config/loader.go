package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// ConfigDir is the project-level configuration directory.
const ConfigDir = ".exminer"

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	rootDir    string
	configFile string
}

// NewLoader creates a configuration loader that looks for
// .exminer/config.yml under rootDir.
func NewLoader(rootDir string) Loader {
	return &loader{rootDir: rootDir}
}

// NewFileLoader creates a loader for an explicit config file. The file must
// exist.
func NewFileLoader(configFile string) Loader {
	return &loader{configFile: configFile}
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (EXMINER_*)
// 2. Config file (.exminer/config.yml, .exminer/config.yaml or the explicit file)
// 3. Default values
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Join(l.rootDir, ConfigDir))
	}

	// Enable environment variable overrides
	v.SetEnvPrefix("EXMINER")
	v.AutomaticEnv()
	// Replace . with _ in env var names (e.g., EXMINER_FILTER_MAX_LINES)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	bindEnvVars(v)

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Config file not found is acceptable - we'll use defaults + env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || l.configFile != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// bindEnvVars binds the scalar keys so AutomaticEnv sees them during Unmarshal.
func bindEnvVars(v *viper.Viper) {
	v.BindEnv("language")
	v.BindEnv("filter.min_lines")
	v.BindEnv("filter.max_lines")
	v.BindEnv("sampling.seed")
	v.BindEnv("split.train")
	v.BindEnv("split.valid")
	v.BindEnv("output.dir")
	v.BindEnv("output.database")
	v.BindEnv("workers")
	v.BindEnv("cache.capacity")
}

// setDefaults configures viper with default values.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("language", defaults.Language)

	v.SetDefault("paths.include", defaults.Paths.Include)
	v.SetDefault("paths.ignore", defaults.Paths.Ignore)

	v.SetDefault("filter.min_lines", defaults.Filter.MinLines)
	v.SetDefault("filter.max_lines", defaults.Filter.MaxLines)

	v.SetDefault("exceptions.java", defaults.Exceptions.Java)
	v.SetDefault("exceptions.python", defaults.Exceptions.Python)

	v.SetDefault("sampling.seed", defaults.Sampling.Seed)
	v.SetDefault("split.train", defaults.Split.Train)
	v.SetDefault("split.valid", defaults.Split.Valid)

	v.SetDefault("output.dir", defaults.Output.Dir)
	v.SetDefault("output.database", defaults.Output.Database)

	v.SetDefault("workers", defaults.Workers)
	v.SetDefault("cache.capacity", defaults.Cache.Capacity)
}

// LoadConfig is a convenience function that creates a loader and loads config.
// It uses the current working directory as the root.
func LoadConfig() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return NewLoader(wd).Load()
}

// LoadConfigFromDir loads configuration from a specific directory.
func LoadConfigFromDir(rootDir string) (*Config, error) {
	return NewLoader(rootDir).Load()
}
