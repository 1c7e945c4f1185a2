package cli

import (
	"path/filepath"

	"github.com/r4phael/exception-miner/internal/config"
)

// datasetDir is where preprocess writes the datasets of cfg's language.
func datasetDir(cfg *config.Config) string {
	return filepath.Join(cfg.Output.Dir, cfg.Language)
}

// databasePath resolves output.database; relative paths live under output.dir.
func databasePath(cfg *config.Config) string {
	if filepath.IsAbs(cfg.Output.Database) {
		return cfg.Output.Database
	}
	return filepath.Join(cfg.Output.Dir, cfg.Output.Database)
}

// projectsDir is where fetch clones repositories of cfg's language.
func projectsDir(cfg *config.Config) string {
	return filepath.Join(cfg.Output.Dir, "projects", cfg.Language)
}

// sourceDir returns the directory argument or the working directory.
func sourceDir(args []string) (string, error) {
	if len(args) > 0 {
		return filepath.Abs(args[0])
	}
	return filepath.Abs(".")
}
