package config

import (
	"github.com/r4phael/exception-miner/internal/dataset"
	"github.com/r4phael/exception-miner/internal/miner"
)

// ToMinerConfig converts a Config to a miner.Config.
// The rootDir parameter specifies the source tree to mine.
func (c *Config) ToMinerConfig(rootDir string) (miner.Config, error) {
	lang, err := c.ParsedLanguage()
	if err != nil {
		return miner.Config{}, err
	}
	return miner.Config{
		RootDir:        rootDir,
		Language:       lang,
		IncludePattern: c.IncludePatterns(),
		IgnorePatterns: c.Paths.Ignore,
		MinLines:       c.Filter.MinLines,
		MaxLines:       c.Filter.MaxLines,
		AllowList:      c.AllowList(lang),
		Seed:           c.Sampling.Seed,
		Split:          dataset.Fractions{Train: c.Split.Train, Valid: c.Split.Valid},
		Workers:        c.Workers,
		CacheCapacity:  c.Cache.Capacity,
		Metrics:        true,
		Datasets:       true,
	}, nil
}
