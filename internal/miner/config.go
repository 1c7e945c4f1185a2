package miner

import (
	"github.com/r4phael/exception-miner/internal/dataset"
	"github.com/r4phael/exception-miner/internal/syntax"
)

// Config controls a mining run.
type Config struct {
	RootDir        string
	Language       syntax.Language
	IncludePattern []string
	IgnorePatterns []string

	// MinLines and MaxLines bound eligible functions: MinLines < lines <= MaxLines.
	MinLines int
	MaxLines int

	// AllowList overrides the default handler types; nil keeps the defaults.
	AllowList []string

	Seed  uint64
	Split dataset.Fractions

	// Workers is the number of files analysed at once; 0 means one per CPU.
	Workers int
	// CacheCapacity is the number of file results kept by content hash;
	// 0 disables the cache.
	CacheCapacity int

	// Metrics enables per-function metric rows; Datasets enables task1/task2
	// rows. At least one should be set.
	Metrics  bool
	Datasets bool
}
