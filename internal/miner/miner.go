// Package miner runs the exception-handling analysis over a source tree and
// reduces per-file results into metric rows and datasets.
package miner

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/r4phael/exception-miner/internal/analysis"
	"github.com/r4phael/exception-miner/internal/dataset"
	"github.com/r4phael/exception-miner/internal/git"
	"github.com/r4phael/exception-miner/internal/logging"
	"github.com/r4phael/exception-miner/internal/syntax"
)

var log = logging.Get("miner")

// Result is the reduced output of a run. Everything in it depends only on
// the files and the configuration, never on the worker count.
type Result struct {
	Files   []string
	Metrics []analysis.Metrics
	// Task1 holds positives and sampled negatives, split.
	Task1 dataset.Split[dataset.Task1Row]
	Task2 dataset.Split[dataset.Task2Row]
	Stats dataset.Stats

	Positives int
	Negatives int // after sampling
	Skipped   int
	CacheHits int64
	Duration  time.Duration
}

// Miner mines one source tree.
type Miner struct {
	cfg       Config
	discovery *FileDiscovery
	processor *processor
	progress  ProgressReporter
}

// Option configures a Miner.
type Option func(*Miner)

// WithProgress sets the progress reporter.
func WithProgress(p ProgressReporter) Option {
	return func(m *Miner) {
		m.progress = p
	}
}

// WithGit lists candidate files with git instead of walking the tree.
func WithGit(ops git.Operations) Option {
	return func(m *Miner) {
		m.discovery.WithGit(ops)
	}
}

// New creates a Miner for cfg.
func New(cfg Config, opts ...Option) (*Miner, error) {
	if err := cfg.Split.Validate(); err != nil {
		return nil, err
	}

	parser, err := syntax.NewParser(cfg.Language)
	if err != nil {
		return nil, err
	}
	analyzer, err := analysis.New(cfg.Language, cfg.AllowList)
	if err != nil {
		return nil, err
	}
	builder, err := dataset.NewBuilder(analyzer)
	if err != nil {
		return nil, err
	}
	discovery, err := NewFileDiscovery(cfg.RootDir, cfg.Language, cfg.IncludePattern, cfg.IgnorePatterns)
	if err != nil {
		return nil, fmt.Errorf("invalid file pattern: %w", err)
	}
	cache, err := newResultCache(cfg.CacheCapacity)
	if err != nil {
		return nil, fmt.Errorf("failed to create result cache: %w", err)
	}

	m := &Miner{
		cfg:       cfg,
		discovery: discovery,
		progress:  &NoOpProgressReporter{},
	}
	m.processor = &processor{
		cfg:      &m.cfg,
		parser:   parser,
		analyzer: analyzer,
		builder:  builder,
		cache:    cache,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Close releases the result cache.
func (m *Miner) Close() {
	m.processor.cache.close()
}

// Run discovers and mines every file, then reduces, samples and splits.
func (m *Miner) Run(ctx context.Context) (*Result, error) {
	start := time.Now()

	m.progress.OnDiscoveryStart()
	files, err := m.discovery.DiscoverFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("file discovery failed: %w", err)
	}
	m.progress.OnDiscoveryComplete(len(files))
	log.Infof("mining %d %s files under %s", len(files), m.cfg.Language, m.cfg.RootDir)

	results, err := m.processAll(ctx, files)
	if err != nil {
		return nil, err
	}

	res := m.reduce(files, results)
	res.CacheHits = m.processor.cache.hits()
	res.Duration = time.Since(start)
	m.progress.OnComplete(res)
	return res, nil
}

// processAll mines files concurrently. Results are stored by file index so
// the reduction sees them in input order.
func (m *Miner) processAll(ctx context.Context, files []string) ([]*FileResult, error) {
	workers := m.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	m.progress.OnFileProcessingStart(len(files))
	results := make([]*FileResult, len(files))
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, file := range files {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := m.processor.processFile(file)
			if err != nil {
				return err
			}
			results[i] = res
			done.Add(1)
			m.progress.OnFileProcessed(file)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log.Debugf("processed %d files", done.Load())
	return results, nil
}

// reduce folds per-file results in input order, samples negatives down to
// the number of positives and splits both datasets with the configured seed.
func (m *Miner) reduce(files []string, results []*FileResult) *Result {
	res := &Result{Files: files, Stats: dataset.NewStats()}

	var positives, negatives []dataset.Task1Row
	var task2 []dataset.Task2Row
	for _, fr := range results {
		res.Metrics = append(res.Metrics, fr.Metrics...)
		positives = append(positives, fr.Positives...)
		negatives = append(negatives, fr.Negatives...)
		task2 = append(task2, fr.Task2...)
		res.Stats.Merge(fr.Stats)
		res.Skipped += fr.Skipped
	}

	rng := dataset.NewRand(m.cfg.Seed)
	negatives = dataset.Sample(rng, negatives, len(positives))
	res.Positives = len(positives)
	res.Negatives = len(negatives)

	task1 := append(positives, negatives...)
	res.Task1 = dataset.SplitItems(rng, task1, m.cfg.Split)
	res.Task2 = dataset.SplitItems(rng, task2, m.cfg.Split)

	log.Infof("reduced %d functions: %d positives, %d negatives, %d handler samples, %d skipped",
		res.Stats.Functions, res.Positives, res.Negatives, len(task2), res.Skipped)
	return res
}
