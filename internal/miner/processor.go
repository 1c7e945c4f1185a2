package miner

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/r4phael/exception-miner/internal/analysis"
	"github.com/r4phael/exception-miner/internal/dataset"
	"github.com/r4phael/exception-miner/internal/syntax"
)

// FileResult is everything mined from one file.
type FileResult struct {
	File      string
	Metrics   []analysis.Metrics
	Positives []dataset.Task1Row
	Negatives []dataset.Task1Row
	Task2     []dataset.Task2Row
	Stats     dataset.Stats
	// Skipped counts functions (or the whole file) dropped for a
	// recoverable reason.
	Skipped int
}

// forFile returns a copy of r with every row attributed to file.
func (r *FileResult) forFile(file string) *FileResult {
	out := *r
	out.File = file
	out.Metrics = slices.Clone(r.Metrics)
	for i := range out.Metrics {
		out.Metrics[i].File = file
	}
	out.Positives = restampTask1(r.Positives, file)
	out.Negatives = restampTask1(r.Negatives, file)
	out.Task2 = slices.Clone(r.Task2)
	for i := range out.Task2 {
		out.Task2[i].File = file
	}
	return &out
}

func restampTask1(rows []dataset.Task1Row, file string) []dataset.Task1Row {
	rows = slices.Clone(rows)
	for i := range rows {
		rows[i].File = file
	}
	return rows
}

// processor analyses single files. It is safe for concurrent use.
type processor struct {
	cfg      *Config
	parser   *syntax.Parser
	analyzer *analysis.Analyzer
	builder  *dataset.Builder
	cache    *resultCache
}

// processFile mines the file at rel (relative to the root). Recoverable
// failures are logged and counted in the result; any other error is returned.
func (p *processor) processFile(rel string) (*FileResult, error) {
	content, err := os.ReadFile(filepath.Join(p.cfg.RootDir, filepath.FromSlash(rel)))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", rel, err)
	}

	key := keyFor(p.cfg.Language, content)
	if res, ok := p.cache.get(key, rel); ok {
		log.Debugf("%s: identical content already mined", rel)
		return res, nil
	}

	res, err := p.analyze(rel, content)
	if err != nil {
		return nil, err
	}
	p.cache.set(key, res)
	return res, nil
}

func (p *processor) analyze(rel string, content []byte) (*FileResult, error) {
	res := &FileResult{File: rel, Stats: dataset.NewStats()}
	res.Stats.Files = 1

	tree, err := p.parser.Parse(content)
	if err != nil {
		if analysis.IsRecoverable(err) {
			log.Warning("skipping file", "file", rel, "error", err.Error())
			res.Skipped++
			return res, nil
		}
		return nil, fmt.Errorf("%s: %w", rel, err)
	}
	defer tree.Close()
	root := tree.Root()

	if p.cfg.Metrics {
		metrics, skipped, err := p.analyzer.FileMetrics(rel, root)
		if err != nil {
			return nil, err
		}
		for _, serr := range skipped {
			if err := p.skip(res, rel, "", serr); err != nil {
				return nil, err
			}
		}
		res.Metrics = metrics
	}

	if p.cfg.Datasets {
		for _, fn := range p.analyzer.FunctionDefinitions(root) {
			if err := p.collect(res, rel, fn); err != nil {
				return nil, err
			}
		}
	}
	return res, nil
}

// collect adds the dataset rows of one function.
func (p *processor) collect(res *FileResult, rel string, fn *syntax.Node) error {
	lines := p.analyzer.CountLines(fn)
	if lines <= p.cfg.MinLines || lines > p.cfg.MaxLines {
		return nil
	}
	res.Stats.AddFunction(p.analyzer.TryCount(fn), p.analyzer.CountStatements(fn))
	name := p.functionLabel(fn)

	switch {
	case p.analyzer.HasExceptionHandler(fn) && !p.analyzer.HasNestedTry(fn):
		row, err := p.builder.Task1(rel, fn)
		if err != nil {
			return p.skip(res, rel, name, err)
		}
		res.Positives = append(res.Positives, row)
		res.Stats.AddTask1(row)

		if p.analyzer.IsBadExceptionHandling(fn) {
			return nil
		}
		rows, err := p.builder.Task2(rel, fn)
		if errors.Is(err, dataset.ErrNoHandlers) {
			return nil
		}
		if err != nil {
			return p.skip(res, rel, name, err)
		}
		res.Task2 = append(res.Task2, rows...)
		res.Stats.Handlers += len(rows)

	case !p.analyzer.HasTry(fn):
		row, err := p.builder.Task1(rel, fn)
		if err != nil {
			return p.skip(res, rel, name, err)
		}
		res.Negatives = append(res.Negatives, row)
		res.Stats.AddTask1(row)
	}
	return nil
}

// skip logs and counts a recoverable error, or returns it when fatal.
// functionLabel names fn for log messages, falling back to its line when
// the function has no identifier.
func (p *processor) functionLabel(fn *syntax.Node) string {
	if name, err := p.analyzer.FunctionName(fn); err == nil {
		return name
	}
	return fmt.Sprintf("<unnamed at line %d>", fn.StartPoint().Row+1)
}

func (p *processor) skip(res *FileResult, file, function string, err error) error {
	if !analysis.IsRecoverable(err) {
		return fmt.Errorf("%s %s: %w", file, function, err)
	}
	log.Warning("skipping function", "file", file, "function", function, "error", err.Error())
	res.Skipped++
	return nil
}
