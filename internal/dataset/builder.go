package dataset

import (
	"errors"
	"fmt"
	"strings"

	"github.com/r4phael/exception-miner/internal/analysis"
	"github.com/r4phael/exception-miner/internal/slicing"
	"github.com/r4phael/exception-miner/internal/syntax"
	"github.com/r4phael/exception-miner/internal/tokens"
)

// ErrNoHandlers means a function has a try construct but none of its
// handlers passed the common/non-empty filter.
var ErrNoHandlers = errors.New("no accepted handlers")

// Task1Row is a try-block detection sample: one function, tokenized per line,
// with lines labeled 1 from the try block on. Lines from the first handler on
// are not emitted.
type Task1Row struct {
	File     string   `json:"file"`
	Function string   `json:"function"`
	Lines    []string `json:"lines"`
	Labels   []int    `json:"labels"`
	HasCatch int      `json:"hasCatch"`
}

// Task2Row is a handler generation sample: the code up to and including the
// try block, with its relevance mask, and one accepted handler as target.
type Task2Row struct {
	File     string   `json:"file"`
	Function string   `json:"function"`
	Front    []string `json:"front"`
	Back     []string `json:"back"`
	Mask     []int    `json:"mask"`
	Target   []string `json:"target"`
}

// Source is the full model input: front followed by back.
func (r Task2Row) Source() string {
	return strings.Join(append(append([]string{}, r.Front...), r.Back...), " ")
}

// Builder turns function definitions into dataset rows.
type Builder struct {
	analyzer  *analysis.Analyzer
	tokenizer *tokens.Tokenizer
	dialect   *slicing.Dialect
}

// NewBuilder creates a row builder on top of an analyzer.
func NewBuilder(a *analysis.Analyzer) (*Builder, error) {
	dialect, err := slicing.ForLanguage(a.Language())
	if err != nil {
		return nil, err
	}
	return &Builder{
		analyzer:  a,
		tokenizer: tokens.New(a.Queries()),
		dialect:   dialect,
	}, nil
}

// Analyzer returns the analyzer rows are built with.
func (b *Builder) Analyzer() *analysis.Analyzer {
	return b.analyzer
}

// Task1 builds the try-block detection row for fn. Functions without a try
// construct produce an all-zero row.
func (b *Builder) Task1(file string, fn *syntax.Node) (Task1Row, error) {
	name, err := b.analyzer.FunctionName(fn)
	if err != nil {
		return Task1Row{}, err
	}

	toks, err := b.tokenizer.Node(fn)
	if err != nil {
		return Task1Row{}, fmt.Errorf("%s: %w", name, err)
	}

	tryStart, handlerStart := -1, -1
	if slices, err := b.analyzer.TrySlices(fn); err == nil {
		tryStart = slices.TryBlockStart
		if len(slices.Handlers) > 0 {
			handlerStart = slices.Handlers[0].Start
		}
	} else if !errors.Is(err, analysis.ErrTryNotFound) {
		return Task1Row{}, err
	}

	row := Task1Row{File: file, Function: name}
	firstRow := fn.StartPoint().Row
	var line []string
	lineNo := 0

	flush := func() {
		if len(line) == 0 {
			return
		}
		label := 0
		if tryStart >= 0 && lineNo >= tryStart {
			label = 1
		}
		row.Lines = append(row.Lines, " "+strings.Join(line, " "))
		row.Labels = append(row.Labels, label)
		if label > row.HasCatch {
			row.HasCatch = label
		}
		line = nil
	}

	for _, tok := range toks {
		rel := tok.Row - firstRow + 1
		if rel != lineNo {
			flush()
			lineNo = rel
		}
		if handlerStart >= 0 && rel >= handlerStart {
			break
		}
		line = append(line, tok.Text)
	}
	flush()

	return row, nil
}

// Task2 builds one row per accepted handler of the first try construct in fn.
func (b *Builder) Task2(file string, fn *syntax.Node) ([]Task2Row, error) {
	name, err := b.analyzer.FunctionName(fn)
	if err != nil {
		return nil, err
	}

	tc, err := b.analyzer.TryCatchSlices(fn)
	if err != nil {
		return nil, err
	}
	if len(tc.Handlers) == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrNoHandlers)
	}

	tryStart := tc.TryStatement.StartByte()
	var frontLeaves, backLeaves []*syntax.Node
	for _, leaf := range tc.MethodContext {
		if leaf.StartByte() < tryStart {
			frontLeaves = append(frontLeaves, leaf)
		} else {
			backLeaves = append(backLeaves, leaf)
		}
	}

	frontToks, err := b.tokenizer.Leaves(frontLeaves)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	openToks, err := b.tokenizer.Leaves(backLeaves)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	blockToks, err := b.tokenizer.Node(tc.TryBlock)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	front := b.tokenizer.Stream(frontToks)
	back := b.tokenizer.Stream(append(openToks, blockToks...))
	mask, err := b.dialect.Mask(front, back)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	rows := make([]Task2Row, 0, len(tc.Handlers))
	for _, handler := range tc.Handlers {
		target, err := b.tokenizer.Node(handler)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		rows = append(rows, Task2Row{
			File:     file,
			Function: name,
			Front:    front,
			Back:     back,
			Mask:     mask,
			Target:   b.tokenizer.Stream(target),
		})
	}
	return rows, nil
}
