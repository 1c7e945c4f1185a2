package dataset

import (
	"maps"
	"slices"
	"strings"
)

// Stats summarizes a dataset. Merge is associative and commutative, so
// per-file stats can be combined in any order.
type Stats struct {
	Files         int
	Functions     int
	Statements    int
	MaxStatements int
	Tokens        int
	MaxTokens     int
	Handlers      int
	// TryHistogram maps a per-function try count to the number of functions.
	TryHistogram map[int]int
	UniqueTokens map[string]struct{}
}

// NewStats returns empty stats.
func NewStats() Stats {
	return Stats{
		TryHistogram: make(map[int]int),
		UniqueTokens: make(map[string]struct{}),
	}
}

// AddFunction records one function with its try and statement counts.
func (s *Stats) AddFunction(tries, statements int) {
	s.ensure()
	s.Functions++
	s.TryHistogram[tries]++
	s.Statements += statements
	s.MaxStatements = max(s.MaxStatements, statements)
}

// AddTokens records the tokens of one sample.
func (s *Stats) AddTokens(toks []string) {
	s.ensure()
	s.Tokens += len(toks)
	s.MaxTokens = max(s.MaxTokens, len(toks))
	for _, tok := range toks {
		s.UniqueTokens[tok] = struct{}{}
	}
}

// AddTask1 records the tokens of a task1 row.
func (s *Stats) AddTask1(row Task1Row) {
	var toks []string
	for _, line := range row.Lines {
		toks = append(toks, strings.Fields(line)...)
	}
	s.AddTokens(toks)
}

// Merge folds other into s.
func (s *Stats) Merge(other Stats) {
	s.ensure()
	s.Files += other.Files
	s.Functions += other.Functions
	s.Statements += other.Statements
	s.MaxStatements = max(s.MaxStatements, other.MaxStatements)
	s.Tokens += other.Tokens
	s.MaxTokens = max(s.MaxTokens, other.MaxTokens)
	s.Handlers += other.Handlers
	for tries, n := range other.TryHistogram {
		s.TryHistogram[tries] += n
	}
	maps.Copy(s.UniqueTokens, other.UniqueTokens)
}

// TryCounts returns the histogram keys in ascending order.
func (s *Stats) TryCounts() []int {
	return slices.Sorted(maps.Keys(s.TryHistogram))
}

func (s *Stats) ensure() {
	if s.TryHistogram == nil {
		s.TryHistogram = make(map[int]int)
	}
	if s.UniqueTokens == nil {
		s.UniqueTokens = make(map[string]struct{})
	}
}
