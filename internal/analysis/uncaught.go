package analysis

import (
	"errors"
	"fmt"
	"slices"

	"github.com/dominikbraun/graph"

	"github.com/r4phael/exception-miner/internal/query"
	"github.com/r4phael/exception-miner/internal/syntax"
)

// FunctionFacts is the per-function input of uncaught-exception propagation.
type FunctionFacts struct {
	Name       string
	Raises     []string
	Handles    []string
	CatchesAll bool
	Calls      []string
}

func (f *FunctionFacts) handles(exception string) bool {
	return f.CatchesAll || slices.Contains(f.Handles, exception)
}

// Facts gathers the propagation facts of a function definition.
func (a *Analyzer) Facts(fn *syntax.Node) (FunctionFacts, error) {
	name, err := a.FunctionName(fn)
	if err != nil {
		return FunctionFacts{}, err
	}

	facts := FunctionFacts{
		Name:    name,
		Raises:  a.RaiseIdentifiers(fn),
		Handles: a.ExceptIdentifiers(fn),
	}
	for _, clause := range a.CatchClauses(fn) {
		if a.isGeneric(clause) {
			facts.CatchesAll = true
			break
		}
	}
	for _, call := range a.set.CallName.Nodes(fn, query.KindCall) {
		facts.Calls = append(facts.Calls, call.Text())
	}
	return facts, nil
}

// UncaughtExceptions propagates raised exception types from each function to
// its transitive callers within the same set of functions. Propagation along a
// path stops at the first caller that handles the type. The result maps a
// function name to sorted "origin:Type" annotations; functions nothing escapes
// into are absent.
//
// Functions are matched by simple name, so overloads share one vertex.
func UncaughtExceptions(functions []FunctionFacts) (map[string][]string, error) {
	g := graph.New(func(f *FunctionFacts) string { return f.Name }, graph.Directed())

	byName := make(map[string]*FunctionFacts, len(functions))
	for i := range functions {
		f := &functions[i]
		if existing, ok := byName[f.Name]; ok {
			mergeFacts(existing, f)
			continue
		}
		merged := FunctionFacts{
			Name:       f.Name,
			Raises:     slices.Clone(f.Raises),
			Handles:    slices.Clone(f.Handles),
			CatchesAll: f.CatchesAll,
			Calls:      slices.Clone(f.Calls),
		}
		byName[f.Name] = &merged
		if err := g.AddVertex(&merged); err != nil {
			return nil, fmt.Errorf("failed to add function %s: %w", f.Name, err)
		}
	}

	for _, f := range byName {
		for _, callee := range f.Calls {
			if _, ok := byName[callee]; !ok || callee == f.Name {
				continue
			}
			if err := g.AddEdge(f.Name, callee); err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
				return nil, fmt.Errorf("failed to add call %s -> %s: %w", f.Name, callee, err)
			}
		}
	}

	predecessors, err := g.PredecessorMap()
	if err != nil {
		return nil, fmt.Errorf("failed to build caller map: %w", err)
	}

	found := make(map[string]map[string]struct{})
	for _, origin := range byName {
		for _, exception := range origin.Raises {
			visited := map[string]bool{origin.Name: true}
			queue := []string{origin.Name}
			for len(queue) > 0 {
				current := queue[0]
				queue = queue[1:]
				for caller := range predecessors[current] {
					if visited[caller] {
						continue
					}
					visited[caller] = true
					if byName[caller].handles(exception) {
						continue
					}
					if found[caller] == nil {
						found[caller] = make(map[string]struct{})
					}
					found[caller][origin.Name+":"+exception] = struct{}{}
					queue = append(queue, caller)
				}
			}
		}
	}

	result := make(map[string][]string, len(found))
	for name, set := range found {
		annotations := make([]string, 0, len(set))
		for annotation := range set {
			annotations = append(annotations, annotation)
		}
		slices.Sort(annotations)
		result[name] = annotations
	}
	return result, nil
}

func mergeFacts(dst, src *FunctionFacts) {
	dst.Raises = append(dst.Raises, src.Raises...)
	dst.Handles = append(dst.Handles, src.Handles...)
	dst.CatchesAll = dst.CatchesAll || src.CatchesAll
	dst.Calls = append(dst.Calls, src.Calls...)
}
