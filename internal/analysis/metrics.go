package analysis

import (
	"fmt"

	"github.com/r4phael/exception-miner/internal/syntax"
)

// Metrics is the exception-handling profile of one function.
type Metrics struct {
	File               string
	Function           string
	Body               string
	StartLine          int
	EndLine            int
	Uncaught           []string
	TryExcept          int
	TryPass            int
	Finally            int
	GenericExcept      int
	Raise              int
	BroadRaise         int
	TryExceptRaise     int
	MisplacedBareRaise int
	TryElse            int
	TryReturn          int
	ExceptIdentifiers  []string
	RaiseIdentifiers   []string
	ExceptBlocks       []string
	NestedTry          int
	BareExcept         int
	BareRaiseFinally   int
}

// FunctionMetrics computes the metrics of a single function definition.
// Uncaught is left empty; it needs the whole file, see FileMetrics.
func (a *Analyzer) FunctionMetrics(file string, fn *syntax.Node) (Metrics, error) {
	name, err := a.FunctionName(fn)
	if err != nil {
		return Metrics{}, err
	}

	m := Metrics{
		File:               file,
		Function:           name,
		Body:               fn.Text(),
		StartLine:          fn.StartPoint().Row + 1,
		EndLine:            fn.EndPoint().Row + 1,
		TryExcept:          a.CountTry(fn),
		TryPass:            a.CountTryPass(fn),
		Finally:            a.CountFinally(fn),
		GenericExcept:      a.CountGenericExcept(fn),
		Raise:              a.CountRaise(fn),
		BroadRaise:         a.CountBroadExceptionRaised(fn),
		TryExceptRaise:     a.CountTryExceptRaise(fn),
		MisplacedBareRaise: a.CountMisplacedBareRaise(fn),
		TryElse:            a.CountTryElse(fn),
		TryReturn:          a.CountTryReturn(fn),
		ExceptIdentifiers:  a.ExceptIdentifiers(fn),
		RaiseIdentifiers:   a.RaiseIdentifiers(fn),
		NestedTry:          a.CountNestedTry(fn),
		BareExcept:         a.CountBareExcept(fn),
		BareRaiseFinally:   a.CountBareRaiseFinally(fn),
	}
	for _, clause := range a.CatchClauses(fn) {
		m.ExceptBlocks = append(m.ExceptBlocks, clause.Text())
	}
	return m, nil
}

// FileMetrics computes metrics for every function under root and annotates
// them with exceptions escaping from callees defined in the same file.
// Functions without an identifier are skipped and reported in skipped.
func (a *Analyzer) FileMetrics(file string, root *syntax.Node) (metrics []Metrics, skipped []error, err error) {
	var facts []FunctionFacts
	for _, fn := range a.FunctionDefinitions(root) {
		m, ferr := a.FunctionMetrics(file, fn)
		if ferr != nil {
			skipped = append(skipped, ferr)
			continue
		}
		f, ferr := a.Facts(fn)
		if ferr != nil {
			skipped = append(skipped, ferr)
			continue
		}
		metrics = append(metrics, m)
		facts = append(facts, f)
	}

	uncaught, err := UncaughtExceptions(facts)
	if err != nil {
		return nil, skipped, fmt.Errorf("uncaught exceptions for %s: %w", file, err)
	}
	for i := range metrics {
		metrics[i].Uncaught = uncaught[metrics[i].Function]
	}
	return metrics, skipped, nil
}
