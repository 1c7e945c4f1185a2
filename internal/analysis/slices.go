package analysis

import (
	"fmt"
	"iter"

	"github.com/r4phael/exception-miner/internal/query"
	"github.com/r4phael/exception-miner/internal/syntax"
)

// LineRange is an inclusive pair of line offsets.
type LineRange struct {
	Start int
	End   int
}

// Slices locates the first try block of a function and its handler chain as
// line offsets from the function start. Offsets are one-based: the function's
// first line is 1.
type Slices struct {
	TryBlockStart int
	Handlers      []LineRange
}

// TryCatchSlices is the node-level view of the first try construct in a
// function.
type TryCatchSlices struct {
	// MethodContext holds the non-comment leaves from the start of the
	// function up to and including the tokens that open the try block.
	MethodContext []*syntax.Node
	// TryStatement is the try construct owning TryBlock.
	TryStatement *syntax.Node
	TryBlock     *syntax.Node
	// Handlers are the accepted (common, non-empty) clauses in source order.
	Handlers []*syntax.Node
}

// TrySlices returns the line layout of the first try construct in node.
func (a *Analyzer) TrySlices(node *syntax.Node) (Slices, error) {
	captures := a.set.TryExcept.Captures(node)
	if len(captures) == 0 {
		return Slices{}, fmt.Errorf("%w: %s at line %d", ErrTryNotFound, node.Type(), node.StartPoint().Row+1)
	}

	functionStart := node.StartPoint().Row - 1
	var slices Slices

	for i, c := range captures {
		if i > 0 && c.Kind == query.KindTryBlock {
			break
		}
		switch c.Kind {
		case query.KindTryBlock:
			slices.TryBlockStart = c.Node.StartPoint().Row - functionStart
		case query.KindCatch:
			slices.Handlers = append(slices.Handlers, LineRange{
				Start: c.Node.StartPoint().Row - functionStart,
				End:   c.Node.EndPoint().Row - functionStart,
			})
		}
	}

	return slices, nil
}

// TryCatchSlices returns the method context, try block and accepted handlers
// of the first try construct in node.
func (a *Analyzer) TryCatchSlices(node *syntax.Node) (TryCatchSlices, error) {
	captures := a.set.TryExcept.Captures(node)
	if len(captures) == 0 {
		return TryCatchSlices{}, fmt.Errorf("%w: %s at line %d", ErrTryNotFound, node.Type(), node.StartPoint().Row+1)
	}

	var slices TryCatchSlices
chain:
	for _, c := range captures {
		switch c.Kind {
		case query.KindTryBlock:
			if slices.TryBlock != nil {
				// A second try block ends the first handler chain.
				break chain
			}
			slices.TryBlock = c.Node
			slices.TryStatement = c.Node.Parent()
		case query.KindCatch:
			common, err := a.IsCommonException(c.Node)
			if err != nil {
				return TryCatchSlices{}, err
			}
			empty, err := a.IsEmptyCatch(c.Node)
			if err != nil {
				return TryCatchSlices{}, err
			}
			if common && !empty {
				slices.Handlers = append(slices.Handlers, c.Node)
			}
		}
	}
	if slices.TryBlock == nil {
		return TryCatchSlices{}, fmt.Errorf("%w: no try block in %s", ErrTryNotFound, node.Type())
	}

	fn, err := a.FunctionDefinition(node)
	if err != nil {
		return TryCatchSlices{}, err
	}
	for leaf := range a.ContextLeaves(fn, slices.TryBlock) {
		slices.MethodContext = append(slices.MethodContext, leaf)
	}

	return slices, nil
}

// ContextLeaves yields the non-comment leaves under root in pre-order,
// stopping when stop is reached. Leaves inside stop are not yielded. Atom
// nodes (see query.Set.AtomTypes) are yielded whole instead of descended
// into. The sequence can be ranged over any number of times.
func (a *Analyzer) ContextLeaves(root, stop *syntax.Node) iter.Seq[*syntax.Node] {
	return func(yield func(*syntax.Node) bool) {
		var walk func(*syntax.Node) bool
		walk = func(n *syntax.Node) bool {
			for _, child := range n.Children() {
				atom := a.set.IsAtom(child.Type())
				if (child.IsLeaf() || atom) && !a.set.IsComment(child.Type()) {
					if !yield(child) {
						return false
					}
				}
				if stop != nil && child.Equal(stop) {
					return false
				}
				if atom {
					continue
				}
				if !walk(child) {
					return false
				}
			}
			return true
		}
		walk(root)
	}
}
