package analysis

import (
	"fmt"

	"github.com/r4phael/exception-miner/internal/query"
	"github.com/r4phael/exception-miner/internal/syntax"
)

// FunctionDefinitions returns every function or method definition under root
// in document order. Nested definitions are included.
func (a *Analyzer) FunctionDefinitions(root *syntax.Node) []*syntax.Node {
	return a.set.FunctionDef.Nodes(root, query.KindFunction)
}

// FunctionDefinition returns the first function definition at or under node.
func (a *Analyzer) FunctionDefinition(node *syntax.Node) (*syntax.Node, error) {
	defs := a.FunctionDefinitions(node)
	if len(defs) == 0 {
		return nil, fmt.Errorf("%w: no definition under %s", ErrFunctionNotFound, node.Type())
	}
	return defs[0], nil
}

// FunctionName returns the identifier of the first function at or under node.
func (a *Analyzer) FunctionName(node *syntax.Node) (string, error) {
	names := a.set.FunctionName.Nodes(node, query.KindFunctionName)
	if len(names) == 0 {
		return "", fmt.Errorf("%w: no identifier for %s at line %d",
			ErrFunctionNotFound, node.Type(), node.StartPoint().Row+1)
	}
	return names[0].Text(), nil
}

// HasTry reports whether node contains a try construct.
func (a *Analyzer) HasTry(node *syntax.Node) bool {
	return a.TryCount(node) > 0
}

// TryCount counts try constructs, plain and resource-acquiring.
func (a *Analyzer) TryCount(node *syntax.Node) int {
	return a.set.TryStatement.Count(node, query.KindTry)
}

// CountExcept counts catch/except clauses.
func (a *Analyzer) CountExcept(node *syntax.Node) int {
	return a.set.CatchClause.Count(node, query.KindCatch)
}

// CountLines returns the number of source lines the node spans.
func (a *Analyzer) CountLines(node *syntax.Node) int {
	return node.EndPoint().Row - node.StartPoint().Row + 1
}

// CountStatements counts expression statements.
func (a *Analyzer) CountStatements(node *syntax.Node) int {
	return a.set.Statement.Count(node, query.KindStatement)
}

// CatchClauses returns the catch/except clauses under node in document order.
func (a *Analyzer) CatchClauses(node *syntax.Node) []*syntax.Node {
	return a.set.CatchClause.Nodes(node, query.KindCatch)
}
