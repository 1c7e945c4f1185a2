package analysis

import (
	"fmt"

	"github.com/r4phael/exception-miner/internal/query"
	"github.com/r4phael/exception-miner/internal/syntax"
)

func (a *Analyzer) requireClause(clause *syntax.Node) error {
	if clause == nil || clause.Type() != a.set.CatchClauseType {
		got := "<nil>"
		if clause != nil {
			got = clause.Type()
		}
		return fmt.Errorf("%w: got %s", ErrExpectedCatchClause, got)
	}
	return nil
}

// firstClause returns the first catch clause at or under node.
func (a *Analyzer) firstClause(node *syntax.Node) (*syntax.Node, error) {
	clauses := a.CatchClauses(node)
	if len(clauses) == 0 {
		return nil, fmt.Errorf("%w: no clause under %s", ErrExpectedCatchClause, node.Type())
	}
	return clauses[0], nil
}

// catchBody returns the block owned by clause, or nil.
func (a *Analyzer) catchBody(clause *syntax.Node) *syntax.Node {
	for _, body := range a.set.CatchBody.Nodes(clause, query.KindCatchBody) {
		if body.Parent().Equal(clause) {
			return body
		}
	}
	return nil
}

// HandlerTypes returns the simple names of the exception types a clause
// declares, in source order. An untyped handler yields nil.
func (a *Analyzer) HandlerTypes(clause *syntax.Node) []string {
	switch a.set.Language {
	case syntax.Java:
		return javaHandlerTypes(clause)
	case syntax.Python:
		return a.pythonHandlerTypes(clause)
	}
	return nil
}

func javaHandlerTypes(clause *syntax.Node) []string {
	param := clause.FindChildByType("catch_formal_parameter")
	if param == nil {
		return nil
	}
	catchType := param.FindChildByType("catch_type")
	if catchType == nil {
		return nil
	}
	var names []string
	for _, t := range catchType.NamedChildren() {
		if name := javaTypeName(t); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func javaTypeName(n *syntax.Node) string {
	switch n.Type() {
	case "type_identifier":
		return n.Text()
	case "scoped_type_identifier":
		named := n.NamedChildren()
		if len(named) == 0 {
			return n.Text()
		}
		return javaTypeName(named[len(named)-1])
	case "generic_type":
		named := n.NamedChildren()
		if len(named) == 0 {
			return n.Text()
		}
		return javaTypeName(named[0])
	case "annotation", "marker_annotation":
		return ""
	}
	return n.Text()
}

func (a *Analyzer) pythonHandlerTypes(clause *syntax.Node) []string {
	for _, child := range clause.NamedChildren() {
		if child.Type() == "block" || a.set.IsComment(child.Type()) {
			continue
		}
		if child.Type() == "as_pattern" {
			named := child.NamedChildren()
			if len(named) == 0 {
				return nil
			}
			child = named[0]
		}
		return pythonTypeNames(child)
	}
	return nil
}

func pythonTypeNames(expr *syntax.Node) []string {
	switch expr.Type() {
	case "identifier":
		return []string{expr.Text()}
	case "attribute":
		if attr := expr.ChildByFieldName("attribute"); attr != nil {
			return []string{attr.Text()}
		}
	case "tuple", "parenthesized_expression", "expression_list":
		var names []string
		for _, child := range expr.NamedChildren() {
			names = append(names, pythonTypeNames(child)...)
		}
		return names
	}
	return []string{expr.Text()}
}

// isRethrow reports whether a throw/raise re-raises an existing value
// instead of constructing a new exception.
func (a *Analyzer) isRethrow(throw *syntax.Node) bool {
	args := a.throwArguments(throw)
	switch a.set.Language {
	case syntax.Java:
		return len(args) == 1 && args[0].Type() == "identifier"
	case syntax.Python:
		return len(args) == 0 || (len(args) == 1 && args[0].Type() == "identifier")
	}
	return false
}

// isBareRaise reports whether throw re-raises the exception bound by a
// handler: a thrown identifier in Java, an argument-less raise in Python.
func (a *Analyzer) isBareRaise(throw *syntax.Node) bool {
	args := a.throwArguments(throw)
	switch a.set.Language {
	case syntax.Java:
		return len(args) == 1 && args[0].Type() == "identifier"
	case syntax.Python:
		return len(args) == 0
	}
	return false
}

func (a *Analyzer) throwArguments(throw *syntax.Node) []*syntax.Node {
	var args []*syntax.Node
	for _, child := range throw.NamedChildren() {
		if !a.set.IsComment(child.Type()) {
			args = append(args, child)
		}
	}
	return args
}

// enclosingScope walks parents of node and returns the first one that is a
// catch clause, a finally clause or a function scope. It returns nil when
// the walk reaches the root.
func (a *Analyzer) enclosingScope(node *syntax.Node) *syntax.Node {
	for cur := node.Parent(); cur != nil; cur = cur.Parent() {
		t := cur.Type()
		if t == a.set.CatchClauseType || t == a.set.FinallyType || a.set.IsScope(t) {
			return cur
		}
	}
	return nil
}

// enclosingHandlerOrScope is enclosingScope without stopping at finally.
func (a *Analyzer) enclosingHandlerOrScope(node *syntax.Node) *syntax.Node {
	for cur := node.Parent(); cur != nil; cur = cur.Parent() {
		if t := cur.Type(); t == a.set.CatchClauseType || a.set.IsScope(t) {
			return cur
		}
	}
	return nil
}
