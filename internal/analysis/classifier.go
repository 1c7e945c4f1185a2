package analysis

import (
	"github.com/r4phael/exception-miner/internal/query"
	"github.com/r4phael/exception-miner/internal/syntax"
)

// HasExceptionHandler reports whether the first try construct in node has at
// least one handler attached.
func (a *Analyzer) HasExceptionHandler(node *syntax.Node) bool {
	captures := a.set.TryExcept.Captures(node)
	return len(captures) > 1 && captures[1].Kind != query.KindTryBlock
}

// HasNestedTry reports whether some try construct contains another one in
// its subtree. Sibling try constructs do not count.
func (a *Analyzer) HasNestedTry(node *syntax.Node) bool {
	return a.CountNestedTry(node) > 0
}

// CountNestedTry counts try constructs that contain at least one other try.
func (a *Analyzer) CountNestedTry(node *syntax.Node) int {
	count := 0
	for _, try := range a.set.TryStatement.Nodes(node, query.KindTry) {
		if a.TryCount(try) > 1 {
			count++
		}
	}
	return count
}

// IsCommonException reports whether the first clause at or under node is
// worth keeping: untyped, or declaring at least one allow-listed type.
func (a *Analyzer) IsCommonException(node *syntax.Node) (bool, error) {
	clause, err := a.firstClause(node)
	if err != nil {
		return false, err
	}

	types := a.HandlerTypes(clause)
	if len(types) == 0 {
		return true, nil
	}
	for _, name := range types {
		if _, ok := a.allow[name]; ok {
			return true, nil
		}
	}
	return false, nil
}

// IsEmptyCatch reports whether the clause body holds nothing but its
// delimiters, comments, or (Python) pass statements.
func (a *Analyzer) IsEmptyCatch(clause *syntax.Node) (bool, error) {
	if err := a.requireClause(clause); err != nil {
		return false, err
	}

	body := a.catchBody(clause)
	if body == nil {
		return true, nil
	}

	children := body.Children()
	if a.set.Language == syntax.Java {
		if len(children) <= 2 {
			return true, nil
		}
		children = children[1 : len(children)-1]
	}

	for _, child := range children {
		t := child.Type()
		if a.set.IsComment(t) || t == "pass_statement" {
			continue
		}
		return false, nil
	}
	return true, nil
}

// IsGenericExcept reports whether the clause is untyped or catches a root
// exception type.
func (a *Analyzer) IsGenericExcept(clause *syntax.Node) (bool, error) {
	if err := a.requireClause(clause); err != nil {
		return false, err
	}
	return a.isGeneric(clause), nil
}

func (a *Analyzer) isGeneric(clause *syntax.Node) bool {
	types := a.HandlerTypes(clause)
	if len(types) == 0 {
		return true
	}
	for _, name := range types {
		if a.set.IsGeneric(name) {
			return true
		}
	}
	return false
}

// IsBadExceptionHandling reports whether node has no catch clause at all or
// its first clause is generic.
func (a *Analyzer) IsBadExceptionHandling(node *syntax.Node) bool {
	clause, err := a.firstClause(node)
	if err != nil {
		return true
	}
	return a.isGeneric(clause)
}

// CountTryExceptRaise counts handlers declaring exactly the root exception
// type whose body directly rethrows.
func (a *Analyzer) CountTryExceptRaise(node *syntax.Node) int {
	var seen []*syntax.Node
	count := 0

	for _, throw := range a.set.ThrowInCatch.Nodes(node, query.KindThrow) {
		if !a.isRethrow(throw) {
			continue
		}
		clause := throw.Parent().Parent()
		if clause == nil || clause.Type() != a.set.CatchClauseType || containsNode(seen, clause) {
			continue
		}
		seen = append(seen, clause)

		types := a.HandlerTypes(clause)
		if len(types) == 1 && types[0] == "Exception" {
			count++
		}
	}
	return count
}

func containsNode(nodes []*syntax.Node, n *syntax.Node) bool {
	for _, other := range nodes {
		if other.Equal(n) {
			return true
		}
	}
	return false
}

// CountMisplacedBareRaise counts bare rethrows whose nearest enclosing
// handler-or-function scope is not a catch clause.
func (a *Analyzer) CountMisplacedBareRaise(node *syntax.Node) int {
	count := 0
	for _, throw := range a.set.Throw.Nodes(node, query.KindThrow) {
		if !a.isBareRaise(throw) {
			continue
		}
		scope := a.enclosingHandlerOrScope(throw)
		if scope == nil || scope.Type() != a.set.CatchClauseType {
			count++
		}
	}
	return count
}

// CountBareRaiseFinally counts bare rethrows whose nearest scope is a
// finally clause.
func (a *Analyzer) CountBareRaiseFinally(node *syntax.Node) int {
	count := 0
	for _, throw := range a.set.Throw.Nodes(node, query.KindThrow) {
		if !a.isBareRaise(throw) {
			continue
		}
		if scope := a.enclosingScope(throw); scope != nil && scope.Type() == a.set.FinallyType {
			count++
		}
	}
	return count
}

// CountTry is TryCount under the classifier's naming.
func (a *Analyzer) CountTry(node *syntax.Node) int {
	return a.TryCount(node)
}

// CountRaise counts throw/raise statements.
func (a *Analyzer) CountRaise(node *syntax.Node) int {
	return a.set.Throw.Count(node, query.KindThrow)
}

// CountTryReturn counts catch bodies that return directly.
func (a *Analyzer) CountTryReturn(node *syntax.Node) int {
	return a.set.ReturnInCatch.Count(node, query.KindReturn)
}

// CountFinally counts finally clauses.
func (a *Analyzer) CountFinally(node *syntax.Node) int {
	return a.set.Finally.Count(node, query.KindFinally)
}

// CountTryElse counts else clauses attached to try statements.
func (a *Analyzer) CountTryElse(node *syntax.Node) int {
	return a.set.Else.Count(node, query.KindElse)
}

// CountBroadExceptionRaised counts raises that construct a root exception type.
func (a *Analyzer) CountBroadExceptionRaised(node *syntax.Node) int {
	count := 0
	for _, name := range a.RaiseIdentifiers(node) {
		if a.set.IsGeneric(name) {
			count++
		}
	}
	return count
}

// RaiseIdentifiers returns the type names of raised exceptions in document
// order. Qualified constructions such as new pkg.Error() are not reported.
func (a *Analyzer) RaiseIdentifiers(node *syntax.Node) []string {
	var names []string
	for _, n := range a.set.ThrowType.Nodes(node, query.KindThrowType) {
		names = append(names, n.Text())
	}
	return names
}

// ExceptIdentifiers returns the declared handler type names in document order.
func (a *Analyzer) ExceptIdentifiers(node *syntax.Node) []string {
	var names []string
	for _, clause := range a.CatchClauses(node) {
		names = append(names, a.HandlerTypes(clause)...)
	}
	return names
}

// CountGenericExcept counts generic handlers.
func (a *Analyzer) CountGenericExcept(node *syntax.Node) int {
	count := 0
	for _, clause := range a.CatchClauses(node) {
		if a.isGeneric(clause) {
			count++
		}
	}
	return count
}

// CountBareExcept counts handlers without a declared type.
func (a *Analyzer) CountBareExcept(node *syntax.Node) int {
	count := 0
	for _, clause := range a.CatchClauses(node) {
		if len(a.HandlerTypes(clause)) == 0 {
			count++
		}
	}
	return count
}

// CountTryPass counts handlers with an empty body.
func (a *Analyzer) CountTryPass(node *syntax.Node) int {
	count := 0
	for _, clause := range a.CatchClauses(node) {
		if empty, err := a.IsEmptyCatch(clause); err == nil && empty {
			count++
		}
	}
	return count
}
