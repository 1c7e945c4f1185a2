package syntax

import (
	"iter"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Point is a zero-based (row, column) position in the source.
type Point struct {
	Row    int
	Column int
}

// Node is a read-only view of a syntax tree node. Children are owned by their
// parent; Parent is a lookup, not an ownership edge.
type Node struct {
	ts   sitter.Node
	tree *Tree
}

// Type returns the grammar tag, e.g. "method_declaration" or "catch_clause".
func (n *Node) Type() string {
	return n.ts.Kind()
}

// Tree returns the tree the node belongs to.
func (n *Node) Tree() *Tree {
	return n.tree
}

// StartPoint returns the position of the first byte of the node.
func (n *Node) StartPoint() Point {
	p := n.ts.StartPosition()
	return Point{Row: int(p.Row), Column: int(p.Column)}
}

// EndPoint returns the position just past the last byte of the node.
func (n *Node) EndPoint() Point {
	p := n.ts.EndPosition()
	return Point{Row: int(p.Row), Column: int(p.Column)}
}

func (n *Node) StartByte() int {
	return int(n.ts.StartByte())
}

func (n *Node) EndByte() int {
	return int(n.ts.EndByte())
}

// Text returns the raw source covered by the node.
func (n *Node) Text() string {
	return n.ts.Utf8Text(n.tree.source)
}

// Bytes returns the raw source bytes covered by the node.
func (n *Node) Bytes() []byte {
	return n.tree.source[n.ts.StartByte():n.ts.EndByte()]
}

// IsNamed reports whether the node is a named grammar rule rather than an
// anonymous token such as "{" or "try".
func (n *Node) IsNamed() bool {
	return n.ts.IsNamed()
}

// ChildCount returns the number of children, named and anonymous.
func (n *Node) ChildCount() int {
	return int(n.ts.ChildCount())
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool {
	return n.ts.ChildCount() == 0
}

// Child returns the i-th child or nil.
func (n *Node) Child(i int) *Node {
	if i < 0 || i >= n.ChildCount() {
		return nil
	}
	return n.tree.wrap(n.ts.Child(uint(i)))
}

// Children returns all children in source order.
func (n *Node) Children() []*Node {
	count := n.ChildCount()
	children := make([]*Node, 0, count)
	for i := 0; i < count; i++ {
		if child := n.tree.wrap(n.ts.Child(uint(i))); child != nil {
			children = append(children, child)
		}
	}
	return children
}

// NamedChildren returns the named children in source order.
func (n *Node) NamedChildren() []*Node {
	var named []*Node
	for _, child := range n.Children() {
		if child.IsNamed() {
			named = append(named, child)
		}
	}
	return named
}

// ChildByFieldName returns the child stored under a grammar field, or nil.
func (n *Node) ChildByFieldName(field string) *Node {
	return n.tree.wrap(n.ts.ChildByFieldName(field))
}

// Parent returns the enclosing node, or nil for the root.
func (n *Node) Parent() *Node {
	return n.tree.wrap(n.ts.Parent())
}

// Equal reports whether both views refer to the same node of the same tree.
func (n *Node) Equal(other *Node) bool {
	if n == nil || other == nil {
		return n == other
	}
	return n.tree == other.tree && n.ts.Id() == other.ts.Id()
}

// Contains reports whether other lies within n's byte range.
func (n *Node) Contains(other *Node) bool {
	return n.tree == other.tree && n.StartByte() <= other.StartByte() && other.EndByte() <= n.EndByte()
}

// Raw exposes the tree-sitter node for the query engine.
func (n *Node) Raw() *sitter.Node {
	return &n.ts
}

// FindChildByType returns the first direct child with the given type.
func (n *Node) FindChildByType(nodeType string) *Node {
	for _, child := range n.Children() {
		if child.Type() == nodeType {
			return child
		}
	}
	return nil
}

// Walk visits n and its descendants in pre-order. Returning false from visit
// skips the node's children.
func (n *Node) Walk(visit func(*Node) bool) {
	if n == nil || !visit(n) {
		return
	}
	for _, child := range n.Children() {
		child.Walk(visit)
	}
}

// Leaves yields the leaf descendants of n in pre-order. n itself is never
// yielded, even when it has no children. Descendants for which atom returns
// true are yielded in place of their subtree; atom may be nil.
func (n *Node) Leaves(atom func(*Node) bool) iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		var walk func(*Node) bool
		walk = func(cur *Node) bool {
			for _, child := range cur.Children() {
				if child.IsLeaf() || (atom != nil && atom(child)) {
					if !yield(child) {
						return false
					}
					continue
				}
				if !walk(child) {
					return false
				}
			}
			return true
		}
		walk(n)
	}
}
