package syntax

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Tree is a parsed source file. It owns the underlying tree-sitter tree and
// the source bytes the nodes refer to.
type Tree struct {
	ts     *sitter.Tree
	source []byte
	lang   Language
}

// Root returns the root node of the tree.
func (t *Tree) Root() *Node {
	return t.wrap(t.ts.RootNode())
}

// Source returns the bytes the tree was parsed from.
func (t *Tree) Source() []byte {
	return t.source
}

// Language returns the grammar the tree was parsed with.
func (t *Tree) Language() Language {
	return t.lang
}

// Close releases the tree-sitter tree.
func (t *Tree) Close() {
	if t.ts != nil {
		t.ts.Close()
		t.ts = nil
	}
}

func (t *Tree) wrap(n *sitter.Node) *Node {
	if n == nil {
		return nil
	}
	return &Node{ts: *n, tree: t}
}

// Wrap adopts a tree-sitter node that belongs to this tree.
func (t *Tree) Wrap(n sitter.Node) *Node {
	return &Node{ts: n, tree: t}
}
