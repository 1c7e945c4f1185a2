package query

import (
	"fmt"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/r4phael/exception-miner/internal/syntax"
)

// Capture is a node matched by a query together with the tag it was captured
// under. The node is a view into the searched tree.
type Capture struct {
	Node *syntax.Node
	Tag  string
	Kind Kind
}

// Query is a compiled structural pattern for one language.
type Query struct {
	name  string
	lang  syntax.Language
	ts    *sitter.Query
	tags  []string
	kinds []Kind
}

// Compile compiles pattern for lang. name is only used in error messages.
func Compile(lang syntax.Language, name, pattern string) (*Query, error) {
	grammar, err := lang.Grammar()
	if err != nil {
		return nil, err
	}

	q, qerr := sitter.NewQuery(grammar, pattern)
	if qerr != nil {
		return nil, fmt.Errorf("failed to compile %s query %q: %s", lang, name, qerr.Error())
	}

	tags := q.CaptureNames()
	kinds := make([]Kind, len(tags))
	for i, tag := range tags {
		kinds[i] = KindForTag(tag)
	}

	return &Query{
		name:  name,
		lang:  lang,
		ts:    q,
		tags:  tags,
		kinds: kinds,
	}, nil
}

// Name returns the query name.
func (q *Query) Name() string {
	return q.name
}

type captureKey struct {
	id    uintptr
	index uint32
}

// Captures runs the query against the subtree rooted at node and returns the
// captures in document order. A node captured twice under the same tag is
// reported once. A nil query matches nothing.
func (q *Query) Captures(node *syntax.Node) []Capture {
	if q == nil || node == nil {
		return nil
	}

	tree := node.Tree()
	cursor := sitter.NewQueryCursor()
	defer cursor.Close()

	var captures []Capture
	seen := make(map[captureKey]struct{})

	it := cursor.Captures(q.ts, node.Raw(), tree.Source())
	for {
		match, index := it.Next()
		if match == nil {
			break
		}
		c := match.Captures[index]
		key := captureKey{id: c.Node.Id(), index: c.Index}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		captures = append(captures, Capture{
			Node: tree.Wrap(c.Node),
			Tag:  q.tags[c.Index],
			Kind: q.kinds[c.Index],
		})
	}

	return captures
}

// Nodes returns the captured nodes of the given kind in document order.
func (q *Query) Nodes(node *syntax.Node, kind Kind) []*syntax.Node {
	var nodes []*syntax.Node
	for _, c := range q.Captures(node) {
		if c.Kind == kind {
			nodes = append(nodes, c.Node)
		}
	}
	return nodes
}

// Count returns the number of captures of the given kind.
func (q *Query) Count(node *syntax.Node, kind Kind) int {
	return len(q.Nodes(node, kind))
}

// Close releases the compiled query.
func (q *Query) Close() {
	if q != nil && q.ts != nil {
		q.ts.Close()
		q.ts = nil
	}
}
