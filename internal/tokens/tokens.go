package tokens

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/r4phael/exception-miner/internal/query"
	"github.com/r4phael/exception-miner/internal/syntax"
)

// ErrEncoding marks source text that cannot be tokenized as UTF-8.
var ErrEncoding = errors.New("invalid source encoding")

// Newline separates source lines in Python token streams.
const Newline = "<NEWLINE>"

// Token is a whitespace-free piece of a leaf node.
type Token struct {
	Text string
	// Row is the zero-based source line the token starts on.
	Row int
}

// Tokenizer turns syntax nodes into token sequences for one language.
type Tokenizer struct {
	set *query.Set
}

// New creates a tokenizer that drops the comment kinds of set.
func New(set *query.Set) *Tokenizer {
	return &Tokenizer{set: set}
}

// Node tokenizes every non-comment leaf at or under node. Atom nodes are
// tokenized whole, see Leaves.
func (t *Tokenizer) Node(node *syntax.Node) ([]Token, error) {
	if node.IsLeaf() || t.set.IsAtom(node.Type()) {
		return t.Leaves([]*syntax.Node{node})
	}
	var leaves []*syntax.Node
	for leaf := range node.Leaves(t.isAtom) {
		if !t.set.IsComment(leaf.Type()) {
			leaves = append(leaves, leaf)
		}
	}
	return t.Leaves(leaves)
}

// Leaves tokenizes the given leaves in order. Leaf text containing
// whitespace, such as string contents, is split into several tokens so that
// space-joined output can be split back into the same sequence. An atom with
// children contributes its children and the text between them, so a Python
// "a\nb" yields a, \n and b like its Java counterpart.
func (t *Tokenizer) Leaves(leaves []*syntax.Node) ([]Token, error) {
	tokens := make([]Token, 0, len(leaves))
	for _, leaf := range leaves {
		if t.set.IsComment(leaf.Type()) {
			continue
		}
		for _, p := range pieces(leaf) {
			if !utf8.Valid(p.text) {
				return nil, fmt.Errorf("%w: line %d", ErrEncoding, p.row+1)
			}

			row := p.row
			for _, line := range strings.Split(string(p.text), "\n") {
				for _, field := range strings.Fields(StripEmoji(line)) {
					tokens = append(tokens, Token{Text: field, Row: row})
				}
				row++
			}
		}
	}
	return tokens, nil
}

func (t *Tokenizer) isAtom(n *syntax.Node) bool {
	return t.set.IsAtom(n.Type())
}

// piece is a run of source text starting on row.
type piece struct {
	text []byte
	row  int
}

// pieces splits n into its children and the source text between them. A
// leaf is a single piece.
func pieces(n *syntax.Node) []piece {
	if n.IsLeaf() {
		return []piece{{text: n.Bytes(), row: n.StartPoint().Row}}
	}

	src := n.Tree().Source()
	pos, row := n.StartByte(), n.StartPoint().Row
	var out []piece
	gap := func(end int) {
		if end > pos {
			out = append(out, piece{text: src[pos:end], row: row})
		}
	}
	for _, child := range n.Children() {
		gap(child.StartByte())
		out = append(out, pieces(child)...)
		pos, row = child.EndByte(), child.EndPoint().Row
	}
	gap(n.EndByte())
	return out
}

// Stream flattens tokens to text. Python streams get a Newline marker
// between source lines since line breaks end statements there.
func (t *Tokenizer) Stream(tokens []Token) []string {
	out := make([]string, 0, len(tokens))
	for i, tok := range tokens {
		if t.set.Language == syntax.Python && i > 0 && tok.Row > tokens[i-1].Row {
			out = append(out, Newline)
		}
		out = append(out, tok.Text)
	}
	return out
}

// Lines groups tokens by source row, in order. Empty rows are skipped.
func Lines(tokens []Token) [][]string {
	var lines [][]string
	for i, tok := range tokens {
		if i == 0 || tok.Row != tokens[i-1].Row {
			lines = append(lines, nil)
		}
		lines[len(lines)-1] = append(lines[len(lines)-1], tok.Text)
	}
	return lines
}

// Texts returns the token texts.
func Texts(tokens []Token) []string {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Text
	}
	return out
}

// StripEmoji removes pictographs, dingbats, flags and zero-width spaces.
func StripEmoji(s string) string {
	if isPlainASCII(s) {
		return s
	}
	return strings.Map(func(r rune) rune {
		if isEmoji(r) {
			return -1
		}
		return r
	}, s)
}

func isPlainASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

func isEmoji(r rune) bool {
	switch {
	case r >= 0x1F600 && r <= 0x1F64F,
		r >= 0x1F300 && r <= 0x1F5FF,
		r >= 0x1F680 && r <= 0x1F6FF,
		r >= 0x1F1E0 && r <= 0x1F1FF,
		r >= 0x2702 && r <= 0x27B0,
		r >= 0x1F900 && r <= 0x1F9FF,
		r == 0x200B, r == 0x200C, r == 0xFE0F:
		return true
	}
	return unicode.Is(unicode.So, r) && r > 0xFFFF
}
