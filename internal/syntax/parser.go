package syntax

import (
	"errors"
	"fmt"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// ErrParseFailed indicates tree-sitter returned no tree for the input.
var ErrParseFailed = errors.New("parse failed")

// Parser turns source bytes into syntax trees for a single language.
// A Parser is safe for concurrent use; each Parse call uses its own
// tree-sitter parser instance.
type Parser struct {
	lang     Language
	language *sitter.Language
}

// NewParser creates a parser for the given language.
func NewParser(lang Language) (*Parser, error) {
	grammar, err := lang.Grammar()
	if err != nil {
		return nil, err
	}
	return &Parser{
		lang:     lang,
		language: grammar,
	}, nil
}

// Language returns the language this parser handles.
func (p *Parser) Language() Language {
	return p.lang
}

// Parse parses source and returns the tree. The caller owns the tree and must
// Close it; nodes obtained from the tree are invalid after Close.
func (p *Parser) Parse(source []byte) (*Tree, error) {
	parser := sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(p.language); err != nil {
		return nil, fmt.Errorf("failed to set %s language: %w", p.lang, err)
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("%w: %s source", ErrParseFailed, p.lang)
	}

	return &Tree{
		ts:     tree,
		source: source,
		lang:   p.lang,
	}, nil
}
