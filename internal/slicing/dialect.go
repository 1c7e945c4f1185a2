package slicing

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/r4phael/exception-miner/internal/syntax"
	"github.com/r4phael/exception-miner/internal/tokens"
)

// Dialect holds the lexical facts the segmenter and mask builder need.
type Dialect struct {
	keywords   map[string]struct{}
	boundaries map[string]struct{}
	quotes     map[string]struct{}
	// quotePrefixes are letters allowed before a quote, as in Python f"..".
	quotePrefixes string
}

var javaKeywords = []string{
	"abstract", "assert", "boolean", "break", "byte", "case", "catch", "char",
	"class", "const", "continue", "default", "do", "double", "else", "enum",
	"extends", "final", "finally", "float", "for", "goto", "if", "implements",
	"import", "instanceof", "int", "interface", "long", "native", "new",
	"package", "private", "protected", "public", "return", "short", "static",
	"strictfp", "super", "switch", "synchronized", "this", "throw", "throws",
	"transient", "try", "void", "volatile", "while",
}

var pythonKeywords = []string{
	"False", "None", "True", "and", "as", "assert", "async", "await", "break",
	"class", "continue", "def", "del", "elif", "else", "except", "finally",
	"for", "from", "global", "if", "import", "in", "is", "lambda", "nonlocal",
	"not", "or", "pass", "raise", "return", "try", "while", "with", "yield",
}

// Java is the dialect for Java token streams.
func Java() *Dialect {
	return &Dialect{
		keywords:   set(javaKeywords...),
		boundaries: set("{", "}", ";"),
		quotes:     set(`"`, `'`, `"""`),
	}
}

// Python is the dialect for Python token streams, which carry
// tokens.Newline markers at line ends.
func Python() *Dialect {
	return &Dialect{
		keywords:      set(pythonKeywords...),
		boundaries:    set(tokens.Newline, ";"),
		quotes:        set(`"`, `'`, `"""`, `'''`),
		quotePrefixes: "rRbBuUfF",
	}
}

// ForLanguage returns the dialect for lang.
func ForLanguage(lang syntax.Language) (*Dialect, error) {
	switch lang {
	case syntax.Java:
		return Java(), nil
	case syntax.Python:
		return Python(), nil
	}
	return nil, fmt.Errorf("%w: %s", syntax.ErrUnsupportedLanguage, lang)
}

// IsIdentifier reports whether tok is a plain name: it starts with a letter or
// underscore and is not a keyword, basic type or modifier.
func (d *Dialect) IsIdentifier(tok string) bool {
	r, _ := utf8.DecodeRuneInString(tok)
	if r == utf8.RuneError || !(unicode.IsLetter(r) || r == '_') {
		return false
	}
	_, keyword := d.keywords[tok]
	return !keyword
}

// IsBoundary reports whether tok can end a statement.
func (d *Dialect) IsBoundary(tok string) bool {
	_, ok := d.boundaries[tok]
	return ok
}

// Quote returns the normalized quote a token opens or closes, if any.
func (d *Dialect) Quote(tok string) (string, bool) {
	if d.quotePrefixes != "" {
		tok = strings.TrimLeft(tok, d.quotePrefixes)
	}
	_, ok := d.quotes[tok]
	return tok, ok
}

func set(items ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(items))
	for _, item := range items {
		m[item] = struct{}{}
	}
	return m
}
