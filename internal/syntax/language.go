package syntax

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	sitter "github.com/tree-sitter/go-tree-sitter"
	java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	python "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

// ErrUnsupportedLanguage indicates a language without a registered grammar.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Language identifies a source grammar.
type Language int

const (
	LanguageUnknown Language = iota
	Java
	Python
)

var languageNames = map[Language]string{
	LanguageUnknown: "unknown",
	Java:            "java",
	Python:          "python",
}

var languageExtensions = map[Language][]string{
	Java:   {".java"},
	Python: {".py"},
}

func (l Language) String() string {
	if name, ok := languageNames[l]; ok {
		return name
	}
	return fmt.Sprintf("Language(%d)", int(l))
}

// Extensions returns the file extensions handled by the language, with leading dot.
func (l Language) Extensions() []string {
	return languageExtensions[l]
}

// ParseLanguage resolves a language by name ("java", "python").
func ParseLanguage(name string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "java":
		return Java, nil
	case "python", "py":
		return Python, nil
	}
	return LanguageUnknown, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, name)
}

// LanguageForPath detects the language from a file extension.
// Returns LanguageUnknown when no grammar handles the extension.
func LanguageForPath(path string) Language {
	ext := strings.ToLower(filepath.Ext(path))
	for lang, exts := range languageExtensions {
		for _, e := range exts {
			if e == ext {
				return lang
			}
		}
	}
	return LanguageUnknown
}

var (
	javaGrammar   = sync.OnceValue(func() *sitter.Language { return sitter.NewLanguage(java.Language()) })
	pythonGrammar = sync.OnceValue(func() *sitter.Language { return sitter.NewLanguage(python.Language()) })
)

// Grammar returns the tree-sitter language for l.
func (l Language) Grammar() (*sitter.Language, error) {
	switch l {
	case Java:
		return javaGrammar(), nil
	case Python:
		return pythonGrammar(), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, l)
}
