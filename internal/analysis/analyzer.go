package analysis

import (
	"github.com/r4phael/exception-miner/internal/query"
	"github.com/r4phael/exception-miner/internal/syntax"
)

// DefaultJavaExceptions are the handler types kept for the good-handler class
// when no allow-list is configured.
var DefaultJavaExceptions = []string{
	"Exception",
	"IOException",
	"SQLException",
	"InterruptedException",
	"FileNotFoundException",
	"ClassNotFoundException",
	"NumberFormatException",
	"IllegalAccessException",
	"Throwable",
	"IllegalArgumentException",
	"InstantiationException",
	"ParseException",
	"UnsupportedEncodingException",
	"UnknownHostException",
	"MalformedURLException",
	"UnsupportedLookAndFeelException",
	"NoSuchAlgorithmException",
	"NullPointerException",
	"RemoteException",
	"RuntimeException",
}

// DefaultPythonExceptions is the Python counterpart of DefaultJavaExceptions.
var DefaultPythonExceptions = []string{
	"Exception",
	"ValueError",
	"TypeError",
	"KeyError",
	"IndexError",
	"AttributeError",
	"IOError",
	"OSError",
	"ImportError",
	"RuntimeError",
	"FileNotFoundError",
	"ZeroDivisionError",
	"NotImplementedError",
	"StopIteration",
	"UnicodeDecodeError",
	"UnicodeEncodeError",
	"AssertionError",
	"LookupError",
	"PermissionError",
	"TimeoutError",
	"ConnectionError",
}

// DefaultAllowList returns the built-in allow-list for lang.
func DefaultAllowList(lang syntax.Language) []string {
	switch lang {
	case syntax.Java:
		return DefaultJavaExceptions
	case syntax.Python:
		return DefaultPythonExceptions
	}
	return nil
}

// Analyzer locates and classifies exception-handling constructs for one
// language. It holds no per-call state and is safe for concurrent use.
type Analyzer struct {
	set   *query.Set
	allow map[string]struct{}
}

// New creates an analyzer for lang. A nil allowList selects
// DefaultAllowList(lang); an empty non-nil list accepts only untyped handlers.
func New(lang syntax.Language, allowList []string) (*Analyzer, error) {
	set, err := query.ForLanguage(lang)
	if err != nil {
		return nil, err
	}
	if allowList == nil {
		allowList = DefaultAllowList(lang)
	}
	allow := make(map[string]struct{}, len(allowList))
	for _, name := range allowList {
		allow[name] = struct{}{}
	}
	return &Analyzer{set: set, allow: allow}, nil
}

// Language returns the analyzer's language.
func (a *Analyzer) Language() syntax.Language {
	return a.set.Language
}

// Queries exposes the compiled query set.
func (a *Analyzer) Queries() *query.Set {
	return a.set
}
