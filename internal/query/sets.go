package query

import (
	"fmt"
	"sync"

	"github.com/r4phael/exception-miner/internal/syntax"
)

// Set holds the compiled queries and grammar facts for one language.
// Sets are compiled once per process and shared read-only.
type Set struct {
	Language syntax.Language

	FunctionDef   *Query
	FunctionName  *Query
	Statement     *Query
	TryStatement  *Query
	TryExcept     *Query
	CatchClause   *Query
	CatchBody     *Query
	Throw         *Query
	ThrowType     *Query
	ThrowInCatch  *Query
	ReturnInCatch *Query
	Finally       *Query
	Else          *Query
	Pass          *Query
	CallName      *Query

	// Grammar node types the analysis layer switches on.
	CatchClauseType string
	FinallyType     string
	FunctionTypes   []string
	ScopeTypes      []string
	CommentTypes    []string
	// AtomTypes are nodes tokenized as a unit even when they have children,
	// such as Python string contents split by escape sequences.
	AtomTypes []string
	// GenericTypes are the handler type names treated as catch-all.
	GenericTypes []string
}

type patterns struct {
	functionDef   string
	functionName  string
	statement     string
	tryStatement  string
	tryExcept     string
	catchClause   string
	catchBody     string
	throw         string
	throwType     string
	throwInCatch  string
	returnInCatch string
	finally       string
	elseClause    string
	pass          string
	callName      string
}

var javaPatterns = patterns{
	functionDef:  `[(method_declaration) (constructor_declaration)] @function.def`,
	functionName: `[(method_declaration name: (identifier) @function.name) (constructor_declaration name: (identifier) @function.name)]`,
	statement:    `(expression_statement) @statement`,
	tryStatement: `[(try_statement) (try_with_resources_statement)] @try.statement`,
	tryExcept: `[
  (try_statement body: (block) @try.block)
  (try_with_resources_statement body: (block) @try.block)
]
(catch_clause) @catch.clause`,
	catchClause:   `(catch_clause) @catch.clause`,
	catchBody:     `(catch_clause body: (block) @catch.body)`,
	throw:         `(throw_statement) @throw.statement`,
	throwType:     `(throw_statement (object_creation_expression type: (type_identifier) @throw.type))`,
	throwInCatch:  `(catch_clause body: (block (throw_statement) @throw.statement))`,
	returnInCatch: `(catch_clause body: (block (return_statement)) @return.block)`,
	finally:       `(finally_clause) @finally.clause`,
	callName:      `(method_invocation name: (identifier) @call.name)`,
}

var pythonPatterns = patterns{
	functionDef:  `(function_definition) @function.def`,
	functionName: `(function_definition name: (identifier) @function.name)`,
	statement:    `(expression_statement) @statement`,
	tryStatement: `(try_statement) @try.statement`,
	tryExcept: `(try_statement body: (block) @try.block)
(except_clause) @catch.clause`,
	catchClause:   `(except_clause) @catch.clause`,
	catchBody:     `(except_clause (block) @catch.body)`,
	throw:         `(raise_statement) @throw.statement`,
	throwType:     `(raise_statement [(identifier) @throw.type (call function: (identifier) @throw.type)])`,
	throwInCatch:  `(except_clause (block (raise_statement) @throw.statement))`,
	returnInCatch: `(except_clause (block (return_statement)) @return.block)`,
	finally:       `(finally_clause) @finally.clause`,
	elseClause:    `(try_statement (else_clause) @else.clause)`,
	pass:          `(block (pass_statement) @pass)`,
	callName:      `(call function: [(identifier) @call.name (attribute attribute: (identifier) @call.name)])`,
}

var (
	javaSet   = sync.OnceValues(func() (*Set, error) { return compileSet(syntax.Java, javaPatterns) })
	pythonSet = sync.OnceValues(func() (*Set, error) { return compileSet(syntax.Python, pythonPatterns) })
)

// ForLanguage returns the shared query set for lang.
func ForLanguage(lang syntax.Language) (*Set, error) {
	switch lang {
	case syntax.Java:
		return javaSet()
	case syntax.Python:
		return pythonSet()
	}
	return nil, fmt.Errorf("%w: %s", syntax.ErrUnsupportedLanguage, lang)
}

func compileSet(lang syntax.Language, p patterns) (*Set, error) {
	s := &Set{Language: lang}

	targets := []struct {
		name    string
		pattern string
		dst     **Query
	}{
		{"function_def", p.functionDef, &s.FunctionDef},
		{"function_name", p.functionName, &s.FunctionName},
		{"statement", p.statement, &s.Statement},
		{"try_statement", p.tryStatement, &s.TryStatement},
		{"try_except", p.tryExcept, &s.TryExcept},
		{"catch_clause", p.catchClause, &s.CatchClause},
		{"catch_body", p.catchBody, &s.CatchBody},
		{"throw", p.throw, &s.Throw},
		{"throw_type", p.throwType, &s.ThrowType},
		{"throw_in_catch", p.throwInCatch, &s.ThrowInCatch},
		{"return_in_catch", p.returnInCatch, &s.ReturnInCatch},
		{"finally", p.finally, &s.Finally},
		{"else", p.elseClause, &s.Else},
		{"pass", p.pass, &s.Pass},
		{"call_name", p.callName, &s.CallName},
	}

	for _, t := range targets {
		if t.pattern == "" {
			continue
		}
		q, err := Compile(lang, t.name, t.pattern)
		if err != nil {
			return nil, err
		}
		*t.dst = q
	}

	switch lang {
	case syntax.Java:
		s.CatchClauseType = "catch_clause"
		s.FinallyType = "finally_clause"
		s.FunctionTypes = []string{"method_declaration", "constructor_declaration"}
		s.ScopeTypes = []string{"method_declaration", "constructor_declaration", "lambda_expression"}
		s.CommentTypes = []string{"line_comment", "block_comment"}
		s.GenericTypes = []string{"Exception"}
	case syntax.Python:
		s.CatchClauseType = "except_clause"
		s.FinallyType = "finally_clause"
		s.FunctionTypes = []string{"function_definition"}
		s.ScopeTypes = []string{"function_definition", "lambda"}
		s.CommentTypes = []string{"comment"}
		s.AtomTypes = []string{"string_content"}
		s.GenericTypes = []string{"Exception", "BaseException"}
	}

	return s, nil
}

// IsComment reports whether nodeType is a comment in this grammar.
func (s *Set) IsComment(nodeType string) bool {
	return contains(s.CommentTypes, nodeType)
}

// IsAtom reports whether nodeType is tokenized as a unit.
func (s *Set) IsAtom(nodeType string) bool {
	return contains(s.AtomTypes, nodeType)
}

// IsFunction reports whether nodeType is a function definition.
func (s *Set) IsFunction(nodeType string) bool {
	return contains(s.FunctionTypes, nodeType)
}

// IsScope reports whether nodeType opens a new function scope.
func (s *Set) IsScope(nodeType string) bool {
	return contains(s.ScopeTypes, nodeType)
}

// IsGeneric reports whether a handler type name is a catch-all.
func (s *Set) IsGeneric(typeName string) bool {
	return contains(s.GenericTypes, typeName)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
