package analysis

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/r4phael/exception-miner/internal/syntax"
	"github.com/r4phael/exception-miner/internal/tokens"
)

// Test Plan for analysis:
// - Handler detection: a try with handlers vs a function without try
// - Nested try: inside the try body, inside an if, and siblings (not nested)
// - Line counting and one-based try/handler offsets, multi-catch chains
// - Clause predicates: empty, generic, common, bad, and contract violations
// - Raise counters: try-except-raise, misplaced bare raise, broad raise
// - Method context stops at the try block and handlers are filtered
// - Python handlers: bare except, pass bodies, else, bare raise in finally
// - Error classification for the batch boundary

// parseJava wraps members in a class and returns the analyzer and methods.
func parseJava(t *testing.T, members string) (*Analyzer, []*syntax.Node) {
	t.Helper()
	return parseLang(t, syntax.Java, "class T {\n"+members+"\n}\n")
}

func parseLang(t *testing.T, lang syntax.Language, src string) (*Analyzer, []*syntax.Node) {
	t.Helper()
	a, err := New(lang, nil)
	require.NoError(t, err)
	p, err := syntax.NewParser(lang)
	require.NoError(t, err)
	tree, err := p.Parse([]byte(src))
	require.NoError(t, err)
	t.Cleanup(tree.Close)
	fns := a.FunctionDefinitions(tree.Root())
	require.NotEmpty(t, fns)
	return a, fns
}

const twoSiblingTries = `    static void siblings() {
        int b = 0; // b is used below
        System.out.println(b);

        try {
            int c = b;
            System.out.println(c);
        } catch (Exception e) {
            System.out.println("failed");
        }

        try {
            System.out.println("nested");
        } catch (Exception e) {
            System.out.println("failed");
        }

        System.out.println(b);
    }`

// Test: a try with a handler is detected, a plain function is not
func TestHasExceptionHandler(t *testing.T) {
	t.Parallel()

	a, fns := parseJava(t, `    static void withHandler() {
        try {
            int a = 0;
        } catch (Exception e) {
            // nothing
        }
    }

    static void plain() {
        int a = 0;
        System.out.println(a);
    }`)
	require.Len(t, fns, 2)
	assert.True(t, a.HasExceptionHandler(fns[0]))
	assert.False(t, a.HasExceptionHandler(fns[1]))
	assert.True(t, a.HasTry(fns[0]))
	assert.False(t, a.HasTry(fns[1]))

	name, err := a.FunctionName(fns[1])
	require.NoError(t, err)
	assert.Equal(t, "plain", name)
}

// Test: try-finally without catch has no handler
func TestHasExceptionHandler_TryFinally(t *testing.T) {
	t.Parallel()

	a, fns := parseJava(t, `    void f() {
        try {
            run();
        } finally {
            close();
        }
    }`)
	assert.False(t, a.HasExceptionHandler(fns[0]))
	assert.Equal(t, 1, a.CountFinally(fns[0]))
}

// Test: nesting is detected inside try bodies and inner blocks, not for siblings
func TestHasNestedTry(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		method string
		want   bool
	}{
		{
			name: "nested in try body",
			method: `    void f() {
        try {
            try {
                a();
            } catch (Exception inner) {
            }
        } catch (Exception outer) {
        }
    }`,
			want: true,
		},
		{
			name: "nested inside if",
			method: `    void f() {
        try {
            if (true) {
                try {
                    a();
                } catch (Exception e) {
                    b();
                }
            }
        } catch (Exception e) {
            b();
        }
    }`,
			want: true,
		},
		{
			name:   "siblings",
			method: twoSiblingTries,
			want:   false,
		},
		{
			name: "single",
			method: `    void f() {
        try {
            a();
        } catch (Exception e) {
        }
    }`,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			a, fns := parseJava(t, tt.method)
			assert.Equal(t, tt.want, a.HasNestedTry(fns[0]))
		})
	}
}

// Test: line counts match the method span
func TestCountLines(t *testing.T) {
	t.Parallel()

	a, fns := parseJava(t, `    static int first() {
        return 0;
    }

    static int second() {
        System.out.println("one");
        System.out.println("two");
        return 0;
    }

    static void empty() {}`)
	require.Len(t, fns, 3)
	assert.Equal(t, 3, a.CountLines(fns[0]))
	assert.Equal(t, 5, a.CountLines(fns[1]))
	assert.Equal(t, 1, a.CountLines(fns[2]))
	assert.Equal(t, 2, a.CountStatements(fns[1]))
}

// Test: only the first try and its handlers are sliced
func TestTrySlices(t *testing.T) {
	t.Parallel()

	a, fns := parseJava(t, twoSiblingTries)
	got, err := a.TrySlices(fns[0])
	require.NoError(t, err)
	assert.Equal(t, Slices{TryBlockStart: 5, Handlers: []LineRange{{Start: 8, End: 10}}}, got)
}

// Test: multi-catch chains are sorted, disjoint and ordered
func TestTrySlices_MultiCatch(t *testing.T) {
	t.Parallel()

	a, fns := parseJava(t, `    static void multi() {
        int b = 0;
        System.out.println(b);

        try {
            int c = b;
            System.out.println(c);
        } catch (RuntimeException e) {
            System.out.println("failed 1");
        } catch (ArithmeticException e) {
            System.out.println("failed 2");
            System.out.println("failed 2");
        } catch (Exception e) {
            System.out.println("failed 3");
        }

        System.out.println(b);
    }`)
	got, err := a.TrySlices(fns[0])
	require.NoError(t, err)
	assert.Equal(t, 5, got.TryBlockStart)
	assert.Equal(t, []LineRange{{8, 10}, {10, 13}, {13, 15}}, got.Handlers)

	for i, h := range got.Handlers {
		assert.Less(t, h.Start, h.End)
		assert.GreaterOrEqual(t, h.Start, got.TryBlockStart)
		if i > 0 {
			assert.LessOrEqual(t, got.Handlers[i-1].End, h.Start)
		}
	}
}

// Test: functions without try fail with ErrTryNotFound
func TestTrySlices_NoTry(t *testing.T) {
	t.Parallel()

	a, fns := parseJava(t, `    void f() {
        run();
    }`)
	_, err := a.TrySlices(fns[0])
	assert.ErrorIs(t, err, ErrTryNotFound)
	assert.True(t, IsRecoverable(err))

	_, err = a.TryCatchSlices(fns[0])
	assert.ErrorIs(t, err, ErrTryNotFound)
}

// Test: empty catch bodies, including comment-only bodies
func TestIsEmptyCatch(t *testing.T) {
	t.Parallel()

	a, fns := parseJava(t, `    void f() {
        try {
            a();
        } catch (IOException e) {
        } catch (SQLException e) {
            // only a comment
            /* and another */
        } catch (Exception e) {
            log(e);
        }
    }`)
	clauses := a.CatchClauses(fns[0])
	require.Len(t, clauses, 3)

	want := []bool{true, true, false}
	for i, clause := range clauses {
		empty, err := a.IsEmptyCatch(clause)
		require.NoError(t, err)
		assert.Equal(t, want[i], empty, "clause %d", i)
	}
	assert.Equal(t, 2, a.CountTryPass(fns[0]))

	_, err := a.IsEmptyCatch(fns[0])
	assert.ErrorIs(t, err, ErrExpectedCatchClause)
	assert.False(t, IsRecoverable(err))
	_, err = a.IsGenericExcept(fns[0])
	assert.ErrorIs(t, err, ErrExpectedCatchClause)
}

// Test: printStackTrace on Exception is bad, IOException with real handling is not
func TestIsBadExceptionHandling(t *testing.T) {
	t.Parallel()

	a, fns := parseJava(t, `    void bad() {
        try {
            read();
        } catch (Exception e) {
            e.printStackTrace();
        }
    }

    void good() {
        try {
            read();
        } catch (IOException e) {
            retries++;
            scheduleRetry(e);
        }
    }

    void none() {
        read();
    }`)
	require.Len(t, fns, 3)
	assert.True(t, a.IsBadExceptionHandling(fns[0]))
	assert.False(t, a.IsBadExceptionHandling(fns[1]))
	assert.True(t, a.IsBadExceptionHandling(fns[2]))
}

// Test: allow-list filtering of handler types
func TestIsCommonException(t *testing.T) {
	t.Parallel()

	a, fns := parseJava(t, `    void f() {
        try {
            read();
        } catch (IOException | CustomError e) {
            a();
        } catch (CustomError e) {
            b();
        } catch (java.sql.SQLException e) {
            c();
        }
    }`)
	clauses := a.CatchClauses(fns[0])
	require.Len(t, clauses, 3)

	common, err := a.IsCommonException(clauses[0])
	require.NoError(t, err)
	assert.True(t, common)

	common, err = a.IsCommonException(clauses[1])
	require.NoError(t, err)
	assert.False(t, common)

	common, err = a.IsCommonException(clauses[2])
	require.NoError(t, err)
	assert.True(t, common)

	assert.Equal(t, []string{"IOException", "CustomError"}, a.HandlerTypes(clauses[0]))
	assert.Equal(t, []string{"IOException", "CustomError", "CustomError", "SQLException"}, a.ExceptIdentifiers(fns[0]))

	// A configured allow-list replaces the defaults.
	custom, err := New(syntax.Java, []string{"CustomError"})
	require.NoError(t, err)
	common, err = custom.IsCommonException(clauses[1])
	require.NoError(t, err)
	assert.True(t, common)
}

// Test: catch-broad-rethrow-broad is counted once per clause
func TestCountTryExceptRaise(t *testing.T) {
	t.Parallel()

	a, fns := parseJava(t, `    static void f() {
        try {
            int result = 1 / 0;
        } catch (NumberFormatError e) {
            throw e;
        } catch (ArithmeticException e) {
            throw new Exception();
        } catch (Exception e) {
            throw e;
        } catch (Exception e) {
            e.printStackTrace();
        }
    }

    static void g() throws Exception {
        try {
            int result = 1 / 0;
        } catch (ArithmeticException e) {
            throw new CustomException("zero", e);
        }
    }`)
	assert.Equal(t, 1, a.CountTryExceptRaise(fns[0]))
	assert.Equal(t, 0, a.CountTryExceptRaise(fns[1]))
}

// Test: bare rethrow placement
func TestCountMisplacedBareRaise(t *testing.T) {
	t.Parallel()

	a, fns := parseJava(t, `    static void inHandler() throws Exception {
        try {
            System.out.println();
        } catch (Exception e) {
            throw e;
        }
    }

    static void outside(RuntimeException e) {
        if (e != null) {
            throw e;
        }
    }

    static void constructed(int x) {
        if (x <= 0) {
            throw new RedirectCycleError("message");
        }
    }

    static void inLambda() {
        try {
            run();
        } catch (RuntimeException e) {
            Runnable r = () -> { throw e; };
        }
    }`)
	require.Len(t, fns, 4)
	assert.Equal(t, 0, a.CountMisplacedBareRaise(fns[0]))
	assert.Equal(t, 1, a.CountMisplacedBareRaise(fns[1]))
	assert.Equal(t, 0, a.CountMisplacedBareRaise(fns[2]))
	assert.Equal(t, 1, a.CountMisplacedBareRaise(fns[3]))
}

// Test: raise counters and identifiers
func TestRaiseCounters(t *testing.T) {
	t.Parallel()

	a, fns := parseJava(t, `    static void f(int x) throws Exception {
        if (x <= 0) {
            throw new Exception("message");
        }
        if (x > 10) {
            throw new Exception("too big");
        }
        try {
            int result = 1 / x;
        } catch (ArithmeticException e) {
            throw new ValueError("message", e);
        } catch (RuntimeException e) {
            return;
        }
        throw new teste.Teste();
    }`)
	fn := fns[0]
	assert.Equal(t, 4, a.CountRaise(fn))
	assert.Equal(t, 2, a.CountBroadExceptionRaised(fn))
	assert.Equal(t, []string{"Exception", "Exception", "ValueError"}, a.RaiseIdentifiers(fn))
	assert.Equal(t, 1, a.CountTryReturn(fn))
	assert.Equal(t, 0, a.CountFinally(fn))
	assert.Equal(t, 2, a.CountExcept(fn))
}

// Test: method context runs up to the try keyword, handlers are filtered
func TestTryCatchSlices(t *testing.T) {
	t.Parallel()

	a, fns := parseJava(t, `    int f(int a) {
        int b = a; // copy
        try {
            b = 2;
        } catch (IOException e) {
            log(e);
        } catch (CustomError e) {
            log(e);
        } catch (Exception e) {
            // ignored
        }
        return b;
    }`)
	got, err := a.TryCatchSlices(fns[0])
	require.NoError(t, err)

	var context []string
	for _, leaf := range got.MethodContext {
		context = append(context, leaf.Text())
	}
	assert.Equal(t, []string{"int", "f", "(", "int", "a", ")", "{", "int", "b", "=", "a", ";", "try"}, context)

	require.NotNil(t, got.TryBlock)
	assert.Equal(t, "block", got.TryBlock.Type())
	assert.Equal(t, "try_statement", got.TryStatement.Type())
	require.Len(t, got.Handlers, 1)
	assert.Contains(t, got.Handlers[0].Text(), "IOException")

	// The leaf walk is restartable.
	count := 0
	for range a.ContextLeaves(fns[0], got.TryBlock) {
		count++
	}
	assert.Equal(t, len(context), count)
}

// Test: python string contents split by escapes are yielded whole
func TestContextLeaves_PythonStringContent(t *testing.T) {
	t.Parallel()

	a, fns := parseLang(t, syntax.Python, `def f(x):
    s = "a\tb"
    try:
        g(s)
    except ValueError as e:
        log(e)
`)
	got, err := a.TryCatchSlices(fns[0])
	require.NoError(t, err)

	var types, texts []string
	for _, leaf := range got.MethodContext {
		types = append(types, leaf.Type())
		texts = append(texts, leaf.Text())
	}
	assert.Contains(t, types, "string_content")
	assert.NotContains(t, types, "escape_sequence")
	assert.Contains(t, texts, `a\tb`)
}

// Test: python handlers
func TestPythonHandlers(t *testing.T) {
	t.Parallel()

	a, fns := parseLang(t, syntax.Python, `def f(x):
    try:
        g(x)
    except ValueError:
        raise
    except:
        pass
    else:
        x = 1
    finally:
        raise


def h(x):
    try:
        g(x)
    except (KeyError, os.error) as e:
        log(e)
    except Exception as e:
        raise
`)
	require.Len(t, fns, 2)
	f, h := fns[0], fns[1]

	assert.True(t, a.HasExceptionHandler(f))
	assert.Equal(t, 1, a.CountBareExcept(f))
	assert.Equal(t, 1, a.CountTryPass(f))
	assert.Equal(t, 1, a.CountTryElse(f))
	assert.Equal(t, 1, a.CountGenericExcept(f))
	assert.Equal(t, 1, a.CountMisplacedBareRaise(f))
	assert.Equal(t, 1, a.CountBareRaiseFinally(f))
	assert.Equal(t, []string{"ValueError"}, a.ExceptIdentifiers(f))

	assert.Equal(t, []string{"KeyError", "error", "Exception"}, a.ExceptIdentifiers(h))
	assert.Equal(t, 1, a.CountTryExceptRaise(h))
	assert.Equal(t, 0, a.CountMisplacedBareRaise(h))

	name, err := a.FunctionName(h)
	require.NoError(t, err)
	assert.Equal(t, "h", name)
}

// Test: error classification at the batch boundary
func TestIsRecoverable(t *testing.T) {
	t.Parallel()

	assert.True(t, IsRecoverable(fmt.Errorf("wrap: %w", ErrFunctionNotFound)))
	assert.True(t, IsRecoverable(fmt.Errorf("wrap: %w", tokens.ErrEncoding)))
	assert.True(t, IsRecoverable(syntax.ErrParseFailed))
	assert.False(t, IsRecoverable(ErrExpectedCatchClause))
	assert.False(t, IsRecoverable(errors.New("boom")))
}
