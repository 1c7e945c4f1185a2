package slicing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/r4phael/exception-miner/internal/syntax"
	"github.com/r4phael/exception-miner/internal/tokens"
)

// Test Plan for slicing:
// - Identifier classification excludes keywords, basic types, modifiers, numbers
// - Segment ignores boundaries inside quotes and argument lists
// - Segment spans partition the input (round trip), trailing tokens included
// - Python streams segment on Newline markers and accept prefixed quotes
// - Mask marks dependent statements and the signature, skips unrelated ones
// - Mask length always equals front length; degenerate input fails loudly
// - SplitAtTry ignores try inside string literals

func fields(s string) []string {
	return strings.Fields(s)
}

// Test: identifier rules
func TestDialect_IsIdentifier(t *testing.T) {
	t.Parallel()

	d := Java()
	assert.True(t, d.IsIdentifier("a"))
	assert.True(t, d.IsIdentifier("_tmp"))
	assert.True(t, d.IsIdentifier("String"))
	assert.False(t, d.IsIdentifier("int"))
	assert.False(t, d.IsIdentifier("static"))
	assert.False(t, d.IsIdentifier("try"))
	assert.False(t, d.IsIdentifier("42"))
	assert.False(t, d.IsIdentifier("("))
	assert.False(t, d.IsIdentifier(""))

	py := Python()
	assert.False(t, py.IsIdentifier("def"))
	assert.True(t, py.IsIdentifier("int"))

	_, err := ForLanguage(syntax.LanguageUnknown)
	assert.ErrorIs(t, err, syntax.ErrUnsupportedLanguage)
}

// Test: boundaries inside literals and argument lists are ignored
func TestSegment_LiteralsAndArgs(t *testing.T) {
	t.Parallel()

	d := Java()
	toks := fields(`f ( a ; b ) ; s = " x ; { y " ; if ( c ) { g ( ) ; }`)
	spans := d.Segment(toks)

	var got []string
	for _, s := range spans {
		got = append(got, strings.Join(s.Tokens, " "))
	}
	assert.Equal(t, []string{
		`f ( a ; b ) ;`,
		`s = " x ; { y " ;`,
		`if ( c ) {`,
		`g ( ) ;`,
		`}`,
	}, got)
}

// Test: spans partition the input in order
func TestSegment_RoundTrip(t *testing.T) {
	t.Parallel()

	d := Java()
	inputs := []string{
		`int a = 1 ; System . out . println ( a ) ;`,
		`void f ( ) { String s = "a ; b" ; return`,
		`x`,
		`' ; ' ; ( ; ) ;`,
	}
	for _, in := range inputs {
		toks := fields(in)
		spans := d.Segment(toks)

		var rebuilt []string
		next := 0
		for _, s := range spans {
			assert.Equal(t, next, s.Start, in)
			assert.Equal(t, toks[s.Start:s.End+1], s.Tokens, in)
			rebuilt = append(rebuilt, s.Tokens...)
			next = s.End + 1
		}
		assert.Equal(t, toks, rebuilt, in)
	}
	assert.Empty(t, d.Segment(nil))
}

// Test: python statements end at line markers, multi-line calls stay whole
func TestSegment_Python(t *testing.T) {
	t.Parallel()

	d := Python()
	nl := tokens.Newline
	toks := []string{"def", "f", "(", "x", ")", ":", nl,
		"y", "=", "g", "(", "x", ",", nl, "1", ")", nl,
		"s", "=", `f"`, nl, `"`, nl,
		"z", "=", "2"}
	spans := d.Segment(toks)
	require.Len(t, spans, 4)
	assert.Equal(t, []string{"def", "f", "(", "x", ")", ":", nl}, spans[0].Tokens)
	assert.Equal(t, []string{"y", "=", "g", "(", "x", ",", nl, "1", ")", nl}, spans[1].Tokens)
	assert.Equal(t, []string{"s", "=", `f"`, nl, `"`, nl}, spans[2].Tokens)
	assert.Equal(t, []string{"z", "=", "2"}, spans[3].Tokens)
}

// Test: a used local and the signature are relevant
func TestMask_Example(t *testing.T) {
	t.Parallel()

	d := Java()
	front := []string{"int", "a", "=", "1", ";", "System", ".", "out", ".", "println", "(", "a", ")", ";"}
	back := fields(`try { a = a + 1 ; } catch ( Exception e ) { }`)

	mask, err := d.Mask(front, back)
	require.NoError(t, err)
	assert.Len(t, mask, len(front))
	assert.Equal(t, []int{1, 1, 1, 1, 1}, mask[:5])

	sum := 0
	for _, m := range mask {
		sum += m
	}
	assert.GreaterOrEqual(t, sum, 2)
}

// Test: unrelated statements stay unmarked, dependencies propagate backwards
func TestMask_Propagation(t *testing.T) {
	t.Parallel()

	d := Java()
	front := fields(`void f ( ) { int a = 1 ; int b = 2 ; int c = a ;`)
	back := fields(`try { use ( c ) ; }`)

	res, err := d.Slice(front, back)
	require.NoError(t, err)
	assert.Equal(t, []int{
		1, 1, 1, 1, 1, // signature
		1, 1, 1, 1, 1, // a feeds c
		0, 0, 0, 0, 0, // b is unused
		1, 1, 1, 1, 1, // c is used in the try block
	}, res.Mask)
	assert.Equal(t, strings.Join(front, " "), res.Front)
	assert.Equal(t, strings.Join(back, " "), res.Back)
}

// Test: call names and declarations are not seeds
func TestMask_Seeds(t *testing.T) {
	t.Parallel()

	d := Java()
	front := fields(`void f ( ) { int log = 0 ; int x = 1 ;`)
	back := fields(`try { log ( ) ; Foo x ; }`)

	mask, err := d.Mask(front, back)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 1, 1, 1, 0, 0, 0, 0, 0, 1, 1, 1, 1, 1}, mask)

	py := Python()
	nl := tokens.Newline
	pyFront := []string{"def", "f", "(", ")", ":", nl, "y", "=", "g", "(", "k", "=", "v", ")", nl}
	pyMask, err := py.Mask(pyFront, []string{"try", ":", nl, "h", "(", "y", ")"})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1}, pyMask)
}

// Test: degenerate fronts are rejected
func TestMask_Invariant(t *testing.T) {
	t.Parallel()

	d := Java()
	_, err := d.Mask(nil, fields("try { }"))
	assert.ErrorIs(t, err, ErrMaskInvariant)

	_, err = d.Mask([]string{"x"}, fields("try { }"))
	assert.ErrorIs(t, err, ErrMaskInvariant)
}

// Test: split at the last try outside strings
func TestSplitAtTry(t *testing.T) {
	t.Parallel()

	d := Java()
	front, back, ok := d.SplitAtTry(fields(`void f ( ) { s = " try " ; try { g ( ) ; } catch ( E e ) { } x = 1 ; try { b ( x ) ; }`))
	require.True(t, ok)
	assert.Equal(t, fields(`void f ( ) { s = " try " ; try { g ( ) ; } catch ( E e ) { } x = 1 ;`), front)
	assert.Equal(t, fields(`try { b ( x ) ; }`), back)

	front, back, ok = d.SplitAtTry(fields(`void f ( ) { s = " a try " ; try { g ( ) ; }`))
	require.True(t, ok)
	assert.Equal(t, fields(`void f ( ) { s = " a try " ;`), front)
	assert.Equal(t, fields(`try { g ( ) ; }`), back)

	_, _, ok = d.SplitAtTry(fields(`void f ( ) { s = " try " ; }`))
	assert.False(t, ok)
	_, _, ok = d.SplitAtTry(fields(`void f ( ) { }`))
	assert.False(t, ok)
	_, _, ok = d.SplitAtTry(fields(`try { }`))
	assert.False(t, ok)
}
