package slicing

// Span is one statement of a token sequence: Tokens == seq[Start:End+1].
type Span struct {
	Tokens []string
	Start  int
	End    int
}

// Segment splits toks into statements. A boundary token ends a statement
// only outside quoted literals and outside a parenthesized argument list.
// Tokens after the last boundary form a final span, so the spans always
// partition toks.
func (d *Dialect) Segment(toks []string) []Span {
	var (
		spans  []Span
		quote  string
		quoted bool
		inArgs bool
		start  int
	)

	for i, tok := range toks {
		if q, ok := d.Quote(tok); ok {
			switch {
			case !quoted:
				quote, quoted = q, true
			case q == quote:
				quoted = false
			}
			continue
		}
		if quoted {
			continue
		}

		switch {
		case d.IsBoundary(tok) && !inArgs:
			spans = append(spans, Span{Tokens: toks[start : i+1], Start: start, End: i})
			start = i + 1
		case tok == "(":
			inArgs = true
		case tok == ")":
			inArgs = false
		}
	}

	if start < len(toks) {
		spans = append(spans, Span{Tokens: toks[start:], Start: start, End: len(toks) - 1})
	}
	return spans
}

// SplitAtTry splits a token line at the last try keyword outside quoted
// literals, the one whose handler ends the line. ok is false when the line
// has no such keyword after position 0.
func (d *Dialect) SplitAtTry(toks []string) (front, back []string, ok bool) {
	var quote string
	quoted := false
	at := -1
	for i, tok := range toks {
		if q, isQuote := d.Quote(tok); isQuote {
			switch {
			case !quoted:
				quote, quoted = q, true
			case q == quote:
				quoted = false
			}
			continue
		}
		if tok == "try" && !quoted {
			at = i
		}
	}
	if at <= 0 {
		return nil, nil, false
	}
	return toks[:at], toks[at:], true
}
