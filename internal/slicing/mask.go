package slicing

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMaskInvariant means the relevance mask came out degenerate, which points
// at a segmentation defect for the input.
var ErrMaskInvariant = errors.New("relevance mask invariant violated")

// Result is a front/back pair with the relevance mask over front.
type Result struct {
	Front string
	Back  string
	Mask  []int
}

// Slice computes the relevance mask for front given back and returns both
// sides space-joined.
func (d *Dialect) Slice(front, back []string) (Result, error) {
	mask, err := d.Mask(front, back)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Front: strings.Join(front, " "),
		Back:  strings.Join(back, " "),
		Mask:  mask,
	}, nil
}

// Mask marks the statements of front that the names used in back depend on.
//
// Seeds are identifiers of back that are neither call names nor followed by
// another identifier. Statements of front are visited latest first; a
// statement whose left-hand side names a seed is relevant and its right-hand
// identifiers become seeds. Names are matched by spelling only. The first
// statement, the signature, is always relevant.
func (d *Dialect) Mask(front, back []string) ([]int, error) {
	seeds := d.seeds(back)
	spans := d.Segment(front)
	if len(spans) == 0 {
		return nil, fmt.Errorf("%w: empty front", ErrMaskInvariant)
	}

	relevant := make([]bool, len(spans))
	for s := len(spans) - 1; s >= 0; s-- {
		relevant[s] = d.propagate(front, spans[s], seeds)
	}
	relevant[0] = true

	mask := make([]int, len(front))
	sum := 0
	for s, span := range spans {
		if !relevant[s] {
			continue
		}
		for i := span.Start; i <= span.End; i++ {
			mask[i] = 1
			sum++
		}
	}

	if sum < 2 || len(mask) != len(front) {
		return nil, fmt.Errorf("%w: %d of %d tokens marked in %q",
			ErrMaskInvariant, sum, len(front), strings.Join(front, " "))
	}
	return mask, nil
}

func (d *Dialect) seeds(back []string) map[string]struct{} {
	seeds := make(map[string]struct{})
	for i, tok := range back {
		if !d.IsIdentifier(tok) {
			continue
		}
		if i+1 < len(back) && (back[i+1] == "(" || d.IsIdentifier(back[i+1])) {
			continue
		}
		seeds[tok] = struct{}{}
	}
	return seeds
}

// propagate reports whether span assigns a seeded name and, if so, adds the
// names it reads to seeds.
func (d *Dialect) propagate(front []string, span Span, seeds map[string]struct{}) bool {
	assigned := false
	depend := false
	depth := 0

	for i := span.Start; i <= span.End; i++ {
		tok := front[i]
		switch tok {
		case "(":
			depth++
		case ")":
			if depth > 0 {
				depth--
			}
		case "=":
			if depth == 0 {
				assigned = true
			}
			continue
		}

		if !d.IsIdentifier(tok) {
			continue
		}
		if !assigned {
			if _, ok := seeds[tok]; ok {
				depend = true
			}
			continue
		}
		if depend && !(i+1 < len(front) && front[i+1] == "(") {
			seeds[tok] = struct{}{}
		}
	}
	return depend
}
