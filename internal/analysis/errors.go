package analysis

import (
	"errors"

	"github.com/r4phael/exception-miner/internal/syntax"
	"github.com/r4phael/exception-miner/internal/tokens"
)

var (
	// ErrTryNotFound means the function has no try construct to slice.
	ErrTryNotFound = errors.New("try not found")

	// ErrFunctionNotFound means no function definition or identifier was
	// captured where one was required.
	ErrFunctionNotFound = errors.New("function not found")

	// ErrExpectedCatchClause is returned by clause predicates given a node
	// that is not a catch/except clause. It indicates a caller bug.
	ErrExpectedCatchClause = errors.New("expected catch clause")
)

// IsRecoverable reports whether err only means the current function or file
// does not fit the pattern of interest. Batch callers skip and log these;
// anything else is a defect and should stop the run.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrTryNotFound) ||
		errors.Is(err, ErrFunctionNotFound) ||
		errors.Is(err, tokens.ErrEncoding) ||
		errors.Is(err, syntax.ErrParseFailed)
}
