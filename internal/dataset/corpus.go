package dataset

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/r4phael/exception-miner/internal/logging"
	"github.com/r4phael/exception-miner/internal/slicing"
)

var log = logging.Get("dataset")

// CorpusOutputs receives the aligned streams of a sliced corpus. Target is
// only written when SliceCorpus is given a target reader.
type CorpusOutputs struct {
	Front  io.Writer
	Back   io.Writer
	Mask   io.Writer
	Target io.Writer
}

// CorpusResult counts the lines handled by SliceCorpus.
type CorpusResult struct {
	Written int
	Skipped int
}

// ErrCorpusMisaligned means the source and target corpora differ in length.
var ErrCorpusMisaligned = errors.New("source and target corpora are not aligned")

// SliceCorpus reads a source file of space-separated token lines, splits each
// line at its last try keyword and writes front, back and mask lines. When
// tgt is non-nil it is read line by line alongside src and the target of
// every written line is copied to out.Target. Lines without a try keyword are
// skipped and logged. A mask invariant failure aborts the run.
func SliceCorpus(ctx context.Context, d *slicing.Dialect, src, tgt io.Reader, out CorpusOutputs) (CorpusResult, error) {
	var res CorpusResult
	scanner := newCorpusScanner(src)
	var targets *bufio.Scanner
	if tgt != nil {
		if out.Target == nil {
			return res, errors.New("target reader given without a target writer")
		}
		targets = newCorpusScanner(tgt)
	}

	lineNo := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		lineNo++

		var target string
		if targets != nil {
			if !targets.Scan() {
				if err := targets.Err(); err != nil {
					return res, fmt.Errorf("failed to read targets: %w", err)
				}
				return res, fmt.Errorf("%w: target ends at line %d", ErrCorpusMisaligned, lineNo-1)
			}
			target = targets.Text()
		}

		toks := strings.Fields(scanner.Text())
		front, back, ok := d.SplitAtTry(toks)
		if !ok {
			log.Warningf("line %d: try not found, skipping", lineNo)
			res.Skipped++
			continue
		}

		sliced, err := d.Slice(front, back)
		if err != nil {
			return res, fmt.Errorf("line %d: %w", lineNo, err)
		}
		mask, err := encodeMask(sliced.Mask)
		if err != nil {
			return res, err
		}

		if _, err := fmt.Fprintln(out.Front, sliced.Front); err != nil {
			return res, err
		}
		if _, err := fmt.Fprintln(out.Back, sliced.Back); err != nil {
			return res, err
		}
		if _, err := fmt.Fprintln(out.Mask, mask); err != nil {
			return res, err
		}
		if targets != nil {
			if _, err := fmt.Fprintln(out.Target, target); err != nil {
				return res, err
			}
		}
		res.Written++
	}
	if err := scanner.Err(); err != nil {
		return res, fmt.Errorf("failed to read corpus: %w", err)
	}
	if targets != nil && targets.Scan() {
		return res, fmt.Errorf("%w: target is longer than %d lines", ErrCorpusMisaligned, lineNo)
	}
	return res, nil
}

func newCorpusScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return scanner
}
