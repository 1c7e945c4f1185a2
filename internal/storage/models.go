package storage

import (
	"encoding/json"
	"fmt"
	"time"
)

// Run is one mining run over a source tree.
type Run struct {
	ID            string
	Language      string
	Root          string
	Remote        string // origin URL when Root is a git checkout
	Seed          uint64
	FileCount     int
	FunctionCount int
	StartedAt     time.Time
	FinishedAt    time.Time // Zero while the run is in progress
}

// Finished reports whether the run was closed with FinishRun.
func (r *Run) Finished() bool {
	return !r.FinishedAt.IsZero()
}

// metricColumns lists the function_metrics columns in insert/select order.
var metricColumns = []string{
	"file_path", "function", "body", "start_line", "end_line", "uncaught",
	"n_try_except", "n_try_pass", "n_finally", "n_generic_except", "n_raise",
	"n_captures_broad_raise", "n_captures_try_except_raise", "n_captures_misplaced_bare_raise",
	"n_try_else", "n_try_return",
	"str_except_identifiers", "str_raise_identifiers", "str_except_block",
	"n_nested_try", "n_bare_except", "n_bare_raise_finally",
}

func encodeList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("failed to encode list: %w", err)
	}
	return string(data), nil
}

func decodeList(data string) ([]string, error) {
	var items []string
	if err := json.Unmarshal([]byte(data), &items); err != nil {
		return nil, fmt.Errorf("invalid list column %q: %w", data, err)
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items, nil
}
