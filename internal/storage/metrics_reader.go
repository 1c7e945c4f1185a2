package storage

import (
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/r4phael/exception-miner/internal/analysis"
)

// MetricsReader queries stored runs and metric rows.
type MetricsReader struct {
	db *sql.DB
}

// NewMetricsReader creates a MetricsReader.
func NewMetricsReader(db *sql.DB) *MetricsReader {
	return &MetricsReader{db: db}
}

// Totals aggregates the counters of a run.
type Totals struct {
	Functions          int
	TryExcept          int
	TryPass            int
	Finally            int
	GenericExcept      int
	Raise              int
	BroadRaise         int
	TryExceptRaise     int
	MisplacedBareRaise int
	NestedTry          int
	BareExcept         int
	BareRaiseFinally   int
}

var runColumns = []string{"run_id", "language", "root", "remote", "seed", "file_count", "function_count", "started_at", "finished_at"}

// GetRun returns the run with the given ID, or (nil, nil) if it does not exist.
func (r *MetricsReader) GetRun(runID string) (*Run, error) {
	row := sq.Select(runColumns...).
		From("runs").
		Where(sq.Eq{"run_id": runID}).
		RunWith(r.db).
		QueryRow()

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", runID, err)
	}
	return run, nil
}

// ListRuns returns all runs, most recent first.
func (r *MetricsReader) ListRuns() ([]*Run, error) {
	rows, err := sq.Select(runColumns...).
		From("runs").
		OrderBy("started_at DESC", "run_id").
		RunWith(r.db).
		Query()
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// ListMetrics returns the metric rows of a run in insertion order.
func (r *MetricsReader) ListMetrics(runID string) ([]analysis.Metrics, error) {
	rows, err := sq.Select(metricColumns...).
		From("function_metrics").
		Where(sq.Eq{"run_id": runID}).
		OrderBy("metric_id").
		RunWith(r.db).
		Query()
	if err != nil {
		return nil, fmt.Errorf("failed to list metrics for run %s: %w", runID, err)
	}
	defer rows.Close()

	var metrics []analysis.Metrics
	for rows.Next() {
		var (
			m                                 analysis.Metrics
			uncaught, except, raise, handlers string
		)
		err := rows.Scan(
			&m.File, &m.Function, &m.Body, &m.StartLine, &m.EndLine, &uncaught,
			&m.TryExcept, &m.TryPass, &m.Finally, &m.GenericExcept, &m.Raise,
			&m.BroadRaise, &m.TryExceptRaise, &m.MisplacedBareRaise,
			&m.TryElse, &m.TryReturn,
			&except, &raise, &handlers,
			&m.NestedTry, &m.BareExcept, &m.BareRaiseFinally,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan metrics: %w", err)
		}

		for _, col := range []struct {
			dst  *[]string
			data string
		}{
			{&m.Uncaught, uncaught},
			{&m.ExceptIdentifiers, except},
			{&m.RaiseIdentifiers, raise},
			{&m.ExceptBlocks, handlers},
		} {
			if *col.dst, err = decodeList(col.data); err != nil {
				return nil, err
			}
		}
		metrics = append(metrics, m)
	}
	return metrics, rows.Err()
}

// Summarize sums the counters of every metric row of a run.
func (r *MetricsReader) Summarize(runID string) (Totals, error) {
	var t Totals
	err := sq.Select(
		"COUNT(*)",
		"COALESCE(SUM(n_try_except), 0)",
		"COALESCE(SUM(n_try_pass), 0)",
		"COALESCE(SUM(n_finally), 0)",
		"COALESCE(SUM(n_generic_except), 0)",
		"COALESCE(SUM(n_raise), 0)",
		"COALESCE(SUM(n_captures_broad_raise), 0)",
		"COALESCE(SUM(n_captures_try_except_raise), 0)",
		"COALESCE(SUM(n_captures_misplaced_bare_raise), 0)",
		"COALESCE(SUM(n_nested_try), 0)",
		"COALESCE(SUM(n_bare_except), 0)",
		"COALESCE(SUM(n_bare_raise_finally), 0)",
	).
		From("function_metrics").
		Where(sq.Eq{"run_id": runID}).
		RunWith(r.db).
		QueryRow().
		Scan(
			&t.Functions, &t.TryExcept, &t.TryPass, &t.Finally, &t.GenericExcept,
			&t.Raise, &t.BroadRaise, &t.TryExceptRaise, &t.MisplacedBareRaise,
			&t.NestedTry, &t.BareExcept, &t.BareRaiseFinally,
		)
	if err != nil {
		return Totals{}, fmt.Errorf("failed to summarize run %s: %w", runID, err)
	}
	return t, nil
}

func scanRun(row sq.RowScanner) (*Run, error) {
	var (
		run        Run
		seed       int64
		startedAt  string
		finishedAt sql.NullString
	)
	err := row.Scan(&run.ID, &run.Language, &run.Root, &run.Remote, &seed, &run.FileCount, &run.FunctionCount, &startedAt, &finishedAt)
	if err != nil {
		return nil, err
	}
	run.Seed = uint64(seed)
	run.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
	if finishedAt.Valid {
		run.FinishedAt, _ = time.Parse(time.RFC3339, finishedAt.String)
	}
	return &run, nil
}
