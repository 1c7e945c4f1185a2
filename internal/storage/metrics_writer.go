package storage

import (
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/r4phael/exception-miner/internal/analysis"
)

// MetricsWriter records runs and their per-function metric rows.
type MetricsWriter struct {
	db *sql.DB
}

// NewMetricsWriter creates a MetricsWriter. The schema must exist.
func NewMetricsWriter(db *sql.DB) *MetricsWriter {
	return &MetricsWriter{db: db}
}

// BeginRun inserts run, assigning an ID and start time when they are unset.
func (w *MetricsWriter) BeginRun(run *Run) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}

	_, err := sq.Insert("runs").
		Columns("run_id", "language", "root", "remote", "seed", "file_count", "function_count", "started_at").
		Values(run.ID, run.Language, run.Root, run.Remote, int64(run.Seed), run.FileCount, run.FunctionCount,
			run.StartedAt.Format(time.RFC3339)).
		RunWith(w.db).
		Exec()
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", run.ID, err)
	}
	return nil
}

// FinishRun stores the final counts of run and stamps its finish time.
func (w *MetricsWriter) FinishRun(run *Run) error {
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now().UTC()
	}

	res, err := sq.Update("runs").
		Set("file_count", run.FileCount).
		Set("function_count", run.FunctionCount).
		Set("finished_at", run.FinishedAt.Format(time.RFC3339)).
		Where(sq.Eq{"run_id": run.ID}).
		RunWith(w.db).
		Exec()
	if err != nil {
		return fmt.Errorf("failed to finish run %s: %w", run.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run %s not found", run.ID)
	}
	return nil
}

// WriteMetrics inserts metric rows for runID in a single transaction.
func (w *MetricsWriter) WriteMetrics(runID string, metrics []analysis.Metrics) error {
	if len(metrics) == 0 {
		return nil
	}

	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	// Build the query once with Squirrel, then prepare it for every row
	placeholders := make([]any, len(metricColumns)+1)
	sqlStr, _, err := sq.Insert("function_metrics").
		Columns(append([]string{"run_id"}, metricColumns...)...).
		Values(placeholders...).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build SQL: %w", err)
	}

	stmt, err := tx.Prepare(sqlStr)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i := range metrics {
		m := &metrics[i]
		args, err := metricArgs(m)
		if err != nil {
			return fmt.Errorf("%s %s: %w", m.File, m.Function, err)
		}
		if _, err := stmt.Exec(append([]any{runID}, args...)...); err != nil {
			return fmt.Errorf("failed to insert metrics for %s %s: %w", m.File, m.Function, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

// DeleteRun removes a run and, by cascade, its metric rows.
func (w *MetricsWriter) DeleteRun(runID string) error {
	_, err := sq.Delete("runs").
		Where(sq.Eq{"run_id": runID}).
		RunWith(w.db).
		Exec()
	if err != nil {
		return fmt.Errorf("failed to delete run %s: %w", runID, err)
	}
	return nil
}

func metricArgs(m *analysis.Metrics) ([]any, error) {
	lists := make([]string, 0, 4)
	for _, items := range [][]string{m.Uncaught, m.ExceptIdentifiers, m.RaiseIdentifiers, m.ExceptBlocks} {
		s, err := encodeList(items)
		if err != nil {
			return nil, err
		}
		lists = append(lists, s)
	}

	return []any{
		m.File, m.Function, m.Body, m.StartLine, m.EndLine, lists[0],
		m.TryExcept, m.TryPass, m.Finally, m.GenericExcept, m.Raise,
		m.BroadRaise, m.TryExceptRaise, m.MisplacedBareRaise,
		m.TryElse, m.TryReturn,
		lists[1], lists[2], lists[3],
		m.NestedTry, m.BareExcept, m.BareRaiseFinally,
	}, nil
}
