package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/r4phael/exception-miner/internal/config"
	"github.com/r4phael/exception-miner/internal/git"
	"github.com/r4phael/exception-miner/internal/miner"
	"github.com/r4phael/exception-miner/internal/storage"
)

var metricsCmd = &cobra.Command{
	Use:   "metrics [dir]",
	Short: "Record per-function exception-handling metrics",
	Long: `Compute exception-handling metrics for every function under dir (default:
current directory) and store them as a new run in the SQLite database at
<output.dir>/<output.database>.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMetrics,
}

var metricsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded metric runs",
	Args:  cobra.NoArgs,
	RunE:  runMetricsList,
}

func init() {
	metricsCmd.AddCommand(metricsListCmd)
	rootCmd.AddCommand(metricsCmd)
}

func runMetrics(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	rootDir, err := sourceDir(args)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(rootDir)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, err = executeMetrics(ctx, metricsOptions{
		rootDir:  rootDir,
		cfg:      cfg,
		git:      git.NewOperations(),
		progress: NewCLIProgressReporter(out, quiet),
		out:      out,
	})
	return err
}

type metricsOptions struct {
	rootDir  string
	cfg      *config.Config
	git      git.Operations
	progress miner.ProgressReporter
	out      io.Writer
}

// executeMetrics mines opts.rootDir for metric rows and stores them as a run.
// It returns the run identifier.
func executeMetrics(ctx context.Context, opts metricsOptions) (string, error) {
	mcfg, err := opts.cfg.ToMinerConfig(opts.rootDir)
	if err != nil {
		return "", err
	}
	mcfg.Datasets = false

	dbPath := databasePath(opts.cfg)
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create database directory: %w", err)
	}
	db, err := storage.Open(dbPath)
	if err != nil {
		return "", err
	}
	defer db.Close()

	writer := storage.NewMetricsWriter(db)
	run := &storage.Run{
		Language: opts.cfg.Language,
		Root:     opts.rootDir,
		Seed:     opts.cfg.Sampling.Seed,
	}
	if opts.git != nil {
		run.Remote = opts.git.GetRemoteURL(opts.rootDir)
	}
	if err := writer.BeginRun(run); err != nil {
		return "", err
	}

	res, err := mine(ctx, mcfg, opts.git, opts.progress)
	if err != nil {
		if delErr := writer.DeleteRun(run.ID); delErr != nil {
			log.Warning("failed to delete incomplete run", "run", run.ID, "error", delErr.Error())
		}
		return "", err
	}

	if err := writer.WriteMetrics(run.ID, res.Metrics); err != nil {
		return "", err
	}
	run.FileCount = len(res.Files)
	run.FunctionCount = len(res.Metrics)
	if err := writer.FinishRun(run); err != nil {
		return "", err
	}

	totals, err := storage.NewMetricsReader(db).Summarize(run.ID)
	if err != nil {
		return "", err
	}
	if !quiet {
		printTotals(opts.out, run, totals)
	}
	return run.ID, nil
}

func runMetricsList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(".")
	if err != nil {
		return err
	}
	return executeMetricsList(cfg, cmd.OutOrStdout())
}

func executeMetricsList(cfg *config.Config, out io.Writer) error {
	dbPath := databasePath(cfg)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Fprintf(out, "No metrics database at %s\n", dbPath)
		return nil
	}
	db, err := storage.Open(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := storage.NewMetricsReader(db).ListRuns()
	if err != nil {
		return err
	}
	for _, r := range runs {
		status := "finished"
		if !r.Finished() {
			status = "incomplete"
		}
		fmt.Fprintf(out, "%s  %-6s  %5d files  %6d functions  %s  %s\n",
			r.ID, r.Language, r.FileCount, r.FunctionCount, r.StartedAt.Format("2006-01-02 15:04:05"), status)
	}
	return nil
}

func printTotals(out io.Writer, run *storage.Run, t storage.Totals) {
	fmt.Fprintf(out, "Run %s (%s)\n", run.ID, run.Language)
	rows := []struct {
		name  string
		value int
	}{
		{"functions", t.Functions},
		{"try/except", t.TryExcept},
		{"try/pass", t.TryPass},
		{"finally", t.Finally},
		{"generic except", t.GenericExcept},
		{"raise", t.Raise},
		{"broad raise", t.BroadRaise},
		{"try/except/raise", t.TryExceptRaise},
		{"misplaced bare raise", t.MisplacedBareRaise},
		{"nested try", t.NestedTry},
		{"bare except", t.BareExcept},
		{"bare raise in finally", t.BareRaiseFinally},
	}
	for _, r := range rows {
		fmt.Fprintf(out, "  %-22s %s\n", r.name+":", formatNumber(r.value))
	}
}
