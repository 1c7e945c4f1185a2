package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/r4phael/exception-miner/internal/config"
	"github.com/r4phael/exception-miner/internal/dataset"
	"github.com/r4phael/exception-miner/internal/git"
	"github.com/r4phael/exception-miner/internal/miner"
)

var preprocessCmd = &cobra.Command{
	Use:   "preprocess [dir]",
	Short: "Build try-block detection and catch generation datasets",
	Long: `Mine every source file under dir (default: current directory) and write
the task1 (try-block line detection) and task2 (catch-block generation)
datasets, split into train/valid/test, under <output.dir>/<language>.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPreprocess,
}

func init() {
	rootCmd.AddCommand(preprocessCmd)
}

func runPreprocess(cmd *cobra.Command, args []string) error {
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
	_, err = executePreprocess(ctx, preprocessOptions{
		rootDir:  rootDir,
		cfg:      cfg,
		git:      git.NewOperations(),
		progress: NewCLIProgressReporter(out, quiet),
		out:      out,
	})
	return err
}

type preprocessOptions struct {
	rootDir  string
	cfg      *config.Config
	git      git.Operations
	progress miner.ProgressReporter
	out      io.Writer
}

// executePreprocess mines opts.rootDir for datasets and writes the splits.
func executePreprocess(ctx context.Context, opts preprocessOptions) (*miner.Result, error) {
	mcfg, err := opts.cfg.ToMinerConfig(opts.rootDir)
	if err != nil {
		return nil, err
	}
	mcfg.Metrics = false

	res, err := mine(ctx, mcfg, opts.git, opts.progress)
	if err != nil {
		return nil, err
	}

	w, err := dataset.NewWriter(datasetDir(opts.cfg))
	if err != nil {
		return nil, err
	}
	if err := w.WriteSplits(res.Task1, res.Task2); err != nil {
		return nil, fmt.Errorf("failed to write datasets: %w", err)
	}

	if !quiet {
		printStats(opts.out, res)
		fmt.Fprintf(opts.out, "Datasets written to %s\n", w.Dir())
	}
	return res, nil
}

// mine runs one miner over mcfg.
func mine(ctx context.Context, mcfg miner.Config, ops git.Operations, progress miner.ProgressReporter) (*miner.Result, error) {
	var minerOpts []miner.Option
	if progress != nil {
		minerOpts = append(minerOpts, miner.WithProgress(progress))
	}
	if ops != nil {
		minerOpts = append(minerOpts, miner.WithGit(ops))
	}

	m, err := miner.New(mcfg, minerOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create miner: %w", err)
	}
	defer m.Close()

	res, err := m.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("mining failed: %w", err)
	}
	return res, nil
}

func printStats(out io.Writer, res *miner.Result) {
	s := res.Stats
	fmt.Fprintf(out, "Files:          %s\n", formatNumber(len(res.Files)))
	fmt.Fprintf(out, "Functions:      %s\n", formatNumber(s.Functions))
	fmt.Fprintf(out, "Statements:     %s (max %d)\n", formatNumber(s.Statements), s.MaxStatements)
	fmt.Fprintf(out, "Tokens:         %s (max %d, unique %s)\n", formatNumber(s.Tokens), s.MaxTokens, formatNumber(len(s.UniqueTokens)))
	fmt.Fprintf(out, "Handlers:       %s\n", formatNumber(s.Handlers))
	for _, tries := range s.TryCounts() {
		fmt.Fprintf(out, "  %d try: %s functions\n", tries, formatNumber(s.TryHistogram[tries]))
	}
	fmt.Fprintf(out, "Task1 rows:     %d train / %d valid / %d test\n", len(res.Task1.Train), len(res.Task1.Valid), len(res.Task1.Test))
	fmt.Fprintf(out, "Task2 rows:     %d train / %d valid / %d test\n", len(res.Task2.Train), len(res.Task2.Valid), len(res.Task2.Test))
}
