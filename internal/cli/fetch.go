package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/r4phael/exception-miner/internal/config"
	"github.com/r4phael/exception-miner/internal/git"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <projects.csv>",
	Short: "Clone the repositories listed in a CSV file",
	Long: `Read a CSV file with name and repo columns and shallow-clone each
repository into <output.dir>/projects/<language>/<name>. Existing checkouts
are kept.`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	cfg, err := loadConfig(".")
	if err != nil {
		return err
	}
	return executeFetch(ctx, git.NewOperations(), cfg, args[0], cmd.OutOrStdout())
}

// executeFetch clones every project in csvPath. It fails when any clone
// failed, after attempting all of them.
func executeFetch(ctx context.Context, ops git.Operations, cfg *config.Config, csvPath string, out io.Writer) error {
	f, err := os.Open(csvPath)
	if err != nil {
		return fmt.Errorf("failed to open project list: %w", err)
	}
	defer f.Close()

	projects, err := git.ParseProjects(f)
	if err != nil {
		return err
	}

	results, err := git.FetchAll(ctx, ops, projectsDir(cfg), projects, cfg.Workers)
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		switch r.Status {
		case git.FetchCloned:
			fmt.Fprintf(out, "✓ %s cloned into %s\n", r.Project.Name, r.Dir)
		case git.FetchExisting:
			fmt.Fprintf(out, "• %s already present\n", r.Project.Name)
		case git.FetchFailed:
			failed++
			fmt.Fprintf(out, "✗ %s: %v\n", r.Project.Name, r.Err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d projects failed to clone", failed, len(results))
	}
	return nil
}
