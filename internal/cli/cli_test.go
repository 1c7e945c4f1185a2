package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/r4phael/exception-miner/internal/config"
	"github.com/r4phael/exception-miner/internal/dataset"
	"github.com/r4phael/exception-miner/internal/git"
	"github.com/r4phael/exception-miner/internal/miner"
	"github.com/r4phael/exception-miner/internal/storage"
	"github.com/r4phael/exception-miner/internal/syntax"
)

// Test Plan for CLI commands:
// - formatNumber inserts thousands separators, including for negatives
// - databasePath keeps absolute paths and resolves relative ones under output.dir
// - slice writes aligned front/back/mask files named after the source
// - slice filters an aligned target file and reports misalignment
// - fetch clones into <output.dir>/projects/<language>, keeps existing
//   checkouts and reports failures after attempting every project
// - preprocess writes task1 and task2 splits for the Java fixture
// - metrics stores a finished run with one row per function and lists it
// - metrics records the git remote of the mined tree

func javaFixture(t *testing.T) string {
	t.Helper()
	dir, err := filepath.Abs(filepath.Join("..", "..", "testdata", "code", "java"))
	require.NoError(t, err)
	return dir
}

func testCLIConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Output.Dir = t.TempDir()
	cfg.Workers = 2
	return cfg
}

func countLines(t *testing.T, path string) int {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	n := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		n++
	}
	require.NoError(t, scanner.Err())
	return n
}

func TestFormatNumber(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   int
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-45000, "-45,000"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatNumber(tt.in))
	}
}

func TestDatabasePath(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Output.Dir = "out"
	assert.Equal(t, filepath.Join("out", "exminer.db"), databasePath(cfg))
	assert.Equal(t, filepath.Join("out", "java"), datasetDir(cfg))
	assert.Equal(t, filepath.Join("out", "projects", "java"), projectsDir(cfg))

	cfg.Output.Database = "/var/lib/exminer.db"
	assert.Equal(t, "/var/lib/exminer.db", databasePath(cfg))
}

func TestExecuteSlice(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "src-train.txt")
	corpus := "void f ( ) { int a = 1 ; try { g ( a ) ; }\nvoid g ( ) { }\n"
	require.NoError(t, os.WriteFile(src, []byte(corpus), 0644))

	outDir := filepath.Join(dir, "sliced")
	res, err := executeSlice(context.Background(), syntax.Java, src, "", outDir)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Written)
	assert.Equal(t, 1, res.Skipped)

	front, err := os.ReadFile(filepath.Join(outDir, "src-train.front"))
	require.NoError(t, err)
	assert.Equal(t, "void f ( ) { int a = 1 ;\n", string(front))

	back, err := os.ReadFile(filepath.Join(outDir, "src-train.back"))
	require.NoError(t, err)
	assert.Equal(t, "try { g ( a ) ; }\n", string(back))

	mask, err := os.ReadFile(filepath.Join(outDir, "src-train.mask"))
	require.NoError(t, err)
	assert.Equal(t, "[1,1,1,1,1,1,1,1,1,1]\n", string(mask))
}

func TestExecuteSlice_Target(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "src-valid.txt")
	tgt := filepath.Join(dir, "tgt-valid.txt")
	corpus := "void g ( ) { }\nvoid f ( ) { try { a ( ) ; } catch ( E e ) { } x = 1 ; try { b ( x ) ; }\n"
	require.NoError(t, os.WriteFile(src, []byte(corpus), 0644))
	require.NoError(t, os.WriteFile(tgt, []byte("catch ( A e ) { }\ncatch ( B e ) { }\n"), 0644))

	outDir := filepath.Join(dir, "sliced")
	res, err := executeSlice(context.Background(), syntax.Java, src, tgt, outDir)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Written)

	front, err := os.ReadFile(filepath.Join(outDir, "src-valid.front"))
	require.NoError(t, err)
	assert.Equal(t, "void f ( ) { try { a ( ) ; } catch ( E e ) { } x = 1 ;\n", string(front))

	target, err := os.ReadFile(filepath.Join(outDir, "tgt-valid.txt"))
	require.NoError(t, err)
	assert.Equal(t, "catch ( B e ) { }\n", string(target))

	require.NoError(t, os.WriteFile(tgt, []byte("catch ( A e ) { }\n"), 0644))
	_, err = executeSlice(context.Background(), syntax.Java, src, tgt, outDir)
	assert.ErrorIs(t, err, dataset.ErrCorpusMisaligned)
}

func TestExecuteSlice_MissingSource(t *testing.T) {
	t.Parallel()

	_, err := executeSlice(context.Background(), syntax.Python, filepath.Join(t.TempDir(), "missing.txt"), "", t.TempDir())
	require.Error(t, err)
}

func TestExecuteFetch(t *testing.T) {
	t.Parallel()

	cfg := testCLIConfig(t)
	csvPath := filepath.Join(t.TempDir(), "projects.csv")
	csv := "name,repo\n" +
		"alpha,https://example.com/alpha.git\n" +
		"beta,https://example.com/beta.git\n" +
		"gamma,https://example.com/gamma.git\n"
	require.NoError(t, os.WriteFile(csvPath, []byte(csv), 0644))

	// beta is already checked out
	require.NoError(t, os.MkdirAll(filepath.Join(projectsDir(cfg), "beta", ".git"), 0755))

	ops := git.NewMockGitOps()
	ops.CloneErrors["https://example.com/gamma.git"] = errors.New("repository not found")

	var out bytes.Buffer
	err := executeFetch(context.Background(), ops, cfg, csvPath, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 3 projects failed")

	assert.Equal(t, []string{"https://example.com/alpha.git"}, ops.Cloned())
	assert.DirExists(t, filepath.Join(projectsDir(cfg), "alpha", ".git"))
	assert.Contains(t, out.String(), "alpha cloned")
	assert.Contains(t, out.String(), "beta already present")
	assert.Contains(t, out.String(), "gamma: repository not found")
}

func TestExecuteFetch_InvalidCSV(t *testing.T) {
	t.Parallel()

	cfg := testCLIConfig(t)
	csvPath := filepath.Join(t.TempDir(), "projects.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("project,url\nalpha,x\n"), 0644))

	err := executeFetch(context.Background(), git.NewMockGitOps(), cfg, csvPath, &bytes.Buffer{})
	assert.ErrorIs(t, err, git.ErrInvalidProjects)
}

func TestExecutePreprocess(t *testing.T) {
	t.Parallel()

	cfg := testCLIConfig(t)
	var out bytes.Buffer
	res, err := executePreprocess(context.Background(), preprocessOptions{
		rootDir:  javaFixture(t),
		cfg:      cfg,
		progress: &miner.NoOpProgressReporter{},
		out:      &out,
	})
	require.NoError(t, err)
	assert.Empty(t, res.Metrics)
	assert.Equal(t, 2, res.Positives)

	dir := datasetDir(cfg)
	task1, task2 := 0, 0
	for _, p := range []string{"train", "valid", "test"} {
		task1 += countLines(t, filepath.Join(dir, "task1", p+".jsonl"))
		task2 += countLines(t, filepath.Join(dir, "task2", "src-"+p+".txt"))
		for _, ext := range []string{".front", ".back", ".mask"} {
			assert.FileExists(t, filepath.Join(dir, "task2", "src-"+p+ext))
		}
		assert.FileExists(t, filepath.Join(dir, "task2", "tgt-"+p+".txt"))
	}
	assert.Equal(t, res.Positives+res.Negatives, task1)
	assert.Equal(t, 1, task2)
	assert.Contains(t, out.String(), "Datasets written to "+dir)
}

func TestExecuteMetrics(t *testing.T) {
	t.Parallel()

	cfg := testCLIConfig(t)
	root := javaFixture(t)
	var out bytes.Buffer
	runID, err := executeMetrics(context.Background(), metricsOptions{
		rootDir:  root,
		cfg:      cfg,
		progress: &miner.NoOpProgressReporter{},
		out:      &out,
	})
	require.NoError(t, err)
	require.NotEmpty(t, runID)
	assert.Contains(t, out.String(), "Run "+runID)

	db, err := storage.Open(databasePath(cfg))
	require.NoError(t, err)
	defer db.Close()

	reader := storage.NewMetricsReader(db)
	run, err := reader.GetRun(runID)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.True(t, run.Finished())
	assert.Equal(t, "java", run.Language)
	assert.Equal(t, root, run.Root)
	assert.Equal(t, 2, run.FileCount)
	assert.Equal(t, 7, run.FunctionCount)

	rows, err := reader.ListMetrics(runID)
	require.NoError(t, err)
	assert.Len(t, rows, 7)

	var list bytes.Buffer
	require.NoError(t, executeMetricsList(cfg, &list))
	lines := strings.Split(strings.TrimSpace(list.String()), "\n")
	require.Len(t, lines, 1)
	assert.True(t, strings.HasPrefix(lines[0], runID))
	assert.Contains(t, lines[0], "finished")
}

func TestExecuteMetricsList_NoDatabase(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	require.NoError(t, executeMetricsList(testCLIConfig(t), &out))
	assert.Contains(t, out.String(), "No metrics database")
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	versionCmd.Run(versionCmd, nil)
	assert.Contains(t, out.String(), "exminer "+Version)
}

func TestExecuteMetrics_RecordsRemote(t *testing.T) {
	t.Parallel()

	cfg := testCLIConfig(t)
	ops := git.NewMockGitOps()
	ops.Files = []string{"src/main/Repository.java", "src/main/Store.java"}

	runID, err := executeMetrics(context.Background(), metricsOptions{
		rootDir:  javaFixture(t),
		cfg:      cfg,
		git:      ops,
		progress: &miner.NoOpProgressReporter{},
		out:      &bytes.Buffer{},
	})
	require.NoError(t, err)

	db, err := storage.Open(databasePath(cfg))
	require.NoError(t, err)
	defer db.Close()

	run, err := storage.NewMetricsReader(db).GetRun(runID)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, ops.RemoteURL, run.Remote)
	assert.Equal(t, 2, run.FileCount)
}
