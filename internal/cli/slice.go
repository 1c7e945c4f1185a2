package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/r4phael/exception-miner/internal/dataset"
	"github.com/r4phael/exception-miner/internal/slicing"
	"github.com/r4phael/exception-miner/internal/syntax"
)

var (
	sliceLanguage string
	sliceTarget   string
)

var sliceCmd = &cobra.Command{
	Use:   "slice <src> <out-dir>",
	Short: "Compute front/back/mask files for an existing token corpus",
	Long: `Read src, one space-separated token sequence per line, split each line at
its last try keyword and write <name>.front, <name>.back and <name>.mask
into out-dir, where name is the base name of src without its extension.
Lines without a try keyword are skipped. With --target, the aligned target
file is filtered the same way and written to out-dir under its own name.`,
	Args: cobra.ExactArgs(2),
	RunE: runSlice,
}

func init() {
	sliceCmd.Flags().StringVarP(&sliceLanguage, "language", "l", "", "corpus language (default: configured language)")
	sliceCmd.Flags().StringVarP(&sliceTarget, "target", "t", "", "target file aligned with src, e.g. tgt-train.txt")
	rootCmd.AddCommand(sliceCmd)
}

func runSlice(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	name := sliceLanguage
	if name == "" {
		cfg, err := loadConfig(".")
		if err != nil {
			return err
		}
		name = cfg.Language
	}
	lang, err := syntax.ParseLanguage(name)
	if err != nil {
		return err
	}

	res, err := executeSlice(ctx, lang, args[0], sliceTarget, args[1])
	if err != nil {
		return err
	}
	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Sliced %s lines (%s skipped)\n", formatNumber(res.Written), formatNumber(res.Skipped))
	}
	return nil
}

// sliceOutput is one buffered output file of the slice command.
type sliceOutput struct {
	file *os.File
	buf  *bufio.Writer
}

func createSliceOutput(path string) (*sliceOutput, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	return &sliceOutput{file: f, buf: bufio.NewWriter(f)}, nil
}

// close flushes and closes the file, reporting the first failure.
func (o *sliceOutput) close() error {
	flushErr := o.buf.Flush()
	closeErr := o.file.Close()
	if flushErr != nil {
		return fmt.Errorf("failed to write %s: %w", o.file.Name(), flushErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close %s: %w", o.file.Name(), closeErr)
	}
	return nil
}

// executeSlice slices src into outDir. tgt is optional.
func executeSlice(ctx context.Context, lang syntax.Language, src, tgt, outDir string) (res dataset.CorpusResult, err error) {
	d, err := slicing.ForLanguage(lang)
	if err != nil {
		return res, err
	}

	in, err := os.Open(src)
	if err != nil {
		return res, fmt.Errorf("failed to open corpus: %w", err)
	}
	defer in.Close()

	var tgtIn io.Reader
	if tgt != "" {
		f, err := os.Open(tgt)
		if err != nil {
			return res, fmt.Errorf("failed to open targets: %w", err)
		}
		defer f.Close()
		tgtIn = f
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return res, fmt.Errorf("failed to create output directory: %w", err)
	}
	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))

	paths := []string{
		filepath.Join(outDir, base+".front"),
		filepath.Join(outDir, base+".back"),
		filepath.Join(outDir, base+".mask"),
	}
	if tgt != "" {
		paths = append(paths, filepath.Join(outDir, filepath.Base(tgt)))
	}

	outputs := make([]*sliceOutput, 0, len(paths))
	defer func() {
		for _, o := range outputs {
			if cerr := o.close(); cerr != nil && err == nil {
				err = cerr
			}
		}
	}()
	for _, p := range paths {
		o, err := createSliceOutput(p)
		if err != nil {
			return res, err
		}
		outputs = append(outputs, o)
	}

	out := dataset.CorpusOutputs{
		Front: outputs[0].buf,
		Back:  outputs[1].buf,
		Mask:  outputs[2].buf,
	}
	if tgt != "" {
		out.Target = outputs[3].buf
	}
	return dataset.SliceCorpus(ctx, d, in, tgtIn, out)
}
