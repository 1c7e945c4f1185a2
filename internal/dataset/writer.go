package dataset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Partition names used in output file names.
const (
	PartitionTrain = "train"
	PartitionValid = "valid"
	PartitionTest  = "test"
)

// Writer writes dataset files under a directory. Every file is written to a
// temporary path first and renamed into place.
type Writer struct {
	dir string
}

// NewWriter creates dir (and its temp directory) and returns a writer for it.
func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Join(dir, ".tmp"), 0755); err != nil {
		return nil, fmt.Errorf("failed to create dataset directory: %w", err)
	}
	return &Writer{dir: dir}, nil
}

// Dir returns the output directory.
func (w *Writer) Dir() string {
	return w.dir
}

// WriteTask1 writes rows as JSON lines to task1/<partition>.jsonl.
func (w *Writer) WriteTask1(partition string, rows []Task1Row) error {
	return w.write(filepath.Join("task1", partition+".jsonl"), func(out io.Writer) error {
		enc := json.NewEncoder(out)
		for i := range rows {
			if err := enc.Encode(&rows[i]); err != nil {
				return fmt.Errorf("failed to encode task1 row: %w", err)
			}
		}
		return nil
	})
}

// WriteTask2 writes rows as aligned OpenNMT text files under task2/:
// src-<p>.txt, src-<p>.front, src-<p>.back, src-<p>.mask and tgt-<p>.txt,
// one sample per line.
func (w *Writer) WriteTask2(partition string, rows []Task2Row) error {
	columns := []struct {
		name string
		line func(Task2Row) (string, error)
	}{
		{"src-" + partition + ".txt", func(r Task2Row) (string, error) { return r.Source(), nil }},
		{"src-" + partition + ".front", func(r Task2Row) (string, error) { return strings.Join(r.Front, " "), nil }},
		{"src-" + partition + ".back", func(r Task2Row) (string, error) { return strings.Join(r.Back, " "), nil }},
		{"src-" + partition + ".mask", func(r Task2Row) (string, error) { return encodeMask(r.Mask) }},
		{"tgt-" + partition + ".txt", func(r Task2Row) (string, error) { return strings.Join(r.Target, " "), nil }},
	}

	for _, col := range columns {
		err := w.write(filepath.Join("task2", col.name), func(out io.Writer) error {
			for _, row := range rows {
				line, err := col.line(row)
				if err != nil {
					return err
				}
				if _, err := io.WriteString(out, line+"\n"); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// WriteSplits writes all partitions of both tasks.
func (w *Writer) WriteSplits(task1 Split[Task1Row], task2 Split[Task2Row]) error {
	parts := []struct {
		name  string
		task1 []Task1Row
		task2 []Task2Row
	}{
		{PartitionTrain, task1.Train, task2.Train},
		{PartitionValid, task1.Valid, task2.Valid},
		{PartitionTest, task1.Test, task2.Test},
	}
	for _, p := range parts {
		if err := w.WriteTask1(p.name, p.task1); err != nil {
			return err
		}
		if err := w.WriteTask2(p.name, p.task2); err != nil {
			return err
		}
	}
	return nil
}

func encodeMask(mask []int) (string, error) {
	data, err := json.Marshal(mask)
	if err != nil {
		return "", fmt.Errorf("failed to encode mask: %w", err)
	}
	return string(data), nil
}

func (w *Writer) write(rel string, fill func(io.Writer) error) error {
	finalPath := filepath.Join(w.dir, rel)
	if err := os.MkdirAll(filepath.Dir(finalPath), 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(finalPath), err)
	}

	tempPath := filepath.Join(w.dir, ".tmp", strings.ReplaceAll(rel, string(filepath.Separator), "_"))
	f, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	buf := bufio.NewWriter(f)
	if err := fill(buf); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", rel, err)
	}
	if err := buf.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("failed to flush %s: %w", rel, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", rel, err)
	}

	// Atomic rename (POSIX guarantees atomicity)
	if err := os.Rename(tempPath, finalPath); err != nil {
		return fmt.Errorf("failed to rename %s: %w", rel, err)
	}
	return nil
}
