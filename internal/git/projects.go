package git

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/r4phael/exception-miner/internal/logging"
)

var log = logging.Get("git")

// ErrInvalidProjects means the project list could not be used.
var ErrInvalidProjects = errors.New("invalid project list")

// Project is one repository to mine.
type Project struct {
	Name string
	Repo string
}

// FetchStatus is the outcome of fetching one project.
type FetchStatus int

const (
	FetchCloned FetchStatus = iota
	FetchExisting
	FetchFailed
)

// FetchResult reports what happened to one project.
type FetchResult struct {
	Project Project
	Dir     string
	Status  FetchStatus
	Err     error
}

// ParseProjects reads a CSV with a header containing "name" and "repo"
// columns. Other columns are ignored. Duplicate names are rejected.
func ParseProjects(r io.Reader) ([]Project, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty file", ErrInvalidProjects)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProjects, err)
	}

	nameCol, repoCol := -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "name":
			nameCol = i
		case "repo":
			repoCol = i
		}
	}
	if nameCol < 0 || repoCol < 0 {
		return nil, fmt.Errorf("%w: header must contain name and repo columns", ErrInvalidProjects)
	}

	var projects []Project
	seen := make(map[string]int)
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidProjects, err)
		}
		if len(record) <= max(nameCol, repoCol) {
			return nil, fmt.Errorf("%w: line %d: missing columns", ErrInvalidProjects, line)
		}

		p := Project{Name: strings.TrimSpace(record[nameCol]), Repo: strings.TrimSpace(record[repoCol])}
		if p.Name == "" || p.Repo == "" {
			return nil, fmt.Errorf("%w: line %d: empty name or repo", ErrInvalidProjects, line)
		}
		if prev, ok := seen[p.Name]; ok {
			return nil, fmt.Errorf("%w: line %d: duplicate project %q (first on line %d)", ErrInvalidProjects, line, p.Name, prev)
		}
		seen[p.Name] = line
		projects = append(projects, p)
	}
	return projects, nil
}

// FetchAll clones every project into dest/<name>, at most workers at a time.
// Projects that already have a checkout are left alone. A failed clone is
// recorded in its result and does not stop the others; only context
// cancellation aborts the batch. Results are in input order.
func FetchAll(ctx context.Context, ops Operations, dest string, projects []Project, workers int) ([]FetchResult, error) {
	if err := os.MkdirAll(dest, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dest, err)
	}

	results := make([]FetchResult, len(projects))
	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}

	for i, p := range projects {
		g.Go(func() error {
			dir := filepath.Join(dest, p.Name)
			results[i] = FetchResult{Project: p, Dir: dir}

			if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
				log.Infof("%s: already cloned", p.Name)
				results[i].Status = FetchExisting
				return nil
			}

			if err := ops.Clone(gctx, p.Repo, dir); err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				log.Warning("clone failed", "project", p.Name, "repo", p.Repo, "error", err.Error())
				results[i].Status = FetchFailed
				results[i].Err = err
				return nil
			}
			log.Infof("%s: cloned %s", p.Name, p.Repo)
			results[i].Status = FetchCloned
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
