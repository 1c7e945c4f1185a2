package git

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Operations defines the git commands the miner needs.
// This allows mocking git commands in tests.
type Operations interface {
	// Clone makes a shallow clone of url into dest. dest must not exist.
	Clone(ctx context.Context, url, dest string) error

	// ListFiles returns the tracked files of the repository at dir,
	// relative to dir, in git's order.
	ListFiles(ctx context.Context, dir string) ([]string, error)

	// GetRemoteURL returns the git remote URL.
	// Tries 'origin' first, then falls back to first available remote.
	// Returns empty string if no remote configured.
	GetRemoteURL(projectPath string) string
}

// gitOps is the real implementation using exec.Command.
type gitOps struct{}

// NewOperations returns the default git operations implementation.
func NewOperations() Operations {
	return &gitOps{}
}

func (g *gitOps) Clone(ctx context.Context, url, dest string) error {
	cmd := exec.CommandContext(ctx, "git", "clone", "--depth", "1", "--quiet", url, dest)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("git clone %s: %w: %s", url, err, strings.TrimSpace(string(output)))
	}
	return nil
}

func (g *gitOps) ListFiles(ctx context.Context, dir string) ([]string, error) {
	cmd := exec.CommandContext(ctx, "git", "ls-files", "-z")
	cmd.Dir = dir
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git ls-files in %s: %w", dir, err)
	}

	var files []string
	for _, f := range strings.Split(string(output), "\x00") {
		if f != "" {
			files = append(files, f)
		}
	}
	return files, nil
}

func (g *gitOps) GetRemoteURL(projectPath string) string {
	// Try 'origin' first
	cmd := exec.Command("git", "remote", "get-url", "origin")
	cmd.Dir = projectPath
	output, err := cmd.Output()
	if err == nil {
		return strings.TrimSpace(string(output))
	}

	// Fallback: first remote
	cmd = exec.Command("git", "remote")
	cmd.Dir = projectPath
	output, err = cmd.Output()
	if err != nil {
		return ""
	}

	remotes := strings.Split(strings.TrimSpace(string(output)), "\n")
	if len(remotes) > 0 && remotes[0] != "" {
		cmd = exec.Command("git", "remote", "get-url", remotes[0])
		cmd.Dir = projectPath
		output, _ = cmd.Output()
		return strings.TrimSpace(string(output))
	}

	return ""
}
