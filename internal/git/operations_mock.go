package git

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// MockGitOps is a mock implementation of Operations for testing. Clone
// creates dest with a .git directory so callers see a checkout.
type MockGitOps struct {
	Files       []string
	RemoteURL   string
	CloneErrors map[string]error // url -> error

	mu     sync.Mutex
	cloned []string
}

// NewMockGitOps creates a mock with sensible defaults.
func NewMockGitOps() *MockGitOps {
	return &MockGitOps{
		RemoteURL:   "https://github.com/user/repo.git",
		CloneErrors: map[string]error{},
	}
}

func (m *MockGitOps) Clone(ctx context.Context, url, dest string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err, ok := m.CloneErrors[url]; ok {
		return err
	}
	if err := os.MkdirAll(filepath.Join(dest, ".git"), 0755); err != nil {
		return err
	}
	m.mu.Lock()
	m.cloned = append(m.cloned, url)
	m.mu.Unlock()
	return nil
}

func (m *MockGitOps) ListFiles(ctx context.Context, dir string) ([]string, error) {
	return m.Files, nil
}

func (m *MockGitOps) GetRemoteURL(projectPath string) string {
	return m.RemoteURL
}

// Cloned returns the URLs passed to successful Clone calls.
func (m *MockGitOps) Cloned() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.cloned...)
}

// String returns a human-readable representation of the mock state.
func (m *MockGitOps) String() string {
	return fmt.Sprintf("MockGitOps{files=%d, remote=%s, cloned=%d}",
		len(m.Files), m.RemoteURL, len(m.Cloned()))
}
