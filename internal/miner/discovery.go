package miner

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gobwas/glob"

	"github.com/r4phael/exception-miner/internal/git"
	"github.com/r4phael/exception-miner/internal/syntax"
)

// compiledPattern holds both the pattern string and compiled glob
type compiledPattern struct {
	pattern string
	glob    glob.Glob
}

// FileDiscovery finds the source files of one language under a root,
// filtered by include and ignore globs.
type FileDiscovery struct {
	rootDir         string
	language        syntax.Language
	includePatterns []compiledPattern
	ignorePatterns  []compiledPattern
	git             git.Operations
}

// NewFileDiscovery creates a new file discovery instance. An empty include
// list accepts every file of the language.
func NewFileDiscovery(rootDir string, lang syntax.Language, includePatterns, ignorePatterns []string) (*FileDiscovery, error) {
	fd := &FileDiscovery{
		rootDir:  rootDir,
		language: lang,
	}

	var err error
	if fd.includePatterns, err = compilePatterns(includePatterns); err != nil {
		return nil, err
	}
	if fd.ignorePatterns, err = compilePatterns(ignorePatterns); err != nil {
		return nil, err
	}
	return fd, nil
}

// WithGit makes discovery list tracked files through ops instead of walking
// the tree. Discovery falls back to walking when the root is not a checkout.
func (fd *FileDiscovery) WithGit(ops git.Operations) *FileDiscovery {
	fd.git = ops
	return fd
}

func compilePatterns(patterns []string) ([]compiledPattern, error) {
	var compiled []compiledPattern
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, compiledPattern{pattern: pattern, glob: g})
	}
	return compiled, nil
}

// DiscoverFiles returns the matching files as slash-separated paths relative
// to the root, sorted.
func (fd *FileDiscovery) DiscoverFiles(ctx context.Context) ([]string, error) {
	if fd.git != nil {
		tracked, err := fd.git.ListFiles(ctx, fd.rootDir)
		if err == nil {
			log.Debugf("discovery: %d tracked files from git", len(tracked))
			return fd.Filter(tracked), nil
		}
		log.Debugf("discovery: git listing unavailable, walking %s: %s", fd.rootDir, err.Error())
	}

	var files []string
	err := filepath.WalkDir(fd.rootDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		relPath, err := filepath.Rel(fd.rootDir, path)
		if err != nil {
			return err
		}
		// Normalize path separators for glob matching
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if relPath != "." && fd.shouldIgnore(relPath) {
				return filepath.SkipDir
			}
			return nil
		}
		if fd.Match(relPath) {
			files = append(files, relPath)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.Sort(files)
	return files, nil
}

// Filter keeps the paths of candidates that Match, sorted.
func (fd *FileDiscovery) Filter(candidates []string) []string {
	var files []string
	for _, c := range candidates {
		rel := filepath.ToSlash(c)
		if fd.Match(rel) {
			files = append(files, rel)
		}
	}
	slices.Sort(files)
	return files
}

// Match reports whether a relative path is a source file of the language
// that passes the include and ignore patterns.
func (fd *FileDiscovery) Match(relPath string) bool {
	if syntax.LanguageForPath(relPath) != fd.language {
		return false
	}
	if fd.shouldIgnore(relPath) {
		return false
	}
	return len(fd.includePatterns) == 0 || matchesAnyPattern(relPath, fd.includePatterns)
}

// shouldIgnore checks if a path matches any ignore pattern.
func (fd *FileDiscovery) shouldIgnore(relPath string) bool {
	if matchesAnyPattern(relPath, fd.ignorePatterns) {
		return true
	}

	// Also check if this is a directory that would match with /** suffix
	// For example, "node_modules" should match pattern "node_modules/**"
	return matchesAnyPattern(relPath+"/**", fd.ignorePatterns)
}

// matchesAnyPattern checks if a path matches any of the given patterns.
func matchesAnyPattern(path string, patterns []compiledPattern) bool {
	for _, cp := range patterns {
		if cp.glob.Match(path) {
			return true
		}
	}

	// Special handling: if path is in root (no slash), also try matching against
	// patterns with **/ prefix removed. This makes "**/*.java" match both "A.java"
	// and "src/A.java" as users would expect.
	if !strings.Contains(path, "/") {
		for _, cp := range patterns {
			if strings.HasPrefix(cp.pattern, "**/") {
				simplified := strings.TrimPrefix(cp.pattern, "**/")
				if simplifiedGlob, err := glob.Compile(simplified, '/'); err == nil {
					if simplifiedGlob.Match(path) {
						return true
					}
				}
			}
		}
	}

	return false
}
