// Package scanner walks input trees and classifies the files refscan
// knows how to analyze.
package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/refscan/refscan/pkg/config"
)

// Result groups discovered paths by what the engine does with them.
type Result struct {
	Classes  []string // compiled .class files
	Archives []string // packed archives holding class entries
	Layouts  []string // XML layout descriptors
	Stubs    []string // generated .java sources used for exclusions
}

// Total returns the number of discovered files across all kinds.
func (r *Result) Total() int {
	return len(r.Classes) + len(r.Archives) + len(r.Layouts) + len(r.Stubs)
}

// Scanner finds analyzable files in a directory tree.
type Scanner struct {
	config   *config.Config
	matchers []gitignore.Matcher
}

// New creates a scanner driven by cfg. A nil cfg uses defaults.
func New(cfg *config.Config) *Scanner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Scanner{config: cfg}
}

// findGitRoot finds the root of the git repository by looking for a .git
// directory. Returns empty string if not in a git repository.
func findGitRoot(start string) string {
	dir := start
	for {
		gitDir := filepath.Join(dir, ".git")
		if info, err := os.Stat(gitDir); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadExcludePatterns loads exclusion patterns from both config and
// .gitignore files. Config patterns are parsed as gitignore syntax.
func (s *Scanner) loadExcludePatterns(root string) {
	var patterns []gitignore.Pattern

	for _, pattern := range s.config.Exclude.Patterns {
		patterns = append(patterns, gitignore.ParsePattern(pattern, nil))
	}
	for _, dir := range s.config.Exclude.Dirs {
		patterns = append(patterns, gitignore.ParsePattern(dir+"/", nil))
	}

	// ReadPatterns recursively collects every .gitignore below the git
	// root, so nested ignore files are honored too.
	if s.config.Exclude.Gitignore {
		if gitRoot := findGitRoot(root); gitRoot != "" {
			fs := osfs.New(gitRoot)
			if gitPatterns, err := gitignore.ReadPatterns(fs, nil); err == nil {
				patterns = append(patterns, gitPatterns...)
			}
		}
	}

	if len(patterns) > 0 {
		s.matchers = append(s.matchers, gitignore.NewMatcher(patterns))
	}
}

// isExcluded checks if a path matches any exclusion pattern.
func (s *Scanner) isExcluded(path string, isDir bool) bool {
	if len(s.matchers) == 0 {
		return false
	}

	pathParts := strings.Split(path, string(filepath.Separator))
	for _, m := range s.matchers {
		if m.Match(pathParts, isDir) {
			return true
		}
	}
	return false
}

// ScanDir recursively scans a directory and classifies everything the
// engine can consume. Symlinks that escape root are skipped.
func (s *Scanner) ScanDir(root string) (*Result, error) {
	result := &Result{}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	absRoot, err = filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, err
	}

	s.loadExcludePatterns(root)

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		relPath, _ := filepath.Rel(root, path)

		if d.Type()&fs.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(path)
			if err != nil || !isWithinRoot(resolved, absRoot) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}

		if d.IsDir() {
			if s.isExcluded(relPath, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if s.isExcluded(relPath, false) {
			return nil
		}
		s.classify(relPath, path, result)
		return nil
	})

	return result, walkErr
}

// classify slots a file into the result according to its extension and
// location. Files the engine cannot consume are ignored.
func (s *Scanner) classify(relPath, path string, result *Result) {
	switch {
	case strings.HasSuffix(path, ".class"):
		result.Classes = append(result.Classes, path)
	case s.config.IsArchive(path):
		if s.config.Analysis.Archives {
			result.Archives = append(result.Archives, path)
		}
	case strings.HasSuffix(path, ".xml"):
		if s.config.Analysis.Layouts && s.inLayoutDir(relPath) {
			result.Layouts = append(result.Layouts, path)
		}
	case strings.HasSuffix(path, ".java"):
		if s.config.Analysis.Stubs && s.inStubDir(relPath) {
			result.Stubs = append(result.Stubs, path)
		}
	}
}

// inLayoutDir reports whether any directory segment of relPath starts
// with a configured layout prefix. Variant directories such as
// layout-land or layout-sw600dp match their base prefix.
func (s *Scanner) inLayoutDir(relPath string) bool {
	for _, seg := range strings.Split(filepath.Dir(relPath), string(filepath.Separator)) {
		for _, prefix := range s.config.Analysis.LayoutDirs {
			if strings.HasPrefix(seg, prefix) {
				return true
			}
		}
	}
	return false
}

// inStubDir reports whether any directory segment of relPath equals a
// configured stub directory name.
func (s *Scanner) inStubDir(relPath string) bool {
	for _, seg := range strings.Split(filepath.Dir(relPath), string(filepath.Separator)) {
		for _, dir := range s.config.Analysis.StubDirs {
			if seg == dir {
				return true
			}
		}
	}
	return false
}

// isWithinRoot checks if a path is contained within the root directory.
func isWithinRoot(path, root string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}

	absPath = filepath.Clean(absPath)
	root = filepath.Clean(root)

	if !strings.HasPrefix(absPath, root+string(filepath.Separator)) && absPath != root {
		return false
	}
	return true
}

// ScanFile checks whether a single file would be picked up by the
// scanner, using the same exclusion rules as ScanDir.
func (s *Scanner) ScanFile(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	if info.IsDir() {
		return false, nil
	}

	if len(s.matchers) == 0 {
		s.loadExcludePatterns(filepath.Dir(path))
	}
	if s.isExcluded(filepath.Base(path), false) {
		return false, nil
	}

	switch {
	case strings.HasSuffix(path, ".class"),
		strings.HasSuffix(path, ".xml"),
		strings.HasSuffix(path, ".java"):
		return true, nil
	default:
		return s.config.IsArchive(path), nil
	}
}
