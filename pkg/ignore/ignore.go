// Package ignore provides gitignore-based file filtering using go-git
package ignore

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	gitignore "github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// FileName is the plugin-level ignore file, read from the plugin root.
const FileName = ".strapi-pluginignore"

// Always ignored, whatever the ignore files say.
var defaultPatterns = []string{".git", "node_modules"}

// Matcher provides gitignore-based file filtering for one plugin root
type Matcher struct {
	root    string
	matcher gitignore.Matcher
}

// NewMatcher creates a matcher with layered ignore files, later layers
// winning:
// 1. built-in defaults (.git, node_modules)
// 2. .gitignore files below root and .git/info/exclude
// 3. .strapi-pluginignore at root
func NewMatcher(root string) (*Matcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	allPatterns := make([]gitignore.Pattern, 0, len(defaultPatterns))
	for _, pattern := range defaultPatterns {
		allPatterns = append(allPatterns, gitignore.ParsePattern(pattern, nil))
	}

	// ReadPatterns with nil domain walks .gitignore files from the root down
	if gitPatterns, err := gitignore.ReadPatterns(osfs.New(abs), nil); err == nil {
		allPatterns = append(allPatterns, gitPatterns...)
	}

	own, err := readIgnoreFile(filepath.Join(abs, FileName))
	switch {
	case err == nil:
		for _, pattern := range own {
			allPatterns = append(allPatterns, gitignore.ParsePattern(pattern, nil))
		}
	case !errors.Is(err, fs.ErrNotExist):
		return nil, err
	}

	return &Matcher{
		root:    abs,
		matcher: gitignore.NewMatcher(allPatterns),
	}, nil
}

// readIgnoreFile reads patterns from a gitignore-style text file
func readIgnoreFile(path string) ([]string, error) {
	content, err := os.ReadFile(filepath.Clean(path)) // #nosec G304 -- fixed name under the plugin root
	if err != nil {
		return nil, err
	}

	var patterns []string
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns, nil
}

// Root returns the absolute plugin root patterns are anchored to.
func (m *Matcher) Root() string {
	return m.root
}

// Match reports whether path is ignored. path is absolute or relative to the
// root. Paths outside the root are never ignored.
func (m *Matcher) Match(path string, isDir bool) bool {
	if filepath.IsAbs(path) {
		rel, err := filepath.Rel(m.root, path)
		if err != nil {
			return false
		}
		path = rel
	}

	parts := splitPath(filepath.ToSlash(path))
	if len(parts) == 0 || parts[0] == ".." {
		return false
	}
	return m.matcher.Match(parts, isDir)
}

// splitPath converts a slash-separated path into components for go-git matching
func splitPath(path string) []string {
	if path == "" || path == "." {
		return nil
	}

	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" && part != "." {
			result = append(result, part)
		}
	}
	return result
}
