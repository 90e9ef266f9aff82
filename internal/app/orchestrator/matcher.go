package orchestrator

import (
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// matcher checks relative paths against cleanup patterns
type matcher struct {
	patterns []glob.Glob
	ignores  []glob.Glob
}

func newMatcher(includes, ignores []string) (*matcher, error) {
	m := &matcher{
		patterns: make([]glob.Glob, 0, len(includes)),
		ignores:  make([]glob.Glob, 0, len(ignores)),
	}

	for _, p := range expandPatterns(includes) {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, err
		}

		m.patterns = append(m.patterns, g)
	}

	for _, p := range expandPatterns(ignores) {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, err
		}

		m.ignores = append(m.ignores, g)
	}

	return m, nil
}

// expandPatterns lets patterns starting with **/ also match at root level
func expandPatterns(patterns []string) []string {
	expanded := make([]string, 0, len(patterns)*2)

	for _, p := range patterns {
		expanded = append(expanded, p)

		if strings.HasPrefix(p, "**/") {
			expanded = append(expanded, strings.TrimPrefix(p, "**/"))
		}
	}

	return expanded
}

func (m *matcher) match(path string) bool {
	path = normalizePath(path)

	for _, ignore := range m.ignores {
		if ignore.Match(path) {
			return false
		}
	}

	for _, pattern := range m.patterns {
		if pattern.Match(path) {
			return true
		}
	}

	return false
}

// skipDir reports whether the walk should not descend into dirPath
func (m *matcher) skipDir(dirPath string) bool {
	probe := normalizePath(dirPath + "/_probe")

	for _, ignore := range m.ignores {
		if ignore.Match(probe) {
			return true
		}
	}

	return false
}

func normalizePath(path string) string {
	path = filepath.ToSlash(path)
	path = strings.TrimPrefix(path, "./")

	return path
}

func isLiteral(pattern string) bool {
	return glob.QuoteMeta(pattern) == pattern
}
