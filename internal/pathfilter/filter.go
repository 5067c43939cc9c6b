// Package pathfilter decides which repository paths are worth showing to a
// caller browsing a remote tree.
package pathfilter

import (
	"fmt"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultExcludes are directory and file names hidden from repository
// listings unless a caller browses into them explicitly.
var DefaultExcludes = []string{
	".git",
	"node_modules",
	"vendor",
	"__pycache__",
	"dist",
	"build",
	"out",
	"coverage",
	".next",
	".nuxt",
	"target",
	".venv",
	"venv",
	".idea",
	".vscode",
	".cache",
	".DS_Store",
}

// IsNoise reports whether name matches one of the default exclusions.
func IsNoise(name string) bool {
	for _, excl := range DefaultExcludes {
		if strings.EqualFold(name, excl) {
			return true
		}
	}
	return false
}

// Filter combines the default exclusions with caller supplied glob patterns.
type Filter struct {
	include []string
	exclude []string
}

// New validates the patterns and builds a Filter. Patterns use doublestar
// syntax, so "**/*.test.ts" matches at any depth.
func New(include, exclude []string) (*Filter, error) {
	f := &Filter{}
	for _, p := range include {
		p = normalize(p)
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid include pattern %q", p)
		}
		f.include = append(f.include, p)
	}
	for _, p := range exclude {
		p = normalize(p)
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid exclude pattern %q", p)
		}
		f.exclude = append(f.exclude, p)
	}
	return f, nil
}

// Keep reports whether relPath should be listed. Directories are tested
// against exclusions only; include patterns apply to files.
func (f *Filter) Keep(relPath string, isDir bool) bool {
	relPath = normalize(relPath)
	for _, seg := range strings.Split(relPath, "/") {
		if IsNoise(seg) {
			return false
		}
	}
	if f == nil {
		return true
	}
	if matchesAny(relPath, f.exclude) {
		return false
	}
	if isDir || len(f.include) == 0 {
		return true
	}
	return matchesAny(relPath, f.include)
}

// matchesAny checks relPath, and its last element, against every pattern.
func matchesAny(relPath string, patterns []string) bool {
	base := path.Base(relPath)
	for _, pattern := range patterns {
		if matched, err := doublestar.Match(pattern, relPath); err == nil && matched {
			return true
		}
		if matched, err := doublestar.Match(pattern, base); err == nil && matched {
			return true
		}
	}
	return false
}

func normalize(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	return strings.Trim(p, "/")
}
