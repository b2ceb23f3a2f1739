package main

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/sentra-analysis/sentra/internal/config"
)

// selectFiles walks every root (a file or a directory) and returns every
// regular file with a recognized source extension, filtered by include and
// exclude doublestar glob patterns. An empty include list means every
// source file is a candidate; exclude always wins over include, the same
// precedence order as termfx-morfx's FileWalker.isIncluded/isExcluded.
func selectFiles(roots []string, include, exclude []string) ([]string, error) {
	var out []string
	seen := map[string]bool{}

	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if !config.HasSourceExt(path) {
				return nil
			}
			if len(include) > 0 && !matchesAny(path, include) {
				return nil
			}
			if matchesAny(path, exclude) {
				return nil
			}
			if seen[path] {
				return nil
			}
			seen[path] = true
			out = append(out, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// matchesAny reports whether path matches any of patterns, trying a full
// path match first and falling back to a basename match for patterns with
// no path separator, same fallback termfx-morfx's matchPattern uses.
func matchesAny(path string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}
	for _, pattern := range patterns {
		if matched, err := doublestar.PathMatch(pattern, path); err == nil && matched {
			return true
		}
		if !strings.Contains(pattern, "/") {
			if matched, err := doublestar.PathMatch(pattern, filepath.Base(path)); err == nil && matched {
				return true
			}
		}
	}
	return false
}
