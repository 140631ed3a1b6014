package pipeline

import (
	"fmt"
	"path/filepath"
	"sort"
)

// Discover lists every *.gpx file in dir except output, sorted
// lexicographically so the merge order is reproducible.
func Discover(dir, output string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.gpx"))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	outputPath := resolve(output)

	files := make([]string, 0, len(matches))
	for _, m := range matches {
		if resolve(m) == outputPath {
			continue
		}
		files = append(files, m)
	}

	sort.Strings(files)
	return files, nil
}

// resolve returns an absolute, symlink-free form of path where possible.
func resolve(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		return real
	}
	return abs
}
