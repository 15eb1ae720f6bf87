package scanner

import (
	"fmt"
	"os"
	"path/filepath"
)

// Directories enumerates every directory under the scan roots, with
// the same symlink-following, cycle-breaking, and exclusion behavior
// as Scan. The watcher uses this to know what to put watches on.
func (s *Scanner) Directories() ([]string, error) {
	visited := make(map[devino]bool)
	excluded := s.excludedSet()

	roots := s.Roots
	if len(roots) == 0 {
		roots = DefaultRoots
	}

	var dirs []string
	for _, top := range roots {
		if excluded[filepath.Clean(top)] {
			continue
		}
		dir := top
		if s.Root != "" {
			dir = filepath.Join(s.Root, top)
		}
		if err := s.markVisited(dir, visited); err != nil {
			fmt.Fprintf(s.Out, "Warning: skipping %s: %v\n", dir, err)
			continue
		}
		dirs = append(dirs, dir)
		s.walkDirs(dir, visited, excluded, &dirs)
	}
	return dirs, nil
}

func (s *Scanner) walkDirs(dir string, visited map[devino]bool, excluded map[string]bool, dirs *[]string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if excluded[path] {
			continue
		}
		info, err := os.Stat(path)
		if err != nil || !info.IsDir() {
			continue
		}
		key, ok := identity(info)
		if ok && visited[key] {
			continue
		}
		if ok {
			visited[key] = true
		}
		*dirs = append(*dirs, path)
		s.walkDirs(path, visited, excluded, dirs)
	}
}
