// Package scanner finds leftover .rpmnew/.rpmsave/.rpmorig artifacts
// across the filesystem and classifies them: artifacts whose base file
// is still owned by an installed package need a merge pass, the rest
// are orphans eligible for deletion.
package scanner

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/0x6d6e647a/rpmconf/internal/resolve"
)

// Ownership looks up which installed package owns a path; "" means no
// owner.
type Ownership interface {
	OwnerOfPath(path string) (string, error)
}

// MergeCandidate is an artifact whose base file is still owned by an
// installed package. It is never auto-deleted.
type MergeCandidate struct {
	Package  string
	Base     string
	Artifact string
}

// Result is the outcome of one scan.
type Result struct {
	NeedsMerge []MergeCandidate
	Orphans    []string
}

// DefaultRoots are the directories searched for artifacts.
var DefaultRoots = []string{"/etc", "/var", "/usr"}

// defaultExcludes are pruned unconditionally: they hold container and
// chroot trees with their own package databases.
var defaultExcludes = []string{
	"/var/lib/mock",
	"/var/run",
	"/var/lib/docker",
	"/var/lib/containers",
}

// Scanner walks the filesystem looking for artifact files.
type Scanner struct {
	DB      Ownership
	Root    string   // alternate install root prefix
	Roots   []string // defaults to DefaultRoots
	Exclude []string // user-supplied exclusions
	Out     io.Writer
}

// devino identifies a directory independent of the path that reached
// it, so symlink cycles and shared subtrees are visited once.
type devino struct {
	dev uint64
	ino uint64
}

// Scan walks the roots, following symlinks, and classifies every file
// carrying a recognized artifact suffix. The visited-directory set
// lives only for this call.
func (s *Scanner) Scan() (*Result, error) {
	res := &Result{}
	visited := make(map[devino]bool)
	excluded := s.excludedSet()

	roots := s.Roots
	if len(roots) == 0 {
		roots = DefaultRoots
	}

	for _, top := range roots {
		if excluded[filepath.Clean(top)] {
			continue
		}
		dir := top
		if s.Root != "" {
			dir = filepath.Join(s.Root, top)
		}
		fmt.Fprintf(s.Out, "Searching through: %s\n", dir)
		if err := s.markVisited(dir, visited); err != nil {
			fmt.Fprintf(s.Out, "Warning: skipping %s: %v\n", dir, err)
			continue
		}
		s.walk(dir, visited, excluded, res)
	}

	sort.Strings(res.Orphans)
	return res, nil
}

// excludedSet normalizes the built-in and user exclusions, in both
// bare and root-prefixed form so matches work either way the caller
// spelled them.
func (s *Scanner) excludedSet() map[string]bool {
	set := make(map[string]bool)
	for _, e := range append(append([]string{}, defaultExcludes...), s.Exclude...) {
		clean := filepath.Clean(e)
		set[clean] = true
		if s.Root != "" {
			set[filepath.Join(s.Root, clean)] = true
		}
	}
	return set
}

// walk descends into dir top-down. Directories are identified by
// (device, inode) before descent and skipped when already visited;
// excluded paths are pruned before traversal reaches them.
func (s *Scanner) walk(dir string, visited map[devino]bool, excluded map[string]bool, res *Result) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		fmt.Fprintf(s.Out, "Warning: reading %s: %v\n", dir, err)
		return
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if excluded[path] {
			continue
		}

		// Stat follows symlinks so linked directories are walked.
		info, err := os.Stat(path)
		if err != nil {
			continue // broken symlink or concurrent removal
		}

		if info.IsDir() {
			key, ok := identity(info)
			if ok && visited[key] {
				continue
			}
			if ok {
				visited[key] = true
			}
			s.walk(path, visited, excluded, res)
			continue
		}

		if !info.Mode().IsRegular() {
			continue
		}
		if _, ok := resolve.KindForSuffix(filepath.Ext(path)); !ok {
			continue
		}
		// A dotfile named exactly like a suffix (".rpmnew") has no
		// base file and is not an artifact.
		if filepath.Base(path) == filepath.Ext(path) {
			continue
		}
		s.classify(path, res)
	}
}

// classify queries ownership of the artifact's base name exactly once
// and files the artifact accordingly.
func (s *Scanner) classify(artifact string, res *Result) {
	base := strings.TrimSuffix(artifact, filepath.Ext(artifact))
	owner, err := s.DB.OwnerOfPath(base)
	if err != nil {
		fmt.Fprintf(s.Out, "Warning: ownership lookup for %s: %v\n", base, err)
		return
	}
	if owner != "" {
		res.NeedsMerge = append(res.NeedsMerge, MergeCandidate{
			Package:  owner,
			Base:     base,
			Artifact: artifact,
		})
		return
	}
	res.Orphans = append(res.Orphans, artifact)
}

// markVisited records a root directory's identity so a symlink back to
// the root is not re-walked.
func (s *Scanner) markVisited(dir string, visited map[devino]bool) error {
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory")
	}
	if key, ok := identity(info); ok {
		visited[key] = true
	}
	return nil
}

// identity extracts the (device, inode) pair from a stat result.
func identity(info os.FileInfo) (devino, bool) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return devino{}, false
	}
	return devino{dev: uint64(st.Dev), ino: uint64(st.Ino)}, true
}
