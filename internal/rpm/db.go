// Package rpm wraps the rpm binary to expose the read-only package
// database queries the resolver and scanner need: package enumeration,
// per-package config file lists, and file-to-package ownership lookup.
package rpm

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// DB queries the RPM database of the live system, or of an alternate
// install root when Root is set. All queries are read-only.
type DB struct {
	// Root is the alternate install root ("" for the live system).
	// Paths returned by ConfigFiles are prefixed with it, and paths
	// passed to OwnerOfPath are stripped of it before querying.
	Root string
}

// New returns a DB for the given install root ("" for the live system).
func New(root string) *DB {
	return &DB{Root: root}
}

// command builds an rpm invocation, plumbing through --root when set.
func (d *DB) command(args ...string) *exec.Cmd {
	if d.Root != "" {
		args = append([]string{"--root", d.Root}, args...)
	}
	return exec.Command("rpm", args...)
}

// ListPackages returns installed package names in database enumeration
// order. With an empty names slice it enumerates every installed
// package; otherwise it resolves exactly the given names and fails if
// any of them is not installed.
func (d *DB) ListPackages(names []string) ([]string, error) {
	var cmd *exec.Cmd
	if len(names) == 0 {
		cmd = d.command("-qa", "--queryformat", "%{NAME}\n")
	} else {
		args := append([]string{"-q", "--queryformat", "%{NAME}\n"}, names...)
		cmd = d.command(args...)
	}

	output, err := cmd.Output()
	if err != nil {
		return nil, queryError("rpm query", err)
	}
	return parseLines(string(output)), nil
}

// parseLines splits rpm query output into trimmed, non-empty lines,
// preserving order.
func parseLines(output string) []string {
	var lines []string
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// ConfigFiles returns the paths declared as %config by the given
// package, in the order the package declares them, prefixed with the
// install root when one is set.
func (d *DB) ConfigFiles(pkg string) ([]string, error) {
	cmd := d.command("-qc", pkg)
	output, err := cmd.Output()
	if err != nil {
		return nil, queryError(fmt.Sprintf("rpm -qc %s", pkg), err)
	}

	var files []string
	for _, line := range strings.Split(string(output), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "(contains no files") {
			continue
		}
		if d.Root != "" {
			line = filepath.Join(d.Root, line)
		}
		files = append(files, line)
	}
	return files, nil
}

// OwnerOfPath returns the name of the package owning the given path, or
// "" if no installed package owns it. The path may carry the install
// root prefix; it is stripped before the query. rpm exits non-zero both
// for unowned paths and for paths it has never heard of — both are
// classified as unowned here, matching a basenames-index miss.
func (d *DB) OwnerOfPath(path string) (string, error) {
	path = stripRoot(d.Root, path)

	cmd := d.command("-qf", "--queryformat", "%{NAME}\n", path)
	output, err := cmd.Output()
	if err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			return "", nil
		}
		return "", fmt.Errorf("rpm -qf %s: %w", path, err)
	}

	owner := strings.TrimSpace(strings.SplitN(string(output), "\n", 2)[0])
	return owner, nil
}

// stripRoot removes the install root prefix from path, leaving paths
// outside the root (and the "" root) untouched.
func stripRoot(root, path string) string {
	if root == "" {
		return path
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, "../") {
		return path
	}
	if rel == "." {
		return "/"
	}
	return "/" + rel
}

// queryError decorates an exec failure with captured stderr, matching
// how callers expect rpm's own diagnostics to surface.
func queryError(what string, err error) error {
	if exitErr, ok := err.(*exec.ExitError); ok && len(exitErr.Stderr) > 0 {
		return fmt.Errorf("%s failed: %w (stderr: %s)", what, err, strings.TrimSpace(string(exitErr.Stderr)))
	}
	return fmt.Errorf("%s failed: %w", what, err)
}
