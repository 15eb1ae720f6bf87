// Package merge dispatches conflicting file pairs to an external merge
// frontend and applies the frontend's post-success cleanup policy. It
// never prompts; the resolver decides when a merge is wanted and what
// to do with the result.
package merge

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"

	"github.com/0x6d6e647a/rpmconf/internal/exitcode"
)

// Sentinel failures that are fatal to the whole run: both indicate
// broken configuration rather than a per-file problem.
var (
	// ErrNoFrontend: a merge was requested but no frontend is
	// configured and the MERGE environment variable is unset.
	ErrNoFrontend = errors.New("no frontend selected for merge: define it with the MERGE environment variable or the --frontend flag")

	// ErrToolNotFound: the configured frontend executable does not
	// exist on this system.
	ErrToolNotFound = errors.New("merge tool not found")
)

// Files performs the filesystem mutations that follow a successful
// merge. Implemented by resolve.FileOps so dry-run policy stays in one
// place.
type Files interface {
	Remove(path string) error
	Copy(src, dst string) error
}

// class separates the frontends by invocation shape and by how their
// exit status maps to "merged".
type class int

const (
	// classVisual: run on (base, artifact); the tool edits base in
	// place. A zero exit is trusted as success even though vimdiff,
	// gvimdiff and meld exit zero whether or not the user saved —
	// a known, accepted limitation.
	classVisual class = iota

	// classOutputArg: the tool writes its result to a designated
	// output path, bound to base. On success the artifact and the
	// tool's sidecar backup are removed.
	classOutputArg

	// classLineOriented: the tool writes to a scratch file; exit 0
	// (clean) and exit 1 (conflicts marked) both count as merged,
	// anything else leaves the originals untouched.
	classLineOriented
)

// frontendSpec carries the invocation template and cleanup policy for
// one frontend, as data rather than ad hoc branches.
type frontendSpec struct {
	class class
	exe   string
}

var frontends = map[string]frontendSpec{
	"vimdiff":  {classVisual, "vimdiff"},
	"gvimdiff": {classVisual, "gvimdiff"},
	"meld":     {classVisual, "meld"},
	"diffuse":  {classVisual, "diffuse"},
	"kdiff3":   {classOutputArg, "kdiff3"},
	"sdiff":    {classLineOriented, "sdiff"},
}

// Known reports whether name is a recognized frontend identifier.
func Known(name string) bool {
	if name == "" || name == "env" {
		return true
	}
	_, ok := frontends[name]
	return ok
}

// Dispatcher invokes the configured merge frontend on file pairs.
type Dispatcher struct {
	// Frontend is the configured frontend name. Empty or "env"
	// selects the command named by the MERGE environment variable.
	Frontend string
	Files    Files
	Out      io.Writer

	// execTool overrides tool execution in tests.
	execTool func(exe string, args ...string) error
}

// Merge runs the frontend on (base, artifact) and applies its cleanup
// policy. A frontend reporting failure is recovered locally: the
// originals are left in place and a line is written to Out. Missing
// executables and missing frontend configuration are fatal.
func (d *Dispatcher) Merge(base, artifact string) error {
	if spec, ok := frontends[d.Frontend]; ok {
		switch spec.class {
		case classOutputArg:
			return d.mergeOutputArg(spec.exe, base, artifact)
		case classLineOriented:
			return d.mergeLineOriented(spec.exe, base, artifact)
		default:
			return d.mergeVisual(spec.exe, base, artifact)
		}
	}

	if (d.Frontend == "" || d.Frontend == "env") && os.Getenv("MERGE") != "" {
		tool := os.Getenv("MERGE")
		fmt.Fprintf(d.Out, "%q\n", tool)
		return d.mergeVisual(tool, base, artifact)
	}

	return exitcode.New(exitcode.NoFrontend, ErrNoFrontend)
}

// mergeVisual runs the tool directly on both paths and trusts its exit
// status.
func (d *Dispatcher) mergeVisual(exe, base, artifact string) error {
	err := d.run(exe, base, artifact)
	if err != nil {
		return d.reportNotMerged(err)
	}
	return nil
}

// mergeOutputArg binds the tool's output path to base; on success the
// artifact and the tool-generated sidecar backup go away.
func (d *Dispatcher) mergeOutputArg(exe, base, artifact string) error {
	if err := d.run(exe, base, artifact, "-o", base); err != nil {
		return d.reportNotMerged(err)
	}
	if err := d.Files.Remove(artifact); err != nil {
		return err
	}
	// The tool only writes the sidecar when it had to back up base.
	if err := d.Files.Remove(base + ".orig"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// mergeLineOriented merges into a scratch file and copies it over base
// on a clean (0) or conflicts-marked (1) exit.
func (d *Dispatcher) mergeLineOriented(exe, base, artifact string) error {
	tmp, err := os.CreateTemp("", "rpmconf_")
	if err != nil {
		return fmt.Errorf("creating scratch file: %w", err)
	}
	tmpName := tmp.Name()
	tmp.Close()

	err = d.run(exe, "-o", tmpName, base, artifact)
	if err != nil && exitStatus(err) != 1 {
		os.Remove(tmpName)
		return d.reportNotMerged(err)
	}

	if err := d.Files.Remove(artifact); err != nil {
		return err
	}
	if err := d.Files.Copy(tmpName, base); err != nil {
		return err
	}
	return os.Remove(tmpName)
}

// run executes the tool attached to the user's terminal. A missing
// executable is fatal to the run.
func (d *Dispatcher) run(exe string, args ...string) error {
	if d.execTool != nil {
		return d.execTool(exe, args...)
	}

	cmd := exec.Command(exe, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	err := cmd.Run()

	var execErr *exec.Error
	if errors.As(err, &execErr) && errors.Is(execErr.Err, exec.ErrNotFound) {
		return exitcode.New(exitcode.ToolNotFound,
			fmt.Errorf("%w: %s", ErrToolNotFound, exe))
	}
	return err
}

// reportNotMerged converts a per-file tool failure into a user-visible
// line, keeping fatal dispatch errors fatal.
func (d *Dispatcher) reportNotMerged(err error) error {
	var ec *exitcode.Error
	if errors.As(err, &ec) {
		return err
	}
	fmt.Fprintln(d.Out, "Files not merged.")
	return nil
}

// exitStatus extracts the tool's exit status, or -1 when there is none.
func exitStatus(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
