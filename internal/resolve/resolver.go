package resolve

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/0x6d6e647a/rpmconf/internal/exitcode"
)

// LineReader reads one line of user input, with cancellation surfaced
// as an error.
type LineReader interface {
	ReadLine(prompt string) (string, error)
}

// Differ presents the differences between two files.
type Differ interface {
	Present(fileA, fileB string) error
}

// Merger hands a pair to the external merge frontend.
type Merger interface {
	Merge(base, artifact string) error
}

// Journal records terminal resolutions, backing up the displaced file
// first so the resolution can be undone.
type Journal interface {
	Record(pair Pair, action Action, displaced string) error
}

// Resolver drives the resolution of one artifact pair at a time.
type Resolver struct {
	In      LineReader
	Out     io.Writer
	Differ  Differ
	Merger  Merger
	Files   *FileOps
	Journal Journal // optional
	// Suspend implements the Background choice. Defaults to stopping
	// the whole process with SIGSTOP; tests substitute a no-op.
	Suspend func()
	SELinux bool
}

// DefaultSuspend stops the whole process so an operator can inspect
// state out of band and resume with fg.
func DefaultSuspend() {
	_ = unix.Kill(os.Getpid(), unix.SIGSTOP)
}

// Resolve converges pair to a single state and reports the outcome.
// With an unattended policy no prompt or blocking read ever happens.
func (r *Resolver) Resolve(pair Pair, policy Policy) (Outcome, error) {
	if r.converged(pair) {
		// Nothing actually changed; repeated runs stay silent.
		return Merged, r.keepBase(pair)
	}

	if policy != PolicyNone {
		return r.applyPolicy(pair, policy)
	}
	return r.interactive(pair)
}

// converged reports whether both sides exist, neither is a broken
// symlink, and the contents are byte-identical.
func (r *Resolver) converged(pair Pair) bool {
	if IsBrokenSymlink(pair.Base) || IsBrokenSymlink(pair.Artifact) {
		return false
	}
	if !exists(pair.Base) || !exists(pair.Artifact) {
		return false
	}
	same, err := sameContent(pair.Base, pair.Artifact)
	if err != nil {
		fmt.Fprintf(r.Out, "Warning: comparing %s and %s: %v\n", pair.Base, pair.Artifact, err)
		return false
	}
	return same
}

// applyPolicy maps (kind, policy) to exactly one terminal action:
//
//	kind  | maintainer          | your                | default
//	new   | overwrite base      | delete artifact     | delete artifact
//	save  | delete artifact     | overwrite base      | delete artifact
func (r *Resolver) applyPolicy(pair Pair, policy Policy) (Outcome, error) {
	install := false
	switch pair.Kind {
	case KindNew:
		install = policy == PolicyMaintainer
	default:
		install = policy == PolicyYour
	}
	if install {
		return Merged, r.installArtifact(pair)
	}
	return Merged, r.keepBase(pair)
}

// interactive loops until a terminal choice is produced. The artifact
// is re-checked for concurrent removal before and after every blocking
// read.
func (r *Resolver) interactive(pair Pair) (Outcome, error) {
	for {
		if r.vanished(pair) {
			return Skipped, nil
		}

		r.listFiles(pair)
		fmt.Fprintln(r.Out, promptFor(pair.Kind))
		line, err := r.In.ReadLine("Your choice: ")
		if err != nil && !errors.Is(err, io.EOF) {
			return Skipped, exitcode.New(exitcode.Cancelled, err)
		}

		if r.vanished(pair) {
			return Skipped, nil
		}

		choice := Skip
		if err == nil {
			choice = parseChoice(line, pair.Kind)
		}

		switch choice {
		case ShowDiff:
			var derr error
			if pair.Kind == KindNew {
				derr = r.Differ.Present(pair.Base, pair.Artifact)
			} else {
				derr = r.Differ.Present(pair.Artifact, pair.Base)
			}
			if derr != nil {
				fmt.Fprintf(r.Out, "Warning: diff failed: %v\n", derr)
			}

		case Background:
			fmt.Fprintln(r.Out, "Run command 'fg' to continue")
			r.suspend()

		case Merge:
			if err := r.Merger.Merge(pair.Base, pair.Artifact); err != nil {
				return Skipped, err
			}
			if !lexists(pair.Artifact) {
				fmt.Fprintf(r.Out, "File %s has been merged.\n", pair.Artifact)
				return Merged, nil
			}

		case Skip:
			return Skipped, nil

		case UseMaintainer:
			if pair.Kind == KindNew {
				return Merged, r.installArtifact(pair)
			}
			return Merged, r.keepBase(pair)

		case UseMine:
			if pair.Kind == KindNew {
				return Merged, r.keepBase(pair)
			}
			return Merged, r.installArtifact(pair)
		}
	}
}

// vanished reports (and announces) an artifact removed by another
// actor while we were deciding.
func (r *Resolver) vanished(pair Pair) bool {
	if exists(pair.Artifact) {
		return false
	}
	fmt.Fprintf(r.Out, "File %s was removed by 3rd party. Skipping.\n", pair.Artifact)
	return true
}

func (r *Resolver) suspend() {
	if r.Suspend != nil {
		r.Suspend()
		return
	}
	DefaultSuspend()
}

// keepBase deletes the artifact, keeping the installed file.
func (r *Resolver) keepBase(pair Pair) error {
	r.record(pair, ActionKeepBase, pair.Artifact)
	return r.Files.Remove(pair.Artifact)
}

// installArtifact replaces the installed file with the artifact.
func (r *Resolver) installArtifact(pair Pair) error {
	r.record(pair, ActionInstallArtifact, pair.Base)
	return r.Files.Overwrite(pair.Artifact, pair.Base)
}

// record journals a terminal action. Journaling is best effort: a
// failure is reported but never blocks the resolution.
func (r *Resolver) record(pair Pair, action Action, displaced string) {
	if r.Journal == nil || r.Files.DryRun {
		return
	}
	if err := r.Journal.Record(pair, action, displaced); err != nil {
		fmt.Fprintf(r.Out, "Warning: journal: %v\n", err)
	}
}

// parseChoice maps raw input, case-insensitively, to a semantic
// choice. Empty or unrecognized input resolves to the kind's default:
// keep-installed for .rpmnew, take the maintainer's (current) file for
// .rpmsave/.rpmorig.
func parseChoice(line string, kind Kind) Choice {
	switch strings.ToUpper(strings.TrimSpace(line)) {
	case "Y", "I":
		return UseMaintainer
	case "N", "O":
		return UseMine
	case "D":
		return ShowDiff
	case "M":
		return Merge
	case "Z":
		return Background
	case "S":
		return Skip
	default:
		if kind == KindNew {
			return UseMine
		}
		return UseMaintainer
	}
}

// promptFor returns the kind-specific option menu. The default answer
// differs: an updated version shipped aside keeps the installed file,
// a forced upgrade keeps the maintainer's file.
func promptFor(kind Kind) string {
	if kind == KindNew {
		return ` ==> Package distributor has shipped an updated version.
   What would you like to do about it ?  Your options are:
    Y or I  : install the package maintainer's version
    N or O  : keep your currently-installed version
      D     : show the differences between the versions
      M     : merge configuration files
      Z     : background this process to examine the situation
      S     : skip this file
 The default action is to keep your current version.
*** aliases (Y/I/N/O/D/M/Z/S) [default=N] ? `
	}
	return ` ==> Package distributor has shipped an updated version.
 ==> Maintainer forced upgrade. Your old version has been backed up.
   What would you like to do about it?  Your options are:
    Y or I  : install (keep) the package maintainer's version
    N or O  : return back to your original file
      D     : show the differences between the versions
      M     : merge configuration files
      Z     : background this process to examine the situation
      S     : skip this file
 The default action is to keep package maintainer's version.
*** aliases (Y/I/N/O/M/D/Z/S) [default=Y] ? `
}
