// Package resolve implements the per-file conflict resolution state
// machine: given an installed configuration file and the sibling
// artifact a package upgrade left behind, it drives the interactive or
// unattended decision that converges both to a single intentional
// state.
package resolve

import "fmt"

// Kind identifies which artifact suffix a pair carries, and with it the
// prompt wording, the default answer, and the unattended mapping.
type Kind int

const (
	// KindNew: the upgrade shipped the new version under .rpmnew and
	// left the locally modified file installed.
	KindNew Kind = iota
	// KindSave: the upgrade installed the maintainer's version and
	// backed the local file up under .rpmsave.
	KindSave
	// KindOrig: like KindSave, with the .rpmorig suffix.
	KindOrig
)

// Suffixes lists every recognized artifact suffix, in the order the
// driver probes them for each configuration file.
var Suffixes = []string{".rpmnew", ".rpmsave", ".rpmorig"}

// Suffix returns the filesystem suffix for the kind.
func (k Kind) Suffix() string {
	switch k {
	case KindNew:
		return ".rpmnew"
	case KindSave:
		return ".rpmsave"
	default:
		return ".rpmorig"
	}
}

func (k Kind) String() string { return k.Suffix()[1:] }

// KindForSuffix maps a filename suffix back to its kind.
func KindForSuffix(suffix string) (Kind, bool) {
	switch suffix {
	case ".rpmnew":
		return KindNew, true
	case ".rpmsave":
		return KindSave, true
	case ".rpmorig":
		return KindOrig, true
	}
	return 0, false
}

// Pair is one conflict unit: an installed configuration file and the
// artifact sitting next to it.
type Pair struct {
	Kind     Kind
	Package  string
	Base     string
	Artifact string
}

// NewPair builds the pair for base and the given suffix kind.
func NewPair(kind Kind, pkg, base string) Pair {
	return Pair{Kind: kind, Package: pkg, Base: base, Artifact: base + kind.Suffix()}
}

// Choice is a semantic resolution choice, independent of which raw key
// the user pressed.
type Choice int

const (
	// UseMaintainer takes the package maintainer's version.
	UseMaintainer Choice = iota
	// UseMine keeps the locally modified version.
	UseMine
	// ShowDiff displays the differences and loops.
	ShowDiff
	// Merge invokes the merge frontend and loops unless it consumed
	// the artifact.
	Merge
	// Background suspends the whole process and loops on resumption.
	Background
	// Skip leaves both files untouched.
	Skip
)

// Policy is the unattended resolution policy for a run.
type Policy int

const (
	// PolicyNone selects interactive resolution.
	PolicyNone Policy = iota
	// PolicyMaintainer always takes the maintainer's version.
	PolicyMaintainer
	// PolicyYour always keeps the local version.
	PolicyYour
	// PolicyDefault answers every prompt with its default.
	PolicyDefault
)

// ParsePolicy maps the --unattended flag value to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "":
		return PolicyNone, nil
	case "maintainer":
		return PolicyMaintainer, nil
	case "your":
		return PolicyYour, nil
	case "default":
		return PolicyDefault, nil
	}
	return PolicyNone, fmt.Errorf("invalid --unattended value %q: must be one of: maintainer, your, default", s)
}

// Outcome reports how a pair ended up.
type Outcome int

const (
	// Merged: the pair was converged to a single file.
	Merged Outcome = iota
	// Skipped: both files were left untouched.
	Skipped
)

// Action names the terminal filesystem effect of a resolution, as
// recorded in the journal.
type Action string

const (
	// ActionKeepBase: the artifact was deleted, the installed file
	// kept.
	ActionKeepBase Action = "keep-base"
	// ActionInstallArtifact: the installed file was overwritten with
	// the artifact's content.
	ActionInstallArtifact Action = "install-artifact"
)
