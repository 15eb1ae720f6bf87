package scanner

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/0x6d6e647a/rpmconf/internal/exitcode"
	"github.com/0x6d6e647a/rpmconf/internal/resolve"
)

// Report prints the scan result: merge candidates are surfaced as
// informational (the resolution pass handles them), orphans are listed
// for deletion.
func (s *Scanner) Report(res *Result) {
	if len(res.NeedsMerge) > 0 {
		fmt.Fprintln(s.Out, "These files need merging - you may want to run 'rpmconf -a':")
		for _, c := range res.NeedsMerge {
			fmt.Fprintf(s.Out, "%s: %s\n", pad(c.Package, 20), c.Artifact)
		}
		fmt.Fprintln(s.Out, "Skipping files above.")
		fmt.Fprintln(s.Out)
	}

	if len(res.Orphans) == 0 {
		fmt.Fprintln(s.Out, "No orphaned .rpmnew and .rpmsave files found.")
		return
	}
	fmt.Fprintln(s.Out, "Orphaned .rpmnew and .rpmsave files:")
	for _, orphan := range res.Orphans {
		fmt.Fprintln(s.Out, orphan)
	}
}

// DeleteOrphans asks for confirmation and removes the orphans. Unlike
// per-file resolution, deletion is the default: an empty answer counts
// as yes. End of input aborts without deleting; an interrupt cancels
// the whole run.
func (s *Scanner) DeleteOrphans(res *Result, in resolve.LineReader, files *resolve.FileOps) error {
	if len(res.Orphans) == 0 {
		return nil
	}

	for {
		answer, err := in.ReadLine("Delete these files (Y/n): ")
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return exitcode.New(exitcode.Cancelled, err)
		}

		switch strings.ToUpper(strings.TrimSpace(answer)) {
		case "Y", "":
			for _, orphan := range res.Orphans {
				if err := files.Remove(orphan); err != nil {
					fmt.Fprintf(s.Out, "Warning: removing %s: %v\n", orphan, err)
				}
			}
			return nil
		case "N":
			return nil
		}
	}
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
