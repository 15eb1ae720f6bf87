// Package diff renders the difference between a configuration file and
// its artifact. Text content is diffed in-process as a unified diff;
// binary content falls back to the diff utility. Missing files and
// broken symlinks are substituted with /dev/null so the other side
// still renders as wholly added or removed.
package diff

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mattn/go-isatty"
	"github.com/pmezard/go-difflib/difflib"
)

// devNull is the stand-in for a side that cannot be read.
const devNull = "/dev/null"

// Presenter writes diffs to Out, through a pager when Out is a
// terminal.
type Presenter struct {
	Out io.Writer
}

// New returns a Presenter writing to out.
func New(out io.Writer) *Presenter {
	return &Presenter{Out: out}
}

// side is one half of a diff after missing/symlink substitution.
type side struct {
	path string
	date string
	note string
}

// examine classifies a path for diffing. Valid symlinks are annotated
// with their target and keep their timestamp; broken symlinks and
// missing files are replaced by /dev/null with an explanatory note.
func examine(path string) side {
	s := side{path: path}

	fi, lerr := os.Lstat(path)
	if lerr == nil && fi.Mode()&os.ModeSymlink != 0 {
		target, _ := os.Readlink(path)
		s.note = fmt.Sprintf("Info: '%s' is symlink to '%s'.\n", path, target)
		if st, err := os.Stat(path); err == nil {
			s.date = st.ModTime().Format(time.ANSIC)
		} else {
			s.note += fmt.Sprintf("Warning: file %s is broken symlink. I'm using /dev/null instead.\n", path)
			s.path = devNull
		}
		return s
	}

	st, err := os.Stat(path)
	if err != nil {
		s.note = fmt.Sprintf("Warning: file %s is missing. I'm using /dev/null instead.\n", path)
		s.path = devNull
		return s
	}
	s.date = st.ModTime().Format(time.ANSIC)
	return s
}

// Present shows the differences between fileA and fileB.
func (p *Presenter) Present(fileA, fileB string) error {
	from := examine(fileA)
	to := examine(fileB)

	text, err := p.render(from, to)
	if err != nil {
		return err
	}
	return p.page(from.note + to.note + text)
}

// render produces the diff body: a unified diff for text content, the
// raw output of the diff utility for binary content.
func (p *Presenter) render(from, to side) (string, error) {
	fromData, err := os.ReadFile(from.path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", from.path, err)
	}
	toData, err := os.ReadFile(to.path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", to.path, err)
	}

	if !utf8.Valid(fromData) || !utf8.Valid(toData) {
		return binaryDiff(from.path, to.path), nil
	}

	ud := difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(fromData)),
		B:        difflib.SplitLines(string(toData)),
		FromFile: from.path,
		FromDate: from.date,
		ToFile:   to.path,
		ToDate:   to.date,
		Context:  3,
	}
	return difflib.GetUnifiedDiffString(ud)
}

// binaryDiff shells out to diff -u and returns its output verbatim.
// Exit status 1 just means the files differ.
func binaryDiff(fileA, fileB string) string {
	cmd := exec.Command("diff", "-u", fileA, fileB)
	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			if exitErr.ExitCode() == 1 {
				return string(output)
			}
			return string(exitErr.Stderr)
		}
		return fmt.Sprintf("diff failed: %v\n", err)
	}
	return string(output)
}

// page writes text through $PAGER (default less) when Out is a
// terminal, directly otherwise.
func (p *Presenter) page(text string) error {
	if f, ok := p.Out.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		pager := os.Getenv("PAGER")
		if pager == "" {
			pager = "less"
		}
		cmd := exec.Command(pager)
		cmd.Stdin = strings.NewReader(text)
		cmd.Stdout = f
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err == nil {
			return nil
		}
	}
	_, err := io.WriteString(p.Out, text)
	return err
}
