package scanner

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/0x6d6e647a/rpmconf/internal/resolve"
)

// mapOwnership answers ownership queries from a fixed path→package map.
type mapOwnership struct {
	owners  map[string]string
	queries []string
}

func (m *mapOwnership) OwnerOfPath(path string) (string, error) {
	m.queries = append(m.queries, path)
	return m.owners[path], nil
}

// scriptedReader returns canned answers, then EOF.
type scriptedReader struct {
	lines []string
	calls int
}

func (r *scriptedReader) ReadLine(prompt string) (string, error) {
	if r.calls < len(r.lines) {
		line := r.lines[r.calls]
		r.calls++
		return line, nil
	}
	return "", io.EOF
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func newScanner(root string, owners map[string]string) (*Scanner, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return &Scanner{
		DB:    &mapOwnership{owners: owners},
		Roots: []string{root},
		Out:   out,
	}, out
}

func TestScanClassifiesArtifacts(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "etc", "httpd.conf"), "live")
	writeFile(t, filepath.Join(dir, "etc", "httpd.conf.rpmnew"), "new")
	writeFile(t, filepath.Join(dir, "etc", "old.conf.rpmsave"), "saved")
	writeFile(t, filepath.Join(dir, "etc", "ancient.conf.rpmorig"), "orig")
	writeFile(t, filepath.Join(dir, "etc", "plain.conf"), "not an artifact")

	s, _ := newScanner(dir, map[string]string{
		filepath.Join(dir, "etc", "httpd.conf"): "httpd",
	})
	res, err := s.Scan()
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	want := []MergeCandidate{{
		Package:  "httpd",
		Base:     filepath.Join(dir, "etc", "httpd.conf"),
		Artifact: filepath.Join(dir, "etc", "httpd.conf.rpmnew"),
	}}
	if !reflect.DeepEqual(res.NeedsMerge, want) {
		t.Errorf("NeedsMerge = %+v, want %+v", res.NeedsMerge, want)
	}

	wantOrphans := []string{
		filepath.Join(dir, "etc", "ancient.conf.rpmorig"),
		filepath.Join(dir, "etc", "old.conf.rpmsave"),
	}
	if !reflect.DeepEqual(res.Orphans, wantOrphans) {
		t.Errorf("Orphans = %v, want %v (sorted)", res.Orphans, wantOrphans)
	}
}

func TestScanTerminatesOnSymlinkCycle(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "etc", "sub")
	writeFile(t, filepath.Join(sub, "a.conf.rpmsave"), "x")
	// Loop back to the scan root from inside the tree.
	if err := os.Symlink(dir, filepath.Join(sub, "loop")); err != nil {
		t.Fatal(err)
	}

	s, _ := newScanner(dir, nil)
	res, err := s.Scan()
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(res.Orphans) != 1 {
		t.Errorf("artifact reported %d times, want once: %v", len(res.Orphans), res.Orphans)
	}
}

func TestScanFollowsDirectorySymlinks(t *testing.T) {
	dir := t.TempDir()
	real := filepath.Join(dir, "real")
	writeFile(t, filepath.Join(real, "b.conf.rpmsave"), "x")
	scanned := filepath.Join(dir, "etc")
	if err := os.MkdirAll(scanned, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(real, filepath.Join(scanned, "linked")); err != nil {
		t.Fatal(err)
	}

	s, _ := newScanner(scanned, nil)
	res, err := s.Scan()
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	want := filepath.Join(scanned, "linked", "b.conf.rpmsave")
	if len(res.Orphans) != 1 || res.Orphans[0] != want {
		t.Errorf("Orphans = %v, want [%s]", res.Orphans, want)
	}
}

func TestScanHonorsExclusions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "keep", "a.conf.rpmsave"), "x")
	writeFile(t, filepath.Join(dir, "skip", "b.conf.rpmsave"), "x")

	s, _ := newScanner(dir, nil)
	s.Exclude = []string{filepath.Join(dir, "skip")}
	res, err := s.Scan()
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	want := []string{filepath.Join(dir, "keep", "a.conf.rpmsave")}
	if !reflect.DeepEqual(res.Orphans, want) {
		t.Errorf("Orphans = %v, want %v", res.Orphans, want)
	}
}

func TestScanIgnoresDotfileNamedLikeSuffix(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".rpmnew"), "x")
	writeFile(t, filepath.Join(dir, ".rpmsave"), "x")
	writeFile(t, filepath.Join(dir, "real.conf.rpmsave"), "x")

	db := &mapOwnership{}
	s := &Scanner{DB: db, Roots: []string{dir}, Out: &bytes.Buffer{}}
	res, err := s.Scan()
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	want := []string{filepath.Join(dir, "real.conf.rpmsave")}
	if !reflect.DeepEqual(res.Orphans, want) {
		t.Errorf("Orphans = %v, want %v", res.Orphans, want)
	}
	if len(db.queries) != 1 {
		t.Errorf("dotfiles must not trigger ownership lookups: %v", db.queries)
	}
}

func TestScanOneOwnershipQueryPerArtifact(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.conf.rpmnew"), "x")
	writeFile(t, filepath.Join(dir, "b.conf.rpmsave"), "x")

	db := &mapOwnership{}
	s := &Scanner{DB: db, Roots: []string{dir}, Out: &bytes.Buffer{}}
	if _, err := s.Scan(); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(db.queries) != 2 {
		t.Errorf("%d ownership queries, want 2: %v", len(db.queries), db.queries)
	}
}

func TestReport(t *testing.T) {
	t.Run("mixed result", func(t *testing.T) {
		s, out := newScanner("/nonexistent", nil)
		s.Report(&Result{
			NeedsMerge: []MergeCandidate{{Package: "httpd", Artifact: "/etc/httpd.conf.rpmnew"}},
			Orphans:    []string{"/etc/old.conf.rpmsave"},
		})
		got := out.String()
		for _, want := range []string{
			"These files need merging - you may want to run 'rpmconf -a':",
			"httpd",
			"/etc/httpd.conf.rpmnew",
			"Skipping files above.",
			"/etc/old.conf.rpmsave",
		} {
			if !strings.Contains(got, want) {
				t.Errorf("report missing %q:\n%s", want, got)
			}
		}
	})

	t.Run("empty result", func(t *testing.T) {
		s, out := newScanner("/nonexistent", nil)
		s.Report(&Result{})
		if !strings.Contains(out.String(), "No orphaned .rpmnew and .rpmsave files found.") {
			t.Errorf("unexpected report: %q", out.String())
		}
	})
}

func TestDeleteOrphans(t *testing.T) {
	tests := []struct {
		name       string
		answers    []string
		wantDelete bool
	}{
		{"empty answer deletes", []string{""}, true},
		{"explicit yes", []string{"y"}, true},
		{"no keeps", []string{"n"}, false},
		{"end of input keeps", nil, false},
		{"garbage reprompts then deletes", []string{"maybe", "Y"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			orphan := filepath.Join(dir, "a.conf.rpmsave")
			writeFile(t, orphan, "x")

			s, out := newScanner(dir, nil)
			res := &Result{Orphans: []string{orphan}}
			err := s.DeleteOrphans(res, &scriptedReader{lines: tt.answers}, resolve.NewFileOps(false, out))
			if err != nil {
				t.Fatalf("DeleteOrphans: %v", err)
			}

			_, statErr := os.Lstat(orphan)
			if tt.wantDelete && !os.IsNotExist(statErr) {
				t.Error("orphan should be deleted")
			}
			if !tt.wantDelete && statErr != nil {
				t.Error("orphan should survive")
			}
		})
	}
}

func TestDirectories(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a", "b", "f.conf"), "x")
	writeFile(t, filepath.Join(dir, "skip", "f.conf"), "x")
	// Symlink to an already-listed directory must not duplicate it.
	if err := os.Symlink(filepath.Join(dir, "a"), filepath.Join(dir, "alias")); err != nil {
		t.Fatal(err)
	}

	s, _ := newScanner(dir, nil)
	s.Exclude = []string{filepath.Join(dir, "skip")}
	dirs, err := s.Directories()
	if err != nil {
		t.Fatalf("Directories: %v", err)
	}

	want := map[string]bool{
		dir:                          true,
		filepath.Join(dir, "a"):      true,
		filepath.Join(dir, "a", "b"): true,
	}
	if len(dirs) != len(want) {
		t.Fatalf("Directories = %v, want the %d dirs %v", dirs, len(want), want)
	}
	for _, d := range dirs {
		if !want[d] {
			t.Errorf("unexpected directory %s", d)
		}
	}
}
