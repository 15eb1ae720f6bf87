package resolve

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileOpsDryRunPrintsCommands(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	writeFile(t, src, "content")

	out := &bytes.Buffer{}
	ops := NewFileOps(true, out)

	if err := ops.Remove(src); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := ops.Overwrite(src, dst); err != nil {
		t.Fatalf("Overwrite: %v", err)
	}

	if _, err := os.Stat(src); err != nil {
		t.Error("dry run removed the source file")
	}
	if _, err := os.Stat(dst); err == nil {
		t.Error("dry run created the destination file")
	}

	got := out.String()
	if !strings.Contains(got, "rm "+src) {
		t.Errorf("missing rm command in %q", got)
	}
	if !strings.Contains(got, "cp --no-dereference "+src+" "+dst) {
		t.Errorf("missing cp command in %q", got)
	}
}

func TestFileOpsOverwriteRemovesSource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	writeFile(t, src, "new")
	writeFile(t, dst, "old")

	ops := NewFileOps(false, &bytes.Buffer{})
	if err := ops.Overwrite(src, dst); err != nil {
		t.Fatalf("Overwrite: %v", err)
	}
	if got := readFile(t, dst); got != "new" {
		t.Errorf("dst = %q, want %q", got, "new")
	}
	if _, err := os.Lstat(src); !os.IsNotExist(err) {
		t.Error("src should be removed after overwrite")
	}
}

func TestCopyFileRecreatesSymlink(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target")
	writeFile(t, target, "x")

	src := filepath.Join(dir, "src-link")
	if err := os.Symlink(target, src); err != nil {
		t.Fatal(err)
	}

	t.Run("fresh destination", func(t *testing.T) {
		dst := filepath.Join(dir, "dst1")
		if err := CopyFile(src, dst); err != nil {
			t.Fatalf("CopyFile: %v", err)
		}
		got, err := os.Readlink(dst)
		if err != nil {
			t.Fatalf("dst should be a symlink: %v", err)
		}
		if got != target {
			t.Errorf("dst links to %q, want %q", got, target)
		}
	})

	t.Run("existing regular file replaced by link", func(t *testing.T) {
		dst := filepath.Join(dir, "dst2")
		writeFile(t, dst, "old regular file")
		if err := CopyFile(src, dst); err != nil {
			t.Fatalf("CopyFile: %v", err)
		}
		if _, err := os.Readlink(dst); err != nil {
			t.Fatalf("dst should have become a symlink: %v", err)
		}
	})
}

func TestCopyFileReplacesSymlinkDestination(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	other := filepath.Join(dir, "other")
	dst := filepath.Join(dir, "dst")
	writeFile(t, src, "payload")
	writeFile(t, other, "other content")
	if err := os.Symlink(other, dst); err != nil {
		t.Fatal(err)
	}

	if err := CopyFile(src, dst); err != nil {
		t.Fatalf("CopyFile: %v", err)
	}
	if got := readFile(t, dst); got != "payload" {
		t.Errorf("dst = %q, want %q", got, "payload")
	}
	// The link target must not have been written through.
	if got := readFile(t, other); got != "other content" {
		t.Errorf("link target was overwritten: %q", got)
	}
}

func TestCopyFilePreservesModeAndMtime(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	writeFile(t, src, "payload")
	if err := os.Chmod(src, 0600); err != nil {
		t.Fatal(err)
	}

	if err := CopyFile(src, dst); err != nil {
		t.Fatalf("CopyFile: %v", err)
	}

	si, err := os.Stat(src)
	if err != nil {
		t.Fatal(err)
	}
	di, err := os.Stat(dst)
	if err != nil {
		t.Fatal(err)
	}
	if di.Mode().Perm() != si.Mode().Perm() {
		t.Errorf("dst mode = %v, want %v", di.Mode().Perm(), si.Mode().Perm())
	}
	if !di.ModTime().Equal(si.ModTime()) {
		t.Errorf("dst mtime = %v, want %v", di.ModTime(), si.ModTime())
	}
}

func TestIsBrokenSymlink(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target")
	writeFile(t, target, "x")

	valid := filepath.Join(dir, "valid")
	if err := os.Symlink(target, valid); err != nil {
		t.Fatal(err)
	}
	broken := filepath.Join(dir, "broken")
	if err := os.Symlink(filepath.Join(dir, "nope"), broken); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
		want bool
	}{
		{"regular file", target, false},
		{"valid symlink", valid, false},
		{"broken symlink", broken, true},
		{"missing path", filepath.Join(dir, "absent"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsBrokenSymlink(tt.path); got != tt.want {
				t.Errorf("IsBrokenSymlink(%s) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestSameContent(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		writeFile(t, p, content)
		return p
	}

	big := strings.Repeat("0123456789abcdef", 8192) // spans two read chunks

	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"identical", write("a1", "hello\n"), write("b1", "hello\n"), true},
		{"different content", write("a2", "hello\n"), write("b2", "world\n"), false},
		{"different size", write("a3", "short"), write("b3", "much longer"), false},
		{"both empty", write("a4", ""), write("b4", ""), true},
		{"large identical", write("a5", big), write("b5", big), true},
		{"large last byte differs", write("a6", big+"x"), write("b6", big+"y"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sameContent(tt.a, tt.b)
			if err != nil {
				t.Fatalf("sameContent: %v", err)
			}
			if got != tt.want {
				t.Errorf("sameContent = %v, want %v", got, tt.want)
			}
		})
	}

	t.Run("missing file errors", func(t *testing.T) {
		if _, err := sameContent(filepath.Join(dir, "absent"), tests[0].a); err == nil {
			t.Error("expected error for missing file")
		}
	})
}
