package resolve

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// FileOps performs the destructive file operations of a resolution,
// honoring dry-run mode by printing the equivalent shell command
// instead of acting.
type FileOps struct {
	DryRun bool
	Out    io.Writer
}

// NewFileOps returns file operations writing dry-run commands to out.
func NewFileOps(dryRun bool, out io.Writer) *FileOps {
	return &FileOps{DryRun: dryRun, Out: out}
}

// Remove deletes path.
func (f *FileOps) Remove(path string) error {
	if f.DryRun {
		fmt.Fprintf(f.Out, "rm %s\n", path)
		return nil
	}
	return os.Remove(path)
}

// Copy copies src to dst. A symlink src is recreated at dst (pointing
// at the same target), never dereferenced.
func (f *FileOps) Copy(src, dst string) error {
	if f.DryRun {
		fmt.Fprintf(f.Out, "cp --no-dereference %s %s\n", src, dst)
		return nil
	}
	return CopyFile(src, dst)
}

// Overwrite replaces dst with src and removes src.
func (f *FileOps) Overwrite(src, dst string) error {
	if f.DryRun {
		fmt.Fprintf(f.Out, "cp --no-dereference %s %s\n", src, dst)
		return nil
	}
	if err := CopyFile(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}

// CopyFile recreates symlinks and copies regular file content,
// preserving mode and modification time.
func CopyFile(src, dst string) error {
	fi, err := os.Lstat(src)
	if err != nil {
		return fmt.Errorf("stat %s: %w", src, err)
	}

	if fi.Mode()&os.ModeSymlink != 0 {
		target, err := os.Readlink(src)
		if err != nil {
			return fmt.Errorf("readlink %s: %w", src, err)
		}
		if err := os.Symlink(target, dst); err != nil {
			if !os.IsExist(err) {
				return err
			}
			if err := os.Remove(dst); err != nil {
				return err
			}
			return os.Symlink(target, dst)
		}
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	// If dst is currently a symlink, replace the link itself rather
	// than writing through it.
	if dfi, err := os.Lstat(dst); err == nil && dfi.Mode()&os.ModeSymlink != 0 {
		if err := os.Remove(dst); err != nil {
			return err
		}
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fi.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Chtimes(dst, fi.ModTime(), fi.ModTime())
}

// IsBrokenSymlink reports whether path is a symlink whose target does
// not resolve.
func IsBrokenSymlink(path string) bool {
	fi, err := os.Lstat(path)
	if err != nil || fi.Mode()&os.ModeSymlink == 0 {
		return false
	}
	_, err = os.Stat(path)
	return err != nil
}

// exists reports whether path resolves to an existing file.
func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// lexists reports whether path itself exists, without following a
// final symlink.
func lexists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// sameContent compares two files byte for byte, following symlinks.
func sameContent(a, b string) (bool, error) {
	fa, err := os.Open(a)
	if err != nil {
		return false, err
	}
	defer fa.Close()
	fb, err := os.Open(b)
	if err != nil {
		return false, err
	}
	defer fb.Close()

	sa, err := fa.Stat()
	if err != nil {
		return false, err
	}
	sb, err := fb.Stat()
	if err != nil {
		return false, err
	}
	if sa.Size() != sb.Size() {
		return false, nil
	}

	bufA := make([]byte, 64*1024)
	bufB := make([]byte, 64*1024)
	for {
		na, errA := io.ReadFull(fa, bufA)
		nb, errB := io.ReadFull(fb, bufB)
		if na != nb || !bytes.Equal(bufA[:na], bufB[:nb]) {
			return false, nil
		}
		if errA == io.EOF || errA == io.ErrUnexpectedEOF {
			return errB == io.EOF || errB == io.ErrUnexpectedEOF, nil
		}
		if errA != nil {
			return false, errA
		}
		if errB != nil {
			return false, errB
		}
	}
}
