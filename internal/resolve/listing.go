package resolve

import (
	"fmt"
	"os"
	"sort"
	"time"

	"golang.org/x/sys/unix"
)

// listFiles prints an ls -ltr style listing of the configuration file
// and its artifact before each prompt: mode, optional SELinux context,
// size, modification time and name, oldest first. A missing base is
// announced and listed as /dev/null so the user still sees both sides.
func (r *Resolver) listFiles(pair Pair) {
	fmt.Fprintf(r.Out, "Configuration file '%s'\n", pair.Base)

	base := pair.Base
	if !exists(base) && !lexists(base) {
		fmt.Fprintln(r.Out, "File is missing. Using /dev/null instead.")
		base = "/dev/null"
	}

	paths := []string{base, pair.Artifact}
	sort.SliceStable(paths, func(i, j int) bool {
		return mtimeOf(paths[i]).Before(mtimeOf(paths[j]))
	})
	for _, p := range paths {
		fmt.Fprintln(r.Out, formatEntry(p, r.SELinux))
	}
	fmt.Fprintln(r.Out)
}

func mtimeOf(path string) time.Time {
	fi, err := os.Lstat(path)
	if err != nil {
		return time.Time{}
	}
	return fi.ModTime()
}

// formatEntry renders one listing line for path.
func formatEntry(path string, selinux bool) string {
	fi, err := os.Lstat(path)
	if err != nil {
		return fmt.Sprintf("?????????? %s (unreadable: %v)", path, err)
	}

	name := path
	if fi.Mode()&os.ModeSymlink != 0 {
		if target, err := os.Readlink(path); err == nil {
			name = fmt.Sprintf("%s -> %s", path, target)
		}
	}

	if selinux {
		return fmt.Sprintf("%s %s %8d %s %s",
			fi.Mode(), selinuxContext(path), fi.Size(),
			fi.ModTime().Format("Jan _2 15:04 2006"), name)
	}
	return fmt.Sprintf("%s %8d %s %s",
		fi.Mode(), fi.Size(),
		fi.ModTime().Format("Jan _2 15:04 2006"), name)
}

// selinuxContext reads the security.selinux xattr, "?" when absent.
func selinuxContext(path string) string {
	buf := make([]byte, 256)
	n, err := unix.Lgetxattr(path, "security.selinux", buf)
	if err != nil || n <= 0 {
		return "?"
	}
	// The attribute value is NUL-terminated.
	if buf[n-1] == 0 {
		n--
	}
	return string(buf[:n])
}
