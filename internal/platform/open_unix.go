//go:build unix

// Package platform opens store files without following symlinks.
package platform

import (
	"errors"
	"io/fs"
	"os"

	"golang.org/x/sys/unix"

	"github.com/meigma/casc/internal/casctype"
)

// OpenFileNoFollow opens name inside root for reading. A name that resolves
// to a symlink fails with casctype.ErrSymlink.
func OpenFileNoFollow(root *os.Root, name string) (*os.File, error) {
	info, err := root.Lstat(name)
	if err != nil {
		return nil, err
	}
	if info.Mode()&fs.ModeSymlink != 0 {
		return nil, casctype.ErrSymlink
	}
	// O_NOFOLLOW covers a swap between the Lstat and the open.
	f, err := root.OpenFile(name, os.O_RDONLY|unix.O_NOFOLLOW, 0)
	if err != nil {
		if errors.Is(err, unix.ELOOP) {
			return nil, casctype.ErrSymlink
		}
		return nil, err
	}
	return f, nil
}
