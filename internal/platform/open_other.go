//go:build !unix

// Package platform opens store files without following symlinks.
package platform

import (
	"io/fs"
	"os"

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
	return root.Open(name)
}
