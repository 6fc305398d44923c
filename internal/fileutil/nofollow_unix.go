//go:build unix

package fileutil

import (
	"os"

	"golang.org/x/sys/unix"
)

// createNoFollow opens path for writing without following a symlink on
// the final path component.
func createNoFollow(path string, perm os.FileMode) (*os.File, error) {
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC|unix.O_NOFOLLOW, perm)
}
