//go:build !unix

package fileutil

import "os"

// createNoFollow falls back to a plain open where O_NOFOLLOW is not
// available.
func createNoFollow(path string, perm os.FileMode) (*os.File, error) {
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
}
