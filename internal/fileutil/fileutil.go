// Package fileutil provides file helpers for writing archived
// attachments.
package fileutil

import (
	"fmt"
	"os"
)

// WriteFileNoFollow writes data to path, creating or truncating the
// file. On Unix the final path component is opened with O_NOFOLLOW so
// a symlink planted at the destination cannot redirect the write.
func WriteFileNoFollow(path string, data []byte, perm os.FileMode) error {
	f, err := createNoFollow(path, perm)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
