package fileutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestWriteFileNoFollow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.pdf")
	data := []byte("%PDF-1.4 fake")

	if err := WriteFileNoFollow(path, data, 0600); err != nil {
		t.Fatalf("WriteFileNoFollow: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != string(data) {
		t.Errorf("content = %q, want %q", got, data)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	// Umask can only remove bits, never add them.
	if perm := info.Mode().Perm(); perm&^0600 != 0 {
		t.Errorf("perm = %04o, has bits beyond 0600", perm)
	}
}

func TestWriteFileNoFollow_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	if err := WriteFileNoFollow(path, []byte("old content, longer"), 0600); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := WriteFileNoFollow(path, []byte("new"), 0600); err != nil {
		t.Fatalf("second write: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "new" {
		t.Errorf("content = %q, want %q", got, "new")
	}
}

func TestWriteFileNoFollow_RefusesSymlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("O_NOFOLLOW is a Unix protection")
	}

	dir := t.TempDir()
	target := filepath.Join(dir, "target")
	if err := os.WriteFile(target, []byte("precious"), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	link := filepath.Join(dir, "link")
	if err := os.Symlink(target, link); err != nil {
		t.Fatalf("Symlink: %v", err)
	}

	if err := WriteFileNoFollow(link, []byte("overwritten"), 0600); err == nil {
		t.Fatal("expected error writing through symlink")
	}
	got, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "precious" {
		t.Errorf("target content = %q, symlink was followed", got)
	}
}
