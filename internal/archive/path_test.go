package archive

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestAllocateDir(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		sender  string
		emailID string
		want    string // path relative to root
	}{
		{
			"plain address",
			"alice@example.com",
			"12345",
			filepath.Join("2024-05-01", "alice", "12345"),
		},
		{
			"display name",
			"Alice Smith <alice@example.com>",
			"67890",
			filepath.Join("2024-05-01", "Alice_Smith__alice", "67890"),
		},
		{
			"long id truncated",
			"bob@example.com",
			"123456789012345",
			filepath.Join("2024-05-01", "bob", "1234567890"),
		},
		{
			"no at sign",
			"mailer-daemon",
			"1",
			filepath.Join("2024-05-01", "mailer-daemon", "1"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			got, err := AllocateDir(root, now, tt.sender, tt.emailID)
			if err != nil {
				t.Fatalf("AllocateDir: %v", err)
			}
			if want := filepath.Join(root, tt.want); got != want {
				t.Errorf("AllocateDir = %q, want %q", got, want)
			}
			info, err := os.Stat(got)
			if err != nil {
				t.Fatalf("Stat: %v", err)
			}
			if !info.IsDir() {
				t.Error("allocated path is not a directory")
			}
		})
	}
}

func TestAllocateDir_Idempotent(t *testing.T) {
	root := t.TempDir()
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	first, err := AllocateDir(root, now, "alice@example.com", "42")
	if err != nil {
		t.Fatalf("first AllocateDir: %v", err)
	}
	second, err := AllocateDir(root, now, "alice@example.com", "42")
	if err != nil {
		t.Fatalf("second AllocateDir: %v", err)
	}
	if first != second {
		t.Errorf("paths differ: %q vs %q", first, second)
	}
}
