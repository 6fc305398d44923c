package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Nurdvu1et/email-archiver/internal/mailbox"
)

// clearEnv blanks the override variables so tests see only what they
// set themselves.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"IMAP_SERVER", "EMAIL", "PASSWORD", "ARCHIVE_ROOT", "DELETE_AFTER_ARCHIVE", "EMAIL_ARCHIVER_HOME"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()

	cfg, err := Load("", home)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Mailbox.Server != "imap.gmail.com" {
		t.Errorf("default server = %q", cfg.Mailbox.Server)
	}
	if cfg.Archive.Root != "./email_archive" {
		t.Errorf("default root = %q", cfg.Archive.Root)
	}
	if cfg.Server.BindAddr != "127.0.0.1" || cfg.Server.Port != 8080 {
		t.Errorf("default server addr = %s:%d", cfg.Server.BindAddr, cfg.Server.Port)
	}
	if want := filepath.Join(home, "email_archive.db"); cfg.DatabasePath() != want {
		t.Errorf("DatabasePath() = %q, want %q", cfg.DatabasePath(), want)
	}
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	content := `
[mailbox]
server = "mail.example.com"
port = 1143
starttls = true
username = "user@example.com"
password = "hunter2"
folder = "Archive"
auth = "plain"

[archive]
root = "/srv/archive"
database_path = "/srv/archive.db"
delete_after_archive = true

[server]
api_key = "secret"

[schedule]
cron = "*/30 * * * *"
enabled = true
`
	if err := os.WriteFile(filepath.Join(home, "config.toml"), []byte(content), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load("", home)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Mailbox.Server != "mail.example.com" || cfg.Mailbox.Port != 1143 {
		t.Errorf("mailbox = %+v", cfg.Mailbox)
	}
	if !cfg.Archive.DeleteAfterArchive {
		t.Error("delete_after_archive not decoded")
	}
	if cfg.DatabasePath() != "/srv/archive.db" {
		t.Errorf("DatabasePath() = %q", cfg.DatabasePath())
	}
	if cfg.Schedule.Cron != "*/30 * * * *" || !cfg.Schedule.Enabled {
		t.Errorf("schedule = %+v", cfg.Schedule)
	}

	mc := cfg.MailboxConfig()
	if mc.TLS || !mc.STARTTLS {
		t.Errorf("starttls mapping wrong: %+v", mc)
	}
	if mc.Auth != mailbox.AuthPlain {
		t.Errorf("auth = %q, want plain", mc.Auth)
	}
	if mc.Folder != "Archive" {
		t.Errorf("folder = %q", mc.Folder)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	content := `
[mailbox]
server = "mail.example.com"
username = "file-user@example.com"
password = "file-pass"
`
	if err := os.WriteFile(filepath.Join(home, "config.toml"), []byte(content), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("IMAP_SERVER", "imap.override.example")
	t.Setenv("EMAIL", "env-user@example.com")
	t.Setenv("PASSWORD", "env-pass")
	t.Setenv("ARCHIVE_ROOT", "/env/archive")
	t.Setenv("DELETE_AFTER_ARCHIVE", "TRUE")

	cfg, err := Load("", home)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Mailbox.Server != "imap.override.example" {
		t.Errorf("server = %q", cfg.Mailbox.Server)
	}
	if cfg.Mailbox.Username != "env-user@example.com" || cfg.Mailbox.Password != "env-pass" {
		t.Errorf("credentials = %q / %q", cfg.Mailbox.Username, cfg.Mailbox.Password)
	}
	if cfg.Archive.Root != "/env/archive" {
		t.Errorf("root = %q", cfg.Archive.Root)
	}
	if !cfg.Archive.DeleteAfterArchive {
		t.Error("DELETE_AFTER_ARCHIVE=TRUE not applied")
	}
}

func TestDefaultHome(t *testing.T) {
	clearEnv(t)
	t.Setenv("EMAIL_ARCHIVER_HOME", "/custom/home")
	if got := DefaultHome(); got != "/custom/home" {
		t.Errorf("DefaultHome() = %q", got)
	}
}

func TestValidateMailbox(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("", t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.ValidateMailbox(); err == nil {
		t.Error("expected error for missing credentials")
	}

	cfg.Mailbox.Username = "user@example.com"
	cfg.Mailbox.Password = "hunter2"
	if err := cfg.ValidateMailbox(); err != nil {
		t.Errorf("ValidateMailbox() = %v, want nil", err)
	}
}
