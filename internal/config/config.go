// Package config handles loading and managing email-archiver
// configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/Nurdvu1et/email-archiver/internal/mailbox"
)

// MailboxConfig holds IMAP connection settings.
type MailboxConfig struct {
	Server   string `toml:"server"`
	Port     int    `toml:"port"`
	STARTTLS bool   `toml:"starttls"` // plaintext connect + upgrade instead of implicit TLS
	Username string `toml:"username"`
	Password string `toml:"password"`
	Folder   string `toml:"folder"` // empty means INBOX
	Auth     string `toml:"auth"`   // "login" (default) or "plain"
}

// ArchiveConfig holds archive tree and store settings.
type ArchiveConfig struct {
	Root               string `toml:"root"`
	DatabasePath       string `toml:"database_path"`
	DeleteAfterArchive bool   `toml:"delete_after_archive"`
}

// ServerConfig holds HTTP API server configuration.
type ServerConfig struct {
	BindAddr    string   `toml:"bind_addr"`
	Port        int      `toml:"port"`
	APIKey      string   `toml:"api_key"`
	CORSOrigins []string `toml:"cors_origins"`
}

// ScheduleConfig holds the daemon schedule for archive runs.
type ScheduleConfig struct {
	Cron    string `toml:"cron"` // 5-field cron expression
	Enabled bool   `toml:"enabled"`
}

// Config is the full email-archiver configuration.
type Config struct {
	Mailbox  MailboxConfig  `toml:"mailbox"`
	Archive  ArchiveConfig  `toml:"archive"`
	Server   ServerConfig   `toml:"server"`
	Schedule ScheduleConfig `toml:"schedule"`

	// Computed, not from the config file.
	HomeDir string `toml:"-"`
}

// DefaultHome returns the default email-archiver home directory.
// Respects the EMAIL_ARCHIVER_HOME environment variable.
func DefaultHome() string {
	if h := os.Getenv("EMAIL_ARCHIVER_HOME"); h != "" {
		return h
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".email-archiver"
	}
	return filepath.Join(home, ".email-archiver")
}

// Load reads the configuration. An empty home falls back to
// DefaultHome; an empty path falls back to <home>/config.toml. The file
// is optional; environment variables override whatever it says.
func Load(path, home string) (*Config, error) {
	if home == "" {
		home = DefaultHome()
	}
	if path == "" {
		path = filepath.Join(home, "config.toml")
	}

	cfg := &Config{
		HomeDir: home,
		Mailbox: MailboxConfig{
			Server: "imap.gmail.com",
		},
		Archive: ArchiveConfig{
			Root: "./email_archive",
		},
		Server: ServerConfig{
			BindAddr: "127.0.0.1",
			Port:     8080,
		},
	}

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("decode config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.Archive.Root = expandPath(cfg.Archive.Root)
	cfg.Archive.DatabasePath = expandPath(cfg.Archive.DatabasePath)
	return cfg, nil
}

// applyEnv applies the environment variable overrides. These carry the
// variable names the tool has always used, so existing deployments keep
// working without a config file.
func (c *Config) applyEnv() {
	if v := os.Getenv("IMAP_SERVER"); v != "" {
		c.Mailbox.Server = v
	}
	if v := os.Getenv("EMAIL"); v != "" {
		c.Mailbox.Username = v
	}
	if v := os.Getenv("PASSWORD"); v != "" {
		c.Mailbox.Password = v
	}
	if v := os.Getenv("ARCHIVE_ROOT"); v != "" {
		c.Archive.Root = v
	}
	if v := os.Getenv("DELETE_AFTER_ARCHIVE"); v != "" {
		c.Archive.DeleteAfterArchive = strings.EqualFold(v, "true")
	}
}

// DatabasePath returns the path to the SQLite database.
func (c *Config) DatabasePath() string {
	if c.Archive.DatabasePath != "" {
		return c.Archive.DatabasePath
	}
	return filepath.Join(c.HomeDir, "email_archive.db")
}

// EnsureHomeDir creates the home directory if it does not exist.
func (c *Config) EnsureHomeDir() error {
	return os.MkdirAll(c.HomeDir, 0755)
}

// ValidateMailbox reports whether the mailbox settings can produce a
// session. Commands that touch the mailbox fail at startup when this
// errors.
func (c *Config) ValidateMailbox() error {
	return c.MailboxConfig().Validate()
}

// MailboxConfig converts the mailbox section into the connection config
// used by the IMAP client. Implicit TLS unless STARTTLS is requested.
func (c *Config) MailboxConfig() *mailbox.Config {
	auth := mailbox.AuthLogin
	if strings.EqualFold(c.Mailbox.Auth, string(mailbox.AuthPlain)) {
		auth = mailbox.AuthPlain
	}
	return &mailbox.Config{
		Host:     c.Mailbox.Server,
		Port:     c.Mailbox.Port,
		TLS:      !c.Mailbox.STARTTLS,
		STARTTLS: c.Mailbox.STARTTLS,
		Username: c.Mailbox.Username,
		Password: c.Mailbox.Password,
		Folder:   c.Mailbox.Folder,
		Auth:     auth,
	}
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}
