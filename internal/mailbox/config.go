// Package mailbox provides the IMAP session used to pull unseen
// messages from the archive account.
package mailbox

import (
	"fmt"
	"net/url"
)

// AuthMethod selects how the session authenticates after connecting.
type AuthMethod string

const (
	// AuthLogin uses the IMAP LOGIN command.
	AuthLogin AuthMethod = "login"
	// AuthPlain uses SASL PLAIN.
	AuthPlain AuthMethod = "plain"
)

// Config holds connection settings for the IMAP server.
type Config struct {
	Host     string
	Port     int
	TLS      bool // Implicit TLS (IMAPS, port 993)
	STARTTLS bool // STARTTLS upgrade (port 143)
	Username string
	Password string
	Folder   string // selected mailbox; empty means INBOX
	Auth     AuthMethod
}

func (c *Config) port() int {
	if c.Port != 0 {
		return c.Port
	}
	if c.TLS {
		return 993
	}
	return 143
}

// Addr returns the "host:port" string.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.port())
}

// FolderName returns the configured folder, defaulting to INBOX.
func (c *Config) FolderName() string {
	if c.Folder == "" {
		return "INBOX"
	}
	return c.Folder
}

// Identifier returns a canonical string like "imaps://user@host:port".
// It never includes the password, so it is safe to log.
func (c *Config) Identifier() string {
	scheme := "imap"
	if c.TLS {
		scheme = "imaps"
	}
	return fmt.Sprintf("%s://%s@%s:%d", scheme, url.PathEscape(c.Username), c.Host, c.port())
}

// Validate reports whether the config can produce a usable session.
func (c *Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("mailbox host is required")
	}
	if c.Username == "" {
		return fmt.Errorf("mailbox username is required")
	}
	if c.Password == "" {
		return fmt.Errorf("mailbox password is required")
	}
	return nil
}
