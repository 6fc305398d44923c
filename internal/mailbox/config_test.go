package mailbox

import "testing"

func TestConfig_Addr(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"explicit port", Config{Host: "mail.example.com", Port: 1993, TLS: true}, "mail.example.com:1993"},
		{"tls default", Config{Host: "imap.gmail.com", TLS: true}, "imap.gmail.com:993"},
		{"plaintext default", Config{Host: "localhost"}, "localhost:143"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.Addr(); got != tt.want {
				t.Errorf("Addr() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConfig_Identifier(t *testing.T) {
	cfg := Config{Host: "imap.gmail.com", TLS: true, Username: "user@example.com", Password: "hunter2"}
	want := "imaps://user@example.com@imap.gmail.com:993"
	if got := cfg.Identifier(); got != want {
		t.Errorf("Identifier() = %q, want %q", got, want)
	}
}

func TestConfig_FolderName(t *testing.T) {
	cfg := Config{}
	if got := cfg.FolderName(); got != "INBOX" {
		t.Errorf("default folder = %q, want INBOX", got)
	}
	cfg.Folder = "Archive"
	if got := cfg.FolderName(); got != "Archive" {
		t.Errorf("folder = %q, want Archive", got)
	}
}

func TestConfig_Validate(t *testing.T) {
	full := Config{Host: "imap.gmail.com", Username: "user@example.com", Password: "hunter2"}
	if err := full.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}

	tests := []struct {
		name string
		mut  func(*Config)
	}{
		{"missing host", func(c *Config) { c.Host = "" }},
		{"missing username", func(c *Config) { c.Username = "" }},
		{"missing password", func(c *Config) { c.Password = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := full
			tt.mut(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}
