package mime

import (
	"bytes"
	"testing"
	"time"

	"github.com/Nurdvu1et/email-archiver/internal/testutil/email"
)

func TestParse_PlainMessage(t *testing.T) {
	raw := email.NewMessage().
		Subject("Status update").
		From("Alice <alice@example.com>").
		Date("Tue, 02 Jan 2024 10:30:00 +0000").
		MessageID("<abc123@example.com>").
		Bytes()

	msg, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if msg.Subject != "Status update" {
		t.Errorf("Subject = %q", msg.Subject)
	}
	if msg.From != "Alice <alice@example.com>" {
		t.Errorf("From = %q", msg.From)
	}
	if msg.Date != "Tue, 02 Jan 2024 10:30:00 +0000" {
		t.Errorf("Date = %q", msg.Date)
	}
	if msg.MessageID != "<abc123@example.com>" {
		t.Errorf("MessageID = %q", msg.MessageID)
	}
	if len(msg.Parts) != 1 {
		t.Fatalf("got %d parts, want 1", len(msg.Parts))
	}
	if msg.Parts[0].IsMultipart() {
		t.Error("plain text root should not be multipart")
	}
}

func TestParse_MissingHeaders(t *testing.T) {
	raw := email.NewMessage().NoSubject().NoFrom().NoDate().Bytes()

	msg, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if msg.Subject != "" || msg.From != "" || msg.Date != "" {
		t.Errorf("missing headers should be empty, got subject=%q from=%q date=%q",
			msg.Subject, msg.From, msg.Date)
	}
}

func TestParse_MultipartTree(t *testing.T) {
	raw := email.NewMessage().
		WithAttachment("report.pdf", "application/pdf", []byte("%PDF-1.4 fake")).
		WithAttachment("data.csv", "text/csv", []byte("a,b\n1,2\n")).
		Bytes()

	msg, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	// Root container + text body + two attachments, depth-first.
	if len(msg.Parts) != 4 {
		t.Fatalf("got %d parts, want 4", len(msg.Parts))
	}
	if !msg.Parts[0].IsMultipart() {
		t.Error("first part should be the multipart root")
	}
	if msg.Parts[0].Content != nil {
		t.Error("container parts carry no content")
	}
	if msg.Parts[1].ContentType != "text/plain" {
		t.Errorf("body part type = %q", msg.Parts[1].ContentType)
	}

	att := msg.Parts[2]
	if att.ContentType != "application/pdf" {
		t.Errorf("attachment type = %q", att.ContentType)
	}
	if att.Disposition != "attachment" {
		t.Errorf("attachment disposition = %q", att.Disposition)
	}
	if att.Filename != "report.pdf" {
		t.Errorf("attachment filename = %q", att.Filename)
	}
	if !bytes.Equal(att.Content, []byte("%PDF-1.4 fake")) {
		t.Errorf("attachment content = %q (transfer encoding not decoded?)", att.Content)
	}
	if msg.Parts[3].Filename != "data.csv" {
		t.Errorf("second attachment filename = %q", msg.Parts[3].Filename)
	}
}

func TestPart_Subtype(t *testing.T) {
	tests := []struct {
		contentType string
		expected    string
	}{
		{"application/pdf", "pdf"},
		{"image/jpeg", "jpeg"},
		{"text/plain", "plain"},
		{"noslash", "noslash"},
	}
	for _, tt := range tests {
		p := &Part{ContentType: tt.contentType}
		if got := p.Subtype(); got != tt.expected {
			t.Errorf("Subtype(%q) = %q, want %q", tt.contentType, got, tt.expected)
		}
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string // RFC 3339; empty means parse failure expected
	}{
		{"rfc1123z", "Tue, 02 Jan 2024 10:30:00 +0100", "2024-01-02T09:30:00Z"},
		{"single digit day", "Tue, 2 Jan 2024 10:30:00 +0000", "2024-01-02T10:30:00Z"},
		{"no weekday", "2 Jan 2024 10:30:00 +0000", "2024-01-02T10:30:00Z"},
		{"paren tz name", "Tue, 02 Jan 2024 10:30:00 +0000 (UTC)", "2024-01-02T10:30:00Z"},
		{"extra whitespace", "Tue,  02 Jan 2024   10:30:00 +0000", "2024-01-02T10:30:00Z"},
		{"garbage", "not a date at all", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDate(tt.input)
			if tt.expected == "" {
				if ok {
					t.Errorf("ParseDate(%q) unexpectedly succeeded: %v", tt.input, got)
				}
				return
			}
			if !ok {
				t.Fatalf("ParseDate(%q) failed", tt.input)
			}
			if got.Format(time.RFC3339) != tt.expected {
				t.Errorf("ParseDate(%q) = %s, want %s", tt.input, got.Format(time.RFC3339), tt.expected)
			}
		})
	}
}
