// Package email builds raw RFC 2822 messages for tests.
package email

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// PartSpec describes one MIME part for the builder.
type PartSpec struct {
	ContentType string
	Disposition string // raw Content-Disposition value; empty omits the header
	Filename    string // added to Content-Disposition when non-empty
	Data        []byte // base64-encoded into the message
}

// MessageBuilder constructs MIME messages with a fluent API.
type MessageBuilder struct {
	from      string
	to        string
	subject   string
	date      string
	messageID string
	body      string
	boundary  string
	parts     []PartSpec
	noSubject bool
	noFrom    bool
	noDate    bool
}

// NewMessage creates a MessageBuilder with sensible defaults.
func NewMessage() *MessageBuilder {
	return &MessageBuilder{
		from:     "sender@example.com",
		to:       "recipient@example.com",
		date:     "Mon, 01 Jan 2024 12:00:00 +0000",
		subject:  "Test Message",
		body:     "This is a test message body.",
		boundary: "boundary123",
	}
}

// From sets the From header. Use NoFrom() to omit it entirely.
func (b *MessageBuilder) From(v string) *MessageBuilder { b.from = v; b.noFrom = false; return b }

// To sets the To header.
func (b *MessageBuilder) To(v string) *MessageBuilder { b.to = v; return b }

// Subject sets the Subject header. Use NoSubject() to omit it entirely.
func (b *MessageBuilder) Subject(v string) *MessageBuilder { b.subject = v; b.noSubject = false; return b }

// Date sets the Date header. Use NoDate() to omit it entirely.
func (b *MessageBuilder) Date(v string) *MessageBuilder { b.date = v; b.noDate = false; return b }

// MessageID sets the Message-ID header.
func (b *MessageBuilder) MessageID(v string) *MessageBuilder { b.messageID = v; return b }

// Body sets the text body.
func (b *MessageBuilder) Body(v string) *MessageBuilder { b.body = v; return b }

// NoSubject omits the Subject header from the output.
func (b *MessageBuilder) NoSubject() *MessageBuilder { b.noSubject = true; return b }

// NoFrom omits the From header from the output.
func (b *MessageBuilder) NoFrom() *MessageBuilder { b.noFrom = true; return b }

// NoDate omits the Date header from the output.
func (b *MessageBuilder) NoDate() *MessageBuilder { b.noDate = true; return b }

// WithAttachment adds an attachment-disposition part.
func (b *MessageBuilder) WithAttachment(filename, contentType string, data []byte) *MessageBuilder {
	b.parts = append(b.parts, PartSpec{
		ContentType: contentType,
		Disposition: "attachment",
		Filename:    filename,
		Data:        data,
	})
	return b
}

// WithPart adds an arbitrary part, e.g. inline images or nameless
// attachments.
func (b *MessageBuilder) WithPart(p PartSpec) *MessageBuilder {
	b.parts = append(b.parts, p)
	return b
}

// Bytes builds the complete MIME message with \r\n line endings.
func (b *MessageBuilder) Bytes() []byte {
	const nl = "\r\n"

	var s strings.Builder
	if !b.noFrom {
		s.WriteString("From: " + b.from + nl)
	}
	s.WriteString("To: " + b.to + nl)
	if !b.noSubject {
		s.WriteString("Subject: " + b.subject + nl)
	}
	if !b.noDate {
		s.WriteString("Date: " + b.date + nl)
	}
	if b.messageID != "" {
		s.WriteString("Message-ID: " + b.messageID + nl)
	}

	if len(b.parts) == 0 {
		s.WriteString(`Content-Type: text/plain; charset="utf-8"` + nl)
		s.WriteString(nl)
		s.WriteString(b.body + nl)
		return []byte(s.String())
	}

	s.WriteString("MIME-Version: 1.0" + nl)
	s.WriteString(fmt.Sprintf("Content-Type: multipart/mixed; boundary=%q", b.boundary) + nl)
	s.WriteString(nl)

	s.WriteString("--" + b.boundary + nl)
	s.WriteString(`Content-Type: text/plain; charset="utf-8"` + nl)
	s.WriteString(nl)
	s.WriteString(b.body + nl)

	for _, p := range b.parts {
		s.WriteString("--" + b.boundary + nl)
		ct := p.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		if p.Filename != "" {
			s.WriteString(fmt.Sprintf("Content-Type: %s; name=%q", ct, p.Filename) + nl)
		} else {
			s.WriteString("Content-Type: " + ct + nl)
		}
		if p.Disposition != "" {
			disp := p.Disposition
			if p.Filename != "" {
				disp = fmt.Sprintf("%s; filename=%q", disp, p.Filename)
			}
			s.WriteString("Content-Disposition: " + disp + nl)
		}
		s.WriteString("Content-Transfer-Encoding: base64" + nl)
		s.WriteString(nl)
		s.WriteString(base64.StdEncoding.EncodeToString(p.Data) + nl)
	}

	s.WriteString("--" + b.boundary + "--" + nl)
	return []byte(s.String())
}
