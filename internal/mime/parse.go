// Package mime parses raw messages into a flat part tree using enmime.
package mime

import (
	"bytes"
	"strings"
	"time"

	"github.com/jhillyerd/enmime"
)

// Message carries the raw header values and the depth-first part
// sequence of a parsed message. Header values are returned undecoded;
// callers decode them with textutil.DecodeHeader.
type Message struct {
	Subject   string
	From      string
	Date      string
	MessageID string
	Parts     []*Part
}

// Part is one node of the MIME tree: either a multipart container or a
// leaf part carrying transfer-decoded content.
type Part struct {
	ContentType string // lowercased media type, e.g. "application/pdf"
	Disposition string // Content-Disposition value, e.g. "attachment"
	Filename    string // declared filename, empty when absent
	Content     []byte // decoded payload; nil for containers
}

// IsMultipart reports whether the part is a container rather than a leaf.
func (p *Part) IsMultipart() bool {
	return strings.HasPrefix(p.ContentType, "multipart/")
}

// Subtype returns the media subtype, used to synthesize filenames for
// attachments that declare none.
func (p *Part) Subtype() string {
	if idx := strings.LastIndex(p.ContentType, "/"); idx >= 0 {
		return p.ContentType[idx+1:]
	}
	return p.ContentType
}

// Parse parses raw message bytes. The returned part sequence is a
// depth-first walk of the MIME tree including the root, mirroring the
// order attachments appear in the message.
func Parse(raw []byte) (*Message, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}

	msg := &Message{
		Subject:   env.GetHeader("Subject"),
		From:      env.GetHeader("From"),
		Date:      env.GetHeader("Date"),
		MessageID: env.GetHeader("Message-ID"),
	}
	collectParts(env.Root, &msg.Parts)
	return msg, nil
}

// collectParts appends p and its descendants depth-first.
func collectParts(p *enmime.Part, out *[]*Part) {
	if p == nil {
		return
	}
	part := &Part{
		ContentType: strings.ToLower(p.ContentType),
		Disposition: p.Disposition,
		Filename:    p.FileName,
	}
	if !part.IsMultipart() {
		part.Content = p.Content
	}
	*out = append(*out, part)
	for child := p.FirstChild; child != nil; child = child.NextSibling {
		collectParts(child, out)
	}
}

// dateFormats lists common Date header formats, tried in order.
var dateFormats = []string{
	time.RFC1123Z,                           // "Mon, 02 Jan 2006 15:04:05 -0700"
	time.RFC1123,                            // "Mon, 02 Jan 2006 15:04:05 MST"
	"Mon, 2 Jan 2006 15:04:05 -0700",        // single-digit day
	"Mon, 2 Jan 2006 15:04:05 MST",          // single-digit day, named TZ
	"2 Jan 2006 15:04:05 -0700",             // no weekday
	"2 Jan 2006 15:04:05 MST",               // no weekday, named TZ
	"02 Jan 2006 15:04:05 -0700",            // no weekday, zero-padded
	"02 Jan 2006 15:04:05 MST",              // no weekday, zero-padded, named TZ
	time.RFC822Z,                            // "02 Jan 06 15:04 -0700"
	time.RFC822,                             // "02 Jan 06 15:04 MST"
	time.RFC850,                             // "Monday, 02-Jan-06 15:04:05 MST"
	time.ANSIC,                              // "Mon Jan _2 15:04:05 2006"
	time.UnixDate,                           // "Mon Jan _2 15:04:05 MST 2006"
	"Mon, 02 Jan 2006 15:04:05 -0700 (MST)", // parenthesized TZ name
	"Mon, 2 Jan 2006 15:04:05 -0700 (MST)",  // single-digit day, paren TZ
	time.RFC3339,                            // "2006-01-02T15:04:05Z07:00"
	"2006-01-02 15:04:05 -0700",             // SQL-like
	"2006-01-02 15:04:05",                   // SQL-like without TZ
}

// ParseDate attempts to parse a Date header value, normalizing to UTC.
// The second return is false when no known format matches.
func ParseDate(s string) (time.Time, bool) {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return time.Time{}, false
	}

	// Strip a trailing timezone name in parentheses like "(UTC)"; the
	// numeric offset preceding it is what the formats expect.
	baseStr := s
	if idx := strings.LastIndex(s, "("); idx > 0 {
		baseStr = strings.TrimSpace(s[:idx])
	}

	for _, format := range dateFormats {
		if t, err := time.Parse(format, baseStr); err == nil {
			return t.UTC(), true
		}
	}
	if baseStr != s {
		for _, format := range dateFormats {
			if t, err := time.Parse(format, s); err == nil {
				return t.UTC(), true
			}
		}
	}
	return time.Time{}, false
}
