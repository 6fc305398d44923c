// Package archive implements the ingestion pipeline: fetch unseen
// messages, extract attachments to the archive tree, record metadata.
package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Nurdvu1et/email-archiver/internal/textutil"
)

// AllocateDir creates the destination directory for one message's
// attachments and returns its path:
//
//	<root>/<YYYY-MM-DD>/<safeSenderLocalPart>/<id10>
//
// The date is the processing date, not the message date. The sender
// segment is the decoded sender up to the first '@', sanitized; the
// final segment is the first 10 characters of the message ID, keeping
// paths unique when one sender shows up several times in a day.
func AllocateDir(root string, now time.Time, sender, emailID string) (string, error) {
	local := sender
	if i := strings.IndexByte(sender, '@'); i >= 0 {
		local = sender[:i]
	}
	safeSender := textutil.SanitizeForFilesystem(local, textutil.SenderAllowedChars, textutil.SenderMaxLen)

	id := emailID
	if len(id) > 10 {
		id = id[:10]
	}

	dir := filepath.Join(root, now.Format("2006-01-02"), safeSender, id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create archive dir: %w", err)
	}
	return dir, nil
}
