package archive

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Nurdvu1et/email-archiver/internal/fileutil"
	"github.com/Nurdvu1et/email-archiver/internal/mime"
	"github.com/Nurdvu1et/email-archiver/internal/textutil"
)

// extractAttachments walks the part tree and writes every attachment
// part into dir. It returns the sanitized filenames that were written,
// in part order. A single part failing to decode or write skips only
// that part.
func (a *Archiver) extractAttachments(msg *mime.Message, dir string) []string {
	var saved []string
	for i, part := range msg.Parts {
		a.logger.Debug("message part",
			"num", i, "type", part.ContentType, "disposition", part.Disposition)

		if part.IsMultipart() {
			continue
		}
		if !strings.Contains(strings.ToLower(part.Disposition), "attachment") {
			continue
		}

		name := part.Filename
		if name == "" {
			name = fmt.Sprintf("attachment_%d.%s", len(saved), part.Subtype())
		}
		name = textutil.DecodeHeader(name)
		safeName := textutil.SanitizeForFilesystem(name, textutil.FilenameAllowedChars, textutil.FilenameMaxLen)

		if len(part.Content) == 0 {
			a.logger.Warn("empty attachment payload", "filename", safeName)
			continue
		}

		path := filepath.Join(dir, safeName)
		if err := fileutil.WriteFileNoFollow(path, part.Content, 0600); err != nil {
			a.logger.Error("save attachment failed", "filename", safeName, "error", err)
			continue
		}
		saved = append(saved, safeName)
		a.logger.Info("saved attachment", "filename", safeName)
	}
	return saved
}
