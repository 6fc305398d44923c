package archive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Nurdvu1et/email-archiver/internal/mailbox"
	"github.com/Nurdvu1et/email-archiver/internal/mime"
	"github.com/Nurdvu1et/email-archiver/internal/store"
	"github.com/Nurdvu1et/email-archiver/internal/textutil"
)

const (
	// DefaultSessionCap bounds how many messages one run will touch.
	DefaultSessionCap = 100
	// DefaultMaxErrors is the per-run error budget. Once this many
	// message-level failures accumulate the run stops early.
	DefaultMaxErrors = 5

	// noHeader stands in for headers the message did not carry.
	noHeader = "(No Header)"
)

// Options configures a pipeline run.
type Options struct {
	ArchiveRoot        string
	SessionCap         int // 0 means DefaultSessionCap
	MaxErrors          int // 0 means DefaultMaxErrors
	DeleteAfterArchive bool
	Now                func() time.Time // test clock; nil means time.Now
}

// Summary reports what one run did.
type Summary struct {
	Found         int // unseen messages reported by the server
	Processed     int // messages archived and recorded
	Failed        int // message-level failures that consumed error budget
	FetchFailures int // messages skipped because the download failed
	NoAttachments int // messages with nothing to archive
	Duplicates    int // messages already recorded in a previous run
}

// Archiver runs the ingestion pipeline against one mailbox.
type Archiver struct {
	dialer mailbox.Dialer
	store  *store.Store
	opts   Options
	logger *slog.Logger
}

// New creates an Archiver. Zero option fields get their defaults.
func New(dialer mailbox.Dialer, st *store.Store, opts Options) *Archiver {
	if opts.SessionCap <= 0 {
		opts.SessionCap = DefaultSessionCap
	}
	if opts.MaxErrors <= 0 {
		opts.MaxErrors = DefaultMaxErrors
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Archiver{
		dialer: dialer,
		store:  st,
		opts:   opts,
		logger: slog.Default(),
	}
}

// WithLogger sets the logger and returns the Archiver.
func (a *Archiver) WithLogger(logger *slog.Logger) *Archiver {
	a.logger = logger
	return a
}

// Run executes one pipeline pass. A connect failure is the only error
// returned; every later failure is logged, counted in the Summary, and
// charged against the error budget where it indicates a processing bug
// rather than a flaky server. The session is always closed.
func (a *Archiver) Run(ctx context.Context) (*Summary, error) {
	session, err := a.dialer.Dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect mailbox: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			a.logger.Debug("close session", "error", err)
		}
	}()

	summary := &Summary{}

	ids, err := session.SearchUnseen(ctx)
	if err != nil {
		a.logger.Warn("search for unseen messages failed", "error", err)
		return summary, nil
	}
	summary.Found = len(ids)
	a.logger.Info("found new messages", "count", len(ids))

	if len(ids) > a.opts.SessionCap {
		a.logger.Info("capping session", "cap", a.opts.SessionCap, "found", len(ids))
		ids = ids[:a.opts.SessionCap]
	}

	errCount := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			a.logger.Warn("run canceled", "error", ctx.Err())
			break
		}
		if errCount >= a.opts.MaxErrors {
			a.logger.Error("reached maximum error limit, stopping")
			break
		}

		switch a.processMessage(ctx, session, id) {
		case outcomeProcessed:
			summary.Processed++
		case outcomeFetchFailed:
			summary.FetchFailures++
		case outcomeNoAttachments:
			summary.NoAttachments++
		case outcomeDuplicate:
			summary.Duplicates++
		case outcomeFailed:
			summary.Failed++
			errCount++
		}
	}

	a.logger.Info("archive run complete",
		"found", summary.Found,
		"processed", summary.Processed,
		"failed", summary.Failed,
		"fetch_failures", summary.FetchFailures,
		"no_attachments", summary.NoAttachments,
		"duplicates", summary.Duplicates)
	return summary, nil
}

type outcome int

const (
	outcomeProcessed outcome = iota
	outcomeFetchFailed
	outcomeNoAttachments
	outcomeDuplicate
	outcomeFailed
)

// processMessage runs one message through fetch, parse, extract,
// record, and optional deletion flagging.
func (a *Archiver) processMessage(ctx context.Context, session mailbox.Session, id string) outcome {
	raw, err := session.FetchFull(ctx, id)
	if err != nil {
		a.logger.Warn("fetch failed", "id", id, "error", err)
		return outcomeFetchFailed
	}

	msg, err := mime.Parse(raw)
	if err != nil {
		a.logger.Error("parse message failed", "id", id, "error", err)
		return outcomeFailed
	}

	subject := decodeOrPlaceholder(msg.Subject)
	sender := decodeOrPlaceholder(msg.From)
	dateReceived := decodeOrPlaceholder(msg.Date)
	a.logger.Debug("message headers",
		"id", id, "subject", subject, "from", sender,
		"date", dateReceived, "message_id", msg.MessageID)

	dir, err := AllocateDir(a.opts.ArchiveRoot, a.opts.Now(), sender, id)
	if err != nil {
		a.logger.Error("allocate archive dir failed", "id", id, "error", err)
		return outcomeFailed
	}

	saved := a.extractAttachments(msg, dir)
	if len(saved) == 0 {
		a.logger.Warn("no attachments found", "id", id)
		return outcomeNoAttachments
	}

	dateSort, ok := mime.ParseDate(msg.Date)
	if !ok {
		dateSort = a.opts.Now().UTC()
	}

	rec := &store.ArchivedEmail{
		EmailID:      id,
		Subject:      subject,
		Sender:       sender,
		DateReceived: dateReceived,
		DateSort:     dateSort,
		Attachments:  saved,
		ArchivePath:  dir,
	}
	if err := a.store.RecordArchived(rec); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			a.logger.Info("already archived, skipping", "id", id)
			return outcomeDuplicate
		}
		a.logger.Error("record metadata failed", "id", id, "error", err)
		return outcomeFailed
	}

	if a.opts.DeleteAfterArchive {
		if err := session.FlagDeleted(ctx, id); err != nil {
			a.logger.Error("flag for deletion failed", "id", id, "error", err)
			return outcomeFailed
		}
		a.logger.Debug("marked message for deletion", "id", id)
	}

	a.logger.Info("archived message", "id", id, "attachments", len(saved), "dir", dir)
	return outcomeProcessed
}

// decodeOrPlaceholder decodes a raw header value, standing in a
// placeholder when the message had no such header.
func decodeOrPlaceholder(raw string) string {
	if raw == "" {
		return noHeader
	}
	return textutil.DecodeHeader(raw)
}
