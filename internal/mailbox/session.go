package mailbox

import "context"

// Session is an authenticated IMAP session with a folder selected.
// Message IDs are the server-assigned UIDs as decimal strings.
type Session interface {
	// SearchUnseen returns the IDs of messages without the \Seen flag.
	SearchUnseen(ctx context.Context) ([]string, error)

	// FetchFull downloads the complete raw message. The fetch is not a
	// peek, so the server marks the message seen as a side effect.
	FetchFull(ctx context.Context, id string) ([]byte, error)

	// FlagDeleted adds the \Deleted flag to the message.
	FlagDeleted(ctx context.Context, id string) error

	// ExpungeFlagged permanently removes all \Deleted messages in the
	// selected folder.
	ExpungeFlagged(ctx context.Context) error

	// Close logs out and disconnects.
	Close() error
}

// Dialer produces sessions. The pipeline dials once per run.
type Dialer interface {
	Dial(ctx context.Context) (Session, error)
}
