package mailbox

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	imap "github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/emersion/go-sasl"
)

// Option is a functional option for Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// Client dials IMAP servers and implements Session over the resulting
// connection. A Client is safe for concurrent use; each method holds
// the connection lock for its duration.
type Client struct {
	config *Config
	logger *slog.Logger

	mu   sync.Mutex
	conn *imapclient.Client
}

// NewClient creates an IMAP client for the given config. No connection
// is made until Dial.
func NewClient(cfg *Config, opts ...Option) *Client {
	c := &Client{
		config: cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dial connects, authenticates, and selects the configured folder.
func (c *Client) Dial(ctx context.Context) (Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.connect(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// connect establishes the session. Caller must hold mu.
func (c *Client) connect(ctx context.Context) error {
	if c.conn != nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := c.config.Addr()
	c.logger.Debug("connecting to IMAP server",
		"addr", addr, "tls", c.config.TLS, "starttls", c.config.STARTTLS)

	imapOpts := &imapclient.Options{}
	var (
		conn *imapclient.Client
		err  error
	)
	if c.config.TLS {
		conn, err = imapclient.DialTLS(addr, imapOpts)
	} else if c.config.STARTTLS {
		conn, err = imapclient.DialStartTLS(addr, imapOpts)
	} else {
		conn, err = imapclient.DialInsecure(addr, imapOpts)
	}
	if err != nil {
		return fmt.Errorf("dial IMAP %s: %w", addr, err)
	}

	if c.config.Auth == AuthPlain {
		saslClient := sasl.NewPlainClient("", c.config.Username, c.config.Password)
		err = conn.Authenticate(saslClient)
	} else {
		err = conn.Login(c.config.Username, c.config.Password).Wait()
	}
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("IMAP login: %w", err)
	}

	folder := c.config.FolderName()
	if _, err := conn.Select(folder, nil).Wait(); err != nil {
		_ = conn.Logout().Wait()
		return fmt.Errorf("SELECT %q: %w", folder, err)
	}

	c.conn = conn
	c.logger.Debug("connected and authenticated",
		"user", c.config.Username, "folder", folder)
	return nil
}

// withConn runs fn with the active connection. It holds the mutex for
// the duration of fn.
func (c *Client) withConn(ctx context.Context, fn func(*imapclient.Client) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return fmt.Errorf("not connected (call Dial first)")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(c.conn)
}

// SearchUnseen returns UIDs of messages without the \Seen flag, as
// decimal strings in server order.
func (c *Client) SearchUnseen(ctx context.Context) ([]string, error) {
	var ids []string
	err := c.withConn(ctx, func(conn *imapclient.Client) error {
		criteria := &imap.SearchCriteria{
			NotFlag: []imap.Flag{imap.FlagSeen},
		}
		searchData, err := conn.UIDSearch(criteria, nil).Wait()
		if err != nil {
			return fmt.Errorf("UID SEARCH UNSEEN: %w", err)
		}
		for _, uid := range searchData.AllUIDs() {
			ids = append(ids, strconv.FormatUint(uint64(uid), 10))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// FetchFull downloads the entire raw message. The body section is not
// a peek, so the server adds \Seen as part of the fetch.
func (c *Client) FetchFull(ctx context.Context, id string) ([]byte, error) {
	uid, err := parseUID(id)
	if err != nil {
		return nil, err
	}

	var raw []byte
	err = c.withConn(ctx, func(conn *imapclient.Client) error {
		fetchOpts := &imap.FetchOptions{
			UID:         true,
			BodySection: []*imap.FetchItemBodySection{{}}, // empty section = entire message
		}
		msgs, err := conn.Fetch(imap.UIDSetNum(uid), fetchOpts).Collect()
		if err != nil {
			return fmt.Errorf("UID FETCH %s: %w", id, err)
		}
		for _, msg := range msgs {
			if msg.UID != uid || len(msg.BodySection) == 0 {
				continue
			}
			raw = msg.BodySection[0].Bytes
		}
		if len(raw) == 0 {
			return fmt.Errorf("UID FETCH %s: empty response", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// FlagDeleted adds \Deleted to the message without fetching flag
// updates back.
func (c *Client) FlagDeleted(ctx context.Context, id string) error {
	uid, err := parseUID(id)
	if err != nil {
		return err
	}
	return c.withConn(ctx, func(conn *imapclient.Client) error {
		if err := conn.Store(imap.UIDSetNum(uid), &imap.StoreFlags{
			Op:     imap.StoreFlagsAdd,
			Silent: true,
			Flags:  []imap.Flag{imap.FlagDeleted},
		}, nil).Close(); err != nil {
			return fmt.Errorf("UID STORE \\Deleted %s: %w", id, err)
		}
		return nil
	})
}

// ExpungeFlagged permanently removes all \Deleted messages in the
// selected folder.
func (c *Client) ExpungeFlagged(ctx context.Context) error {
	return c.withConn(ctx, func(conn *imapclient.Client) error {
		if err := conn.Expunge().Close(); err != nil {
			return fmt.Errorf("EXPUNGE: %w", err)
		}
		return nil
	})
}

// Close logs out and disconnects. Safe to call when never connected.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	conn := c.conn
	c.conn = nil
	return conn.Logout().Wait()
}

func parseUID(id string) (imap.UID, error) {
	n, err := strconv.ParseUint(id, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid message ID %q: %w", id, err)
	}
	return imap.UID(n), nil
}
