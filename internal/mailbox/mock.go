package mailbox

import "context"

// MockSession is an in-memory Session and Dialer for tests. Error
// fields inject failures at each step; call counters record what the
// pipeline actually did.
type MockSession struct {
	Unseen   []string          // IDs returned by SearchUnseen
	Messages map[string][]byte // raw message bytes by ID

	DialError    error
	SearchError  error
	FetchError   map[string]error // per-ID fetch failures
	FlagError    error
	ExpungeError error
	CloseError   error

	FetchCalls   []string
	Flagged      []string
	ExpungeCalls int
	CloseCalls   int
}

var (
	_ Session = (*MockSession)(nil)
	_ Dialer  = (*MockSession)(nil)
)

// Dial returns the mock itself, or DialError.
func (m *MockSession) Dial(ctx context.Context) (Session, error) {
	if m.DialError != nil {
		return nil, m.DialError
	}
	return m, nil
}

func (m *MockSession) SearchUnseen(ctx context.Context) ([]string, error) {
	if m.SearchError != nil {
		return nil, m.SearchError
	}
	return m.Unseen, nil
}

func (m *MockSession) FetchFull(ctx context.Context, id string) ([]byte, error) {
	m.FetchCalls = append(m.FetchCalls, id)
	if err := m.FetchError[id]; err != nil {
		return nil, err
	}
	raw, ok := m.Messages[id]
	if !ok {
		return nil, &missingMessageError{id: id}
	}
	return raw, nil
}

func (m *MockSession) FlagDeleted(ctx context.Context, id string) error {
	if m.FlagError != nil {
		return m.FlagError
	}
	m.Flagged = append(m.Flagged, id)
	return nil
}

func (m *MockSession) ExpungeFlagged(ctx context.Context) error {
	m.ExpungeCalls++
	return m.ExpungeError
}

func (m *MockSession) Close() error {
	m.CloseCalls++
	return m.CloseError
}

type missingMessageError struct{ id string }

func (e *missingMessageError) Error() string {
	return "mock: no message " + e.id
}
