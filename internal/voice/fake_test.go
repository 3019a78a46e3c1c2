package voice

import (
	"context"
	"errors"
	"sync"

	"github.com/faitholopade/codegate/internal/store"
)

type fakeHandshaker struct {
	url   string
	err   error
	calls int
}

func (f *fakeHandshaker) SignedURL(_ context.Context, agentID string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.url + "?agent=" + agentID, nil
}

type fakeConn struct {
	mu     sync.Mutex
	sent   []string
	closed int
	err    error
}

func (c *fakeConn) SendText(_ context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, text)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed++
	return nil
}

// fakeDialer records the seed and hands the handler back to the test so it
// can play the remote side.
type fakeDialer struct {
	err     error
	calls   int
	url     string
	init    Init
	handler Handler
	conn    *fakeConn
	// connect fires OnConnected before Dial returns, as a fast remote would.
	connect bool
}

func (d *fakeDialer) Dial(_ context.Context, url string, init Init, h Handler) (Conn, error) {
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	d.url, d.init, d.handler = url, init, h
	d.conn = &fakeConn{}
	if d.connect {
		h.OnConnected()
	}
	return d.conn, nil
}

type notFoundErr struct{}

func (notFoundErr) Error() string  { return "agent not found" }
func (notFoundErr) NotFound() bool { return true }

type memRecorder struct {
	mu       sync.Mutex
	sessions []store.SessionEventData
	entries  []store.TranscriptEventData
	fail     bool
}

func (r *memRecorder) AppendSessionEvent(_ context.Context, d store.SessionEventData) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("disk full")
	}
	r.sessions = append(r.sessions, d)
	return nil
}

func (r *memRecorder) AppendTranscript(_ context.Context, d store.TranscriptEventData) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("disk full")
	}
	r.entries = append(r.entries, d)
	return nil
}

func (r *memRecorder) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.sessions))
	for i, s := range r.sessions {
		out[i] = s.Action
	}
	return out
}
