package actuator

import (
	"bytes"
	"sync"
)

// TestLink is an in-memory actuator link for tests. It records every byte
// written and can be made to fail or close.
type TestLink struct {
	mu sync.Mutex

	// WriteBuffer captures data written to the link.
	WriteBuffer *bytes.Buffer

	// WriteError is returned by every Write call while set.
	WriteError error

	// Closed makes IsOpen report false.
	Closed bool

	// WriteCalls records the number of Write calls.
	WriteCalls int

	notify chan struct{}
}

// NewTestLink creates an open TestLink.
func NewTestLink() *TestLink {
	return &TestLink{
		WriteBuffer: bytes.NewBuffer(nil),
		notify:      make(chan struct{}, 1),
	}
}

// Write records p unless WriteError is set.
func (t *TestLink) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.WriteCalls++
	if t.WriteError != nil {
		return 0, t.WriteError
	}
	if t.Closed {
		return 0, ErrClosed
	}
	n, err := t.WriteBuffer.Write(p)
	select {
	case t.notify <- struct{}{}:
	default:
	}
	return n, err
}

// IsOpen reports whether the link is open.
func (t *TestLink) IsOpen() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.Closed
}

// Close marks the link closed.
func (t *TestLink) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Closed = true
	return nil
}

// SetWriteError sets the error returned by subsequent writes.
func (t *TestLink) SetWriteError(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.WriteError = err
}

// Written returns a copy of everything written so far.
func (t *TestLink) Written() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.WriteBuffer.String()
}

// Notify returns a channel that receives after writes. Bursts of writes may
// coalesce into a single notification.
func (t *TestLink) Notify() <-chan struct{} {
	return t.notify
}
