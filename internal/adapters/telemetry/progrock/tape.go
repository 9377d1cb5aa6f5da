package progrock

import (
	"io"
	"sync"

	"github.com/vito/progrock"
)

var _ progrock.Writer = (*Tape)(nil)

// Tape is an in-process progrock.Writer whose updates can be read back in order.
// Writes never block; Read blocks until an update arrives or the tape is closed.
type Tape struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending []*progrock.StatusUpdate
	closed  bool
}

// NewTape creates an empty, open Tape.
func NewTape() *Tape {
	t := &Tape{}
	t.cond = sync.NewCond(&t.mu)
	return t
}

// WriteStatus queues an update. Updates written after Close are dropped.
func (t *Tape) WriteStatus(update *progrock.StatusUpdate) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.pending = append(t.pending, update)
	t.cond.Signal()
	return nil
}

// Read returns the next update. It returns io.EOF once the tape is closed and drained.
func (t *Tape) Read() (*progrock.StatusUpdate, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for len(t.pending) == 0 && !t.closed {
		t.cond.Wait()
	}
	if len(t.pending) == 0 {
		return nil, io.EOF
	}
	update := t.pending[0]
	t.pending[0] = nil
	t.pending = t.pending[1:]
	return update, nil
}

// Close ends the tape. Pending updates remain readable.
func (t *Tape) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.closed = true
	t.cond.Broadcast()
	return nil
}
