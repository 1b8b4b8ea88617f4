package control

import (
	"context"
	"errors"

	"github.com/sweeney/cabin-monitor/internal/device"
)

// ErrInboxClosed is returned by Submit once the loop has stopped.
var ErrInboxClosed = errors.New("control loop stopped")

// Request is one inbound request line waiting for the loop.
type Request struct {
	Line  string
	reply chan device.Snapshot
}

// Respond hands the post-request snapshot back to the submitter.
// It never blocks.
func (r Request) Respond(s device.Snapshot) {
	r.reply <- s
}

// Inbox hands requests from any goroutine to the single loop goroutine.
// The channel is unbuffered, so at most one request is accepted at a time
// and the loop never interleaves a request with a control tick.
type Inbox struct {
	ch     chan Request
	closed chan struct{}
}

// NewInbox creates an open Inbox.
func NewInbox() *Inbox {
	return &Inbox{
		ch:     make(chan Request),
		closed: make(chan struct{}),
	}
}

// Requests is the receive side for the loop.
func (in *Inbox) Requests() <-chan Request {
	return in.ch
}

// Submit blocks until the loop has processed line and returns the resulting
// snapshot. If ctx ends before the loop accepts the request, nothing is
// applied. If it ends after, the request still completes but the snapshot
// is discarded.
func (in *Inbox) Submit(ctx context.Context, line string) (device.Snapshot, error) {
	req := Request{Line: line, reply: make(chan device.Snapshot, 1)}
	select {
	case in.ch <- req:
	case <-in.closed:
		return device.Snapshot{}, ErrInboxClosed
	case <-ctx.Done():
		return device.Snapshot{}, ctx.Err()
	}
	select {
	case s := <-req.reply:
		return s, nil
	case <-ctx.Done():
		return device.Snapshot{}, ctx.Err()
	}
}

// Close rejects all future submissions. It must be called at most once.
func (in *Inbox) Close() {
	close(in.closed)
}
