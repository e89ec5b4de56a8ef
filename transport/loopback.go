package transport

import (
	"context"
	"io"
	"sync"
)

// pipeDepth is how many blocks a loopback direction buffers before Send
// exerts backpressure.
const pipeDepth = 64

// Loopback is one end of an in-memory connected pair, the transport used
// by tests and replay when no hardware is attached.
type Loopback struct {
	send chan<- []byte
	recv <-chan []byte

	local  chan struct{} // closed when this end closes
	remote chan struct{} // closed when the peer end closes
	once   sync.Once
}

// Pipe returns two connected Loopback ends. Bytes sent on one end are
// received on the other, block boundaries preserved. Closing either end
// makes the peer's Receive drain buffered blocks and then report io.EOF.
func Pipe() (*Loopback, *Loopback) {
	ab := make(chan []byte, pipeDepth)
	ba := make(chan []byte, pipeDepth)
	aClosed := make(chan struct{})
	bClosed := make(chan struct{})

	a := &Loopback{send: ab, recv: ba, local: aClosed, remote: bClosed}
	b := &Loopback{send: ba, recv: ab, local: bClosed, remote: aClosed}
	return a, b
}

// Send queues an owned copy of p for the peer.
func (l *Loopback) Send(ctx context.Context, p []byte) (int, error) {
	select {
	case <-l.local:
		return 0, ErrClosed
	default:
	}

	block := append([]byte(nil), p...)
	select {
	case l.send <- block:
		return len(p), nil
	case <-l.local:
		return 0, ErrClosed
	case <-l.remote:
		return 0, ErrClosed
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Receive returns the next block sent by the peer.
func (l *Loopback) Receive(ctx context.Context) ([]byte, error) {
	// Buffered blocks are delivered even after either end closes.
	select {
	case p := <-l.recv:
		return p, nil
	default:
	}

	select {
	case p := <-l.recv:
		return p, nil
	case <-l.local:
		return nil, ErrClosed
	case <-l.remote:
		select {
		case p := <-l.recv:
			return p, nil
		default:
		}
		return nil, io.EOF
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close closes this end. The peer observes io.EOF once drained.
func (l *Loopback) Close() error {
	l.once.Do(func() { close(l.local) })
	return nil
}

// String identifies the transport for logging.
func (l *Loopback) String() string {
	return "loopback"
}
