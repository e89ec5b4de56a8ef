package transport

import (
	"context"
	"time"

	"github.com/muurk/n2klink/protocol"
)

var (
	// ErrClosed is returned by operations on a Conn after Close has been
	// called on it, locally or remotely.
	ErrClosed = protocol.NewTransportError("connection is closed")

	// ErrNotConnected is returned by operations that need an open
	// connection before one has been established.
	ErrNotConnected = protocol.NewTransportError("not connected")
)

const (
	// writeWait bounds a single Send on links that support deadlines.
	writeWait = 10 * time.Second

	// pollInterval is how often blocked Receives wake up to honor
	// context cancellation on links without wakeable reads.
	pollInterval = 200 * time.Millisecond

	// readBufferSize is the block size for links that read into a
	// caller buffer. Large enough for any single frame.
	readBufferSize = 4096
)

// Conn is a bidirectional gateway byte stream.
//
// Implementations deliver received bytes as owned blocks whose
// boundaries are arbitrary; callers feed them to a protocol.Parser.
type Conn interface {
	// Send writes p to the link, returning the number of bytes written.
	// Send blocks until the link accepts the block, the context is
	// done, or the link fails.
	Send(ctx context.Context, p []byte) (int, error)

	// Receive returns the next block of bytes from the link. The
	// returned slice is owned by the caller. Receive blocks until data
	// arrives, the context is done, or the link fails; an orderly
	// remote shutdown is reported as io.EOF.
	Receive(ctx context.Context) ([]byte, error)

	// Close shuts the link down. Blocked Sends and Receives return
	// ErrClosed. Close is idempotent.
	Close() error
}

var (
	_ Conn = (*Serial)(nil)
	_ Conn = (*TCP)(nil)
	_ Conn = (*WS)(nil)
	_ Conn = (*Loopback)(nil)
)
