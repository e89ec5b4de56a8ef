package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/muurk/n2klink/internal/logging"
)

// TCP is a Conn over a stream network connection, typically a gateway
// bridge exposing the raw byte stream on a TCP port.
type TCP struct {
	conn net.Conn
	name string
	buf  []byte

	mu     sync.Mutex
	closed bool
}

// DialTCP connects to a stream bridge at addr (host:port).
func DialTCP(ctx context.Context, addr string) (*TCP, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	logging.LogConnection(addr, "opened")
	return newTCP(conn, addr), nil
}

// NewTCP wraps an already established stream connection. The wrapper
// takes ownership of conn; closing the TCP closes conn.
func NewTCP(conn net.Conn) *TCP {
	name := "pipe"
	if addr := conn.RemoteAddr(); addr != nil {
		name = addr.String()
	}
	return newTCP(conn, name)
}

func newTCP(conn net.Conn, name string) *TCP {
	return &TCP{
		conn: conn,
		name: name,
		buf:  make([]byte, readBufferSize),
	}
}

// Send writes p to the connection, bounded by the context deadline or a
// fixed write timeout, whichever is sooner.
func (t *TCP) Send(ctx context.Context, p []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if t.isClosed() {
		return 0, ErrClosed
	}

	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := t.conn.SetWriteDeadline(deadline); err != nil {
		return 0, t.mapErr(err, "set write deadline")
	}

	n, err := t.conn.Write(p)
	if err != nil {
		return n, t.mapErr(err, "write")
	}
	return n, nil
}

// Receive returns the next block of bytes from the connection. Reads
// run with a short deadline and retry, so ctx cancellation is honored
// within one poll interval.
func (t *TCP) Receive(ctx context.Context) ([]byte, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if t.isClosed() {
			return nil, ErrClosed
		}

		deadline := time.Now().Add(pollInterval)
		if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
			deadline = d
		}
		if err := t.conn.SetReadDeadline(deadline); err != nil {
			return nil, t.mapErr(err, "set read deadline")
		}

		n, err := t.conn.Read(t.buf)
		if n > 0 {
			return append([]byte(nil), t.buf[:n]...), nil
		}
		if err == nil {
			continue
		}
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			continue
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
			return nil, io.EOF
		}
		return nil, t.mapErr(err, "read")
	}
}

// Close closes the connection. Blocked Receives return ErrClosed.
func (t *TCP) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.mu.Unlock()

	logging.LogConnection(t.name, "closed")
	return t.conn.Close()
}

// String returns the remote address for logging.
func (t *TCP) String() string {
	return "tcp:" + t.name
}

func (t *TCP) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

func (t *TCP) mapErr(err error, op string) error {
	if t.isClosed() || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return ErrClosed
	}
	return fmt.Errorf("tcp %s on %s: %w", op, t.name, err)
}
