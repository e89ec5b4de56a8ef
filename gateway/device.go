package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/muurk/n2klink/internal/logging"
	"github.com/muurk/n2klink/protocol"
	"github.com/muurk/n2klink/transport"
)

// Config describes a gateway session.
type Config struct {
	// Conn is the transport carrying the gateway byte stream. Required.
	// The Device takes ownership; Device.Close closes it.
	Conn transport.Conn

	// OnMessage receives every decoded message. May be nil.
	OnMessage protocol.MessageFunc

	// OnError receives every recoverable stream error. May be nil.
	OnError protocol.ErrorFunc
}

// Stats are cumulative counters for one session. All fields are totals
// since the Device was created.
type Stats struct {
	BytesReceived uint64
	BytesSent     uint64
	Messages      uint64
	Errors        uint64
}

// Device is one live gateway session: a transport connection plus the
// parser decoding its stream.
type Device struct {
	conn   transport.Conn
	parser *protocol.Parser
	name   string

	onMessage protocol.MessageFunc
	onError   protocol.ErrorFunc

	bytesReceived atomic.Uint64
	bytesSent     atomic.Uint64
	messages      atomic.Uint64
	streamErrors  atomic.Uint64

	sendMu sync.Mutex

	mu     sync.Mutex
	closed bool
}

// New creates a Device over an established connection.
func New(cfg Config) (*Device, error) {
	if cfg.Conn == nil {
		return nil, errors.New("gateway: transport connection is required")
	}
	d := &Device{
		conn:      cfg.Conn,
		name:      connName(cfg.Conn),
		onMessage: cfg.OnMessage,
		onError:   cfg.OnError,
	}
	d.parser = protocol.NewParser(d.handleMessage, d.handleError)
	return d, nil
}

// Run is the session receive loop. It blocks feeding transport blocks to
// the parser until the context ends, the peer shuts the stream down, or
// the link fails. Orderly endings (EOF, local Close, cancellation after
// Close) return nil; context cancellation returns the context's error;
// anything else is a link failure.
//
// Run is meant to be called once per Device, typically on its own
// goroutine.
func (d *Device) Run(ctx context.Context) error {
	logging.Info("Gateway session started", zap.String("transport", d.name))
	defer logging.Info("Gateway session ended", zap.String("transport", d.name))

	for {
		chunk, err := d.conn.Receive(ctx)
		if len(chunk) > 0 {
			d.bytesReceived.Add(uint64(len(chunk)))
			d.parser.Feed(chunk)
		}
		if err == nil {
			continue
		}

		switch {
		case errors.Is(err, io.EOF):
			return nil
		case errors.Is(err, transport.ErrClosed) && d.isClosed():
			return nil
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			if d.isClosed() {
				return nil
			}
			return err
		default:
			return fmt.Errorf("gateway receive on %s: %w", d.name, err)
		}
	}
}

// Send encodes msg and writes it to the gateway. Safe for concurrent
// use; sends are serialized on the connection.
func (d *Device) Send(ctx context.Context, msg protocol.Message) error {
	body, err := protocol.EncodeMessage(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	return d.sendBody(ctx, body)
}

// SendRaw writes an already encoded BST body to the gateway, wrapped in
// a fresh stream envelope. Replay tooling uses this to resend captured
// frames byte for byte.
func (d *Device) SendRaw(ctx context.Context, body []byte) error {
	return d.sendBody(ctx, body)
}

func (d *Device) sendBody(ctx context.Context, body []byte) error {
	wire, err := protocol.EncodeFrame(body)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}

	d.sendMu.Lock()
	defer d.sendMu.Unlock()
	if d.isClosed() {
		return transport.ErrClosed
	}

	n, err := d.conn.Send(ctx, wire)
	d.bytesSent.Add(uint64(n))
	if err != nil {
		return fmt.Errorf("send frame on %s: %w", d.name, err)
	}
	logging.LogFrame("tx", body)
	return nil
}

// Stats returns a snapshot of the session counters.
func (d *Device) Stats() Stats {
	return Stats{
		BytesReceived: d.bytesReceived.Load(),
		BytesSent:     d.bytesSent.Load(),
		Messages:      d.messages.Load(),
		Errors:        d.streamErrors.Load(),
	}
}

// Close ends the session and closes the connection. A blocked Run
// returns nil once Close completes.
func (d *Device) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()
	return d.conn.Close()
}

func (d *Device) isClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

func (d *Device) handleMessage(proto string, msgType byte, msg protocol.Message) {
	d.messages.Add(1)
	logging.Debug("Decoded message",
		zap.String("transport", d.name),
		zap.String("protocol", proto),
		zap.String("type", protocol.GetMessageTypeName(msgType)),
		zap.String("message", msg.String()),
	)
	if d.onMessage != nil {
		d.onMessage(proto, msgType, msg)
	}
}

func (d *Device) handleError(err *protocol.Error) {
	d.streamErrors.Add(1)
	logging.Warn("Stream error",
		zap.String("transport", d.name),
		zap.String("kind", err.Kind.String()),
		zap.Error(err),
	)
	if d.onError != nil {
		d.onError(err)
	}
}

// connName names the transport for log fields.
func connName(c transport.Conn) string {
	if s, ok := c.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", c)
}
