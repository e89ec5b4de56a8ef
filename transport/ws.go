package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/muurk/n2klink/internal/logging"
)

// WS is a Conn over a WebSocket, for WiFi gateways that bridge the byte
// stream inside binary messages. Each binary message is delivered as one
// Receive block; text and control messages are handled internally.
type WS struct {
	conn *websocket.Conn
	url  string

	frames  chan []byte
	done    chan struct{} // closed when the read pump exits
	closing chan struct{} // closed when Close is requested

	closeOnce sync.Once
	closeErr  error

	mu      sync.Mutex
	readErr error
}

// DialWS connects to a WebSocket bridge at url (ws:// or wss://).
func DialWS(ctx context.Context, url string) (*WS, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", url, err)
	}

	logging.LogConnection(url, "opened")
	w := &WS{
		conn:    conn,
		url:     url,
		frames:  make(chan []byte, 64),
		done:    make(chan struct{}),
		closing: make(chan struct{}),
	}
	go w.readPump()
	return w, nil
}

// readPump is the sole reader of the underlying connection. gorilla
// connections do not survive read deadlines, so cancellation is handled
// by Receive selecting on channels instead of deadline polling.
func (w *WS) readPump() {
	defer close(w.done)
	for {
		msgType, p, err := w.conn.ReadMessage()
		if err != nil {
			w.mu.Lock()
			w.readErr = err
			w.mu.Unlock()
			return
		}
		if msgType != websocket.BinaryMessage {
			continue
		}
		select {
		case w.frames <- p:
		case <-w.closing:
			return
		}
	}
}

// Send writes p as one binary message.
func (w *WS) Send(ctx context.Context, p []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	select {
	case <-w.closing:
		return 0, ErrClosed
	default:
	}

	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := w.conn.SetWriteDeadline(deadline); err != nil {
		return 0, fmt.Errorf("websocket set write deadline on %s: %w", w.url, err)
	}

	if err := w.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		if errors.Is(err, net.ErrClosed) || websocket.IsUnexpectedCloseError(err) {
			return 0, ErrClosed
		}
		return 0, fmt.Errorf("websocket write to %s: %w", w.url, err)
	}
	return len(p), nil
}

// Receive returns the payload of the next binary message.
func (w *WS) Receive(ctx context.Context) ([]byte, error) {
	// Drain buffered messages before consulting termination channels.
	select {
	case p := <-w.frames:
		return p, nil
	default:
	}

	select {
	case p := <-w.frames:
		return p, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-w.done:
		// The pump may have delivered messages right before failing.
		select {
		case p := <-w.frames:
			return p, nil
		default:
		}
		return nil, w.failure()
	}
}

// Close sends a close message best effort and tears the connection down.
func (w *WS) Close() error {
	w.closeOnce.Do(func() {
		close(w.closing)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = w.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		w.closeErr = w.conn.Close()
		logging.LogConnection(w.url, "closed")
	})
	return w.closeErr
}

// String returns the bridge URL for logging.
func (w *WS) String() string {
	return "ws:" + w.url
}

// failure maps the pump's terminal error to the Conn contract.
func (w *WS) failure() error {
	select {
	case <-w.closing:
		return ErrClosed
	default:
	}

	w.mu.Lock()
	err := w.readErr
	w.mu.Unlock()

	switch {
	case err == nil:
		return ErrClosed
	case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway):
		return io.EOF
	case errors.Is(err, net.ErrClosed):
		return ErrClosed
	default:
		return fmt.Errorf("websocket read from %s: %w", w.url, err)
	}
}
