package transport

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// wsTestServer upgrades every request and hands the connection to serve.
func wsTestServer(t *testing.T, serve func(*websocket.Conn)) string {
	t.Helper()
	up := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		serve(conn)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWSSendReceive(t *testing.T) {
	url := wsTestServer(t, func(conn *websocket.Conn) {
		// A text message first; the transport must deliver binary only.
		_ = conn.WriteMessage(websocket.TextMessage, []byte("hello"))
		for {
			msgType, p, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := conn.WriteMessage(msgType, p); err != nil {
				return
			}
		}
	})

	ctx := context.Background()
	conn, err := DialWS(ctx, url)
	if err != nil {
		t.Fatalf("DialWS() error = %v", err)
	}
	defer conn.Close()

	payload := []byte{0x10, 0x02, 0x93, 0x06, 0x10, 0x03}
	n, err := conn.Send(ctx, payload)
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if n != len(payload) {
		t.Errorf("Send() = %d bytes, want %d", n, len(payload))
	}

	got, err := conn.Receive(ctx)
	if err != nil {
		t.Fatalf("Receive() error = %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("Receive() = % 02x, want % 02x", got, payload)
	}
}

func TestWSDrainThenEOF(t *testing.T) {
	url := wsTestServer(t, func(conn *websocket.Conn) {
		_ = conn.WriteMessage(websocket.BinaryMessage, []byte{0x0A, 0x0B, 0x0C})
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		// Wait for the client's close response before tearing down.
		_, _, _ = conn.ReadMessage()
	})

	ctx := context.Background()
	conn, err := DialWS(ctx, url)
	if err != nil {
		t.Fatalf("DialWS() error = %v", err)
	}
	defer conn.Close()

	got, err := conn.Receive(ctx)
	if err != nil {
		t.Fatalf("Receive() error = %v", err)
	}
	if !bytes.Equal(got, []byte{0x0A, 0x0B, 0x0C}) {
		t.Errorf("Receive() = % 02x", got)
	}

	if _, err := conn.Receive(ctx); err != io.EOF {
		t.Errorf("Receive() after close error = %v, want io.EOF", err)
	}
}

func TestWSClosedConn(t *testing.T) {
	url := wsTestServer(t, func(conn *websocket.Conn) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	ctx := context.Background()
	conn, err := DialWS(ctx, url)
	if err != nil {
		t.Fatalf("DialWS() error = %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}

	if _, err := conn.Send(ctx, []byte{0x01}); !errors.Is(err, ErrClosed) {
		t.Errorf("Send() after Close error = %v, want ErrClosed", err)
	}
	if _, err := conn.Receive(ctx); !errors.Is(err, ErrClosed) {
		t.Errorf("Receive() after Close error = %v, want ErrClosed", err)
	}
}

func TestWSReceiveContextCanceled(t *testing.T) {
	url := wsTestServer(t, func(conn *websocket.Conn) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	conn, err := DialWS(context.Background(), url)
	if err != nil {
		t.Fatalf("DialWS() error = %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := conn.Receive(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Receive() error = %v, want context.Canceled", err)
	}
}

func TestWSDialFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if _, err := DialWS(ctx, "ws://127.0.0.1:1/"); err == nil {
		t.Error("DialWS() to dead port succeeded, want error")
	}
}
