package transport

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/muurk/n2klink/protocol"
)

func TestPipeRoundTrip(t *testing.T) {
	a, b := Pipe()
	defer a.Close()
	defer b.Close()

	ctx := context.Background()
	blocks := [][]byte{
		{0x10, 0x02, 0x95},
		{},
		{0xFF},
		bytes.Repeat([]byte{0xAA}, 1024),
	}

	for i, block := range blocks {
		n, err := a.Send(ctx, block)
		if err != nil {
			t.Fatalf("Send(%d) error = %v", i, err)
		}
		if n != len(block) {
			t.Fatalf("Send(%d) = %d bytes, want %d", i, n, len(block))
		}
	}

	// Block boundaries survive the pipe.
	for i, want := range blocks {
		got, err := b.Receive(ctx)
		if err != nil {
			t.Fatalf("Receive(%d) error = %v", i, err)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("Receive(%d) = % 02x, want % 02x", i, got, want)
		}
	}

	// And it works in the other direction too.
	if _, err := b.Send(ctx, []byte{0x01}); err != nil {
		t.Fatalf("reverse Send() error = %v", err)
	}
	got, err := a.Receive(ctx)
	if err != nil {
		t.Fatalf("reverse Receive() error = %v", err)
	}
	if !bytes.Equal(got, []byte{0x01}) {
		t.Errorf("reverse Receive() = % 02x", got)
	}
}

func TestPipeOwnedBlocks(t *testing.T) {
	a, b := Pipe()
	defer a.Close()
	defer b.Close()

	ctx := context.Background()
	block := []byte{0x01, 0x02, 0x03}
	if _, err := a.Send(ctx, block); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	block[0] = 0xFF

	got, err := b.Receive(ctx)
	if err != nil {
		t.Fatalf("Receive() error = %v", err)
	}
	if got[0] != 0x01 {
		t.Errorf("received block aliases the sender's buffer: % 02x", got)
	}
}

func TestPipeCloseDrain(t *testing.T) {
	a, b := Pipe()
	defer b.Close()

	ctx := context.Background()
	for i := byte(0); i < 3; i++ {
		if _, err := a.Send(ctx, []byte{i}); err != nil {
			t.Fatalf("Send(%d) error = %v", i, err)
		}
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// Buffered blocks drain before the EOF.
	for i := byte(0); i < 3; i++ {
		got, err := b.Receive(ctx)
		if err != nil {
			t.Fatalf("Receive(%d) error = %v", i, err)
		}
		if len(got) != 1 || got[0] != i {
			t.Errorf("Receive(%d) = % 02x", i, got)
		}
	}

	if _, err := b.Receive(ctx); err != io.EOF {
		t.Errorf("Receive() after drain error = %v, want io.EOF", err)
	}
}

func TestPipeClosedEnd(t *testing.T) {
	a, b := Pipe()
	defer b.Close()

	if err := a.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}

	ctx := context.Background()
	if _, err := a.Send(ctx, []byte{0x01}); !errors.Is(err, ErrClosed) {
		t.Errorf("Send() after Close error = %v, want ErrClosed", err)
	}
	if _, err := a.Receive(ctx); !errors.Is(err, ErrClosed) {
		t.Errorf("Receive() after Close error = %v, want ErrClosed", err)
	}
	if _, err := b.Send(ctx, []byte{0x01}); !errors.Is(err, ErrClosed) {
		t.Errorf("Send() to closed peer error = %v, want ErrClosed", err)
	}

	// Closed-transport failures travel in the shared taxonomy.
	_, err := a.Send(ctx, []byte{0x01})
	if !protocol.IsNotConnected(err) {
		t.Errorf("IsNotConnected(%v) = false, want true", err)
	}
}

func TestPipeContextCancel(t *testing.T) {
	a, b := Pipe()
	defer a.Close()
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := b.Receive(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Receive() error = %v, want context.Canceled", err)
	}

	// Fill the pipe, then a canceled Send must not block.
	for i := 0; i < pipeDepth; i++ {
		if _, err := a.Send(context.Background(), []byte{0x00}); err != nil {
			t.Fatalf("fill Send(%d) error = %v", i, err)
		}
	}
	if _, err := a.Send(ctx, []byte{0x00}); !errors.Is(err, context.Canceled) {
		t.Errorf("Send() on full pipe error = %v, want context.Canceled", err)
	}
}

func TestPipeReceiveUnblocksOnCancel(t *testing.T) {
	a, b := Pipe()
	defer a.Close()
	defer b.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := b.Receive(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Receive() error = %v, want context.DeadlineExceeded", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Receive() blocked %v past its deadline", elapsed)
	}
}
