package capture

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/muurk/n2klink/protocol"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	base := time.UnixMicro(1700000000123456)
	records := []Record{
		{Time: base, Frame: []byte{0x95, 0x0E, 0x01, 0x20, 0x30, 0x02, 0xF8, 0x09}},
		{Time: base.Add(18 * time.Millisecond), Frame: []byte{0x93, 0x06, 0x02, 0x00, 0xEE, 0x00, 0xFF, 0x00}},
		{Time: base.Add(40 * time.Millisecond), Frame: nil},
	}

	var buf bytes.Buffer
	w := NewWriter(&buf)
	for i, rec := range records {
		if err := w.Append(rec); err != nil {
			t.Fatalf("Append(%d) error = %v", i, err)
		}
	}
	if w.Count() != len(records) {
		t.Errorf("Count() = %d, want %d", w.Count(), len(records))
	}

	r := NewReader(&buf)
	for i, want := range records {
		got, err := r.Next()
		if err != nil {
			t.Fatalf("Next(%d) error = %v", i, err)
		}
		if !bytes.Equal(got.Frame, want.Frame) {
			t.Errorf("record %d frame = % 02x, want % 02x", i, got.Frame, want.Frame)
		}
		if got.Time.UnixMicro() != want.Time.UnixMicro() {
			t.Errorf("record %d time = %d, want %d", i, got.Time.UnixMicro(), want.Time.UnixMicro())
		}
	}
	if _, err := r.Next(); err != io.EOF {
		t.Errorf("Next() past the end error = %v, want io.EOF", err)
	}
}

func TestCaptureFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bus.capture")

	w, err := Create(path)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := w.AppendFrame([]byte{0xD0, 0x01, 0x00, 0xFF, 0x23, 0x05, 0xF8, 0x0D, 0x00, 0x00, 0x00, 0x00, 0x00, 0xAA}); err != nil {
		t.Fatalf("AppendFrame() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer r.Close()

	rec, err := r.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if len(rec.Frame) != 14 || rec.Frame[0] != 0xD0 {
		t.Errorf("frame = % 02x", rec.Frame)
	}
	if rec.Time.IsZero() {
		t.Error("AppendFrame() did not stamp a time")
	}
	if _, err := r.Next(); err != io.EOF {
		t.Errorf("Next() past the end error = %v, want io.EOF", err)
	}
}

func TestReplayFullSpeed(t *testing.T) {
	frames := [][]byte{
		{0x95, 0x1E, 0x01, 0x20, 0x30, 0x02, 0xF8, 0x09, 0xFF, 0xFC, 0x37, 0x0A, 0x00, 0x10, 0xFF, 0xFF},
		{0x93, 0x06, 0x02, 0x00, 0xEE, 0x00, 0xFF, 0x00},
	}

	var buf bytes.Buffer
	w := NewWriter(&buf)
	base := time.UnixMicro(1700000000000000)
	for i, frame := range frames {
		rec := Record{Time: base.Add(time.Duration(i) * time.Hour), Frame: frame}
		if err := w.Append(rec); err != nil {
			t.Fatalf("Append(%d) error = %v", i, err)
		}
	}

	// Full speed replay ignores the recorded one hour gap.
	var fed [][]byte
	start := time.Now()
	n, err := Replay(context.Background(), NewReader(&buf), func(wire []byte) {
		fed = append(fed, wire)
	}, false)
	if err != nil {
		t.Fatalf("Replay() error = %v", err)
	}
	if n != len(frames) {
		t.Fatalf("Replay() fed %d frames, want %d", n, len(frames))
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("full speed Replay() took %v", elapsed)
	}

	// Each fed chunk is the frame in a fresh envelope.
	for i, wire := range fed {
		body, err := protocol.DecodeFrame(wire)
		if err != nil {
			t.Fatalf("DecodeFrame(%d) error = %v", i, err)
		}
		if !bytes.Equal(body, frames[i]) {
			t.Errorf("replayed frame %d = % 02x, want % 02x", i, body, frames[i])
		}
	}
}

func TestReplayRealtimePacing(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	base := time.UnixMicro(1700000000000000)
	for i := 0; i < 3; i++ {
		rec := Record{Time: base.Add(time.Duration(i) * 20 * time.Millisecond), Frame: []byte{0x93, 0x06, 0x02, 0x00, 0xEE, 0x00, 0xFF, 0x00}}
		if err := w.Append(rec); err != nil {
			t.Fatalf("Append(%d) error = %v", i, err)
		}
	}

	start := time.Now()
	n, err := Replay(context.Background(), NewReader(&buf), func([]byte) {}, true)
	if err != nil {
		t.Fatalf("Replay() error = %v", err)
	}
	if n != 3 {
		t.Fatalf("Replay() fed %d frames, want 3", n)
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("realtime Replay() took %v, want at least the recorded 40ms", elapsed)
	}
}

func TestReplayCanceled(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	base := time.UnixMicro(1700000000000000)
	for i := 0; i < 2; i++ {
		rec := Record{Time: base.Add(time.Duration(i) * time.Hour), Frame: []byte{0x93, 0x06, 0x02, 0x00, 0xEE, 0x00, 0xFF, 0x00}}
		if err := w.Append(rec); err != nil {
			t.Fatalf("Append(%d) error = %v", i, err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	n, err := Replay(ctx, NewReader(&buf), func([]byte) {}, true)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Replay() error = %v, want context.DeadlineExceeded", err)
	}
	if n != 1 {
		t.Errorf("Replay() fed %d frames before cancellation, want 1", n)
	}
}

func TestReplayOversizedRecord(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	rec := Record{Time: time.UnixMicro(1700000000000000), Frame: make([]byte, protocol.MaxFrameBody+1)}
	if err := w.Append(rec); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	n, err := Replay(context.Background(), NewReader(&buf), func([]byte) {}, false)
	if err == nil {
		t.Fatal("Replay() with an oversized record succeeded, want error")
	}
	if n != 0 {
		t.Errorf("Replay() fed %d frames, want 0", n)
	}
}
