package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/tarm/serial"

	"github.com/muurk/n2klink/internal/logging"
)

// DefaultBaud is the line rate NGT-1 style USB gateways ship with.
const DefaultBaud = 115200

// SerialConfig holds serial link configuration.
type SerialConfig struct {
	// Device path (e.g. "/dev/ttyUSB0", "COM3")
	Device string

	// Baud rate. Zero selects DefaultBaud.
	Baud int

	// ReadTimeout is the poll granularity for cancellable reads. Zero
	// selects a sane default. Smaller values make Receive react to
	// context cancellation faster at the cost of more wakeups.
	ReadTimeout time.Duration
}

// Serial is a Conn over a local serial device.
type Serial struct {
	device string
	port   *serial.Port
	buf    []byte

	mu     sync.Mutex
	closed bool
}

// OpenSerial opens the serial device described by cfg.
func OpenSerial(cfg SerialConfig) (*Serial, error) {
	if cfg.Device == "" {
		return nil, errors.New("serial device path is empty")
	}
	baud := cfg.Baud
	if baud == 0 {
		baud = DefaultBaud
	}
	timeout := cfg.ReadTimeout
	if timeout == 0 {
		timeout = pollInterval
	}

	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        baud,
		ReadTimeout: timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Device, err)
	}

	logging.LogConnection(cfg.Device, "opened")
	return &Serial{
		device: cfg.Device,
		port:   port,
		buf:    make([]byte, readBufferSize),
	}, nil
}

// Send writes p to the device. Serial writes cannot be interrupted once
// issued, so the context is only consulted before the write starts.
func (s *Serial) Send(ctx context.Context, p []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s.isClosed() {
		return 0, ErrClosed
	}

	n, err := s.port.Write(p)
	if err != nil {
		if s.isClosed() {
			return n, ErrClosed
		}
		return n, fmt.Errorf("serial write on %s: %w", s.device, err)
	}
	return n, nil
}

// Receive returns the next block of bytes from the device. The port is
// opened with a read timeout, so blocked reads wake up periodically to
// honor ctx.
func (s *Serial) Receive(ctx context.Context) ([]byte, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if s.isClosed() {
			return nil, ErrClosed
		}

		n, err := s.port.Read(s.buf)
		if n > 0 {
			return append([]byte(nil), s.buf[:n]...), nil
		}
		if err == nil || errors.Is(err, io.EOF) {
			// tarm reports a timed-out read with no data as io.EOF.
			continue
		}
		if s.isClosed() {
			return nil, ErrClosed
		}
		return nil, fmt.Errorf("serial read on %s: %w", s.device, err)
	}
}

// Close closes the serial device.
func (s *Serial) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	logging.LogConnection(s.device, "closed")
	return s.port.Close()
}

// String returns the device path for logging.
func (s *Serial) String() string {
	return "serial:" + s.device
}

func (s *Serial) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
