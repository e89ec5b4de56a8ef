package protocol

import (
	"errors"
	"fmt"
)

// ErrorKind classifies every failure the codec layers and transports
// report through the error sink.
type ErrorKind int

const (
	// ChecksumMismatch indicates a frame whose checksum byte does not
	// balance the body sum. The frame is dropped, the stream continues.
	ChecksumMismatch ErrorKind = iota
	// UnescapedControlByte indicates a lone DLE inside a frame body
	// followed by a byte the escaping rules never produce.
	UnescapedControlByte
	// FrameTooLarge indicates a frame body growing past MaxFrameBody
	// without a terminator.
	FrameTooLarge
	// UnknownMessageType indicates a verified frame whose identifier
	// byte matches no BST layout.
	UnknownMessageType
	// LayoutLengthMismatch indicates a frame whose embedded length
	// field disagrees with the bytes actually present.
	LayoutLengthMismatch
	// TransportNotConnected is surfaced on behalf of a transport that
	// was asked to send or receive while closed. The codec itself
	// never produces it.
	TransportNotConnected
)

// String returns a human-readable name for the error kind.
func (k ErrorKind) String() string {
	switch k {
	case ChecksumMismatch:
		return "checksum mismatch"
	case UnescapedControlByte:
		return "unescaped control byte"
	case FrameTooLarge:
		return "frame too large"
	case UnknownMessageType:
		return "unknown message type"
	case LayoutLengthMismatch:
		return "layout length mismatch"
	case TransportNotConnected:
		return "transport not connected"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Error is one decode or transport failure. Bytes holds an independent
// copy of the offending frame or fragment when one was available; it
// never aliases a decoder's internal buffer.
type Error struct {
	Kind    ErrorKind
	Message string
	Bytes   []byte
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Bytes != nil {
		return fmt.Sprintf("%s: %s (%d bytes)", e.Kind, e.Message, len(e.Bytes))
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func newError(kind ErrorKind, message string, offending []byte) *Error {
	e := &Error{Kind: kind, Message: message}
	if len(offending) > 0 {
		e.Bytes = append([]byte(nil), offending...)
	}
	return e
}

// NewTransportError wraps a transport failure in the shared taxonomy so
// transports can report through the same error sink as the codec.
func NewTransportError(message string) *Error {
	return &Error{Kind: TransportNotConnected, Message: message}
}

// KindOf extracts the taxonomy kind from any error produced by this
// package. The second result is false for foreign errors.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// IsChecksumMismatch reports whether err is a ChecksumMismatch failure.
func IsChecksumMismatch(err error) bool {
	k, ok := KindOf(err)
	return ok && k == ChecksumMismatch
}

// IsFramingError reports whether err comes from the frame layer, meaning
// the stream itself was corrupt rather than a single message layout.
func IsFramingError(err error) bool {
	k, ok := KindOf(err)
	return ok && (k == ChecksumMismatch || k == UnescapedControlByte || k == FrameTooLarge)
}

// IsLayoutError reports whether err comes from the message layer, where
// a verified frame carried an unusable BST record.
func IsLayoutError(err error) bool {
	k, ok := KindOf(err)
	return ok && (k == UnknownMessageType || k == LayoutLengthMismatch)
}

// IsNotConnected reports whether err is a transport connectivity failure.
func IsNotConnected(err error) bool {
	k, ok := KindOf(err)
	return ok && k == TransportNotConnected
}
