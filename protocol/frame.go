// Package protocol implements the binary framing and message codec spoken
// by Actisense style NMEA 2000 gateways.
//
// Bytes from a gateway arrive as an arbitrarily chunked stream of DLE
// escaped frames (the BDTP envelope). A StreamDecoder recovers and
// checksum-verifies individual frame bodies, ParseMessage interprets a
// body as one of the BST record layouts, and Parser glues both layers to
// caller supplied sinks. Encoding is the mirror path through EncodeMessage
// and EncodeFrame.
package protocol

import "fmt"

// BDTP control bytes. A frame on the wire is
//
//	DLE STX <data block> <checksum> DLE ETX
//
// where every literal 0x10 inside the data block or checksum is doubled.
const (
	DLE = 0x10 // data link escape
	STX = 0x02 // start of text
	ETX = 0x03 // end of text
)

// MaxFrameBody is the largest unescaped frame body the decoder accepts:
// the 13-byte BST D0 header plus the 1785-byte assembled payload limit.
// A stream that keeps growing a frame past this bound is corrupt and is
// cut off rather than buffered forever.
const MaxFrameBody = 13 + MaxN2KData

// Checksum returns the byte that makes the data block sum to zero mod 256.
func Checksum(body []byte) byte {
	var sum byte
	for _, b := range body {
		sum += b
	}
	return -sum
}

// Decoder states. The escape states exist because a DLE only means
// something in combination with the byte after it, and that byte may
// arrive in a later chunk.
type decodeState int

const (
	stateScan   decodeState = iota // outside a frame, hunting for DLE STX
	stateStart                     // saw DLE outside a frame, STX would open a body
	stateBody                      // inside a frame body
	stateEscape                    // saw DLE inside a body
)

// StreamDecoder recovers BDTP frames from a byte stream one connection
// delivers in arbitrary chunks. Feed may be called with a single byte or
// the whole capture at once; chunk boundaries carry no meaning. The
// decoder owns its accumulation buffer and hands out an independent copy
// of every completed frame body, so callers may retain frames freely.
//
// A StreamDecoder is not safe for concurrent use. One logical connection
// owns exactly one instance.
type StreamDecoder struct {
	state   decodeState
	buf     []byte
	onFrame func(body []byte)
	onError ErrorFunc
}

// NewStreamDecoder returns a decoder delivering completed frame bodies to
// onFrame and framing failures to onError, in the exact order they occur
// in the stream. Either callback may be nil to discard that event class.
func NewStreamDecoder(onFrame func(body []byte), onError ErrorFunc) *StreamDecoder {
	return &StreamDecoder{
		onFrame: onFrame,
		onError: onError,
	}
}

// Reset discards any partially accumulated frame and returns the decoder
// to scanning. Use it after reopening a transport whose stream position
// is no longer continuous with what was fed before.
func (d *StreamDecoder) Reset() {
	d.state = stateScan
	d.buf = d.buf[:0]
}

// Feed consumes one chunk of the stream, invoking the callbacks zero or
// more times. Failures never stop the decoder; after every error it
// resynchronizes by scanning forward for the next DLE STX.
func (d *StreamDecoder) Feed(chunk []byte) {
	for _, b := range chunk {
		d.step(b)
	}
}

func (d *StreamDecoder) step(b byte) {
	switch d.state {
	case stateScan:
		if b == DLE {
			d.state = stateStart
		}

	case stateStart:
		switch b {
		case STX:
			d.buf = d.buf[:0]
			d.state = stateBody
		case DLE:
			// Still armed: this DLE could pair with the next byte.
		default:
			d.state = stateScan
		}

	case stateBody:
		if b == DLE {
			d.state = stateEscape
			return
		}
		d.accumulate(b)

	case stateEscape:
		switch b {
		case DLE:
			// Stuffed escape, collapses to one literal DLE.
			d.state = stateBody
			d.accumulate(DLE)
		case ETX:
			d.complete()
			d.state = stateScan
		default:
			// A control sequence the escaping rules never produce.
			// The frame in progress is corrupt; drop it and resync.
			d.fail(UnescapedControlByte,
				fmt.Sprintf("unescaped DLE followed by 0x%02x inside frame body", b))
		}
	}
}

// accumulate appends one unescaped byte, enforcing the body bound. The
// buffer holds the body plus its trailing checksum byte, hence the +1.
func (d *StreamDecoder) accumulate(b byte) {
	if len(d.buf) >= MaxFrameBody+1 {
		d.fail(FrameTooLarge,
			fmt.Sprintf("frame exceeds %d byte limit without terminator", MaxFrameBody))
		return
	}
	d.buf = append(d.buf, b)
}

// complete verifies and emits the frame accumulated so far. The last
// buffered byte is the checksum; everything before it is the body.
func (d *StreamDecoder) complete() {
	n := len(d.buf)
	if n == 0 {
		d.emitError(newError(ChecksumMismatch, "frame ended before checksum byte", nil))
		return
	}
	if Checksum(d.buf) != 0 {
		// Checksum(body || checksum byte) is zero exactly when the
		// trailing byte balances the body sum.
		d.emitError(newError(ChecksumMismatch,
			fmt.Sprintf("frame checksum 0x%02x does not balance body sum", d.buf[n-1]),
			d.buf[:n-1]))
		return
	}
	if d.onFrame != nil {
		body := make([]byte, n-1)
		copy(body, d.buf[:n-1])
		d.onFrame(body)
	}
}

func (d *StreamDecoder) fail(kind ErrorKind, message string) {
	d.emitError(newError(kind, message, d.buf))
	d.state = stateScan
	d.buf = d.buf[:0]
}

func (d *StreamDecoder) emitError(err *Error) {
	if d.onError != nil {
		d.onError(err)
	}
}

// EncodeFrame wraps a raw frame body in a BDTP envelope: checksum
// appended, every DLE doubled, DLE STX / DLE ETX delimiters around it.
// The result is ready to hand to a transport as-is.
func EncodeFrame(body []byte) ([]byte, error) {
	if len(body) > MaxFrameBody {
		return nil, newError(FrameTooLarge,
			fmt.Sprintf("body is %d bytes, limit %d", len(body), MaxFrameBody), nil)
	}

	// Worst case every byte is a DLE: doubled body, doubled checksum,
	// four delimiter bytes.
	out := make([]byte, 0, 2*len(body)+6)
	out = append(out, DLE, STX)
	for _, b := range body {
		if b == DLE {
			out = append(out, DLE)
		}
		out = append(out, b)
	}
	sum := Checksum(body)
	if sum == DLE {
		out = append(out, DLE)
	}
	out = append(out, sum, DLE, ETX)
	return out, nil
}

// DecodeFrame unwraps exactly one complete BDTP envelope and returns the
// verified body. It is the strict one-shot inverse of EncodeFrame, useful
// for validating outgoing frames and for tests; streaming input belongs
// to StreamDecoder instead.
func DecodeFrame(frame []byte) ([]byte, error) {
	if len(frame) < 5 {
		return nil, newError(ChecksumMismatch,
			fmt.Sprintf("frame too short: %d bytes (minimum 5)", len(frame)), frame)
	}
	if frame[0] != DLE || frame[1] != STX {
		return nil, newError(UnescapedControlByte, "frame does not start with DLE STX", frame)
	}
	if frame[len(frame)-2] != DLE || frame[len(frame)-1] != ETX {
		return nil, newError(UnescapedControlByte, "frame does not end with DLE ETX", frame)
	}

	var bodies [][]byte
	var firstErr *Error
	dec := NewStreamDecoder(
		func(b []byte) { bodies = append(bodies, b) },
		func(e *Error) {
			if firstErr == nil {
				firstErr = e
			}
		},
	)
	dec.Feed(frame)
	if firstErr != nil {
		return nil, firstErr
	}
	if len(bodies) != 1 {
		return nil, newError(UnescapedControlByte, "frame is not one complete envelope", frame)
	}
	return bodies[0], nil
}
