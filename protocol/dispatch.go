package protocol

// ProtocolNMEA2000 is the protocol tag passed to message sinks. Gateways
// bridging other CAN application layers would introduce their own tags
// here.
const ProtocolNMEA2000 = "nmea2000"

// MessageFunc receives every successfully decoded message, tagged with
// the protocol name and the BST identifier it arrived under.
type MessageFunc func(protocol string, msgType byte, msg Message)

// ErrorFunc receives every framing, layout and transport failure.
type ErrorFunc func(err *Error)

// Parser is the full receive path for one connection: a StreamDecoder
// recovering frames and the BST codec turning them into typed messages,
// delivered to a pair of caller supplied sinks.
//
// Sinks fire zero or more times per Feed, in the exact order frames
// complete in the stream. A failure of any single frame is reported to
// the error sink and never stops decoding of the frames after it.
//
// Like StreamDecoder, a Parser is owned by one connection and is not
// safe for concurrent use. Serializing Feed calls is the transport
// loop's responsibility.
type Parser struct {
	dec       *StreamDecoder
	onMessage MessageFunc
	onError   ErrorFunc
}

// NewParser returns a Parser delivering to the given sinks. Either sink
// may be nil to discard that event class.
func NewParser(onMessage MessageFunc, onError ErrorFunc) *Parser {
	p := &Parser{
		onMessage: onMessage,
		onError:   onError,
	}
	p.dec = NewStreamDecoder(p.handleFrame, p.handleError)
	return p
}

// Feed consumes one chunk of the connection's byte stream. Chunk
// boundaries carry no meaning; feeding byte by byte or all at once
// produces identical sink calls.
func (p *Parser) Feed(chunk []byte) {
	p.dec.Feed(chunk)
}

// Reset discards any partially accumulated frame, resynchronizing the
// parser after a transport reconnect.
func (p *Parser) Reset() {
	p.dec.Reset()
}

func (p *Parser) handleFrame(body []byte) {
	msg, perr := parseMessage(body)
	if perr != nil {
		p.handleError(perr)
		return
	}
	if p.onMessage != nil {
		p.onMessage(ProtocolNMEA2000, msg.Type(), msg)
	}
}

func (p *Parser) handleError(err *Error) {
	if p.onError != nil {
		p.onError(err)
	}
}
