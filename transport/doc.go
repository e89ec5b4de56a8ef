// Package transport carries raw gateway byte streams for the n2klink SDK.
//
// A gateway is reachable over several physical links (USB serial, plain
// TCP bridges, WebSocket bridges on WiFi gateways) that all deliver the
// same escape-stuffed stream. This package reduces them to one contract,
// Conn, that the session layer consumes without knowing the link type.
//
// # The Conn Contract
//
// Conn moves opaque byte blocks. Block boundaries carry no protocol
// meaning: a Receive may return half a frame, three frames, or anything
// between, and callers are expected to feed the blocks straight into a
// protocol.Parser, which reassembles frames regardless of how the link
// fragmented them.
//
// All blocking calls take a context. Cancellation abandons the call, not
// the connection; the next call on the same Conn proceeds normally.
//
// # Implementations
//
//	OpenSerial   USB serial adapters (NGT-1 style), via tarm/serial
//	DialTCP      TCP bridges exposing the raw stream on a port
//	DialWS       WebSocket bridges framing the stream in binary messages
//	Pipe         in-memory connected pair for tests
//
// # Errors
//
// A Conn used after Close returns ErrClosed; an orderly shutdown by the
// peer surfaces as io.EOF from Receive. Both carry the shared
// protocol.Error taxonomy, so session code can route them through the
// same error sink as decode failures:
//
//	if protocol.IsNotConnected(err) {
//	    // reconnect or give up
//	}
//
// # Thread Safety
//
// One concurrent Receive and one concurrent Send per Conn is the
// supported pattern (a read loop plus a writer). Multiple concurrent
// senders must serialize externally; gateway.Device does this for you.
package transport
