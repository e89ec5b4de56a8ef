// Package capture records gateway traffic to CBOR stream files and
// replays it.
//
// A capture file is a plain concatenation of CBOR-encoded Records, one
// per frame, in arrival order. Records hold the decoded frame body (the
// bytes between the stream envelope markers, unstuffed) plus a
// microsecond timestamp, so replays can reproduce the original pacing.
//
// Files are append-friendly and need no index or footer; a truncated
// file simply yields fewer records.
package capture
