package ui

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/muurk/n2klink/protocol"
)

// feedBuffer bounds how far the monitor may fall behind the stream
// before events are dropped.
const feedBuffer = 256

// Event is one decode outcome delivered to the monitor. Exactly one of
// Msg and Err is set.
type Event struct {
	Time time.Time
	Msg  protocol.Message
	Err  *protocol.Error
}

// Feed bridges a gateway's callback sinks to the monitor's event channel.
// Its OnMessage and OnError methods match the gateway.Config sink
// signatures and never block: when the monitor falls behind, events are
// dropped and counted instead of stalling the receive loop.
type Feed struct {
	C         chan Event
	dropped   atomic.Uint64
	closeOnce sync.Once
}

// NewFeed creates a feed with the default buffer.
func NewFeed() *Feed {
	return &Feed{C: make(chan Event, feedBuffer)}
}

// OnMessage queues a decoded message. Matches protocol.MessageFunc.
func (f *Feed) OnMessage(proto string, msgType byte, msg protocol.Message) {
	f.push(Event{Time: time.Now(), Msg: msg})
}

// OnError queues a stream error. Matches protocol.ErrorFunc.
func (f *Feed) OnError(err *protocol.Error) {
	f.push(Event{Time: time.Now(), Err: err})
}

func (f *Feed) push(ev Event) {
	select {
	case f.C <- ev:
	default:
		f.dropped.Add(1)
	}
}

// Dropped returns how many events were discarded because the monitor
// could not keep up.
func (f *Feed) Dropped() uint64 {
	return f.dropped.Load()
}

// Close ends the feed, signalling the monitor that the stream is over.
// Call only after the producing receive loop has returned; pushing into
// a closed feed panics.
func (f *Feed) Close() {
	f.closeOnce.Do(func() { close(f.C) })
}
