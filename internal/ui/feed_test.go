package ui

import (
	"testing"

	"github.com/muurk/n2klink/protocol"
)

func TestFeedDeliversMessages(t *testing.T) {
	feed := NewFeed()

	msg := &protocol.N2KReceiveMessage{PDUFormat: 0xF8, DataPage: 0x01}
	feed.OnMessage(protocol.ProtocolNMEA2000, protocol.MsgTypeN2KReceive, msg)

	ev := <-feed.C
	if ev.Msg != msg {
		t.Errorf("event Msg = %v, want the pushed message", ev.Msg)
	}
	if ev.Err != nil {
		t.Errorf("event Err = %v, want nil", ev.Err)
	}
	if ev.Time.IsZero() {
		t.Error("event Time is zero")
	}
}

func TestFeedDeliversErrors(t *testing.T) {
	feed := NewFeed()

	perr := &protocol.Error{Kind: protocol.ChecksumMismatch, Message: "bad frame"}
	feed.OnError(perr)

	ev := <-feed.C
	if ev.Err != perr {
		t.Errorf("event Err = %v, want the pushed error", ev.Err)
	}
	if ev.Msg != nil {
		t.Errorf("event Msg = %v, want nil", ev.Msg)
	}
}

func TestFeedDropsWhenFull(t *testing.T) {
	feed := NewFeed()

	msg := &protocol.N2KReceiveMessage{PDUFormat: 0xF8}
	for i := 0; i < feedBuffer+3; i++ {
		feed.OnMessage(protocol.ProtocolNMEA2000, protocol.MsgTypeN2KReceive, msg)
	}

	if got := feed.Dropped(); got != 3 {
		t.Errorf("Dropped() = %d, want 3", got)
	}

	// The buffer still holds the first feedBuffer events
	delivered := 0
	for len(feed.C) > 0 {
		<-feed.C
		delivered++
	}
	if delivered != feedBuffer {
		t.Errorf("delivered %d events, want %d", delivered, feedBuffer)
	}
}

func TestFeedClose(t *testing.T) {
	feed := NewFeed()

	feed.Close()
	feed.Close() // second close must not panic

	if _, ok := <-feed.C; ok {
		t.Error("receive from closed feed reported ok = true")
	}
}
