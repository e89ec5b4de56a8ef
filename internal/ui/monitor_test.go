package ui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/n2klink/protocol"
)

func testEvent(pgn uint32) Event {
	msg, err := protocol.NewN2KSend(pgn, 3, protocol.AddressGlobal, []byte{0x01})
	if err != nil {
		panic(err)
	}
	return Event{Time: time.Now(), Msg: msg}
}

func testErrorEvent() Event {
	return Event{
		Time: time.Now(),
		Err:  &protocol.Error{Kind: protocol.ChecksumMismatch, Message: "bad frame"},
	}
}

func TestMonitorCountsEvents(t *testing.T) {
	m := NewMonitorModel("/dev/ttyUSB0", NewFeed(), nil)

	updated, _ := m.Update(eventMsg{event: testEvent(129026)})
	m = updated.(MonitorModel)
	updated, _ = m.Update(eventMsg{event: testErrorEvent()})
	m = updated.(MonitorModel)

	if m.total != 2 {
		t.Errorf("total = %d, want 2", m.total)
	}
	if m.errCount != 1 {
		t.Errorf("errCount = %d, want 1", m.errCount)
	}
	if len(m.rows) != 2 {
		t.Errorf("rows = %d, want 2", len(m.rows))
	}
}

func TestMonitorPauseSkipsRows(t *testing.T) {
	m := NewMonitorModel("/dev/ttyUSB0", NewFeed(), nil)
	m.paused = true

	updated, _ := m.Update(eventMsg{event: testEvent(129026)})
	m = updated.(MonitorModel)

	if m.total != 1 {
		t.Errorf("total = %d, want 1 (paused events still count)", m.total)
	}
	if len(m.rows) != 0 {
		t.Errorf("rows = %d, want 0 (paused events not retained)", len(m.rows))
	}
}

func TestMonitorRowCap(t *testing.T) {
	m := NewMonitorModel("/dev/ttyUSB0", NewFeed(), nil)

	for i := 0; i < maxRows+50; i++ {
		updated, _ := m.Update(eventMsg{event: testEvent(129026)})
		m = updated.(MonitorModel)
	}

	if len(m.rows) != maxRows {
		t.Errorf("rows = %d, want cap %d", len(m.rows), maxRows)
	}
	if m.total != maxRows+50 {
		t.Errorf("total = %d, want %d", m.total, maxRows+50)
	}
}

func TestMonitorFeedClosed(t *testing.T) {
	m := NewMonitorModel("/dev/ttyUSB0", NewFeed(), nil)

	updated, _ := m.Update(feedClosedMsg{})
	m = updated.(MonitorModel)

	if !m.streamEnded {
		t.Error("streamEnded = false after feedClosedMsg")
	}
}

func TestMonitorVisibleRowsFilter(t *testing.T) {
	m := NewMonitorModel("/dev/ttyUSB0", NewFeed(), nil)
	m.rows = []Row{
		buildRow(testEvent(129026)),
		buildRow(testEvent(60928)),
		buildRow(testErrorEvent()),
		buildRow(testEvent(129026)),
	}

	if got := len(m.visibleRows()); got != 4 {
		t.Errorf("visibleRows() without filter = %d rows, want 4", got)
	}

	m.filterSet = true
	m.filterPGN = 129026

	visible := m.visibleRows()
	if len(visible) != 3 {
		t.Fatalf("visibleRows() with filter = %d rows, want 3", len(visible))
	}
	// Error rows pass any filter
	if !visible[1].IsError {
		t.Error("error row was filtered out")
	}
}

func TestMonitorFilterApply(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantSet   bool
		wantPGN   uint32
		wantOpen  bool
		wantError bool
	}{
		{name: "decimal PGN", input: "129026", wantSet: true, wantPGN: 129026},
		{name: "hex PGN", input: "0x1F802", wantSet: true, wantPGN: 129026},
		{name: "empty clears", input: "", wantSet: false},
		{name: "not a number", input: "banana", wantOpen: true, wantError: true},
		{name: "out of range", input: "0x40000", wantOpen: true, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMonitorModel("/dev/ttyUSB0", NewFeed(), nil)
			m.filterMode = true
			m.FilterInput.SetValue(tt.input)

			updated, _ := m.updateFilterMode(tea.KeyMsg{Type: tea.KeyEnter})
			m = updated.(MonitorModel)

			if m.filterSet != tt.wantSet {
				t.Errorf("filterSet = %v, want %v", m.filterSet, tt.wantSet)
			}
			if tt.wantSet && m.filterPGN != tt.wantPGN {
				t.Errorf("filterPGN = %d, want %d", m.filterPGN, tt.wantPGN)
			}
			if m.filterMode != tt.wantOpen {
				t.Errorf("filterMode = %v, want %v", m.filterMode, tt.wantOpen)
			}
			if tt.wantError && m.filterErr == "" {
				t.Error("filterErr is empty, want a parse error")
			}
		})
	}
}

func TestMonitorFilterCancel(t *testing.T) {
	m := NewMonitorModel("/dev/ttyUSB0", NewFeed(), nil)
	m.filterMode = true
	m.FilterInput.SetValue("999")

	updated, _ := m.updateFilterMode(tea.KeyMsg{Type: tea.KeyEsc})
	m = updated.(MonitorModel)

	if m.filterMode {
		t.Error("filterMode = true after cancel")
	}
	if m.filterSet {
		t.Error("filterSet = true after cancel without apply")
	}
}

func TestMonitorPauseKey(t *testing.T) {
	m := NewMonitorModel("/dev/ttyUSB0", NewFeed(), nil)

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("p")})
	m = updated.(MonitorModel)
	if !m.paused {
		t.Error("paused = false after pause key")
	}

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("p")})
	m = updated.(MonitorModel)
	if m.paused {
		t.Error("paused = true after second pause key")
	}
}

func TestMonitorQuitKey(t *testing.T) {
	m := NewMonitorModel("/dev/ttyUSB0", NewFeed(), nil)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("quit key produced no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("quit key command did not produce tea.QuitMsg")
	}
}

func TestMonitorClearKey(t *testing.T) {
	m := NewMonitorModel("/dev/ttyUSB0", NewFeed(), nil)
	m.rows = []Row{buildRow(testEvent(129026))}
	m.offset = 1

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")})
	m = updated.(MonitorModel)

	if len(m.rows) != 0 {
		t.Errorf("rows = %d after clear, want 0", len(m.rows))
	}
	if m.offset != 0 {
		t.Errorf("offset = %d after clear, want 0", m.offset)
	}
}

func TestMonitorClampOffset(t *testing.T) {
	m := NewMonitorModel("/dev/ttyUSB0", NewFeed(), nil)
	m.Height = 24 // body height 19

	for i := 0; i < 30; i++ {
		m.rows = append(m.rows, buildRow(testEvent(129026)))
	}

	tests := []struct {
		name     string
		offset   int
		expected int
	}{
		{name: "negative clamps to zero", offset: -3, expected: 0},
		{name: "within range", offset: 5, expected: 5},
		{name: "past history clamps to max", offset: 50, expected: 11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.clampOffset(tt.offset); got != tt.expected {
				t.Errorf("clampOffset(%d) = %d, want %d", tt.offset, got, tt.expected)
			}
		})
	}
}

func TestMonitorBodyHeight(t *testing.T) {
	m := NewMonitorModel("/dev/ttyUSB0", NewFeed(), nil)

	if got := m.bodyHeight(); got != 19 {
		t.Errorf("bodyHeight() with default height = %d, want 19", got)
	}

	m.filterMode = true
	if got := m.bodyHeight(); got != 18 {
		t.Errorf("bodyHeight() with filter line = %d, want 18", got)
	}

	m.filterMode = false
	m.Height = 6
	if got := m.bodyHeight(); got != 3 {
		t.Errorf("bodyHeight() with tiny terminal = %d, want minimum 3", got)
	}
}

func TestWaitForEvent(t *testing.T) {
	feed := NewFeed()
	feed.OnError(&protocol.Error{Kind: protocol.FrameTooLarge, Message: "too big"})

	msg := waitForEvent(feed)()
	ev, ok := msg.(eventMsg)
	if !ok {
		t.Fatalf("waitForEvent() produced %T, want eventMsg", msg)
	}
	if ev.event.Err == nil {
		t.Error("eventMsg carries no error")
	}

	feed.Close()
	if _, ok := waitForEvent(feed)().(feedClosedMsg); !ok {
		t.Error("waitForEvent() on closed feed did not produce feedClosedMsg")
	}
}

func TestHumanBytes(t *testing.T) {
	tests := []struct {
		name     string
		n        uint64
		expected string
	}{
		{name: "bytes", n: 512, expected: "512 B"},
		{name: "kibibytes", n: 2048, expected: "2.0 KiB"},
		{name: "mebibytes", n: 5 << 20, expected: "5.0 MiB"},
		{name: "zero", n: 0, expected: "0 B"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := humanBytes(tt.n); got != tt.expected {
				t.Errorf("humanBytes(%d) = %q, want %q", tt.n, got, tt.expected)
			}
		})
	}
}
