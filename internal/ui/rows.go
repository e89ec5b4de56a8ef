package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/muurk/n2klink/protocol"
)

// Row is one rendered line of the monitor: a decoded message or a
// stream error, reduced to displayable columns.
type Row struct {
	Time     time.Time
	IsError  bool
	Label    string // message type name or error kind
	PGN      uint32
	Source   string // "-" where the layout has no source byte
	Dest     string
	Priority string
	Tx       bool   // transmit direction (host to bus)
	Data     []byte // payload bytes, hex-dumped in the data column
	Detail   string // error text for error rows
}

// buildRow flattens an event into monitor columns.
func buildRow(ev Event) Row {
	if ev.Err != nil {
		return Row{
			Time:    ev.Time,
			IsError: true,
			Label:   ev.Err.Kind.String(),
			Detail:  ev.Err.Message,
		}
	}

	row := Row{
		Time:  ev.Time,
		Label: protocol.GetMessageTypeName(ev.Msg.Type()),
		PGN:   ev.Msg.PGN(),
	}

	switch msg := ev.Msg.(type) {
	case *protocol.N2KReceiveMessage:
		row.Source = "-"
		row.Dest = formatAddr(msg.Destination)
		row.Priority = fmt.Sprintf("%d", msg.Priority)
		row.Data = msg.Data

	case *protocol.N2KSendMessage:
		row.Source = "host"
		row.Dest = formatAddr(msg.Destination)
		row.Priority = fmt.Sprintf("%d", msg.Priority)
		row.Tx = true
		row.Data = msg.Data

	case *protocol.CANFrameMessage:
		row.Source = formatAddr(msg.Source)
		row.Dest = formatAddr(msg.Destination())
		row.Priority = fmt.Sprintf("%d", msg.Priority)
		row.Tx = msg.Direction == protocol.DirectionTransmitted
		row.Data = msg.Data

	case *protocol.N2KDataMessage:
		row.Source = formatAddr(msg.Source)
		row.Dest = formatAddr(msg.Destination)
		row.Priority = fmt.Sprintf("%d", msg.Priority)
		row.Data = msg.Data
	}

	return row
}

// formatAddr renders a bus address, with the broadcast address as "all".
func formatAddr(addr byte) string {
	if addr == protocol.AddressGlobal {
		return "all"
	}
	return fmt.Sprintf("%02x", addr)
}

// render formats the row into one fixed-width line. dataWidth is how
// many characters remain for the hex payload column.
func (r Row) render(dataWidth int) string {
	stamp := RowTimeStyle.Render(r.Time.Format("15:04:05.000"))

	if r.IsError {
		text := fmt.Sprintf("%-14s %s", r.Label, r.Detail)
		return fmt.Sprintf("%s  %s", stamp, RowErrorStyle.Render(clip(text, dataWidth+42)))
	}

	label := r.Label
	if r.Tx {
		label = RowTxStyle.Render(fmt.Sprintf("%-14s", label))
	} else {
		label = fmt.Sprintf("%-14s", label)
	}

	pgn := RowPGNStyle.Render(fmt.Sprintf("%6d", r.PGN))
	route := fmt.Sprintf("%4s→%-4s", r.Source, r.Dest)

	return fmt.Sprintf("%s  %s %s  %s p%s  %s",
		stamp, label, pgn, route, r.Priority, clip(hexBytes(r.Data), dataWidth))
}

// hexBytes renders a payload as space-separated hex pairs.
func hexBytes(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	var b strings.Builder
	for i, v := range data {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%02x", v)
	}
	return b.String()
}

// clip truncates s to width runes, marking the cut with an ellipsis.
func clip(s string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(runes[:width-1]) + "…"
}
