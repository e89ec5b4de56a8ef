package protocol

import (
	"encoding/binary"
	"fmt"
	"time"
)

// BST record identifiers carried as the first byte of every frame body.
const (
	MsgTypeN2KReceive = 0x93 // NMEA 2000 message received by the gateway
	MsgTypeN2KSend    = 0x94 // NMEA 2000 transmit request to the gateway
	MsgTypeCANFrame   = 0x95 // raw CAN frame with bus timestamp
	MsgTypeN2KData    = 0xD0 // assembled N2K datagram, up to 1785 payload bytes
)

// Payload size limits per layout.
const (
	// MaxCANData is the raw CAN frame payload limit.
	MaxCANData = 8
	// MaxNGTData is the 0x93/0x94 payload limit: the length byte covers
	// six header bytes plus the data, so data caps at 255-6.
	MaxNGTData = 249
	// MaxN2KData is the assembled multi-packet (ISO-TP) payload limit
	// for 0xD0 records.
	MaxN2KData = 1785
)

// Message is one decoded BST record. The concrete types are
// N2KReceiveMessage, N2KSendMessage, CANFrameMessage and N2KDataMessage;
// the set is closed. Frames with an unrecognized identifier surface as
// UnknownMessageType errors, never as a message value, so a type switch
// over these four cases plus a default is exhaustive.
type Message interface {
	Type() byte
	PGN() uint32
	String() string

	// encodeBody serializes the record into its raw BST layout. Being
	// unexported it also restricts implementations to this package.
	encodeBody() ([]byte, error)
}

// TimeResolution selects the tick unit of a CAN frame bus timestamp.
// The 16-bit counter rolls over every 65536 ticks.
type TimeResolution byte

const (
	Resolution1ms TimeResolution = iota
	Resolution100us
	Resolution10us
	Resolution1us
)

// Duration returns the length of one timestamp tick.
func (r TimeResolution) Duration() time.Duration {
	switch r {
	case Resolution100us:
		return 100 * time.Microsecond
	case Resolution10us:
		return 10 * time.Microsecond
	case Resolution1us:
		return time.Microsecond
	default:
		return time.Millisecond
	}
}

// Rollover returns the period after which the timestamp counter wraps.
func (r TimeResolution) Rollover() time.Duration {
	return time.Duration(1<<16) * r.Duration()
}

// String returns the tick unit name.
func (r TimeResolution) String() string {
	switch r {
	case Resolution100us:
		return "100µs"
	case Resolution10us:
		return "10µs"
	case Resolution1us:
		return "1µs"
	default:
		return "1ms"
	}
}

// Direction reports which way a CAN frame crossed the gateway.
type Direction byte

const (
	DirectionReceived    Direction = 0 // bus to host
	DirectionTransmitted Direction = 1 // host to bus
)

// String returns "rx" or "tx".
func (d Direction) String() string {
	if d == DirectionTransmitted {
		return "tx"
	}
	return "rx"
}

// N2KReceiveMessage (type 0x93) is an NMEA 2000 message the gateway
// received from the bus and forwarded to the host.
//
// Layout: ID, L, P, PDUS, PDUF, DP, D, DL, data. L must equal 6+DL and
// DL must match the data bytes present; both are checked on decode.
type N2KReceiveMessage struct {
	Priority    byte   // [2] bits 0-2
	PDUSpecific byte   // [3] folds into the PGN for PDU2 groups
	PDUFormat   byte   // [4]
	DataPage    byte   // [5] bits 0-1
	Destination byte   // [6]
	Data        []byte // [8..] 0..249 bytes, length byte at [7]
}

func (m *N2KReceiveMessage) Type() byte { return MsgTypeN2KReceive }

// PGN returns the Parameter Group Number of the received message.
func (m *N2KReceiveMessage) PGN() uint32 {
	return PGNFromComponents(m.DataPage, m.PDUFormat, m.PDUSpecific)
}

func (m *N2KReceiveMessage) String() string {
	return fmt.Sprintf("N2KReceive{pgn=%d, prio=%d, dst=0x%02x, data_len=%d}",
		m.PGN(), m.Priority, m.Destination, len(m.Data))
}

// N2KSendMessage (type 0x94) asks the gateway to transmit an NMEA 2000
// message onto the bus. Same layout and length rules as N2KReceiveMessage.
type N2KSendMessage struct {
	Priority    byte   // [2] bits 0-2
	PDUSpecific byte   // [3] folds into the PGN for PDU2 groups
	PDUFormat   byte   // [4]
	DataPage    byte   // [5] bits 0-1
	Destination byte   // [6]
	Data        []byte // [8..] 0..249 bytes, length byte at [7]
}

func (m *N2KSendMessage) Type() byte { return MsgTypeN2KSend }

// PGN returns the Parameter Group Number being transmitted.
func (m *N2KSendMessage) PGN() uint32 {
	return PGNFromComponents(m.DataPage, m.PDUFormat, m.PDUSpecific)
}

func (m *N2KSendMessage) String() string {
	return fmt.Sprintf("N2KSend{pgn=%d, prio=%d, dst=0x%02x, data_len=%d}",
		m.PGN(), m.Priority, m.Destination, len(m.Data))
}

// CANFrameMessage (type 0x95) is one raw CAN frame as seen on the bus,
// stamped with the gateway's 16-bit bus timer.
type CANFrameMessage struct {
	// Length is the layout's length byte exactly as received. Gateway
	// firmware is known to report values here that disagree with the
	// actual body, so the decoder preserves the byte and derives the
	// data extent from the frame itself.
	Length      byte           // [1]
	Timestamp   uint16         // [2-3] little-endian bus timer ticks
	Source      byte           // [4]
	PDUSpecific byte           // [5] destination address for PDU1 groups
	PDUFormat   byte           // [6]
	DataPage    byte           // [7] bits 0-1
	Priority    byte           // [7] bits 2-4
	Resolution  TimeResolution // [7] bits 5-6, timestamp tick unit
	Direction   Direction      // [7] bit 7
	Data        []byte         // [8..] 0..8 bytes
}

func (m *CANFrameMessage) Type() byte { return MsgTypeCANFrame }

// PGN returns the Parameter Group Number of the frame.
func (m *CANFrameMessage) PGN() uint32 {
	return PGNFromComponents(m.DataPage, m.PDUFormat, m.PDUSpecific)
}

// Destination returns the frame's effective destination address: the
// PDU-specific byte for addressed groups, AddressGlobal otherwise.
func (m *CANFrameMessage) Destination() byte {
	return destinationFor(m.PDUFormat, m.PDUSpecific)
}

// BusTime returns the timestamp as an offset within the current rollover
// window of the selected resolution.
func (m *CANFrameMessage) BusTime() time.Duration {
	return time.Duration(m.Timestamp) * m.Resolution.Duration()
}

func (m *CANFrameMessage) String() string {
	return fmt.Sprintf("CANFrame{pgn=%d, prio=%d, src=0x%02x, dst=0x%02x, dir=%s, ts=%d/%s, data_len=%d}",
		m.PGN(), m.Priority, m.Source, m.Destination(), m.Direction,
		m.Timestamp, m.Resolution, len(m.Data))
}

// N2KDataMessage (type 0xD0) is a complete NMEA 2000 datagram. Multi
// frame payloads arrive here already assembled by the gateway; the
// fast-packet sequence id is decoded but no reassembly happens on the
// host side.
type N2KDataMessage struct {
	Destination byte   // [3]
	Source      byte   // [4]
	PDUSpecific byte   // [5] folds into the PGN for PDU2 groups
	PDUFormat   byte   // [6]
	DataPage    byte   // [7] bits 0-1
	Priority    byte   // [7] bits 2-4
	Sequence    byte   // [8] bits 0-2, fast-packet sequence id
	Control     byte   // [8] bits 3-7
	Timestamp   uint32 // [9-12] little-endian milliseconds
	Data        []byte // [13..] 0..1785 bytes, 16-bit length at [1-2]
}

func (m *N2KDataMessage) Type() byte { return MsgTypeN2KData }

// PGN returns the Parameter Group Number of the datagram.
func (m *N2KDataMessage) PGN() uint32 {
	return PGNFromComponents(m.DataPage, m.PDUFormat, m.PDUSpecific)
}

// BusTime returns the gateway timestamp as a duration since its timer
// started.
func (m *N2KDataMessage) BusTime() time.Duration {
	return time.Duration(m.Timestamp) * time.Millisecond
}

func (m *N2KDataMessage) String() string {
	return fmt.Sprintf("N2KData{pgn=%d, prio=%d, src=0x%02x, dst=0x%02x, seq=%d, ts=%dms, data_len=%d}",
		m.PGN(), m.Priority, m.Source, m.Destination, m.Sequence, m.Timestamp, len(m.Data))
}

// ParseMessage decodes one raw frame body, as emitted by a StreamDecoder,
// into its typed message. The returned message owns its data and does not
// retain frame.
func ParseMessage(frame []byte) (Message, error) {
	msg, perr := parseMessage(frame)
	if perr != nil {
		return nil, perr
	}
	return msg, nil
}

// parseMessage is ParseMessage with the concrete error type, used on the
// dispatch path where the error feeds straight into a sink.
func parseMessage(frame []byte) (Message, *Error) {
	if len(frame) == 0 {
		return nil, newError(LayoutLengthMismatch, "empty frame has no message identifier", nil)
	}

	switch frame[0] {
	case MsgTypeN2KReceive:
		return parseN2KReceive(frame)
	case MsgTypeN2KSend:
		return parseN2KSend(frame)
	case MsgTypeCANFrame:
		return parseCANFrame(frame)
	case MsgTypeN2KData:
		return parseN2KData(frame)
	default:
		return nil, newError(UnknownMessageType,
			fmt.Sprintf("no layout for identifier 0x%02x in %d byte frame", frame[0], len(frame)),
			frame)
	}
}

// ngtLayout holds the fields shared by the 0x93 and 0x94 records, which
// differ only in direction.
type ngtLayout struct {
	priority    byte
	pduSpecific byte
	pduFormat   byte
	dataPage    byte
	destination byte
	data        []byte
}

func parseNGTLayout(frame []byte) (ngtLayout, *Error) {
	name := GetMessageTypeName(frame[0])
	if len(frame) < 8 {
		return ngtLayout{}, newError(LayoutLengthMismatch,
			fmt.Sprintf("%s frame too short: %d bytes (minimum 8)", name, len(frame)), frame)
	}
	dl := int(frame[7])
	if dl != len(frame)-8 {
		return ngtLayout{}, newError(LayoutLengthMismatch,
			fmt.Sprintf("%s data length byte %d does not match %d data bytes", name, dl, len(frame)-8), frame)
	}
	if l := int(frame[1]); l != 6+dl {
		return ngtLayout{}, newError(LayoutLengthMismatch,
			fmt.Sprintf("%s length byte %d does not match header plus data length %d", name, l, 6+dl), frame)
	}

	return ngtLayout{
		priority:    frame[2] & 0x07,
		pduSpecific: frame[3],
		pduFormat:   frame[4],
		dataPage:    frame[5] & 0x03,
		destination: frame[6],
		data:        append([]byte(nil), frame[8:]...),
	}, nil
}

func parseN2KReceive(frame []byte) (*N2KReceiveMessage, *Error) {
	l, derr := parseNGTLayout(frame)
	if derr != nil {
		return nil, derr
	}
	return &N2KReceiveMessage{
		Priority:    l.priority,
		PDUSpecific: l.pduSpecific,
		PDUFormat:   l.pduFormat,
		DataPage:    l.dataPage,
		Destination: l.destination,
		Data:        l.data,
	}, nil
}

func parseN2KSend(frame []byte) (*N2KSendMessage, *Error) {
	l, derr := parseNGTLayout(frame)
	if derr != nil {
		return nil, derr
	}
	return &N2KSendMessage{
		Priority:    l.priority,
		PDUSpecific: l.pduSpecific,
		PDUFormat:   l.pduFormat,
		DataPage:    l.dataPage,
		Destination: l.destination,
		Data:        l.data,
	}, nil
}

// parseCANFrame decodes a raw CAN frame record (0x95).
//
// The control byte at [7] packs four fields:
//
//	bits 0-1  data page
//	bits 2-4  priority
//	bits 5-6  timestamp resolution code
//	bit  7    direction
func parseCANFrame(frame []byte) (*CANFrameMessage, *Error) {
	if len(frame) < 8 {
		return nil, newError(LayoutLengthMismatch,
			fmt.Sprintf("CANFrame frame too short: %d bytes (minimum 8)", len(frame)), frame)
	}
	if len(frame)-8 > MaxCANData {
		return nil, newError(LayoutLengthMismatch,
			fmt.Sprintf("CANFrame carries %d data bytes (max %d)", len(frame)-8, MaxCANData), frame)
	}

	control := frame[7]
	return &CANFrameMessage{
		Length:      frame[1],
		Timestamp:   binary.LittleEndian.Uint16(frame[2:4]),
		Source:      frame[4],
		PDUSpecific: frame[5],
		PDUFormat:   frame[6],
		DataPage:    control & 0x03,
		Priority:    (control >> 2) & 0x07,
		Resolution:  TimeResolution((control >> 5) & 0x03),
		Direction:   Direction(control >> 7),
		Data:        append([]byte(nil), frame[8:]...),
	}, nil
}

// parseN2KData decodes an assembled N2K datagram record (0xD0). The
// 16-bit length field must match the payload bytes present exactly.
func parseN2KData(frame []byte) (*N2KDataMessage, *Error) {
	if len(frame) < 13 {
		return nil, newError(LayoutLengthMismatch,
			fmt.Sprintf("N2KData frame too short: %d bytes (minimum 13)", len(frame)), frame)
	}
	ll := int(binary.LittleEndian.Uint16(frame[1:3]))
	if ll > MaxN2KData {
		return nil, newError(LayoutLengthMismatch,
			fmt.Sprintf("N2KData declared payload length %d exceeds %d", ll, MaxN2KData), frame)
	}
	if ll != len(frame)-13 {
		return nil, newError(LayoutLengthMismatch,
			fmt.Sprintf("N2KData declared payload length %d does not match %d payload bytes", ll, len(frame)-13), frame)
	}

	dpp := frame[7]
	control := frame[8]
	return &N2KDataMessage{
		Destination: frame[3],
		Source:      frame[4],
		PDUSpecific: frame[5],
		PDUFormat:   frame[6],
		DataPage:    dpp & 0x03,
		Priority:    (dpp >> 2) & 0x07,
		Sequence:    control & 0x07,
		Control:     control >> 3,
		Timestamp:   binary.LittleEndian.Uint32(frame[9:13]),
		Data:        append([]byte(nil), frame[13:]...),
	}, nil
}

// GetMessageTypeName returns a human-readable name for a BST identifier.
func GetMessageTypeName(msgType byte) string {
	switch msgType {
	case MsgTypeN2KReceive:
		return "N2KReceive"
	case MsgTypeN2KSend:
		return "N2KSend"
	case MsgTypeCANFrame:
		return "CANFrame"
	case MsgTypeN2KData:
		return "N2KData"
	default:
		return fmt.Sprintf("Unknown(0x%02x)", msgType)
	}
}
