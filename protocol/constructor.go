package protocol

import (
	"encoding/binary"
	"fmt"
)

// Message construction and serialization. Encoding is the exact inverse
// of the decoders in parser.go: any message that decodes will re-encode
// to the same bytes, and any constructed message decodes to itself.

// EncodeMessage serializes a typed message into its raw BST body, ready
// to wrap in a BDTP envelope.
func EncodeMessage(msg Message) ([]byte, error) {
	if msg == nil {
		return nil, fmt.Errorf("nil message")
	}
	return msg.encodeBody()
}

// BuildFrame serializes a typed message and wraps it in a BDTP envelope.
// The result is the complete wire form to hand to a transport.
func BuildFrame(msg Message) ([]byte, error) {
	body, err := EncodeMessage(msg)
	if err != nil {
		return nil, err
	}
	return EncodeFrame(body)
}

// NewN2KSend builds a transmit request (type 0x94) for one NMEA 2000
// message.
//
// Body structure:
//
//	[0]     0x94           Message type (MsgTypeN2KSend)
//	[1]     6+len(data)    Length byte
//	[2]     priority       Low 3 bits
//	[3]     PDU specific   PGN low byte, zero for addressed groups
//	[4]     PDU format     PGN middle byte
//	[5]     data page      Low 2 bits, PGN high bit(s)
//	[6]     destination    Node address, AddressGlobal to broadcast
//	[7]     len(data)      Data length byte
//	[8+]    data           Payload bytes
//
// For addressed groups (PDU format < 240) the PGN's low byte is zero by
// construction and destination selects the receiving node; for broadcast
// groups pass AddressGlobal.
func NewN2KSend(pgn uint32, priority byte, destination byte, data []byte) (*N2KSendMessage, error) {
	if pgn > MaxPGN {
		return nil, fmt.Errorf("PGN %d out of range (max %d)", pgn, MaxPGN)
	}
	if len(data) > MaxNGTData {
		return nil, fmt.Errorf("data too long: %d bytes (max %d)", len(data), MaxNGTData)
	}

	dp, pduf, pdus := PGNComponents(pgn)
	return &N2KSendMessage{
		Priority:    priority & 0x07,
		PDUSpecific: pdus,
		PDUFormat:   pduf,
		DataPage:    dp,
		Destination: destination,
		Data:        append([]byte(nil), data...),
	}, nil
}

// NewCANFrame builds a raw CAN frame record (type 0x95) for injection
// onto the bus. The length byte is derived the same way the gateway
// derives it for frames it emits, six header bytes plus the data.
func NewCANFrame(pgn uint32, priority, source, destination byte, data []byte) (*CANFrameMessage, error) {
	if pgn > MaxPGN {
		return nil, fmt.Errorf("PGN %d out of range (max %d)", pgn, MaxPGN)
	}
	if len(data) > MaxCANData {
		return nil, fmt.Errorf("CAN frame data too long: %d bytes (max %d)", len(data), MaxCANData)
	}

	dp, pduf, pdus := PGNComponents(pgn)
	if IsAddressed(pduf) {
		pdus = destination
	}
	return &CANFrameMessage{
		Length:      byte(6 + len(data)),
		Source:      source,
		PDUSpecific: pdus,
		PDUFormat:   pduf,
		DataPage:    dp,
		Priority:    priority & 0x07,
		Direction:   DirectionTransmitted,
		Data:        append([]byte(nil), data...),
	}, nil
}

// encodeNGTBody serializes the layout shared by 0x93 and 0x94 records.
func encodeNGTBody(id, priority, pduSpecific, pduFormat, dataPage, destination byte, data []byte) ([]byte, error) {
	if len(data) > MaxNGTData {
		return nil, fmt.Errorf("%s data too long: %d bytes (max %d)",
			GetMessageTypeName(id), len(data), MaxNGTData)
	}

	body := make([]byte, 8+len(data))
	body[0] = id
	body[1] = byte(6 + len(data))
	body[2] = priority & 0x07
	body[3] = pduSpecific
	body[4] = pduFormat
	body[5] = dataPage & 0x03
	body[6] = destination
	body[7] = byte(len(data))
	copy(body[8:], data)
	return body, nil
}

func (m *N2KReceiveMessage) encodeBody() ([]byte, error) {
	return encodeNGTBody(MsgTypeN2KReceive,
		m.Priority, m.PDUSpecific, m.PDUFormat, m.DataPage, m.Destination, m.Data)
}

func (m *N2KSendMessage) encodeBody() ([]byte, error) {
	return encodeNGTBody(MsgTypeN2KSend,
		m.Priority, m.PDUSpecific, m.PDUFormat, m.DataPage, m.Destination, m.Data)
}

func (m *CANFrameMessage) encodeBody() ([]byte, error) {
	if len(m.Data) > MaxCANData {
		return nil, fmt.Errorf("CAN frame data too long: %d bytes (max %d)", len(m.Data), MaxCANData)
	}

	body := make([]byte, 8+len(m.Data))
	body[0] = MsgTypeCANFrame
	body[1] = m.Length
	binary.LittleEndian.PutUint16(body[2:4], m.Timestamp)
	body[4] = m.Source
	body[5] = m.PDUSpecific
	body[6] = m.PDUFormat
	body[7] = m.DataPage&0x03 | (m.Priority&0x07)<<2 |
		(byte(m.Resolution)&0x03)<<5 | (byte(m.Direction)&0x01)<<7
	copy(body[8:], m.Data)
	return body, nil
}

func (m *N2KDataMessage) encodeBody() ([]byte, error) {
	if len(m.Data) > MaxN2KData {
		return nil, fmt.Errorf("N2K payload too long: %d bytes (max %d)", len(m.Data), MaxN2KData)
	}

	body := make([]byte, 13+len(m.Data))
	body[0] = MsgTypeN2KData
	binary.LittleEndian.PutUint16(body[1:3], uint16(len(m.Data)))
	body[3] = m.Destination
	body[4] = m.Source
	body[5] = m.PDUSpecific
	body[6] = m.PDUFormat
	body[7] = m.DataPage&0x03 | (m.Priority&0x07)<<2
	body[8] = m.Sequence&0x07 | m.Control<<3
	binary.LittleEndian.PutUint32(body[9:13], m.Timestamp)
	copy(body[13:], m.Data)
	return body, nil
}

// ValidateFrame checks a complete wire frame end to end: envelope
// delimiters, escaping, checksum and message layout. Useful for testing
// outgoing traffic before it reaches a live bus.
func ValidateFrame(wire []byte) error {
	body, err := DecodeFrame(wire)
	if err != nil {
		return err
	}
	if _, perr := parseMessage(body); perr != nil {
		return perr
	}
	return nil
}
