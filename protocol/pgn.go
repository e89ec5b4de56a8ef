package protocol

// NMEA 2000 / J1939 addressing constants.
const (
	// AddressGlobal is the broadcast destination address.
	AddressGlobal = 0xFF
	// AddressNull marks a node that has not claimed a bus address.
	AddressNull = 0xFE

	// PDU-format values at or above this threshold fold the
	// PDU-specific byte into the PGN (PDU2, broadcast groups); below
	// it the PDU-specific byte is a destination address (PDU1).
	pdu2Threshold = 240
)

// MaxPGN is the largest representable Parameter Group Number: two data
// page bits over the PDU format and PDU specific bytes.
const MaxPGN = 0x3FFFF

// PGNFromComponents reconstructs a Parameter Group Number from the three
// header bytes every BST layout carries. This is the single place the
// PDU1/PDU2 rule lives; all message variants compute their PGN here.
func PGNFromComponents(dataPage, pduFormat, pduSpecific byte) uint32 {
	pgn := uint32(dataPage&0x03)<<16 | uint32(pduFormat)<<8
	if pduFormat >= pdu2Threshold {
		pgn |= uint32(pduSpecific)
	}
	return pgn
}

// PGNComponents splits a PGN into data page, PDU format and PDU specific
// bytes, the inverse of PGNFromComponents. For PDU1 groups the returned
// PDU-specific byte is zero; the destination travels in its own field.
func PGNComponents(pgn uint32) (dataPage, pduFormat, pduSpecific byte) {
	dataPage = byte(pgn>>16) & 0x03
	pduFormat = byte(pgn >> 8)
	if pduFormat >= pdu2Threshold {
		pduSpecific = byte(pgn)
	}
	return dataPage, pduFormat, pduSpecific
}

// IsAddressed reports whether messages of this PDU format carry an
// individual destination (PDU1) rather than going to the whole bus.
func IsAddressed(pduFormat byte) bool {
	return pduFormat < pdu2Threshold
}

// destinationFor resolves the effective destination address: the
// PDU-specific byte for addressed groups, broadcast otherwise.
func destinationFor(pduFormat, pduSpecific byte) byte {
	if pduFormat < pdu2Threshold {
		return pduSpecific
	}
	return AddressGlobal
}
