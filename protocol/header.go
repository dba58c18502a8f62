// Package protocol contains the J1939 primitives used by the decoder:
// identifier decomposition and SPN field extraction.
package protocol

import "fmt"

// Header holds the fields packed into a 29-bit J1939 identifier.
type Header struct {
	Priority      uint8 `json:"priority"`
	DataPage      uint8 `json:"data_page"`
	PDUFormat     uint8 `json:"pdu_format"`
	PDUSpecific   uint8 `json:"pdu_specific"`
	SourceAddress uint8 `json:"source_address"`

	// PGN is always PDUFormat<<8 | PDUSpecific.
	PGN uint32 `json:"pgn"`
}

// Decompose splits a CAN identifier into its J1939 header fields.
// The 3 most significant bits of the 32-bit value are ignored.
func Decompose(id uint32) Header {
	h := Header{
		Priority:      uint8((id >> 26) & 0x7), // bits 26-28
		DataPage:      uint8((id >> 24) & 0x1), // bit 24
		PDUFormat:     uint8(id >> 16),         // bits 16-23
		PDUSpecific:   uint8(id >> 8),          // bits 8-15
		SourceAddress: uint8(id),               // bits 0-7
	}

	h.PGN = PGN(h.PDUFormat, h.PDUSpecific)

	return h
}

// Compose packs the header back into a CAN identifier.
// The PGN field is not read, the identifier is built from PDUFormat and PDUSpecific.
func Compose(h Header) uint32 {
	id := uint32(h.SourceAddress)
	id |= uint32(h.PDUSpecific) << 8
	id |= uint32(h.PDUFormat) << 16
	id |= uint32(h.DataPage&0x1) << 24
	id |= uint32(h.Priority&0x7) << 26
	return id
}

// PGN returns the parameter group number built from the PDU format and specific bytes.
func PGN(pduFormat, pduSpecific uint8) uint32 {
	return uint32(pduFormat)<<8 | uint32(pduSpecific)
}

// FormatPGN returns the canonical hexadecimal rendering of a PGN (e.g. 0xF004).
func FormatPGN(pgn uint32) string {
	return fmt.Sprintf("0x%04X", pgn)
}

func (h Header) String() string {
	return fmt.Sprintf("pgn=%s prio=%d dp=%d sa=0x%02X", FormatPGN(h.PGN), h.Priority, h.DataPage, h.SourceAddress)
}
