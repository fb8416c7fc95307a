// Package datastream reads and writes the 5250 data stream carried inside
// TN5250E records: the GDS record header, the commands and orders of an
// outbound (host to terminal) record, the inbound responses a terminal sends
// back, and the keystroke language used to drive input.
package datastream

import (
	"encoding/binary"
	"fmt"
)

// RecordType is the GDS record type of every 5250 display record
const RecordType uint16 = 0x12A0

// HeaderLength is the size of the record header when the variable part is
// the usual four bytes
const HeaderLength = 10

// Opcode is the operation code at offset 9 of the record header
type Opcode byte

const (
	OpcodeNoOp            Opcode = 0x00
	OpcodeInvite          Opcode = 0x01
	OpcodeOutputOnly      Opcode = 0x02
	OpcodePutGet          Opcode = 0x03
	OpcodeSaveScreen      Opcode = 0x04
	OpcodeRestoreScreen   Opcode = 0x05
	OpcodeReadImmediate   Opcode = 0x06
	OpcodeReadScreen      Opcode = 0x08
	OpcodeCancelInvite    Opcode = 0x0A
	OpcodeMessageLightOn  Opcode = 0x0B
	OpcodeMessageLightOff Opcode = 0x0C
)

var opcodeNames = map[Opcode]string{
	OpcodeNoOp:            "no-op",
	OpcodeInvite:          "invite",
	OpcodeOutputOnly:      "output only",
	OpcodePutGet:          "put/get",
	OpcodeSaveScreen:      "save screen",
	OpcodeRestoreScreen:   "restore screen",
	OpcodeReadImmediate:   "read immediate",
	OpcodeReadScreen:      "read screen",
	OpcodeCancelInvite:    "cancel invite",
	OpcodeMessageLightOn:  "message light on",
	OpcodeMessageLightOff: "message light off",
}

func (o Opcode) String() string {
	if name, ok := opcodeNames[o]; ok {
		return name
	}

	return fmt.Sprintf("opcode 0x%02X", byte(o))
}

// Header flag bits, first flag byte
const (
	FlagError         byte = 0x80
	FlagAttention     byte = 0x40
	FlagSystemRequest byte = 0x04
	FlagHelp          byte = 0x01
)

type Header struct {
	Length     int
	RecordType uint16
	Flags      byte
	Opcode     Opcode
	// DataStart is the offset of the first payload byte
	DataStart int
}

// ParseHeader validates the GDS header of a record with the telnet framing
// already removed
func ParseHeader(record []byte) (Header, error) {
	if len(record) < 7 {
		return Header{}, protocolError(0, ErrTruncated, "record of %d bytes has no header", len(record))
	}

	header := Header{
		Length:     int(binary.BigEndian.Uint16(record[0:2])),
		RecordType: binary.BigEndian.Uint16(record[2:4]),
	}

	if header.RecordType != RecordType {
		return header, protocolError(2, ErrRecordType, "record type 0x%04X", header.RecordType)
	}

	varLength := int(record[6])
	header.DataStart = 6 + varLength
	if varLength < 4 || header.DataStart > len(record) {
		return header, protocolError(6, ErrTruncated, "variable header length %d in %d byte record", varLength, len(record))
	}

	if header.Length != len(record) {
		return header, protocolError(0, ErrTruncated, "header declares %d bytes, record has %d", header.Length, len(record))
	}

	header.Flags = record[7]
	header.Opcode = Opcode(record[9])
	return header, nil
}

// NewRecord builds a complete record: header followed by payload
func NewRecord(opcode Opcode, flags byte, payload []byte) []byte {
	record := make([]byte, HeaderLength, HeaderLength+len(payload))
	binary.BigEndian.PutUint16(record[0:2], uint16(HeaderLength+len(payload)))
	binary.BigEndian.PutUint16(record[2:4], RecordType)
	record[6] = 4
	record[7] = flags
	record[9] = byte(opcode)

	return append(record, payload...)
}
