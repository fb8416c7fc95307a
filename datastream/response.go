package datastream

import (
	"encoding/binary"

	"github.com/moodclient/tn5250/ebcdic"
	"github.com/moodclient/tn5250/screen"
)

// substitute is the EBCDIC SUB character. It stands in for a rune the code
// page cannot represent when a reply has to be sent regardless.
const substitute byte = 0x3F

// encoder turns screen runes into code page bytes and remembers the first
// rune that could not be encoded
type encoder struct {
	page *ebcdic.CodePage
	err  error
}

func (e *encoder) encode(r rune) byte {
	if r == 0 {
		return 0x00
	}

	b, err := e.page.Encode(r)
	if err != nil {
		if e.err == nil {
			e.err = err
		}
		return substitute
	}

	return b
}

func (c *Codec) encoder() *encoder {
	return &encoder{page: c.page}
}

func (e *encoder) field(w *screen.Writer, field *screen.Field) []byte {
	runes := w.FieldRunes(field)
	data := make([]byte, len(runes))
	for i, r := range runes {
		data[i] = e.encode(r)
	}

	return data
}

func trimNulls(data []byte) []byte {
	end := len(data)
	for end > 0 && data[end-1] == 0x00 {
		end--
	}

	return data[:end]
}

// ReadResponse builds the record sent when an AID key is pressed. pending is
// the read the host issued; with none outstanding the terminal answers as
// for Read MDT Fields. A field holding a rune the code page cannot encode
// returns an *ebcdic.ConversionError and no record.
func (c *Codec) ReadResponse(w *screen.Writer, aid AID, pending ReadKind) ([]byte, error) {
	kind := pending
	if kind == ReadNone {
		kind = ReadMDTFields
	}

	if !aid.SendsFields() {
		kind = ReadNone
	}

	record, err := c.fieldResponse(w, OpcodePutGet, aid, kind)
	if err != nil {
		return nil, err
	}

	return record, nil
}

// fieldResponse lays out [cursor row][cursor col][AID] and then an SBA and
// the data of each field selected by kind, in screen order. The record is
// complete even when err reports a rune sent as SUB.
func (c *Codec) fieldResponse(w *screen.Writer, opcode Opcode, aid AID, kind ReadKind) ([]byte, error) {
	enc := c.encoder()
	row, col := w.Position(w.Cursor())
	payload := []byte{byte(row), byte(col), byte(aid)}

	for _, field := range w.Fields().Positional() {
		if !field.Input() {
			continue
		}

		switch kind {
		case ReadMDTFields, ReadMDTFieldsAlternate:
			if !field.Modified() {
				continue
			}
		case ReadInputFields:
		default:
			continue
		}

		data := enc.field(w, field)
		if kind == ReadMDTFields {
			data = trimNulls(data)
		}

		fieldRow, fieldCol := w.Position(field.Start)
		payload = append(payload, OrderSetBufferAddress, byte(fieldRow), byte(fieldCol))
		payload = append(payload, data...)
	}

	return NewRecord(opcode, 0, payload), enc.err
}

// readScreen answers Read Screen Immediate with every cell of the screen:
// attribute bytes where attributes sit, encoded characters elsewhere
func (c *Codec) readScreen(w *screen.Writer) ([]byte, error) {
	enc := c.encoder()
	payload := make([]byte, w.Len())
	for index := range payload {
		if w.IsAttributePosition(index) {
			payload[index] = w.Attr(index)
		} else {
			payload[index] = enc.encode(w.Char(index))
		}
	}

	return NewRecord(OpcodeNoOp, 0, payload), enc.err
}

// saveScreen describes the current screen as a data stream that rebuilds
// it. The host keeps the record and returns it with a restore opcode.
func (c *Codec) saveScreen(w *screen.Writer) ([]byte, error) {
	enc := c.encoder()
	payload := []byte{Escape, CmdRestoreScreen}

	if w.Rows() == screen.WideRows && w.Columns() == screen.WideColumns {
		payload = append(payload, Escape, CmdClearUnitAlternate, 0x00)
	} else {
		payload = append(payload, Escape, CmdClearUnit)
	}

	var cc2 byte
	if !w.OIA().KeyboardLocked() {
		cc2 = 0x08
	}
	payload = append(payload, Escape, CmdWriteToDisplay, 0x00, cc2)
	payload = append(payload, OrderSetBufferAddress, 1, 1)

	fields := w.Fields()
	for index := 0; index < w.Len(); index++ {
		if w.IsAttributePosition(index) {
			field := fields.FieldAt(index + 1)
			if field != nil && field.Start == index+1 {
				payload = appendStartOfField(payload, field)
			} else {
				payload = append(payload, w.Attr(index))
			}
			continue
		}

		b := enc.encode(w.Char(index))
		if b != 0x00 && b < 0x40 {
			payload = append(payload, OrderTransparentData, 0x00, 0x03, b)
			continue
		}

		payload = append(payload, b)
	}

	row, col := w.Position(w.Cursor())
	payload = append(payload, OrderInsertCursor, byte(row), byte(col))

	return NewRecord(OpcodeSaveScreen, 0, payload), enc.err
}

func appendStartOfField(payload []byte, field *screen.Field) []byte {
	payload = append(payload, OrderStartOfField)
	payload = binary.BigEndian.AppendUint16(payload, field.FFW)
	for _, fcw := range field.FCW {
		payload = binary.BigEndian.AppendUint16(payload, fcw)
	}
	payload = append(payload, field.Attribute)
	return binary.BigEndian.AppendUint16(payload, uint16(field.Length))
}

// QueryReply answers the 5250 Query structured field with the device
// identity and capabilities of this terminal
func (c *Codec) QueryReply() []byte {
	device, model := "3179", "002"
	if c.wide {
		device, model = "3477", "FC "
	}

	// length, class, type, query reply flag, controller and code level
	sf := []byte{0x00, 0x00, SFClass5250, SFQuery, 0x80, 0x06, 0x00, 0x01, 0x01, 0x00}
	sf = append(sf, make([]byte, 16)...)

	// display station, device type and model
	sf = append(sf, 0x01)
	sf = append(sf, invariant(device)...)
	sf = append(sf, invariant(model)...)

	// keyboard, serial number, supported input fields and capabilities
	sf = append(sf, 0x02, 0x00, 0x00)
	sf = append(sf, 0x00, 0x61, 0x50, 0x00)
	sf = append(sf, 0x01, 0x00, 0x00, 0x00, 0x00)
	sf = append(sf, 0x01, 0x10, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00)
	binary.BigEndian.PutUint16(sf[0:2], uint16(len(sf)))

	payload := []byte{0x00, 0x00, byte(AIDStructuredField)}
	return NewRecord(OpcodeNoOp, 0, append(payload, sf...))
}

// invariant encodes digits, upper case letters and space, which sit at the
// same positions in every single-byte EBCDIC page
func invariant(text string) []byte {
	out := make([]byte, len(text))
	for i, r := range text {
		switch {
		case r >= '0' && r <= '9':
			out[i] = 0xF0 + byte(r-'0')
		case r >= 'A' && r <= 'I':
			out[i] = 0xC1 + byte(r-'A')
		case r >= 'J' && r <= 'R':
			out[i] = 0xD1 + byte(r-'J')
		case r >= 'S' && r <= 'Z':
			out[i] = 0xE2 + byte(r-'S')
		default:
			out[i] = 0x40
		}
	}

	return out
}

// AttentionRecord is the header-only record sent for the Attention key
func AttentionRecord() []byte {
	return NewRecord(OpcodeNoOp, FlagAttention, nil)
}

// SystemRequestRecord is the record sent for the System Request key. Text,
// when present, is sent as the system request line.
func (c *Codec) SystemRequestRecord(text string) ([]byte, error) {
	payload, err := c.page.EncodeString(text)
	if err != nil {
		return nil, err
	}

	return NewRecord(OpcodeNoOp, FlagSystemRequest, payload), nil
}
