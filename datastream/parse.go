package datastream

import (
	"encoding/binary"

	"github.com/moodclient/tn5250/screen"
)

// Geometry is the screen a record will be applied to. Addresses in the
// record are checked against it, and against any size change an earlier
// command in the same record makes.
type Geometry struct {
	Rows, Columns int

	// Cursor is where a write with no SBA ahead of it starts
	Cursor int
}

// Record is a parsed outbound record
type Record struct {
	Header   Header
	Commands []Command
}

type parser struct {
	data []byte
	pos  int

	rows, cols int

	// addr is the write address, -1 when it cannot be known until the
	// record is applied
	addr int

	// cursor follows the cursor through the record, -1 once a command moves
	// it somewhere only the screen knows
	cursor int
}

// Parse validates a record and decodes its payload into commands. Every
// address the record fixes is range checked here, so a malformed record is
// rejected before the screen is touched.
func Parse(record []byte, geometry Geometry) (*Record, error) {
	header, err := ParseHeader(record)
	if err != nil {
		return nil, err
	}

	p := &parser{
		data: record,
		pos:  header.DataStart,
		rows: geometry.Rows,
		cols: geometry.Columns,
		addr: -1,

		cursor: geometry.Cursor,
	}
	if p.cursor < 0 || p.cursor >= p.size() {
		p.cursor = -1
	}

	parsed := &Record{Header: header}
	for p.pos < len(p.data) {
		command, err := p.command()
		if err != nil {
			return nil, err
		}

		parsed.Commands = append(parsed.Commands, command)
	}

	return parsed, nil
}

func (p *parser) remaining() int {
	return len(p.data) - p.pos
}

func (p *parser) next() (byte, error) {
	if p.pos >= len(p.data) {
		return 0, protocolError(p.pos, ErrTruncated, "record ends early")
	}

	b := p.data[p.pos]
	p.pos++
	return b, nil
}

func (p *parser) take(n int) ([]byte, error) {
	if n < 0 || p.remaining() < n {
		return nil, protocolError(p.pos, ErrTruncated, "need %d bytes, %d left", n, p.remaining())
	}

	chunk := p.data[p.pos : p.pos+n]
	p.pos += n
	return chunk, nil
}

func (p *parser) peek() (byte, bool) {
	if p.pos >= len(p.data) {
		return 0, false
	}

	return p.data[p.pos], true
}

func (p *parser) size() int {
	return p.rows * p.cols
}

// address reads a row and column pair and checks it against the screen
func (p *parser) address() (row, col, index int, err error) {
	offset := p.pos

	pair, err := p.take(2)
	if err != nil {
		return 0, 0, 0, err
	}

	row, col = int(pair[0]), int(pair[1])
	index, err = screen.Address(p.rows, p.cols, row, col)
	if err != nil {
		return row, col, 0, protocolError(offset, ErrAddress, "row %d col %d outside %dx%d", row, col, p.rows, p.cols)
	}

	return row, col, index, nil
}

// advance moves the write address over n written cells
func (p *parser) advance(n int) error {
	if p.addr < 0 {
		return nil
	}

	if p.addr+n > p.size() {
		return protocolError(p.pos, ErrAddress, "write of %d cells at %d runs past end of %dx%d screen", n, p.addr, p.rows, p.cols)
	}

	p.addr += n
	return nil
}

func (p *parser) command() (Command, error) {
	offset := p.pos

	escape, err := p.next()
	if err != nil {
		return nil, err
	}

	if escape != Escape {
		return nil, protocolError(offset, ErrUnknownCommand, "expected escape, found 0x%02X", escape)
	}

	code, err := p.next()
	if err != nil {
		return nil, err
	}

	switch code {
	case CmdWriteToDisplay:
		control, err := p.take(2)
		if err != nil {
			return nil, err
		}

		p.addr = p.cursor
		orders, err := p.orders()
		if err != nil {
			return nil, err
		}

		wtd := WriteToDisplay{CC1: control[0], CC2: control[1], Orders: orders}
		p.moveCursor(wtd)
		return wtd, nil

	case CmdClearUnit:
		p.rows, p.cols = screen.DefaultRows, screen.DefaultColumns
		p.addr, p.cursor = -1, 0
		return ClearUnit{}, nil

	case CmdClearUnitAlternate:
		parameter, err := p.next()
		if err != nil {
			return nil, err
		}

		switch parameter {
		case 0x00:
			p.rows, p.cols = screen.WideRows, screen.WideColumns
		case 0x80:
			p.rows, p.cols = screen.DefaultRows, screen.DefaultColumns
		default:
			return nil, protocolError(p.pos-1, ErrUnknownCommand, "clear unit alternate parameter 0x%02X", parameter)
		}

		p.addr, p.cursor = -1, 0
		return ClearUnitAlternate{Parameter: parameter}, nil

	case CmdClearFormatTable:
		return ClearFormatTable{}, nil

	case CmdReadInputFields, CmdReadMDTFields, CmdReadMDTFieldsAlternate:
		control, err := p.take(2)
		if err != nil {
			return nil, err
		}

		kind := map[byte]ReadKind{
			CmdReadInputFields:        ReadInputFields,
			CmdReadMDTFields:          ReadMDTFields,
			CmdReadMDTFieldsAlternate: ReadMDTFieldsAlternate,
		}[code]

		if control[1]&0x48 == 0x48 {
			p.cursor = -1
		}

		return Read{Kind: kind, CC1: control[0], CC2: control[1]}, nil

	case CmdReadScreenImmediate:
		return Read{Kind: ReadScreenImmediate}, nil

	case CmdReadImmediate:
		return Read{Kind: ReadImmediate}, nil

	case CmdSaveScreen:
		return SaveScreen{}, nil

	case CmdRestoreScreen:
		return RestoreScreen{}, nil

	case CmdWriteErrorCode, CmdWriteErrorCodeToWindow:
		wec := WriteErrorCode{ToWindow: code == CmdWriteErrorCodeToWindow}
		p.addr = (p.rows - 1) * p.cols

		if wec.ToWindow {
			bounds, err := p.take(2)
			if err != nil {
				return nil, err
			}

			wec.StartCol, wec.EndCol = int(bounds[0]), int(bounds[1])
			if wec.StartCol < 1 || wec.StartCol > p.cols || wec.EndCol < wec.StartCol || wec.EndCol > p.cols {
				return nil, protocolError(p.pos-2, ErrAddress, "error window columns %d-%d", wec.StartCol, wec.EndCol)
			}

			p.addr += wec.StartCol - 1
		}

		wec.Orders, err = p.orders()
		if err != nil {
			return nil, err
		}

		p.addr = -1
		return wec, nil

	case CmdRoll:
		params, err := p.take(3)
		if err != nil {
			return nil, err
		}

		roll := Roll{
			Down:   params[0]&0x80 != 0,
			Lines:  int(params[0] & 0x1F),
			Top:    int(params[1]),
			Bottom: int(params[2]),
		}

		if roll.Top < 1 || roll.Bottom > p.rows || roll.Top > roll.Bottom {
			return nil, protocolError(p.pos-2, ErrAddress, "roll rows %d-%d on %d rows", roll.Top, roll.Bottom, p.rows)
		}

		return roll, nil

	case CmdWriteStructuredField:
		var wsf WriteStructuredField
		for {
			b, ok := p.peek()
			if !ok || b == Escape {
				break
			}

			field, err := p.structuredField()
			if err != nil {
				return nil, err
			}

			wsf.Fields = append(wsf.Fields, field)
		}

		return wsf, nil
	}

	return nil, protocolError(offset+1, ErrUnknownCommand, "command 0x%02X", code)
}

func (p *parser) orders() ([]Order, error) {
	var orders []Order

	for {
		b, ok := p.peek()
		if !ok || b == Escape {
			return orders, nil
		}

		order, err := p.order()
		if err != nil {
			return nil, err
		}

		orders = append(orders, order)
	}
}

func isText(b byte) bool {
	return b == 0x00 || b >= 0x40
}

func (p *parser) order() (Order, error) {
	offset := p.pos
	code, _ := p.next()

	switch {
	case isText(code):
		start := offset
		for {
			b, ok := p.peek()
			if !ok || !isText(b) {
				break
			}
			p.pos++
		}

		if err := p.advance(p.pos - start); err != nil {
			return nil, err
		}

		return Text{Data: p.data[start:p.pos]}, nil

	case screen.IsAttribute(code):
		if err := p.advance(1); err != nil {
			return nil, err
		}

		return Attribute{Value: code}, nil
	}

	switch code {
	case OrderStartOfHeader:
		length, err := p.next()
		if err != nil {
			return nil, err
		}

		if length > 7 {
			return nil, protocolError(offset+1, ErrTruncated, "start of header length %d", length)
		}

		data, err := p.take(int(length))
		if err != nil {
			return nil, err
		}

		soh := StartOfHeader{Data: data}
		if len(data) > 0 {
			soh.Flags = data[0]
		}

		if len(data) > 3 {
			soh.ErrorRow = int(data[3])
			if soh.ErrorRow > p.rows {
				return nil, protocolError(offset+5, ErrAddress, "error row %d on %d rows", soh.ErrorRow, p.rows)
			}
		}

		return soh, nil

	case OrderRepeatToAddress:
		row, col, index, err := p.address()
		if err != nil {
			return nil, err
		}

		char, err := p.next()
		if err != nil {
			return nil, err
		}

		if err := p.through(offset, index); err != nil {
			return nil, err
		}

		return RepeatToAddress{Row: row, Col: col, Char: char}, nil

	case OrderEraseToAddress:
		row, col, index, err := p.address()
		if err != nil {
			return nil, err
		}

		length, err := p.next()
		if err != nil {
			return nil, err
		}

		if length < 2 || length > 5 {
			return nil, protocolError(p.pos-1, ErrTruncated, "erase to address length %d", length)
		}

		types, err := p.take(int(length) - 1)
		if err != nil {
			return nil, err
		}

		if err := p.through(offset, index); err != nil {
			return nil, err
		}

		return EraseToAddress{Row: row, Col: col, Types: types}, nil

	case OrderTransparentData:
		lengthBytes, err := p.take(2)
		if err != nil {
			return nil, err
		}

		length := int(binary.BigEndian.Uint16(lengthBytes))
		if length < 2 {
			return nil, protocolError(offset+1, ErrTruncated, "transparent data length %d", length)
		}

		data, err := p.take(length - 2)
		if err != nil {
			return nil, err
		}

		if err := p.advance(len(data)); err != nil {
			return nil, err
		}

		return TransparentData{Data: data}, nil

	case OrderSetBufferAddress:
		row, col, index, err := p.address()
		if err != nil {
			return nil, err
		}

		p.addr = index
		return SetBufferAddress{Row: row, Col: col}, nil

	case OrderWriteExtendedAttribute:
		pair, err := p.take(2)
		if err != nil {
			return nil, err
		}

		return WriteExtendedAttribute{Type: pair[0], Value: pair[1]}, nil

	case OrderInsertCursor:
		row, col, _, err := p.address()
		if err != nil {
			return nil, err
		}

		return InsertCursor{Row: row, Col: col}, nil

	case OrderMoveCursor:
		row, col, _, err := p.address()
		if err != nil {
			return nil, err
		}

		return MoveCursor{Row: row, Col: col}, nil

	case OrderWriteDisplayStructured:
		field, err := p.structuredField()
		if err != nil {
			return nil, err
		}

		if window, ok := field.(CreateWindow); ok && p.addr >= 0 {
			row, col := p.addr/p.cols, p.addr%p.cols
			if row+window.Rows+1 >= p.rows || col+window.Columns+1 >= p.cols {
				return nil, protocolError(offset, ErrAddress, "window %dx%d at row %d col %d does not fit", window.Rows, window.Columns, row+1, col+1)
			}
		}

		return WriteDisplayStructuredField{Field: field}, nil

	case OrderStartOfField:
		return p.startOfField(offset)
	}

	return nil, protocolError(offset, ErrUnknownOrder, "order 0x%02X", code)
}

// moveCursor follows the cursor past a WTD. An IC lands the cursor on the
// insert position, and a home request lands it on the first input field,
// which depends on fields defined outside this record.
func (p *parser) moveCursor(wtd WriteToDisplay) {
	insert := -1
	for _, order := range wtd.Orders {
		switch o := order.(type) {
		case MoveCursor:
			p.cursor = (o.Row-1)*p.cols + o.Col - 1
		case InsertCursor:
			insert = (o.Row-1)*p.cols + o.Col - 1
		}
	}

	switch {
	case insert >= 0:
		p.cursor = insert
	case wtd.CC2&0x48 == 0x48:
		p.cursor = -1
	}
}

// through checks that a repeat or erase target is not behind the write
// address, then moves the address past it
func (p *parser) through(offset, index int) error {
	if p.addr < 0 {
		return nil
	}

	if index < p.addr-1 {
		return protocolError(offset, ErrAddress, "target %d is before current address %d", index, p.addr)
	}

	p.addr = index + 1
	return nil
}

func (p *parser) startOfField(offset int) (Order, error) {
	var sf StartOfField

	first, err := p.next()
	if err != nil {
		return nil, err
	}

	if first&0xC0 == 0x40 {
		second, err := p.next()
		if err != nil {
			return nil, err
		}

		sf.HasFFW = true
		sf.FFW = uint16(first)<<8 | uint16(second)

		for {
			b, ok := p.peek()
			if !ok || b&0xC0 != 0x80 {
				break
			}

			word, err := p.take(2)
			if err != nil {
				return nil, err
			}

			sf.FCW = append(sf.FCW, binary.BigEndian.Uint16(word))
		}

		first, err = p.next()
		if err != nil {
			return nil, err
		}
	}

	if !screen.IsAttribute(first) {
		return nil, protocolError(p.pos-1, ErrUnknownOrder, "start of field attribute 0x%02X", first)
	}
	sf.Attribute = first

	length, err := p.take(2)
	if err != nil {
		return nil, err
	}
	sf.Length = int(binary.BigEndian.Uint16(length))

	if err := p.advance(1); err != nil {
		return nil, protocolError(offset, ErrAddress, "field attribute past end of screen")
	}

	return sf, nil
}

func (p *parser) structuredField() (StructuredField, error) {
	offset := p.pos

	lengthBytes, err := p.take(2)
	if err != nil {
		return nil, err
	}

	length := int(binary.BigEndian.Uint16(lengthBytes))
	if length < 4 {
		return nil, protocolError(offset, ErrTruncated, "structured field length %d", length)
	}

	body, err := p.take(length - 2)
	if err != nil {
		return nil, err
	}

	class, kind, data := body[0], body[1], body[2:]
	if class != SFClass5250 {
		return UnknownStructuredField{Class: class, Type: kind, Length: length}, nil
	}

	switch kind {
	case SFQuery:
		return Query{}, nil

	case SFCreateWindow:
		return parseCreateWindow(offset, data)

	case SFDefineSelectionField:
		return DefineSelectionField{Data: data}, nil

	case SFRemoveGUIWindow, SFRemoveAllGUI, SFRemoveGUISelection:
		return RemoveGUI{Type: kind}, nil
	}

	return UnknownStructuredField{Class: class, Type: kind, Length: length}, nil
}

func parseCreateWindow(offset int, data []byte) (StructuredField, error) {
	if len(data) < 5 {
		return nil, protocolError(offset, ErrTruncated, "create window structure of %d bytes", len(data))
	}

	window := CreateWindow{
		Restricted: data[0]&0x80 != 0,
		PullDown:   data[0]&0x40 != 0,
		Rows:       int(data[3]),
		Columns:    int(data[4]),
	}

	if window.Rows < 1 || window.Columns < 1 {
		return nil, protocolError(offset, ErrAddress, "window of %dx%d", window.Rows, window.Columns)
	}

	minors := data[5:]
	for len(minors) > 0 {
		length := int(minors[0])
		if length < 2 || length > len(minors) {
			return nil, protocolError(offset, ErrTruncated, "window minor structure length %d", length)
		}

		minor := minors[:length]
		switch minor[1] {
		case SFWindowBorderMinor:
			border := &WindowBorder{}
			if length > 2 {
				border.Flags = minor[2]
			}
			if length > 3 {
				border.MonoAttribute = minor[3]
			}
			if length > 4 {
				border.ColorAttribute = minor[4]
			}
			copy(border.Chars[:], minor[min(5, length):])
			window.Border = border

		case SFWindowTitleMinor:
			if length > 6 {
				window.Title = minor[6:]
			}
		}

		minors = minors[length:]
	}

	return window, nil
}
