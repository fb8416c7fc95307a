package datastream

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/moodclient/tn5250/ebcdic"
	"github.com/moodclient/tn5250/screen"
)

// MessageLight reports what a record did to the message waiting indicator
type MessageLight int

const (
	MessageLightUnchanged MessageLight = iota
	MessageLightOn
	MessageLightOff
)

// Result carries what a decoded record asks of the session beyond the
// screen changes themselves
type Result struct {
	Opcode Opcode

	KeyboardLocked   bool
	KeyboardUnlocked bool

	// PendingRead is the read the host is waiting on, ReadNone when the
	// record did not issue one
	PendingRead ReadKind

	Bell         bool
	MessageLight MessageLight
	Cleared      bool
	Resized      bool

	// SkippedFields counts structured fields that were not understood or
	// that this terminal does not draw, such as selection fields
	SkippedFields int

	// SkippedOrders counts orders that were parsed but change nothing on
	// this terminal's screen, such as Write Extended Attribute
	SkippedOrders int

	// Responses are complete inbound records to send back, in order
	Responses [][]byte
}

// Codec decodes outbound records onto a screen and encodes the inbound
// records a terminal sends back. A Codec holds no per-screen state and may
// be shared.
type Codec struct {
	page *ebcdic.CodePage
	wide bool
}

// NewCodec returns a codec translating text through page. Wide selects the
// 27x132 device identity in the query reply.
func NewCodec(page *ebcdic.CodePage, wide bool) *Codec {
	return &Codec{page: page, wide: wide}
}

func (c *Codec) CodePage() *ebcdic.CodePage {
	return c.page
}

// Decode parses record and applies it to buf. The record is fully parsed
// before the screen is touched: a *ProtocolError means buf is unchanged. An
// *ApplyError means the record was applied except for the parts it names;
// the Result is still valid and its Responses should still be sent.
func (c *Codec) Decode(buf *screen.Buffer, record []byte) (Result, error) {
	var result Result

	err := buf.Update(func(w *screen.Writer) error {
		parsed, err := Parse(record, Geometry{Rows: w.Rows(), Columns: w.Columns(), Cursor: w.Cursor()})
		if err != nil {
			return err
		}

		a := &applier{codec: c, w: w, result: &result}
		a.record(parsed)

		if err := a.errs.ErrorOrNil(); err != nil {
			return &ApplyError{Opcode: parsed.Header.Opcode, Err: err}
		}
		return nil
	})

	return result, err
}

type applier struct {
	codec  *Codec
	w      *screen.Writer
	result *Result
	errs   *multierror.Error

	addr     int
	icSeen   bool
	saved    bool
	screened bool
}

func (a *applier) record(parsed *Record) {
	a.result.Opcode = parsed.Header.Opcode

	switch parsed.Header.Opcode {
	case OpcodeMessageLightOn:
		a.messageLight(true)
	case OpcodeMessageLightOff:
		a.messageLight(false)
	}

	for _, command := range parsed.Commands {
		a.command(command)
	}

	switch parsed.Header.Opcode {
	case OpcodeSaveScreen:
		if !a.saved {
			a.respond(a.codec.saveScreen(a.w))
		}
	case OpcodeReadScreen:
		if !a.screened {
			a.respond(a.codec.readScreen(a.w))
		}
	}
}

// respond queues a reply. The host is waiting on it, so a reply holding an
// unencodable character goes out anyway and the error is reported with it.
func (a *applier) respond(record []byte, err error) {
	a.check(err)
	if record != nil {
		a.result.Responses = append(a.result.Responses, record)
	}
}

// check records a part of the record that could not be applied
func (a *applier) check(err error) {
	if err != nil {
		a.errs = multierror.Append(a.errs, err)
	}
}

func (a *applier) lock(code screen.Inhibit) {
	a.w.OIA().SetInhibited(code, "")
	a.result.KeyboardLocked = true
}

func (a *applier) messageLight(on bool) {
	a.w.OIA().SetMessageLight(on)
	if on {
		a.result.MessageLight = MessageLightOn
	} else {
		a.result.MessageLight = MessageLightOff
	}
}

func (a *applier) command(command Command) {
	switch cmd := command.(type) {
	case WriteToDisplay:
		a.controlOne(cmd.CC1)
		a.addr = a.w.Cursor()
		a.icSeen = false
		a.orders(cmd.Orders)
		if a.icSeen {
			a.check(a.w.SetCursor(a.w.InsertCursor()))
		}
		a.controlTwo(cmd.CC2)

	case ClearUnit:
		a.clear(screen.DefaultRows, screen.DefaultColumns)

	case ClearUnitAlternate:
		if cmd.Parameter == 0x00 {
			a.clear(screen.WideRows, screen.WideColumns)
		} else {
			a.clear(screen.DefaultRows, screen.DefaultColumns)
		}

	case ClearFormatTable:
		a.w.ClearFormatTable()
		a.lock(screen.InhibitSystemWait)

	case Read:
		switch cmd.Kind {
		case ReadImmediate:
			a.respond(a.codec.fieldResponse(a.w, OpcodePutGet, AIDNone, ReadInputFields))
		case ReadScreenImmediate:
			a.screened = true
			a.respond(a.codec.readScreen(a.w))
		default:
			a.controlOne(cmd.CC1)
			a.controlTwo(cmd.CC2)
			a.result.PendingRead = cmd.Kind
		}

	case SaveScreen:
		a.saved = true
		a.respond(a.codec.saveScreen(a.w))

	case RestoreScreen:
		// the commands that follow rebuild the saved screen

	case WriteErrorCode:
		a.w.SaveErrorLine()
		start := (a.w.Rows() - 1) * a.w.Columns()
		if cmd.ToWindow {
			start += cmd.StartCol - 1
		}

		a.addr = start
		a.orders(cmd.Orders)
		a.w.OIA().SetErrorCode(a.errorLineText())
		a.lock(screen.InhibitOther)

	case Roll:
		lines := cmd.Lines
		if cmd.Down {
			lines = -lines
		}
		a.check(a.w.Roll(cmd.Top, cmd.Bottom, lines))

	case WriteStructuredField:
		for _, field := range cmd.Fields {
			a.structuredField(field)
		}
	}
}

func (a *applier) clear(rows, cols int) {
	if rows != a.w.Rows() || cols != a.w.Columns() {
		if err := a.w.Resize(rows, cols); err != nil {
			a.check(err)
		} else {
			a.result.Resized = true
		}
	}

	a.w.Clear()
	a.w.OIA().SetErrorCode("")
	a.lock(screen.InhibitSystemWait)
	a.result.Cleared = true
}

func (a *applier) errorLineText() string {
	var sb strings.Builder
	start := (a.w.Rows() - 1) * a.w.Columns()
	for index := start; index < a.w.Len(); index++ {
		r := a.w.Char(index)
		if r < 0x20 {
			r = ' '
		}
		sb.WriteRune(r)
	}

	return strings.TrimSpace(sb.String())
}

// controlOne applies the first WTD control character before the orders
func (a *applier) controlOne(cc1 byte) {
	if cc1&0xE0 == 0 {
		return
	}

	a.lock(screen.InhibitSystemWait)

	fields := a.w.Fields().Linked()
	input := func(field *screen.Field) bool { return !field.Bypass() }
	modifiedInput := func(field *screen.Field) bool { return !field.Bypass() && field.Modified() }
	every := func(*screen.Field) bool { return true }

	switch cc1 & 0xE0 {
	case 0x40:
		a.resetModified(fields, input)
	case 0x60:
		a.resetModified(fields, every)
	case 0x80:
		a.nullFields(fields, modifiedInput)
	case 0xA0:
		a.nullFields(fields, modifiedInput)
		a.resetModified(fields, input)
	case 0xC0:
		a.nullFields(fields, input)
		a.resetModified(fields, input)
	case 0xE0:
		a.nullFields(fields, input)
		a.resetModified(fields, every)
	}
}

func (a *applier) resetModified(fields []*screen.Field, match func(*screen.Field) bool) {
	for _, field := range fields {
		if match(field) {
			field.SetModified(false)
		}
	}
}

func (a *applier) nullFields(fields []*screen.Field, match func(*screen.Field) bool) {
	for _, field := range fields {
		if !match(field) {
			continue
		}

		for index := field.Start; index < field.End(); index++ {
			a.check(a.w.PutChar(index, 0))
		}
	}
}

// controlTwo applies the second WTD control character after the orders
func (a *applier) controlTwo(cc2 byte) {
	oia := a.w.OIA()

	if cc2&0x04 != 0 {
		oia.Bell()
		a.result.Bell = true
	}

	if cc2&0x02 != 0 {
		a.messageLight(false)
	}

	if cc2&0x01 != 0 {
		a.messageLight(true)
	}

	if cc2&0x08 == 0 {
		return
	}

	oia.UnlockKeyboard()
	a.result.KeyboardUnlocked = true
	a.result.KeyboardLocked = false

	if cc2&0x40 != 0 {
		a.check(a.w.SetCursor(a.homePosition()))
	}
}

// homePosition is where the cursor rests when nothing else places it: the
// insert cursor when the host set one, otherwise the first input field
func (a *applier) homePosition() int {
	if a.w.HasInsertCursor() {
		return a.w.InsertCursor()
	}

	return HomePosition(a.w)
}

// HomePosition returns the start of the first non-bypass field in link
// order, or 0 when the screen has none
func HomePosition(w *screen.Writer) int {
	for _, field := range w.Fields().Linked() {
		if !field.Bypass() {
			return field.Start
		}
	}

	return 0
}

func (a *applier) orders(orders []Order) {
	for _, order := range orders {
		a.order(order)
	}
}

func (a *applier) decode(b byte) rune {
	if b == 0x00 {
		return 0
	}

	return a.codec.page.Decode(b)
}

// text writes data from the write address on. Parse rejects text that runs
// off the end of the screen, so a short write here is reported rather than
// wrapped.
func (a *applier) text(data []byte) {
	if a.addr+len(data) > a.w.Len() {
		a.check(fmt.Errorf("%w: %d cells at %d run past the end of the screen", ErrAddress, len(data), a.addr))
	}

	for _, b := range data {
		if a.addr >= a.w.Len() {
			return
		}

		a.check(a.w.PutChar(a.addr, a.decode(b)))
		a.addr++
	}
}

func (a *applier) address(row, col int) int {
	index, err := a.w.Address(row, col)
	a.check(err)
	return index
}

func (a *applier) order(order Order) {
	switch o := order.(type) {
	case StartOfHeader:
		a.w.ClearFormatTable()

	case RepeatToAddress:
		target := a.address(o.Row, o.Col)
		r := a.decode(o.Char)
		for index := a.addr; index <= target; index++ {
			a.check(a.w.PutChar(index, r))
		}
		a.addr = target + 1

	case EraseToAddress:
		target := a.address(o.Row, o.Col)
		for index := a.addr; index <= target; index++ {
			a.check(a.w.PutChar(index, 0))
		}
		a.addr = target + 1

	case TransparentData:
		a.text(o.Data)

	case SetBufferAddress:
		a.addr = a.address(o.Row, o.Col)

	case WriteExtendedAttribute:
		// colour and highlighting come from the attribute byte alone
		a.result.SkippedOrders++

	case InsertCursor:
		a.check(a.w.SetInsertCursor(a.address(o.Row, o.Col)))
		a.icSeen = true

	case MoveCursor:
		a.check(a.w.SetCursor(a.address(o.Row, o.Col)))

	case WriteDisplayStructuredField:
		a.structuredField(o.Field)

	case StartOfField:
		a.startOfField(o)

	case Text:
		a.text(o.Data)

	case Attribute:
		a.attribute(o.Value)
	}
}

func (a *applier) attribute(value byte) {
	if a.addr < a.w.Len() {
		a.check(a.w.PutAttribute(a.addr, value))
	} else {
		a.check(fmt.Errorf("%w: attribute at %d is past the end of the screen", ErrAddress, a.addr))
	}
	a.addr++
}

func (a *applier) startOfField(o StartOfField) {
	a.attribute(o.Attribute)

	if !o.HasFFW {
		return
	}
	if a.addr >= a.w.Len() {
		a.check(fmt.Errorf("%w: field at %d starts past the end of the screen", ErrAddress, a.addr))
		return
	}

	_, err := a.w.DefineField(screen.Field{
		Start:     a.addr,
		Length:    o.Length,
		Attribute: o.Attribute,
		FFW:       o.FFW,
		FCW:       append([]uint16(nil), o.FCW...),
	})
	a.check(err)
}

func (a *applier) structuredField(field StructuredField) {
	switch sf := field.(type) {
	case Query:
		a.respond(a.codec.QueryReply(), nil)

	case CreateWindow:
		a.createWindow(sf)

	case DefineSelectionField:
		// the host also writes the choices as plain text
		a.result.SkippedFields++

	case RemoveGUI:
		if sf.Type != SFRemoveGUISelection {
			a.w.RemoveWindows()
		}

	case UnknownStructuredField:
		a.result.SkippedFields++
	}
}

func (a *applier) createWindow(sf CreateWindow) {
	position := a.addr
	if position < 0 || position >= a.w.Len() {
		position = a.w.Cursor()
	}

	row, col := position/a.w.Columns(), position%a.w.Columns()
	window := screen.Window{
		Row:        row,
		Col:        col,
		Rows:       sf.Rows,
		Columns:    sf.Columns,
		Border:     screen.DefaultBorder,
		Restricted: sf.Restricted,
	}

	if sf.Border != nil {
		chars := []*rune{
			&window.Border.UpperLeft, &window.Border.Top, &window.Border.UpperRight,
			&window.Border.Left, &window.Border.Right,
			&window.Border.LowerLeft, &window.Border.Bottom, &window.Border.LowerRight,
		}

		for i, b := range sf.Border.Chars {
			if b != 0x00 {
				*chars[i] = a.decode(b)
			}
		}

		if screen.IsAttribute(sf.Border.ColorAttribute) {
			window.Border.Attribute = sf.Border.ColorAttribute
		}
	}

	if err := a.w.AddWindow(window); err != nil {
		a.check(fmt.Errorf("create window at %d,%d: %w", row+1, col+1, err))
		return
	}

	for i, b := range sf.Title {
		if i >= sf.Columns {
			break
		}
		a.check(a.w.PutChar(row*a.w.Columns()+col+1+i, a.decode(b)))
	}
}
