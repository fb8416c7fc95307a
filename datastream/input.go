package datastream

import (
	"unicode"

	"github.com/moodclient/tn5250/screen"
)

// dupChar fills a field when the Dup key is pressed
const dupChar rune = 0x1C

// KeyResult is what a key asks of the session
type KeyResult struct {
	// AID is the attention key sent, AIDNone when the key was handled
	// locally or sent a header-only record
	AID AID

	// Record is an inbound record to transmit, nil when there is none
	Record []byte
}

// ApplyKey runs one token against the screen. Literal text is checked
// against the field it lands in before anything is written; a refused run
// leaves the screen unchanged and returns *InputError or
// *ebcdic.ConversionError. pending is the read the host has outstanding.
func (c *Codec) ApplyKey(w *screen.Writer, token Token, pending ReadKind) (KeyResult, error) {
	oia := w.OIA()

	switch token.Key {
	case KeyReset:
		c.reset(w)
		return KeyResult{}, nil

	case KeyAttention:
		return KeyResult{Record: AttentionRecord()}, nil

	case KeySysReq:
		record, err := c.SystemRequestRecord("")
		return KeyResult{Record: record}, err
	}

	if oia.KeyboardLocked() {
		return KeyResult{}, c.refuse(w, ReasonKeyboardLocked, w.Cursor(), 0)
	}

	if aid, ok := token.Key.AID(); ok {
		return c.sendAID(w, aid, pending)
	}

	switch token.Key {
	case KeyText:
		return c.typeText(w, token.Text, pending)

	case KeyTab:
		c.tab(w)

	case KeyBacktab:
		c.backtab(w)

	case KeyHome:
		if w.HasInsertCursor() {
			_ = w.SetCursor(w.InsertCursor())
		} else {
			_ = w.SetCursor(HomePosition(w))
		}

	case KeyUp:
		c.moveCursor(w, -w.Columns())
	case KeyDown:
		c.moveCursor(w, w.Columns())
	case KeyLeft:
		c.moveCursor(w, -1)
	case KeyRight:
		c.moveCursor(w, 1)

	case KeyBackspace:
		field := w.CurrentField()
		if field == nil || w.Cursor() > field.Start {
			c.moveCursor(w, -1)
		}

	case KeyDelete:
		field, err := c.inputField(w)
		if err != nil {
			return KeyResult{}, err
		}

		cursor := w.Cursor()
		for index := cursor; index < field.End()-1; index++ {
			_ = w.PutChar(index, w.Char(index+1))
		}
		_ = w.PutChar(field.End()-1, 0)
		field.SetModified(true)

	case KeyInsert:
		oia.SetInsertMode(!oia.InsertMode())

	case KeyEraseEOF:
		field, err := c.inputField(w)
		if err != nil {
			return KeyResult{}, err
		}

		nullFrom(w, field, w.Cursor())
		field.SetModified(true)

	case KeyFieldExit, KeyFieldPlus:
		field, err := c.inputField(w)
		if err != nil {
			return KeyResult{}, err
		}

		c.exitField(w, field, false)
		return c.leaveField(w, field, pending)

	case KeyFieldMinus:
		field, err := c.inputField(w)
		if err != nil {
			return KeyResult{}, err
		}

		if shift := field.Shift(); shift != screen.ShiftSignedNumeric && shift != screen.ShiftNumericOnly {
			return KeyResult{}, c.refuse(w, ReasonFieldMinusInvalid, w.Cursor(), 0)
		}

		c.exitField(w, field, true)
		return c.leaveField(w, field, pending)

	case KeyDup:
		field, err := c.inputField(w)
		if err != nil {
			return KeyResult{}, err
		}

		if !field.DupEnable() {
			return KeyResult{}, c.refuse(w, ReasonDupNotAllowed, w.Cursor(), 0)
		}

		for index := w.Cursor(); index < field.End(); index++ {
			_ = w.PutChar(index, dupChar)
		}
		field.SetModified(true)
		return c.leaveField(w, field, pending)

	case KeyNewLine:
		c.newLine(w)

	case KeyNextWord:
		c.nextWord(w)

	case KeyPrevWord:
		c.prevWord(w)

	case KeyJumpNext, KeyJumpPrev:
		// session switching belongs to the application
	}

	return KeyResult{}, nil
}

func (c *Codec) refuse(w *screen.Writer, reason InputReason, position int, r rune) error {
	w.OIA().SetInputError(reason.String())
	return &InputError{Reason: reason, Position: position, Rune: r}
}

// inputField returns the input field under the cursor
func (c *Codec) inputField(w *screen.Writer) (*screen.Field, error) {
	field := w.CurrentField()
	if field == nil || field.Bypass() {
		return nil, c.refuse(w, ReasonProtected, w.Cursor(), 0)
	}

	return field, nil
}

func (c *Codec) sendAID(w *screen.Writer, aid AID, pending ReadKind) (KeyResult, error) {
	if aid.SendsFields() {
		for _, field := range w.Fields().Linked() {
			if field.MandatoryEnter() && !field.Bypass() && !field.Modified() {
				_ = w.SetCursor(field.Start)
				return KeyResult{}, c.refuse(w, ReasonMandatoryEnter, field.Start, 0)
			}
		}
	}

	record, err := c.ReadResponse(w, aid, pending)
	if err != nil {
		return KeyResult{}, err
	}

	oia := w.OIA()
	oia.SetInsertMode(false)
	oia.SetInhibited(screen.InhibitSystemWait, "")
	return KeyResult{AID: aid, Record: record}, nil
}

func (c *Codec) reset(w *screen.Writer) {
	oia := w.OIA()
	oia.SetInputError("")
	oia.SetInsertMode(false)

	if w.ErrorLineSaved() {
		w.RestoreErrorLine()
		oia.SetErrorCode("")
	}

	if oia.State().Inhibited == screen.InhibitOther {
		oia.UnlockKeyboard()
	}
}

// usableEnd is one past the last position text may be typed into. Signed
// numeric fields keep their last position for the sign.
func usableEnd(field *screen.Field) int {
	if field.Shift() == screen.ShiftSignedNumeric && field.Length > 1 {
		return field.End() - 1
	}

	return field.End()
}

func (c *Codec) checkRune(field *screen.Field, r rune) (rune, InputReason) {
	if field.Monocase() {
		r = unicode.ToUpper(r)
	}

	switch field.Shift() {
	case screen.ShiftAlphaOnly:
		if !unicode.IsLetter(r) && r != ' ' && r != ',' && r != '.' && r != '-' {
			return r, ReasonAlphaOnly
		}

	case screen.ShiftNumericOnly:
		if !unicode.IsDigit(r) && r != ' ' && r != ',' && r != '.' && r != '-' && r != '+' {
			return r, ReasonNumericOnly
		}

	case screen.ShiftDigitsOnly:
		if r < '0' || r > '9' {
			return r, ReasonDigitsOnly
		}

	case screen.ShiftSignedNumeric:
		if r < '0' || r > '9' {
			return r, ReasonSignedNumeric
		}

	case screen.ShiftIOFeature:
		return r, ReasonProtected
	}

	return r, 0
}

func (c *Codec) typeText(w *screen.Writer, text string, pending ReadKind) (KeyResult, error) {
	if text == "" {
		return KeyResult{}, nil
	}

	field, err := c.inputField(w)
	if err != nil {
		return KeyResult{}, err
	}

	cursor := w.Cursor()
	end := usableEnd(field)
	if cursor >= end {
		return KeyResult{}, c.refuse(w, ReasonFieldFull, cursor, 0)
	}

	runes := []rune(text)
	for i, r := range runes {
		checked, reason := c.checkRune(field, r)
		if reason != 0 {
			return KeyResult{}, c.refuse(w, reason, cursor+i, r)
		}

		if _, err := c.page.Encode(checked); err != nil {
			return KeyResult{}, err
		}

		runes[i] = checked
	}

	insert := w.OIA().InsertMode()
	space := end - cursor
	if insert {
		space = 0
		for index := end - 1; index >= cursor && w.Char(index) == 0; index-- {
			space++
		}
	}

	if len(runes) > space {
		return KeyResult{}, c.refuse(w, ReasonFieldFull, cursor, 0)
	}

	if insert {
		for index := end - 1; index >= cursor+len(runes); index-- {
			_ = w.PutChar(index, w.Char(index-len(runes)))
		}
	}

	for i, r := range runes {
		_ = w.PutChar(cursor+i, r)
	}
	field.SetModified(true)
	w.OIA().SetInputError("")

	next := cursor + len(runes)
	if next < end {
		_ = w.SetCursor(next)
		return KeyResult{}, nil
	}

	if field.AutoEnter() {
		_ = w.SetCursor(end - 1)
		return c.sendAID(w, AIDEnter, pending)
	}

	if field.FieldExitRequired() {
		_ = w.SetCursor(end - 1)
		return KeyResult{}, nil
	}

	c.tab(w)
	return KeyResult{}, nil
}

func nullFrom(w *screen.Writer, field *screen.Field, from int) {
	for index := from; index < field.End(); index++ {
		_ = w.PutChar(index, 0)
	}
}

// exitField nulls from the cursor to the end of the field and applies the
// field's right adjust. Negative places a minus sign in the last position.
func (c *Codec) exitField(w *screen.Writer, field *screen.Field, negative bool) {
	nullFrom(w, field, w.Cursor())
	field.SetModified(true)

	signed := field.Shift() == screen.ShiftSignedNumeric || negative
	end := field.End()
	if signed && field.Length > 1 {
		end--
	}

	var fill rune
	switch field.Adjust() {
	case screen.AdjustRightZeroFill:
		fill = '0'
	case screen.AdjustRightBlank:
		fill = ' '
	}

	if fill != 0 || negative {
		var content []rune
		for index := field.Start; index < field.End(); index++ {
			if r := w.Char(index); r != 0 && r != ' ' && !(signed && index == field.End()-1) {
				content = append(content, r)
			}
		}

		if len(content) > end-field.Start {
			content = content[len(content)-(end-field.Start):]
		}

		pad := end - field.Start - len(content)
		for index := field.Start; index < end; index++ {
			if index-field.Start < pad {
				_ = w.PutChar(index, fill)
			} else {
				_ = w.PutChar(index, content[index-field.Start-pad])
			}
		}
	}

	if signed && field.Length > 1 {
		sign := rune(0)
		if negative {
			sign = '-'
		}
		_ = w.PutChar(field.End()-1, sign)
	}
}

func (c *Codec) leaveField(w *screen.Writer, field *screen.Field, pending ReadKind) (KeyResult, error) {
	if field.AutoEnter() {
		return c.sendAID(w, AIDEnter, pending)
	}

	c.tab(w)
	return KeyResult{}, nil
}

func (c *Codec) moveCursor(w *screen.Writer, delta int) {
	size := w.Len()
	_ = w.SetCursor(((w.Cursor()+delta)%size + size) % size)
}

// nextInput finds the input field after from in link order, wrapping at the
// end of the table. A progression control word overrides link order.
func nextInput(fields *screen.FieldTable, from *screen.Field) *screen.Field {
	if from != nil {
		if id, ok := from.Progression(); ok {
			if target := fields.ByID(id); target != nil && !target.Bypass() {
				return target
			}
		}
	}

	field := from
	for range fields.Len() {
		if field != nil {
			field = fields.Next(field)
		}
		if field == nil {
			field = fields.First()
		}
		if field == nil {
			return nil
		}
		if !field.Bypass() {
			return field
		}
	}

	return nil
}

func previousInput(fields *screen.FieldTable, from *screen.Field) *screen.Field {
	field := from
	for range fields.Len() {
		if field != nil {
			field = fields.Previous(field)
		}
		if field == nil {
			field = fields.Last()
		}
		if field == nil {
			return nil
		}
		if !field.Bypass() {
			return field
		}
	}

	return nil
}

// fieldAfter returns the first field in screen order starting after index
func fieldAfter(fields *screen.FieldTable, index int) *screen.Field {
	for _, field := range fields.Positional() {
		if field.Start > index && !field.Bypass() {
			return field
		}
	}

	return nil
}

func (c *Codec) tab(w *screen.Writer) {
	fields := w.Fields()
	current := w.CurrentField()

	var target *screen.Field
	if current == nil {
		target = fieldAfter(fields, w.Cursor())
		if target == nil {
			target = nextInput(fields, nil)
		}
	} else {
		target = nextInput(fields, current)
	}

	if target != nil {
		_ = w.SetCursor(target.Start)
	}
}

func (c *Codec) backtab(w *screen.Writer) {
	fields := w.Fields()
	current := w.CurrentField()

	if current != nil && !current.Bypass() && w.Cursor() > current.Start {
		_ = w.SetCursor(current.Start)
		return
	}

	var target *screen.Field
	if current == nil {
		positional := fields.Positional()
		for i := len(positional) - 1; i >= 0; i-- {
			if positional[i].Start < w.Cursor() && !positional[i].Bypass() {
				target = positional[i]
				break
			}
		}
		if target == nil {
			target = previousInput(fields, nil)
		}
	} else {
		target = previousInput(fields, current)
	}

	if target != nil {
		_ = w.SetCursor(target.Start)
	}
}

// newLine moves to the first input field on a later row, or to the start of
// the next row when there is none
func (c *Codec) newLine(w *screen.Writer) {
	row, _ := w.Position(w.Cursor())
	nextRow := row * w.Columns()

	if field := fieldAfter(w.Fields(), nextRow-1); field != nil {
		_ = w.SetCursor(field.Start)
		return
	}

	if field := nextInput(w.Fields(), nil); field != nil {
		_ = w.SetCursor(field.Start)
		return
	}

	_ = w.SetCursor(nextRow % w.Len())
}

func blank(w *screen.Writer, index int) bool {
	return w.IsAttributePosition(index) || w.Char(index) <= ' '
}

func (c *Codec) nextWord(w *screen.Writer) {
	for index := w.Cursor() + 1; index < w.Len(); index++ {
		if !blank(w, index) && blank(w, index-1) {
			_ = w.SetCursor(index)
			return
		}
	}
}

func (c *Codec) prevWord(w *screen.Writer) {
	for index := w.Cursor() - 1; index >= 0; index-- {
		if !blank(w, index) && (index == 0 || blank(w, index-1)) {
			_ = w.SetCursor(index)
			return
		}
	}
}
