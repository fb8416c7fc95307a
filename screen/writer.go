package screen

import "fmt"

// Writer mutates a Buffer. It is only valid inside the function passed to
// Buffer.Update.
type Writer struct {
	b *Buffer
}

func (w *Writer) Rows() int {
	return w.b.rows
}

func (w *Writer) Columns() int {
	return w.b.cols
}

func (w *Writer) Len() int {
	return len(w.b.chars)
}

func (w *Writer) OIA() *OIA {
	return w.b.oia
}

// Address converts a 1-based row and column, as sent on the wire, to a
// linear index. Values outside the screen are rejected, never clamped.
func (w *Writer) Address(row, col int) (int, error) {
	return Address(w.b.rows, w.b.cols, row, col)
}

// Address converts a 1-based row and column to a linear index for a screen
// of the given size
func Address(rows, cols, row, col int) (int, error) {
	if row < 1 || row > rows || col < 1 || col > cols {
		return 0, fmt.Errorf("%w: row %d col %d on %dx%d", ErrOutOfRange, row, col, rows, cols)
	}

	return (row-1)*cols + (col - 1), nil
}

// Position converts a linear index to a 1-based row and column
func (w *Writer) Position(index int) (row, col int) {
	return index/w.b.cols + 1, index%w.b.cols + 1
}

func (w *Writer) checkIndex(index int) error {
	if index < 0 || index >= len(w.b.chars) {
		return fmt.Errorf("%w: index %d", ErrOutOfRange, index)
	}

	return nil
}

func (w *Writer) Cursor() int {
	return w.b.cursor
}

func (w *Writer) SetCursor(index int) error {
	if err := w.checkIndex(index); err != nil {
		return err
	}

	w.b.cursor = index
	return nil
}

// InsertCursor is the position set by the last Insert Cursor order. The
// cursor returns here when the keyboard is unlocked.
func (w *Writer) InsertCursor() int {
	return w.b.insertCursor
}

func (w *Writer) SetInsertCursor(index int) error {
	if err := w.checkIndex(index); err != nil {
		return err
	}

	w.b.insertCursor = index
	w.b.insertCursorSet = true
	return nil
}

// HasInsertCursor reports whether an Insert Cursor order has been applied
// since the screen was last cleared
func (w *Writer) HasInsertCursor() bool {
	return w.b.insertCursorSet
}

func (w *Writer) Char(index int) rune {
	return w.b.chars[index]
}

func (w *Writer) Attr(index int) byte {
	return w.b.attrs[index]
}

func (w *Writer) IsAttributePosition(index int) bool {
	return w.b.exts[index].Has(ExtAttributePosition)
}

// PutChar stores a character. Writing over an attribute position removes
// the attribute.
func (w *Writer) PutChar(index int, r rune) error {
	if err := w.checkIndex(index); err != nil {
		return err
	}

	b := w.b
	if b.chars[index] == r && !b.exts[index].Has(ExtAttributePosition) {
		return nil
	}

	b.chars[index] = r
	b.exts[index] &^= ExtAttributePosition
	b.markDirty(index)
	return nil
}

// PutAttribute places an attribute byte at index. The raw, color and
// extended planes of the cell are all updated together, non-display
// attributes included.
func (w *Writer) PutAttribute(index int, attr byte) error {
	if err := w.checkIndex(index); err != nil {
		return err
	}

	color, ext, ok := Disperse(attr)
	if !ok {
		return fmt.Errorf("screen: 0x%02X is not an attribute byte", attr)
	}

	b := w.b
	b.chars[index] = 0
	b.attrs[index] = attr
	b.colors[index] = color
	b.exts[index] = ext | ExtAttributePosition
	b.markDirty(index)
	return nil
}

// Clear nulls every cell, drops the format table and windows, and homes
// the cursor
func (w *Writer) Clear() {
	b := w.b

	for index := range b.chars {
		b.chars[index] = 0
		b.attrs[index] = NormalAttribute
		b.colors[index] = ColorGreen
		b.exts[index] = 0
		b.markDirty(index)
	}

	b.fields.Reset()
	clear(b.owners)
	b.windows = nil
	b.errorLine = nil
	b.cursor = 0
	b.insertCursor = 0
	b.insertCursorSet = false
}

// ClearFormatTable drops every field definition and leaves the characters
// in place
func (w *Writer) ClearFormatTable() {
	w.b.fields.Reset()
	clear(w.b.owners)
}

// Resize changes the screen size. Cells in the overlapping rectangle keep
// their content; exposed cells are null. Field positions do not survive a
// change of row length so the format table is dropped.
func (w *Writer) Resize(rows, cols int) error {
	if rows < 1 || cols < 1 {
		return fmt.Errorf("screen: invalid size %dx%d", rows, cols)
	}

	b := w.b
	if rows == b.rows && cols == b.cols {
		return nil
	}

	oldRows, oldCols := b.rows, b.cols
	oldChars, oldAttrs, oldColors, oldExts := b.chars, b.attrs, b.colors, b.exts
	cursorRow, cursorCol := b.cursor/b.cols, b.cursor%b.cols

	b.allocate(rows, cols)
	b.hasDirty = false
	b.dirtyRegion = Region{}

	for row := range min(rows, oldRows) {
		for col := range min(cols, oldCols) {
			from := row*oldCols + col
			to := row*cols + col
			b.chars[to] = oldChars[from]
			b.attrs[to] = oldAttrs[from]
			b.colors[to] = oldColors[from]
			b.exts[to] = oldExts[from]
		}
	}

	for index := range b.dirty {
		b.markDirty(index)
	}

	b.fields.Reset()
	b.windows = nil
	b.errorLine = nil
	b.cursor = min(cursorRow, rows-1)*cols + min(cursorCol, cols-1)
	b.insertCursor = 0
	b.insertCursorSet = false
	return nil
}

// Fields exposes the format table for traversal and in-place edits
func (w *Writer) Fields() *FieldTable {
	return &w.b.fields
}

// DefineField adds a field to the format table and stamps the field
// membership plane
func (w *Writer) DefineField(field Field) (*Field, error) {
	if err := w.checkIndex(field.Start); err != nil {
		return nil, err
	}

	if field.Length < 0 {
		return nil, fmt.Errorf("screen: field at %d has negative length", field.Start)
	}

	if field.End() > len(w.b.chars) {
		field.Length = len(w.b.chars) - field.Start
	}

	defined := w.b.fields.Insert(field)
	w.b.restampOwners()
	return defined, nil
}

func (w *Writer) FieldAt(index int) *Field {
	return w.b.fields.FieldAt(index)
}

// CurrentField returns the field under the cursor, or nil
func (w *Writer) CurrentField() *Field {
	return w.b.fields.FieldAt(w.b.cursor)
}

// FieldRunes returns the content of a field
func (w *Writer) FieldRunes(field *Field) []rune {
	return append([]rune(nil), w.b.chars[field.Start:field.End()]...)
}

// Roll moves rows top..bottom (1-based, inclusive) by lines. Positive lines
// roll up, negative roll down; vacated rows are nulled.
func (w *Writer) Roll(top, bottom, lines int) error {
	b := w.b
	if top < 1 || bottom > b.rows || top > bottom {
		return fmt.Errorf("%w: roll rows %d-%d on %d rows", ErrOutOfRange, top, bottom, b.rows)
	}

	height := bottom - top + 1
	if lines == 0 {
		return nil
	}

	copyRow := func(from, to int) {
		for col := range b.cols {
			src, dst := from*b.cols+col, to*b.cols+col
			b.chars[dst] = b.chars[src]
			b.attrs[dst] = b.attrs[src]
			b.colors[dst] = b.colors[src]
			b.exts[dst] = b.exts[src]
			b.markDirty(dst)
		}
	}

	nullRow := func(row int) {
		for col := range b.cols {
			index := row*b.cols + col
			b.chars[index] = 0
			b.exts[index] = 0
			b.markDirty(index)
		}
	}

	first, last := top-1, bottom-1
	if lines > 0 {
		for row := first; row <= last; row++ {
			if row+lines <= last && lines < height {
				copyRow(row+lines, row)
			} else {
				nullRow(row)
			}
		}
	} else {
		shift := -lines
		for row := last; row >= first; row-- {
			if row-shift >= first && shift < height {
				copyRow(row-shift, row)
			} else {
				nullRow(row)
			}
		}
	}

	return nil
}

type savedCell struct {
	char rune
	attr byte
	ext  Ext
}

// SaveErrorLine remembers the last row so a host error message can be
// shown over it. Only the first save before a restore is kept.
func (w *Writer) SaveErrorLine() {
	b := w.b
	if b.errorLine != nil {
		return
	}

	start := (b.rows - 1) * b.cols
	b.errorLine = make([]savedCell, b.cols)
	for col := range b.errorLine {
		index := start + col
		b.errorLine[col] = savedCell{b.chars[index], b.attrs[index], b.exts[index]}
	}
}

// RestoreErrorLine puts back the row saved by SaveErrorLine. It reports
// false when nothing was saved.
func (w *Writer) RestoreErrorLine() bool {
	b := w.b
	if b.errorLine == nil || len(b.errorLine) != b.cols {
		b.errorLine = nil
		return false
	}

	start := (b.rows - 1) * b.cols
	for col, saved := range b.errorLine {
		index := start + col
		b.chars[index] = saved.char
		b.attrs[index] = saved.attr
		b.exts[index] = saved.ext
		if saved.ext.Has(ExtAttributePosition) {
			b.colors[index], _, _ = Disperse(saved.attr)
		}
		b.markDirty(index)
	}

	b.errorLine = nil
	return true
}

// ErrorLineSaved reports whether a host error message is covering the last
// row
func (w *Writer) ErrorLineSaved() bool {
	return w.b.errorLine != nil
}
