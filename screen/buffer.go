// Package screen is the 5250 presentation space: a grid of cells kept as
// parallel planes, the format table of fields defined on it, and the
// operator information area.
//
// Readers use the methods on Buffer, which take the read lock. Mutation goes
// through Update, which hands out a Writer while the write lock is held.
package screen

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

var ErrOutOfRange = errors.New("screen: position out of range")

const (
	DefaultRows    = 24
	DefaultColumns = 80
	WideRows       = 27
	WideColumns    = 132
)

// Cell is a copy of every plane at one position
type Cell struct {
	Char  rune
	Attr  byte
	Color Color
	Ext   Ext
	// Field is the ID of the owning field, 0 when the cell is outside any
	// field
	Field int
	Dirty bool
}

// Region is an inclusive rectangle of 0-based rows and columns
type Region struct {
	Top, Left, Bottom, Right int
}

func (r Region) Contains(row, col int) bool {
	return row >= r.Top && row <= r.Bottom && col >= r.Left && col <= r.Right
}

type Buffer struct {
	lock sync.RWMutex

	rows, cols int
	chars      []rune
	attrs      []byte
	colors     []Color
	exts       []Ext
	owners     []int
	dirty      []bool

	dirtyRegion Region
	hasDirty    bool

	cursor          int
	insertCursor    int
	insertCursorSet bool
	fields          FieldTable
	windows         []Window
	errorLine       []savedCell

	oia *OIA
}

func New(rows, cols int) *Buffer {
	b := &Buffer{oia: NewOIA()}
	b.allocate(rows, cols)
	return b
}

func (b *Buffer) allocate(rows, cols int) {
	size := rows * cols
	b.rows = rows
	b.cols = cols
	b.chars = make([]rune, size)
	b.attrs = make([]byte, size)
	b.colors = make([]Color, size)
	b.exts = make([]Ext, size)
	b.owners = make([]int, size)
	b.dirty = make([]bool, size)

	for index := range b.attrs {
		b.attrs[index] = NormalAttribute
	}
}

// OIA returns the operator information area. It has its own locking.
func (b *Buffer) OIA() *OIA {
	return b.oia
}

// Update runs fn with exclusive access to the buffer. Derived planes are
// brought up to date before the lock is released.
func (b *Buffer) Update(fn func(w *Writer) error) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	err := fn(&Writer{b: b})
	b.reflow()
	return err
}

func (b *Buffer) Size() (rows, cols int) {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return b.rows, b.cols
}

func (b *Buffer) cell(index int) Cell {
	return Cell{
		Char:  b.chars[index],
		Attr:  b.attrs[index],
		Color: b.colors[index],
		Ext:   b.exts[index],
		Field: b.owners[index],
		Dirty: b.dirty[index],
	}
}

func (b *Buffer) Cell(index int) (Cell, error) {
	b.lock.RLock()
	defer b.lock.RUnlock()

	if index < 0 || index >= len(b.chars) {
		return Cell{}, fmt.Errorf("%w: index %d", ErrOutOfRange, index)
	}

	return b.cell(index), nil
}

// CellAt reads the cell at a 0-based row and column
func (b *Buffer) CellAt(row, col int) (Cell, error) {
	b.lock.RLock()
	defer b.lock.RUnlock()

	if row < 0 || row >= b.rows || col < 0 || col >= b.cols {
		return Cell{}, fmt.Errorf("%w: row %d col %d", ErrOutOfRange, row, col)
	}

	return b.cell(row*b.cols + col), nil
}

// Cursor returns the cursor as a linear index
func (b *Buffer) Cursor() int {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return b.cursor
}

// CursorPosition returns the cursor as a 0-based row and column
func (b *Buffer) CursorPosition() (row, col int) {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return b.cursor / b.cols, b.cursor % b.cols
}

func displayRune(r rune, ext Ext) rune {
	if ext.Has(ExtAttributePosition) || ext.Has(ExtNonDisplay) || r < 0x20 {
		return ' '
	}

	return r
}

func (b *Buffer) rowText(row int) string {
	var builder strings.Builder
	for index := row * b.cols; index < (row+1)*b.cols; index++ {
		builder.WriteRune(displayRune(b.chars[index], b.exts[index]))
	}

	return builder.String()
}

// Text renders the screen as rows joined with newlines. Attribute positions,
// nulls and non-display cells appear as spaces.
func (b *Buffer) Text() string {
	b.lock.RLock()
	defer b.lock.RUnlock()

	lines := make([]string, b.rows)
	for row := range lines {
		lines[row] = b.rowText(row)
	}

	return strings.Join(lines, "\n")
}

// Row renders one 0-based row
func (b *Buffer) Row(row int) (string, error) {
	b.lock.RLock()
	defer b.lock.RUnlock()

	if row < 0 || row >= b.rows {
		return "", fmt.Errorf("%w: row %d", ErrOutOfRange, row)
	}

	return b.rowText(row), nil
}

// Fields copies the format table in link order
func (b *Buffer) Fields() []Field {
	b.lock.RLock()
	defer b.lock.RUnlock()

	fields := make([]Field, 0, b.fields.Len())
	for _, field := range b.fields.Linked() {
		fields = append(fields, field.clone())
	}

	return fields
}

func (b *Buffer) FieldAt(index int) (Field, bool) {
	b.lock.RLock()
	defer b.lock.RUnlock()

	field := b.fields.FieldAt(index)
	if field == nil {
		return Field{}, false
	}

	return field.clone(), true
}

// CurrentField returns the field under the cursor
func (b *Buffer) CurrentField() (Field, bool) {
	b.lock.RLock()
	defer b.lock.RUnlock()

	field := b.fields.FieldAt(b.cursor)
	if field == nil {
		return Field{}, false
	}

	return field.clone(), true
}

// FieldText returns the content of a field by ID, including non-display
// characters. Nulls are returned as spaces.
func (b *Buffer) FieldText(id int) (string, error) {
	b.lock.RLock()
	defer b.lock.RUnlock()

	field := b.fields.ByID(id)
	if field == nil {
		return "", fmt.Errorf("%w: field %d", ErrOutOfRange, id)
	}

	var builder strings.Builder
	for index := field.Start; index < field.End(); index++ {
		r := b.chars[index]
		if r < 0x20 {
			r = ' '
		}
		builder.WriteRune(r)
	}

	return builder.String(), nil
}

func (b *Buffer) Windows() []Window {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return append([]Window(nil), b.windows...)
}

// DirtyRegion returns the smallest rectangle covering every cell written
// since the last ClearDirty. The second return is false when nothing is
// dirty.
func (b *Buffer) DirtyRegion() (Region, bool) {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return b.dirtyRegion, b.hasDirty
}

func (b *Buffer) ClearDirty() {
	b.lock.Lock()
	defer b.lock.Unlock()

	clear(b.dirty)
	b.hasDirty = false
	b.dirtyRegion = Region{}
}

// TakeDirty returns the dirty region and clears it in one step, so no write
// can land between the two
func (b *Buffer) TakeDirty() (Region, bool) {
	b.lock.Lock()
	defer b.lock.Unlock()

	region, dirty := b.dirtyRegion, b.hasDirty
	clear(b.dirty)
	b.hasDirty = false
	b.dirtyRegion = Region{}

	return region, dirty
}

// Snapshot is a consistent copy of the whole buffer
type Snapshot struct {
	Rows, Columns int
	Cells         []Cell
	Cursor        int
	Fields        []Field
	OIA           OIAState
}

func (s Snapshot) At(row, col int) Cell {
	return s.Cells[row*s.Columns+col]
}

func (b *Buffer) Snapshot() Snapshot {
	b.lock.RLock()
	defer b.lock.RUnlock()

	snap := Snapshot{
		Rows:    b.rows,
		Columns: b.cols,
		Cells:   make([]Cell, len(b.chars)),
		Cursor:  b.cursor,
		Fields:  make([]Field, 0, b.fields.Len()),
		OIA:     b.oia.State(),
	}

	for index := range snap.Cells {
		snap.Cells[index] = b.cell(index)
	}

	for _, field := range b.fields.Linked() {
		snap.Fields = append(snap.Fields, field.clone())
	}

	return snap
}

func (b *Buffer) markDirty(index int) {
	b.dirty[index] = true

	row, col := index/b.cols, index%b.cols
	if !b.hasDirty {
		b.dirtyRegion = Region{Top: row, Left: col, Bottom: row, Right: col}
		b.hasDirty = true
		return
	}

	b.dirtyRegion.Top = min(b.dirtyRegion.Top, row)
	b.dirtyRegion.Bottom = max(b.dirtyRegion.Bottom, row)
	b.dirtyRegion.Left = min(b.dirtyRegion.Left, col)
	b.dirtyRegion.Right = max(b.dirtyRegion.Right, col)
}

// reflow carries each attribute forward to the cells it governs so the raw,
// color and extended planes always agree
func (b *Buffer) reflow() {
	current := NormalAttribute

	for index := range b.chars {
		if b.exts[index].Has(ExtAttributePosition) {
			current = b.attrs[index]
			continue
		}

		color, ext, _ := Disperse(current)
		if b.attrs[index] != current || b.colors[index] != color || b.exts[index] != ext {
			b.attrs[index] = current
			b.colors[index] = color
			b.exts[index] = ext
			b.markDirty(index)
		}
	}
}

// restampOwners rebuilds the field membership plane from the format table
func (b *Buffer) restampOwners() {
	clear(b.owners)

	for _, field := range b.fields.Positional() {
		for index := field.Start; index < field.End() && index < len(b.owners); index++ {
			b.owners[index] = field.ID
		}
	}
}
