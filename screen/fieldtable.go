package screen

import "sort"

// FieldTable holds the fields of the current format. byStart is kept sorted
// by position for lookup, linked keeps the order the host sent them in.
type FieldTable struct {
	byStart []*Field
	linked  []*Field
	nextID  int
}

func (t *FieldTable) Len() int {
	return len(t.linked)
}

func (t *FieldTable) Reset() {
	t.byStart = nil
	t.linked = nil
	t.nextID = 0
}

// Insert adds a field to the format. A field starting where an existing one
// starts replaces its definition in place. Fields that would overlap are
// truncated at the newer field's attribute position so no cell belongs to
// two fields.
func (t *FieldTable) Insert(field Field) *Field {
	pos := t.search(field.Start)

	if pos < len(t.byStart) && t.byStart[pos].Start == field.Start {
		existing := t.byStart[pos]
		existing.Attribute = field.Attribute
		existing.FFW = field.FFW
		existing.FCW = field.FCW
		existing.Length = field.Length
		t.clip(pos)
		return existing
	}

	t.nextID++
	created := &Field{
		ID:        t.nextID,
		Start:     field.Start,
		Length:    field.Length,
		Attribute: field.Attribute,
		FFW:       field.FFW,
		FCW:       field.FCW,
	}

	t.byStart = append(t.byStart, nil)
	copy(t.byStart[pos+1:], t.byStart[pos:])
	t.byStart[pos] = created
	t.linked = append(t.linked, created)

	if pos > 0 {
		t.clip(pos - 1)
	}
	t.clip(pos)

	return created
}

// clip shortens the field at pos so it stops before the next field's
// attribute byte
func (t *FieldTable) clip(pos int) {
	if pos+1 >= len(t.byStart) {
		return
	}

	field := t.byStart[pos]
	limit := t.byStart[pos+1].Start - 1
	if field.End() > limit {
		field.Length = max(limit-field.Start, 0)
	}
}

// search returns the position of the first field starting at or after index
func (t *FieldTable) search(index int) int {
	return sort.Search(len(t.byStart), func(i int) bool {
		return t.byStart[i].Start >= index
	})
}

// FieldAt returns the field owning the cell at index, or nil
func (t *FieldTable) FieldAt(index int) *Field {
	pos := sort.Search(len(t.byStart), func(i int) bool {
		return t.byStart[i].Start > index
	})
	if pos == 0 {
		return nil
	}

	field := t.byStart[pos-1]
	if field.Contains(index) {
		return field
	}

	return nil
}

// ByID looks up a field by the order it was transmitted in, starting at 1
func (t *FieldTable) ByID(id int) *Field {
	if id < 1 || id > len(t.linked) {
		return nil
	}

	return t.linked[id-1]
}

// First returns the first field in link order
func (t *FieldTable) First() *Field {
	if len(t.linked) == 0 {
		return nil
	}

	return t.linked[0]
}

func (t *FieldTable) Last() *Field {
	if len(t.linked) == 0 {
		return nil
	}

	return t.linked[len(t.linked)-1]
}

// Next follows the link order. It returns nil after the last field.
func (t *FieldTable) Next(field *Field) *Field {
	if field == nil {
		return nil
	}

	return t.ByID(field.ID + 1)
}

// Previous follows the link order backwards. It returns nil before the
// first field.
func (t *FieldTable) Previous(field *Field) *Field {
	if field == nil {
		return nil
	}

	return t.ByID(field.ID - 1)
}

// Linked returns the fields in link order. The slice must not be modified.
func (t *FieldTable) Linked() []*Field {
	return t.linked
}

// Positional returns the fields in buffer order. The slice must not be
// modified.
func (t *FieldTable) Positional() []*Field {
	return t.byStart
}
