package screen

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func update(t *testing.T, b *Buffer, fn func(w *Writer) error) {
	t.Helper()

	if err := b.Update(fn); err != nil {
		t.Fatalf("update: %v", err)
	}
}

func TestAddressInRange(t *testing.T) {
	for _, size := range [][2]int{{DefaultRows, DefaultColumns}, {WideRows, WideColumns}} {
		rows, cols := size[0], size[1]

		for row := 1; row <= rows; row++ {
			for col := 1; col <= cols; col++ {
				index, err := Address(rows, cols, row, col)
				if err != nil {
					t.Fatalf("%dx%d: address %d,%d: %v", rows, cols, row, col, err)
				}

				if want := (row-1)*cols + (col - 1); index != want {
					t.Fatalf("%dx%d: address %d,%d: want %d got %d", rows, cols, row, col, want, index)
				}
			}
		}
	}
}

func TestAddressOutOfRange(t *testing.T) {
	cases := [][2]int{{0, 1}, {1, 0}, {25, 1}, {1, 81}, {0, 0}, {255, 255}, {-1, 5}}

	for _, tc := range cases {
		if _, err := Address(24, 80, tc[0], tc[1]); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("address %d,%d: expected ErrOutOfRange, got %v", tc[0], tc[1], err)
		}
	}
}

func TestAttributeDispersalRoundTrip(t *testing.T) {
	b := New(DefaultRows, DefaultColumns)

	for attr := byte(0x20); attr <= 0x3F; attr++ {
		index := int(attr-0x20) * 2

		update(t, b, func(w *Writer) error {
			return w.PutAttribute(index, attr)
		})

		cell, err := b.Cell(index)
		if err != nil {
			t.Fatal(err)
		}

		if cell.Attr != attr {
			t.Fatalf("0x%02X: raw plane holds 0x%02X", attr, cell.Attr)
		}

		if !cell.Ext.Has(ExtAttributePosition) {
			t.Fatalf("0x%02X: attribute position not marked", attr)
		}

		derived, ok := Derive(cell.Color, cell.Ext)
		if !ok || derived != attr {
			t.Fatalf("0x%02X: color %v ext %06b derive back to 0x%02X (%v)", attr, cell.Color, cell.Ext, derived, ok)
		}

		// the governed cell carries the same attribute on every plane
		next, err := b.Cell(index + 1)
		if err != nil {
			t.Fatal(err)
		}

		if next.Attr != attr || next.Color != cell.Color || next.Ext != cell.Ext&^ExtAttributePosition {
			t.Fatalf("0x%02X: following cell has attr 0x%02X color %v ext %06b", attr, next.Attr, next.Color, next.Ext)
		}
	}
}

func TestNonDisplayAttributesUpdateColor(t *testing.T) {
	want := map[byte]Color{0x27: ColorWhite, 0x2F: ColorRed, 0x37: ColorYellow, 0x3F: ColorBlue}

	for attr, color := range want {
		gotColor, ext, ok := Disperse(attr)
		if !ok || gotColor != color || !ext.Has(ExtNonDisplay) {
			t.Errorf("0x%02X: got color %v ext %06b ok %v", attr, gotColor, ext, ok)
		}
	}
}

func TestDisperseRejectsNonAttributes(t *testing.T) {
	for _, b := range []byte{0x00, 0x1F, 0x40, 0xC1, 0xFF} {
		if _, _, ok := Disperse(b); ok {
			t.Errorf("0x%02X accepted as attribute", b)
		}
	}

	b := New(DefaultRows, DefaultColumns)
	err := b.Update(func(w *Writer) error {
		return w.PutAttribute(0, 0x41)
	})
	if err == nil {
		t.Fatal("expected PutAttribute to refuse 0x41")
	}
}

func TestTextHidesAttributesAndNonDisplay(t *testing.T) {
	b := New(2, 10)

	update(t, b, func(w *Writer) error {
		if err := w.PutAttribute(0, 0x20); err != nil {
			return err
		}
		for index, r := range "ABC" {
			if err := w.PutChar(1+index, r); err != nil {
				return err
			}
		}

		if err := w.PutAttribute(4, 0x27); err != nil {
			return err
		}
		for index, r := range "PW" {
			if err := w.PutChar(5+index, r); err != nil {
				return err
			}
		}

		return nil
	})

	want := " ABC      \n          "
	if diff := cmp.Diff(want, b.Text()); diff != "" {
		t.Fatalf("text mismatch (-want +got):\n%s", diff)
	}

	row, err := b.Row(0)
	if err != nil {
		t.Fatal(err)
	}

	if !strings.HasPrefix(row, " ABC") {
		t.Fatalf("row 0: %q", row)
	}

	if _, err := b.Row(2); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange for row 2, got %v", err)
	}
}

func TestResizeKeepsOverlap(t *testing.T) {
	b := New(DefaultRows, DefaultColumns)

	update(t, b, func(w *Writer) error {
		if err := w.PutChar(0, 'A'); err != nil {
			return err
		}
		if err := w.PutChar(79, 'B'); err != nil {
			return err
		}
		if err := w.PutChar(23*80, 'C'); err != nil {
			return err
		}
		return w.SetCursor(23*80 + 79)
	})

	update(t, b, func(w *Writer) error {
		return w.Resize(WideRows, WideColumns)
	})

	rows, cols := b.Size()
	if rows != WideRows || cols != WideColumns {
		t.Fatalf("size %dx%d after resize", rows, cols)
	}

	expect := map[[2]int]rune{{0, 0}: 'A', {0, 79}: 'B', {23, 0}: 'C', {0, 80}: 0, {26, 131}: 0}
	for pos, want := range expect {
		cell, err := b.CellAt(pos[0], pos[1])
		if err != nil {
			t.Fatal(err)
		}

		if cell.Char != want {
			t.Errorf("cell %v: want %q got %q", pos, want, cell.Char)
		}
	}

	if row, col := b.CursorPosition(); row != 23 || col != 79 {
		t.Fatalf("cursor moved to %d,%d", row, col)
	}

	update(t, b, func(w *Writer) error {
		return w.Resize(DefaultRows, DefaultColumns)
	})

	cell, err := b.CellAt(23, 0)
	if err != nil {
		t.Fatal(err)
	}

	if cell.Char != 'C' {
		t.Fatalf("shrinking lost row 23: %q", cell.Char)
	}
}

func TestDirtyRegion(t *testing.T) {
	b := New(DefaultRows, DefaultColumns)

	if _, dirty := b.DirtyRegion(); dirty {
		t.Fatal("new buffer is dirty")
	}

	update(t, b, func(w *Writer) error {
		if err := w.PutChar(2*80+10, 'x'); err != nil {
			return err
		}
		return w.PutChar(5*80+3, 'y')
	})

	region, dirty := b.DirtyRegion()
	if !dirty {
		t.Fatal("expected dirty region")
	}

	if diff := cmp.Diff(Region{Top: 2, Left: 3, Bottom: 5, Right: 10}, region); diff != "" {
		t.Fatalf("region mismatch (-want +got):\n%s", diff)
	}

	cell, _ := b.CellAt(2, 10)
	if !cell.Dirty {
		t.Fatal("written cell not flagged dirty")
	}

	b.ClearDirty()
	if _, dirty := b.DirtyRegion(); dirty {
		t.Fatal("region survived ClearDirty")
	}

	// rewriting the same character is not a change
	update(t, b, func(w *Writer) error {
		return w.PutChar(2*80+10, 'x')
	})

	if _, dirty := b.DirtyRegion(); dirty {
		t.Fatal("identical write marked dirty")
	}
}

func TestRoll(t *testing.T) {
	b := New(5, 4)

	update(t, b, func(w *Writer) error {
		for row, r := range "ABCDE" {
			if err := w.PutChar(row*4, r); err != nil {
				return err
			}
		}
		return w.Roll(2, 4, 1)
	})

	want := "A   \nC   \nD   \n    \nE   "
	if diff := cmp.Diff(want, b.Text()); diff != "" {
		t.Fatalf("roll up (-want +got):\n%s", diff)
	}

	update(t, b, func(w *Writer) error {
		return w.Roll(1, 3, -2)
	})

	want = "    \n    \nA   \n    \nE   "
	if diff := cmp.Diff(want, b.Text()); diff != "" {
		t.Fatalf("roll down (-want +got):\n%s", diff)
	}

	err := b.Update(func(w *Writer) error {
		return w.Roll(0, 6, 1)
	})
	if !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
}

func TestErrorLineSaveRestore(t *testing.T) {
	b := New(3, 5)

	update(t, b, func(w *Writer) error {
		for col, r := range "HELLO" {
			if err := w.PutChar(10+col, r); err != nil {
				return err
			}
		}

		w.SaveErrorLine()
		for col, r := range "ERROR" {
			if err := w.PutChar(10+col, r); err != nil {
				return err
			}
		}
		// a second save keeps the original line
		w.SaveErrorLine()
		return nil
	})

	if row, _ := b.Row(2); row != "ERROR" {
		t.Fatalf("error line: %q", row)
	}

	var restored bool
	update(t, b, func(w *Writer) error {
		restored = w.RestoreErrorLine()
		return nil
	})

	if !restored {
		t.Fatal("restore reported nothing saved")
	}

	if row, _ := b.Row(2); row != "HELLO" {
		t.Fatalf("restored line: %q", row)
	}
}

func TestWindowBorder(t *testing.T) {
	b := New(6, 8)

	update(t, b, func(w *Writer) error {
		return w.AddWindow(Window{Row: 1, Col: 1, Rows: 2, Columns: 3, Border: DefaultBorder})
	})

	want := strings.Join([]string{
		"        ",
		" .....  ",
		" :   :  ",
		" :   :  ",
		" :...:  ",
		"        ",
	}, "\n")
	if diff := cmp.Diff(want, b.Text()); diff != "" {
		t.Fatalf("window (-want +got):\n%s", diff)
	}

	if windows := b.Windows(); len(windows) != 1 || windows[0].Columns != 3 {
		t.Fatalf("windows: %+v", windows)
	}

	err := b.Update(func(w *Writer) error {
		return w.AddWindow(Window{Row: 3, Col: 3, Rows: 5, Columns: 5})
	})
	if !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected oversized window to fail, got %v", err)
	}
}

func TestClearResetsEverything(t *testing.T) {
	b := New(DefaultRows, DefaultColumns)

	update(t, b, func(w *Writer) error {
		if err := w.PutAttribute(10, 0x24); err != nil {
			return err
		}
		if _, err := w.DefineField(Field{Start: 11, Length: 5, Attribute: 0x24, FFW: 0x4000}); err != nil {
			return err
		}
		if err := w.SetCursor(11); err != nil {
			return err
		}
		w.Clear()
		return nil
	})

	snap := b.Snapshot()
	if snap.Cursor != 0 || len(snap.Fields) != 0 {
		t.Fatalf("cursor %d fields %d after clear", snap.Cursor, len(snap.Fields))
	}

	cell := snap.At(0, 11)
	if cell.Char != 0 || cell.Attr != NormalAttribute || cell.Field != 0 {
		t.Fatalf("cell after clear: %+v", cell)
	}
}
