package screen

import "fmt"

// Border holds the characters drawn around a window
type Border struct {
	UpperLeft, Top, UpperRight    rune
	Left, Right                   rune
	LowerLeft, Bottom, LowerRight rune
	Attribute                     byte
}

// DefaultBorder matches the characters a 5250 display uses when the host
// does not supply its own
var DefaultBorder = Border{
	UpperLeft: '.', Top: '.', UpperRight: '.',
	Left: ':', Right: ':',
	LowerLeft: ':', Bottom: '.', LowerRight: ':',
	Attribute: 0x22,
}

// Window is a pop-up defined by the Create Window structured field. Row and
// Col are the 0-based position of the upper-left border cell; Rows and
// Columns measure the interior.
type Window struct {
	Row, Col      int
	Rows, Columns int
	Border        Border
	Restricted    bool
}

// AddWindow records a window and paints its border into the buffer. The
// border must fit on the screen.
func (w *Writer) AddWindow(window Window) error {
	b := w.b

	bottom := window.Row + window.Rows + 1
	right := window.Col + window.Columns + 1
	if window.Row < 0 || window.Col < 0 || bottom >= b.rows || right >= b.cols {
		return fmt.Errorf("%w: window %dx%d at %d,%d", ErrOutOfRange, window.Rows, window.Columns, window.Row, window.Col)
	}

	border := window.Border
	put := func(row, col int, r rune) {
		index := row*b.cols + col
		b.chars[index] = r
		b.exts[index] &^= ExtAttributePosition
		b.markDirty(index)
	}

	put(window.Row, window.Col, border.UpperLeft)
	put(window.Row, right, border.UpperRight)
	put(bottom, window.Col, border.LowerLeft)
	put(bottom, right, border.LowerRight)

	for col := window.Col + 1; col < right; col++ {
		put(window.Row, col, border.Top)
		put(bottom, col, border.Bottom)
	}

	for row := window.Row + 1; row < bottom; row++ {
		put(row, window.Col, border.Left)
		put(row, right, border.Right)
	}

	b.windows = append(b.windows, window)
	return nil
}

// RemoveWindows forgets every window. The cells they covered are left for
// the host to repaint.
func (w *Writer) RemoveWindows() {
	w.b.windows = nil
}

func (w *Writer) Windows() []Window {
	return w.b.windows
}
