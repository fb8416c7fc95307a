// Package render draws a screen buffer for people: as a styled string for
// one-shot output and as a live tcell view.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss/v2"

	"github.com/moodclient/tn5250/screen"
)

var palette = map[screen.Color]string{
	screen.ColorGreen:     "#00d75f",
	screen.ColorWhite:     "#eeeeee",
	screen.ColorRed:       "#ff5f5f",
	screen.ColorTurquoise: "#00d7d7",
	screen.ColorYellow:    "#ffd75f",
	screen.ColorPink:      "#ff87d7",
	screen.ColorBlue:      "#5f87ff",
}

// CellRune is what a cell shows. Attribute positions, nulls and
// non-display cells show as spaces.
func CellRune(cell screen.Cell) rune {
	if cell.Ext.Has(screen.ExtAttributePosition) || cell.Ext.Has(screen.ExtNonDisplay) || cell.Char < 0x20 {
		return ' '
	}

	return cell.Char
}

func cellStyle(cell screen.Cell) lipgloss.Style {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(palette[cell.Color]))
	if cell.Ext.Has(screen.ExtReverse) {
		style = style.Reverse(true)
	}
	if cell.Ext.Has(screen.ExtUnderline) {
		style = style.Underline(true)
	}
	if cell.Ext.Has(screen.ExtBlink) {
		style = style.Blink(true)
	}

	return style
}

type styleKey struct {
	color screen.Color
	ext   screen.Ext
}

func keyOf(cell screen.Cell) styleKey {
	// the attribute position itself is drawn unhighlighted
	if cell.Ext.Has(screen.ExtAttributePosition) {
		return styleKey{color: cell.Color}
	}

	return styleKey{color: cell.Color, ext: cell.Ext &^ (screen.ExtNonDisplay | screen.ExtColumnSeparator)}
}

// StyledRow renders one row of snap, grouping runs of cells that share a
// style
func StyledRow(snap screen.Snapshot, row int) string {
	var out strings.Builder
	var run strings.Builder

	var current styleKey
	var currentCell screen.Cell

	flush := func() {
		if run.Len() == 0 {
			return
		}
		out.WriteString(cellStyle(currentCell).Render(run.String()))
		run.Reset()
	}

	for col := 0; col < snap.Columns; col++ {
		cell := snap.At(row, col)
		key := keyOf(cell)
		if col == 0 || key != current {
			flush()
			current = key
			currentCell = screen.Cell{Color: key.color, Ext: key.ext}
		}
		run.WriteRune(CellRune(cell))
	}
	flush()

	return out.String()
}

// Styled renders the whole snapshot with a framed status line underneath
func Styled(snap screen.Snapshot) string {
	rows := make([]string, snap.Rows)
	for row := range rows {
		rows[row] = StyledRow(snap, row)
	}

	body := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#5f5f5f")).
		Render(strings.Join(rows, "\n"))

	row, col := snap.Cursor/snap.Columns, snap.Cursor%snap.Columns
	status := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#87afaf")).
		Render(fmt.Sprintf("%s  %02d/%03d", StatusLine(snap.OIA), row+1, col+1))

	return lipgloss.JoinVertical(lipgloss.Left, body, status)
}

// StatusLine summarizes the operator information area the way a display
// station shows it
func StatusLine(state screen.OIAState) string {
	var parts []string

	if state.MessageLight {
		parts = append(parts, "MW")
	}
	if state.KeyboardLocked {
		parts = append(parts, "X SYSTEM")
	}
	if state.Inhibited != screen.NotInhibited {
		text := state.InhibitText
		if text == "" {
			text = state.Inhibited.String()
		}
		parts = append(parts, "X "+strings.ToUpper(text))
	}
	if state.InputError != "" {
		parts = append(parts, "X "+state.InputError)
	}
	if state.ErrorCode != "" {
		parts = append(parts, state.ErrorCode)
	}
	if state.KeysBuffered {
		parts = append(parts, "KB")
	}
	if state.InsertMode {
		parts = append(parts, "IM")
	}
	if len(parts) == 0 {
		return "READY"
	}

	return strings.Join(parts, "  ")
}
