package render

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"unicode"

	"github.com/gdamore/tcell/v2"
	"pkt.systems/pslog"

	"github.com/moodclient/tn5250/screen"
	"github.com/moodclient/tn5250/session"
)

// Display is the part of a session the terminal view drives.
// *session.Session satisfies it.
type Display interface {
	Screen() *screen.Buffer
	SendKeys(ctx context.Context, text string) error
	Subscribe(observer session.Observer) func()
	State() session.State
}

var colors = map[screen.Color]tcell.Color{
	screen.ColorGreen:     tcell.ColorGreen,
	screen.ColorWhite:     tcell.ColorWhite,
	screen.ColorRed:       tcell.ColorRed,
	screen.ColorTurquoise: tcell.ColorTeal,
	screen.ColorYellow:    tcell.ColorYellow,
	screen.ColorPink:      tcell.ColorFuchsia,
	screen.ColorBlue:      tcell.ColorBlue,
}

var keys = map[tcell.Key]string{
	tcell.KeyEnter:      "[enter]",
	tcell.KeyTab:        "[tab]",
	tcell.KeyBacktab:    "[backtab]",
	tcell.KeyBackspace:  "[backspace]",
	tcell.KeyBackspace2: "[backspace]",
	tcell.KeyDelete:     "[delete]",
	tcell.KeyInsert:     "[insert]",
	tcell.KeyHome:       "[home]",
	tcell.KeyEnd:        "[eof]",
	tcell.KeyUp:         "[up]",
	tcell.KeyDown:       "[down]",
	tcell.KeyLeft:       "[left]",
	tcell.KeyRight:      "[right]",
	tcell.KeyPgUp:       "[pgup]",
	tcell.KeyPgDn:       "[pgdown]",
	tcell.KeyEscape:     "[attn]",
	tcell.KeyCtrlR:      "[reset]",
	tcell.KeyCtrlL:      "[clear]",
	tcell.KeyCtrlS:      "[sysreq]",
	tcell.KeyCtrlP:      "[print]",
	tcell.KeyCtrlF:      "[fieldexit]",
}

// KeyText translates a tcell key event into keystroke text for
// Session.SendKeys
func KeyText(ev *tcell.EventKey) (string, bool) {
	if ev.Key() == tcell.KeyRune {
		switch r := ev.Rune(); r {
		case '[':
			return "[[", true
		case ']':
			return "]]", true
		default:
			if !unicode.IsPrint(r) {
				return "", false
			}
			return string(r), true
		}
	}

	if ev.Key() >= tcell.KeyF1 && ev.Key() <= tcell.KeyF24 {
		return fmt.Sprintf("[pf%d]", int(ev.Key()-tcell.KeyF1)+1), true
	}

	text, ok := keys[ev.Key()]
	return text, ok
}

func quitKey(ev *tcell.EventKey) bool {
	return ev.Key() == tcell.KeyCtrlQ || ev.Key() == tcell.KeyCtrlC
}

var errDisconnected = errors.New("render: session disconnected")

// Terminal shows a session on a tcell screen and types what the user
// presses into it. The status line under the display carries the operator
// information area and the last key error.
type Terminal struct {
	screen  tcell.Screen
	display Display
	log     pslog.Logger

	lock    sync.Mutex
	message string
}

func NewTerminal(display Display, scr tcell.Screen, logger pslog.Logger) *Terminal {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}

	return &Terminal{screen: scr, display: display, log: logger}
}

func (t *Terminal) post(data any) {
	// a full queue already holds a redraw
	_ = t.screen.PostEvent(tcell.NewEventInterrupt(data))
}

// Run initializes the screen and runs the event loop until ctx is done, the
// session disconnects or the user presses Ctrl-Q.
func (t *Terminal) Run(ctx context.Context) error {
	if err := t.screen.Init(); err != nil {
		return fmt.Errorf("render: init screen: %w", err)
	}
	defer t.screen.Fini()

	unsubscribe := t.display.Subscribe(func(event session.Event) {
		switch event := event.(type) {
		case session.StateChangedEvent:
			if event.New == session.StateDisconnected {
				t.post(errDisconnected)
			}
		case session.BellEvent:
			_ = t.screen.Beep()
		case session.KeyErrorEvent:
			t.setMessage(event.Err.Error())
			t.post(nil)
		default:
			t.post(nil)
		}
	})
	defer unsubscribe()

	stop := context.AfterFunc(ctx, func() {
		t.post(ctx.Err())
	})
	defer stop()

	if t.display.State() == session.StateDisconnected {
		return nil
	}

	t.Draw()

	for {
		switch ev := t.screen.PollEvent().(type) {
		case nil:
			return nil
		case *tcell.EventResize:
			t.screen.Sync()
			t.Draw()
		case *tcell.EventInterrupt:
			if ctx.Err() != nil || t.display.State() == session.StateDisconnected {
				return nil
			}
			t.Draw()
		case *tcell.EventKey:
			if quitKey(ev) {
				return nil
			}

			text, ok := KeyText(ev)
			if !ok {
				continue
			}

			t.setMessage("")
			if err := t.display.SendKeys(ctx, text); err != nil {
				t.log.Debug("key refused", "key", text, "err", err)
				t.setMessage(err.Error())
			}
			t.Draw()
		}
	}
}

func (t *Terminal) setMessage(message string) {
	t.lock.Lock()
	t.message = message
	t.lock.Unlock()
}

func tcellStyle(cell screen.Cell) tcell.Style {
	style := tcell.StyleDefault.Foreground(colors[cell.Color])
	if cell.Ext.Has(screen.ExtAttributePosition) {
		return style
	}

	return style.
		Reverse(cell.Ext.Has(screen.ExtReverse)).
		Underline(cell.Ext.Has(screen.ExtUnderline)).
		Blink(cell.Ext.Has(screen.ExtBlink))
}

// Draw paints the current screen and status line
func (t *Terminal) Draw() {
	snap := t.display.Screen().Snapshot()

	t.lock.Lock()
	message := t.message
	t.lock.Unlock()

	t.screen.Clear()
	for row := 0; row < snap.Rows; row++ {
		for col := 0; col < snap.Columns; col++ {
			cell := snap.At(row, col)
			t.screen.SetContent(col, row, CellRune(cell), nil, tcellStyle(cell))
		}
	}

	status := StatusLine(snap.OIA)
	if message != "" {
		status += "  " + message
	}

	statusStyle := tcell.StyleDefault.Foreground(tcell.ColorSilver)
	for col, r := range []rune(status) {
		t.screen.SetContent(col, snap.Rows, r, nil, statusStyle)
	}

	t.screen.ShowCursor(snap.Cursor%snap.Columns, snap.Cursor/snap.Columns)
	t.screen.Show()
}
