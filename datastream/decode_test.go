package datastream

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/moodclient/tn5250/ebcdic"
	"github.com/moodclient/tn5250/screen"
)

func testCodec(t *testing.T) *Codec {
	t.Helper()

	page, err := ebcdic.Lookup(37)
	if err != nil {
		t.Fatalf("lookup 37: %v", err)
	}

	return NewCodec(page, false)
}

func ebc(t *testing.T, c *Codec, text string) []byte {
	t.Helper()

	data, err := c.CodePage().EncodeString(text)
	if err != nil {
		t.Fatalf("encode %q: %v", text, err)
	}

	return data
}

func join(parts ...[]byte) []byte {
	return bytes.Join(parts, nil)
}

func sba(row, col byte) []byte {
	return []byte{OrderSetBufferAddress, row, col}
}

func sof(ffw uint16, attr byte, length int) []byte {
	return []byte{OrderStartOfField, byte(ffw >> 8), byte(ffw), attr, byte(length >> 8), byte(length)}
}

func wtd(cc1, cc2 byte, orders ...[]byte) []byte {
	return join([]byte{Escape, CmdWriteToDisplay, cc1, cc2}, join(orders...))
}

func putGet(commands ...[]byte) []byte {
	return NewRecord(OpcodePutGet, 0, join(commands...))
}

func decode(t *testing.T, c *Codec, buf *screen.Buffer, record []byte) Result {
	t.Helper()

	result, err := c.Decode(buf, record)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	return result
}

func row(t *testing.T, buf *screen.Buffer, n int) string {
	t.Helper()

	text, err := buf.Row(n)
	if err != nil {
		t.Fatal(err)
	}

	return text
}

func TestHelloWorld(t *testing.T) {
	c := testCodec(t)
	buf := screen.New(24, 80)

	decode(t, c, buf, putGet(wtd(0, 0,
		sba(1, 1), ebc(t, c, "HELLO"),
		sba(2, 1), ebc(t, c, "WORLD"),
	)))

	for i, want := range "HELLO" {
		cell, _ := buf.Cell(i)
		if cell.Char != want {
			t.Errorf("cell %d: want %q got %q", i, want, cell.Char)
		}
	}

	for i, want := range "WORLD" {
		cell, _ := buf.Cell(80 + i)
		if cell.Char != want {
			t.Errorf("cell %d: want %q got %q", 80+i, want, cell.Char)
		}
	}
}

func TestBadAddressLeavesScreenUnchanged(t *testing.T) {
	c := testCodec(t)
	buf := screen.New(24, 80)
	decode(t, c, buf, putGet(wtd(0, 0, sba(1, 1), ebc(t, c, "HELLO"))))
	before := buf.Snapshot()

	cases := map[string][]byte{
		"row past end":     sba(25, 1),
		"column past end":  sba(1, 81),
		"row zero":         sba(0, 1),
		"repeat target":    {OrderRepeatToAddress, 30, 1, 0x40},
		"erase target":     {OrderEraseToAddress, 1, 90, 0x02, 0xFF},
		"insert cursor":    {OrderInsertCursor, 0, 0},
		"move cursor":      {OrderMoveCursor, 24, 81},
		"write past end":   join(sba(24, 79), ebc(t, c, "XYZ")),
		"repeat backwards": join(sba(2, 1), []byte{OrderRepeatToAddress, 1, 1, 0x40}),
	}

	for name, orders := range cases {
		record := putGet(wtd(0, 0, sba(1, 1), ebc(t, c, "XX"), orders))

		_, err := c.Decode(buf, record)
		if !errors.Is(err, ErrAddress) {
			t.Errorf("%s: expected ErrAddress, got %v", name, err)
		}

		var protocolErr *ProtocolError
		if !errors.As(err, &protocolErr) {
			t.Errorf("%s: expected *ProtocolError, got %T", name, err)
		}

		if diff := cmp.Diff(before, buf.Snapshot()); diff != "" {
			t.Errorf("%s: screen changed (-before +after):\n%s", name, diff)
		}
	}
}

func TestMalformedRecords(t *testing.T) {
	c := testCodec(t)
	buf := screen.New(24, 80)

	badType := putGet(wtd(0, 0))
	badType[2] = 0x12
	badType[3] = 0xA1

	badLength := putGet(wtd(0, 0))
	badLength[1]++

	cases := []struct {
		name   string
		record []byte
		want   error
	}{
		{"short", []byte{0x00, 0x04, 0x12, 0xA0}, ErrTruncated},
		{"record type", badType, ErrRecordType},
		{"declared length", badLength, ErrTruncated},
		{"missing escape", NewRecord(OpcodePutGet, 0, []byte{0x11, 0x00, 0x00}), ErrUnknownCommand},
		{"unknown command", NewRecord(OpcodePutGet, 0, []byte{Escape, 0x99}), ErrUnknownCommand},
		{"unknown order", putGet(wtd(0, 0, []byte{0x05})), ErrUnknownOrder},
		{"truncated order", putGet(wtd(0, 0, []byte{OrderSetBufferAddress, 1})), ErrTruncated},
		{"clear unit alternate", NewRecord(OpcodePutGet, 0, []byte{Escape, CmdClearUnitAlternate, 0x40}), ErrUnknownCommand},
		{"short structured field", NewRecord(OpcodePutGet, 0, []byte{Escape, CmdWriteStructuredField, 0x00, 0x02}), ErrTruncated},
	}

	for _, tc := range cases {
		if _, err := c.Decode(buf, tc.record); !errors.Is(err, tc.want) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestUnknownStructuredFieldSkipped(t *testing.T) {
	c := testCodec(t)
	buf := screen.New(24, 80)

	record := putGet(
		[]byte{Escape, CmdWriteStructuredField, 0x00, 0x06, SFClass5250, 0x99, 0xAA, 0xBB},
		wtd(0, 0, sba(1, 1), ebc(t, c, "AFTER")),
	)

	result := decode(t, c, buf, record)
	if result.SkippedFields != 1 {
		t.Errorf("expected one skipped field, got %d", result.SkippedFields)
	}

	if got := row(t, buf, 0); !strings.HasPrefix(got, "AFTER") {
		t.Errorf("text after skipped field not written: %q", got)
	}
}

func TestQueryReply(t *testing.T) {
	c := testCodec(t)
	buf := screen.New(24, 80)

	result := decode(t, c, buf, NewRecord(OpcodeNoOp, 0, []byte{Escape, CmdWriteStructuredField, 0x00, 0x05, SFClass5250, SFQuery, 0x00}))
	if len(result.Responses) != 1 {
		t.Fatalf("expected one response, got %d", len(result.Responses))
	}

	reply := result.Responses[0]
	header, err := ParseHeader(reply)
	if err != nil {
		t.Fatalf("reply header: %v", err)
	}

	if header.Opcode != OpcodeNoOp {
		t.Errorf("reply opcode %s", header.Opcode)
	}

	payload := reply[header.DataStart:]
	if !bytes.Equal(payload[:3], []byte{0x00, 0x00, byte(AIDStructuredField)}) {
		t.Errorf("reply prefix % X", payload[:3])
	}

	sf := payload[3:]
	if length := int(sf[0])<<8 | int(sf[1]); length != len(sf) {
		t.Errorf("structured field length %d, have %d bytes", length, len(sf))
	}

	if sf[2] != SFClass5250 || sf[3] != SFQuery {
		t.Errorf("structured field class/type % X", sf[2:4])
	}

	if !bytes.Contains(sf, ebc(t, c, "3179002")) {
		t.Errorf("reply does not name device 3179 model 002: % X", sf)
	}
}

func TestClearUnitAlternateResizes(t *testing.T) {
	c := testCodec(t)
	buf := screen.New(24, 80)
	decode(t, c, buf, putGet(wtd(0, 0x08, sba(1, 1), ebc(t, c, "OLD"))))

	result := decode(t, c, buf, NewRecord(OpcodePutGet, 0, []byte{Escape, CmdClearUnitAlternate, 0x00}))
	if !result.Resized || !result.Cleared || !result.KeyboardLocked {
		t.Errorf("unexpected result %+v", result)
	}

	if rows, cols := buf.Size(); rows != 27 || cols != 132 {
		t.Fatalf("expected 27x132, got %dx%d", rows, cols)
	}

	if got := strings.TrimSpace(buf.Text()); got != "" {
		t.Errorf("screen not cleared: %q", got)
	}

	decode(t, c, buf, putGet(wtd(0, 0, sba(27, 130), ebc(t, c, "END"))))
	if got := row(t, buf, 26); !strings.HasSuffix(got, "END") {
		t.Errorf("last row %q", got)
	}

	result = decode(t, c, buf, NewRecord(OpcodePutGet, 0, []byte{Escape, CmdClearUnit}))
	if !result.Resized {
		t.Error("clear unit did not restore 24x80")
	}
}

func TestStartOfFieldDefinesField(t *testing.T) {
	c := testCodec(t)
	buf := screen.New(24, 80)

	decode(t, c, buf, putGet(wtd(0, 0,
		sba(2, 10), sof(0x4000, 0x24, 5),
		sba(3, 1), []byte{0x1D, 0x22, 0x00, 0x04},
	)))

	fields := buf.Fields()
	if len(fields) != 1 {
		t.Fatalf("expected one input field, got %d", len(fields))
	}

	field := fields[0]
	if field.Start != 90 || field.Length != 5 || field.Attribute != 0x24 {
		t.Errorf("unexpected field %+v", field)
	}

	attr, _ := buf.Cell(89)
	if !attr.Ext.Has(screen.ExtAttributePosition) || attr.Attr != 0x24 {
		t.Errorf("attribute cell %+v", attr)
	}

	inside, _ := buf.Cell(92)
	if inside.Field != field.ID || !inside.Ext.Has(screen.ExtUnderline) {
		t.Errorf("field cell %+v", inside)
	}

	output, _ := buf.Cell(160)
	if !output.Ext.Has(screen.ExtAttributePosition) || output.Attr != 0x22 {
		t.Errorf("output field attribute %+v", output)
	}
}

func TestControlCharacters(t *testing.T) {
	c := testCodec(t)
	buf := screen.New(24, 80)
	oia := buf.OIA()

	decode(t, c, buf, putGet(wtd(0, 0,
		sba(1, 1), sof(0x4800, 0x20, 4), ebc(t, c, "DATA"),
		sba(2, 1), sof(0x6800, 0x20, 4), ebc(t, c, "KEEP"),
	)))

	modified := func() []bool {
		var flags []bool
		for _, field := range buf.Fields() {
			flags = append(flags, field.Modified())
		}
		return flags
	}

	if diff := cmp.Diff([]bool{true, true}, modified()); diff != "" {
		t.Fatalf("initial MDT (-want +got):\n%s", diff)
	}

	result := decode(t, c, buf, putGet(wtd(0x40, 0x08|0x04)))
	if diff := cmp.Diff([]bool{false, true}, modified()); diff != "" {
		t.Errorf("CC1 0x40 MDT (-want +got):\n%s", diff)
	}

	if !result.KeyboardUnlocked || !result.Bell || oia.KeyboardLocked() {
		t.Errorf("CC2 unlock and alarm not applied: %+v", result)
	}

	if oia.State().Bells != 1 {
		t.Errorf("bell count %d", oia.State().Bells)
	}

	decode(t, c, buf, putGet(wtd(0xE0, 0x01)))
	if diff := cmp.Diff([]bool{false, false}, modified()); diff != "" {
		t.Errorf("CC1 0xE0 MDT (-want +got):\n%s", diff)
	}

	if !oia.KeyboardLocked() {
		t.Error("CC1 did not lock the keyboard")
	}

	if !oia.State().MessageLight {
		t.Error("CC2 0x01 did not turn the message light on")
	}

	if got := row(t, buf, 0); strings.TrimSpace(got) != "" {
		t.Errorf("input field not nulled: %q", got)
	}

	if got := row(t, buf, 1); !strings.Contains(got, "KEEP") {
		t.Errorf("bypass field nulled: %q", got)
	}
}

func TestInsertCursorPlacesCursor(t *testing.T) {
	c := testCodec(t)
	buf := screen.New(24, 80)

	decode(t, c, buf, putGet(wtd(0, 0x08,
		[]byte{OrderInsertCursor, 5, 10},
		sba(1, 1), ebc(t, c, "X"),
	)))

	if row, col := buf.CursorPosition(); row != 4 || col != 9 {
		t.Errorf("cursor at %d,%d", row, col)
	}

	decode(t, c, buf, putGet(wtd(0, 0, []byte{OrderMoveCursor, 2, 2})))
	if got := buf.Cursor(); got != 81 {
		t.Errorf("move cursor: %d", got)
	}
}

func TestWriteStartsAtCursor(t *testing.T) {
	c := testCodec(t)
	buf := screen.New(24, 80)

	decode(t, c, buf, putGet(wtd(0, 0, []byte{OrderMoveCursor, 3, 5})))
	decode(t, c, buf, putGet(wtd(0, 0, ebc(t, c, "HERE"))))

	if got := row(t, buf, 2); !strings.HasPrefix(got, "    HERE") {
		t.Errorf("row 3 %q", got)
	}
}

func TestRepeatAndErase(t *testing.T) {
	c := testCodec(t)
	buf := screen.New(24, 80)

	decode(t, c, buf, putGet(wtd(0, 0,
		sba(1, 1), []byte{OrderRepeatToAddress, 1, 10, ebc(t, c, "-")[0]},
		ebc(t, c, "X"),
	)))

	if got := row(t, buf, 0); !strings.HasPrefix(got, "----------X") {
		t.Errorf("repeat %q", got)
	}

	decode(t, c, buf, putGet(wtd(0, 0,
		sba(1, 3), []byte{OrderEraseToAddress, 1, 5, 0x02, 0xFF},
	)))

	if got := row(t, buf, 0); !strings.HasPrefix(got, "--   -----X") {
		t.Errorf("erase %q", got)
	}
}

func TestWriteErrorCode(t *testing.T) {
	c := testCodec(t)
	buf := screen.New(24, 80)
	decode(t, c, buf, putGet(wtd(0, 0x08, sba(24, 1), ebc(t, c, "BOTTOM"))))

	decode(t, c, buf, NewRecord(OpcodePutGet, 0, join(
		[]byte{Escape, CmdWriteErrorCode},
		[]byte{0x21}, ebc(t, c, "BAD VALUE"),
	)))

	if got := row(t, buf, 23); !strings.HasPrefix(got, " BAD VALUE") {
		t.Errorf("error line %q", got)
	}

	state := buf.OIA().State()
	if !state.KeyboardLocked || state.Inhibited != screen.InhibitOther || state.ErrorCode != "BAD VALUE" {
		t.Errorf("OIA after error code %+v", state)
	}

	err := buf.Update(func(w *screen.Writer) error {
		_, err := c.ApplyKey(w, Token{Key: KeyReset}, ReadNone)
		return err
	})
	if err != nil {
		t.Fatal(err)
	}

	if got := row(t, buf, 23); !strings.HasPrefix(got, "BOTTOM") {
		t.Errorf("error line not restored: %q", got)
	}

	if buf.OIA().KeyboardLocked() {
		t.Error("reset did not unlock the keyboard")
	}
}

func TestRoll(t *testing.T) {
	c := testCodec(t)
	buf := screen.New(24, 80)
	decode(t, c, buf, putGet(wtd(0, 0,
		sba(2, 1), ebc(t, c, "TWO"),
		sba(3, 1), ebc(t, c, "THREE"),
	)))

	decode(t, c, buf, NewRecord(OpcodePutGet, 0, []byte{Escape, CmdRoll, 0x01, 2, 5}))
	if got := row(t, buf, 1); !strings.HasPrefix(got, "THREE") {
		t.Errorf("roll up row 2 %q", got)
	}

	decode(t, c, buf, NewRecord(OpcodePutGet, 0, []byte{Escape, CmdRoll, 0x82, 1, 5}))
	if got := row(t, buf, 3); !strings.HasPrefix(got, "THREE") {
		t.Errorf("roll down row 4 %q", got)
	}
}

func TestCreateWindow(t *testing.T) {
	c := testCodec(t)
	buf := screen.New(24, 80)

	window := []byte{OrderWriteDisplayStructured, 0x00, 0x09, SFClass5250, SFCreateWindow, 0x80, 0x00, 0x00, 5, 20}
	decode(t, c, buf, putGet(wtd(0, 0, sba(3, 3), window)))

	windows := buf.Windows()
	if len(windows) != 1 {
		t.Fatalf("expected one window, got %d", len(windows))
	}

	if w := windows[0]; w.Row != 2 || w.Col != 2 || w.Rows != 5 || w.Columns != 20 || !w.Restricted {
		t.Errorf("unexpected window %+v", w)
	}

	corner, _ := buf.CellAt(2, 2)
	if corner.Char != screen.DefaultBorder.UpperLeft {
		t.Errorf("corner %q", corner.Char)
	}

	decode(t, c, buf, NewRecord(OpcodePutGet, 0, []byte{Escape, CmdWriteStructuredField, 0x00, 0x04, SFClass5250, SFRemoveAllGUI}))
	if len(buf.Windows()) != 0 {
		t.Error("windows not removed")
	}

	tooBig := []byte{OrderWriteDisplayStructured, 0x00, 0x09, SFClass5250, SFCreateWindow, 0x00, 0x00, 0x00, 22, 20}
	if _, err := c.Decode(buf, putGet(wtd(0, 0, sba(3, 3), tooBig))); !errors.Is(err, ErrAddress) {
		t.Errorf("oversized window: %v", err)
	}
}

func TestMessageLightOpcodes(t *testing.T) {
	c := testCodec(t)
	buf := screen.New(24, 80)

	result := decode(t, c, buf, NewRecord(OpcodeMessageLightOn, 0, nil))
	if result.MessageLight != MessageLightOn || !buf.OIA().State().MessageLight {
		t.Errorf("message light on: %+v", result)
	}

	result = decode(t, c, buf, NewRecord(OpcodeMessageLightOff, 0, nil))
	if result.MessageLight != MessageLightOff || buf.OIA().State().MessageLight {
		t.Errorf("message light off: %+v", result)
	}
}

func TestSaveRestoreRoundTrip(t *testing.T) {
	c := testCodec(t)
	original := screen.New(24, 80)

	decode(t, c, original, putGet(wtd(0, 0x08,
		sba(1, 1), []byte{0x22}, ebc(t, c, "SIGN ON"), []byte{0x20},
		sba(3, 5), ebc(t, c, "User"),
		sba(3, 15), sof(0x4000, 0x24, 10), ebc(t, c, "QSECOFR"),
		sba(4, 15), sof(0x4700, 0x27, 10),
		sba(6, 1), []byte{OrderTransparentData, 0x00, 0x03, 0x1C},
		[]byte{OrderInsertCursor, 4, 16},
	)))

	result := decode(t, c, original, NewRecord(OpcodeSaveScreen, 0, nil))
	if len(result.Responses) != 1 {
		t.Fatalf("expected the saved screen, got %d responses", len(result.Responses))
	}

	saved := result.Responses[0]
	header, err := ParseHeader(saved)
	if err != nil {
		t.Fatal(err)
	}

	if header.Opcode != OpcodeSaveScreen {
		t.Errorf("save response opcode %s", header.Opcode)
	}

	restored := screen.New(24, 80)
	decode(t, c, restored, NewRecord(OpcodeRestoreScreen, 0, saved[header.DataStart:]))

	if diff := cmp.Diff(original.Text(), restored.Text()); diff != "" {
		t.Errorf("text (-original +restored):\n%s", diff)
	}

	if diff := cmp.Diff(original.Fields(), restored.Fields()); diff != "" {
		t.Errorf("fields (-original +restored):\n%s", diff)
	}

	if original.Cursor() != restored.Cursor() {
		t.Errorf("cursor %d, restored %d", original.Cursor(), restored.Cursor())
	}

	for index := 0; index < 24*80; index++ {
		before, _ := original.Cell(index)
		after, _ := restored.Cell(index)
		if before.Char != after.Char || before.Attr != after.Attr || before.Ext != after.Ext {
			t.Fatalf("cell %d: %+v restored as %+v", index, before, after)
		}
	}

	if restored.OIA().KeyboardLocked() {
		t.Error("restored screen left the keyboard locked")
	}
}

func TestReadScreenImmediate(t *testing.T) {
	c := testCodec(t)
	buf := screen.New(24, 80)

	result := decode(t, c, buf, putGet(
		wtd(0, 0, sba(1, 1), []byte{0x22}, ebc(t, c, "AB")),
		[]byte{Escape, CmdReadScreenImmediate},
	))

	if len(result.Responses) != 1 {
		t.Fatalf("expected one response, got %d", len(result.Responses))
	}

	payload := result.Responses[0][HeaderLength:]
	if len(payload) != 24*80 {
		t.Fatalf("screen payload of %d bytes", len(payload))
	}

	if !bytes.Equal(payload[:3], join([]byte{0x22}, ebc(t, c, "AB"))) {
		t.Errorf("screen payload starts % X", payload[:3])
	}
}

func TestReadCommandSetsPendingRead(t *testing.T) {
	c := testCodec(t)
	buf := screen.New(24, 80)

	result := decode(t, c, buf, NewRecord(OpcodeInvite, 0, []byte{Escape, CmdReadMDTFieldsAlternate, 0x00, 0x08}))
	if result.PendingRead != ReadMDTFieldsAlternate {
		t.Errorf("pending read %s", result.PendingRead)
	}

	if buf.OIA().KeyboardLocked() {
		t.Error("read CC2 did not unlock the keyboard")
	}
}

func TestWriteWithoutAddressIsRangeChecked(t *testing.T) {
	c := testCodec(t)
	buf := screen.New(24, 80)
	decode(t, c, buf, putGet(wtd(0, 0, sba(1, 1), ebc(t, c, "KEEP"), []byte{OrderMoveCursor, 24, 78})))
	before := buf.Snapshot()

	records := map[string][]byte{
		"from screen cursor": putGet(wtd(0, 0, ebc(t, c, "WXYZ"))),
		"from moved cursor": putGet(
			wtd(0, 0, []byte{OrderMoveCursor, 24, 80}),
			wtd(0, 0, ebc(t, c, "WXYZ")),
		),
		"from insert cursor": putGet(
			wtd(0, 0, []byte{OrderInsertCursor, 24, 79}, []byte{OrderMoveCursor, 1, 1}),
			wtd(0, 0, ebc(t, c, "WXYZ")),
		),
	}

	for name, record := range records {
		_, err := c.Decode(buf, record)

		var protocolErr *ProtocolError
		if !errors.As(err, &protocolErr) || !errors.Is(err, ErrAddress) {
			t.Errorf("%s: expected *ProtocolError wrapping ErrAddress, got %v", name, err)
		}

		if diff := cmp.Diff(before, buf.Snapshot()); diff != "" {
			t.Errorf("%s: screen changed (-before +after):\n%s", name, diff)
		}
	}
}

// homeNearEnd leaves buf with a single input field near the bottom right, so
// a record that homes the cursor moves it somewhere only the screen knows
func homeNearEnd(t *testing.T, c *Codec, buf *screen.Buffer) int {
	t.Helper()

	decode(t, c, buf, putGet(wtd(0, 0, sba(24, 70), sof(0x4000, 0x20, 10))))
	return 23*80 + 70
}

func TestWriteFromHomeReportsOverflow(t *testing.T) {
	c := testCodec(t)
	buf := screen.New(24, 80)
	home := homeNearEnd(t, c, buf)

	result, err := c.Decode(buf, putGet(
		wtd(0, 0x48),
		wtd(0, 0, ebc(t, c, "ABCDEFGHIJKLMNOP")),
	))

	var applyErr *ApplyError
	if !errors.As(err, &applyErr) || !errors.Is(err, ErrAddress) {
		t.Fatalf("expected *ApplyError wrapping ErrAddress, got %v", err)
	}
	if applyErr.Opcode != OpcodePutGet {
		t.Errorf("opcode %s", applyErr.Opcode)
	}

	if !result.KeyboardUnlocked {
		t.Error("result lost the unlock from the first write")
	}

	if got := row(t, buf, 23)[70:]; got != "ABCDEFGHIJ" {
		t.Errorf("written up to the end of the screen: %q", got)
	}
	if buf.Cursor() != home {
		t.Errorf("cursor %d, want home %d", buf.Cursor(), home)
	}
}

func TestWindowThatDoesNotFitIsReported(t *testing.T) {
	c := testCodec(t)
	buf := screen.New(24, 80)
	homeNearEnd(t, c, buf)

	window := []byte{OrderWriteDisplayStructured, 0x00, 0x09, SFClass5250, SFCreateWindow, 0x00, 0x00, 0x00, 5, 20}
	_, err := c.Decode(buf, putGet(
		wtd(0, 0x48),
		wtd(0, 0, window),
		wtd(0, 0, sba(1, 1), ebc(t, c, "AFTER")),
	))

	var applyErr *ApplyError
	if !errors.As(err, &applyErr) {
		t.Fatalf("expected *ApplyError, got %v", err)
	}
	if !errors.Is(err, screen.ErrOutOfRange) {
		t.Errorf("expected the window error, got %v", err)
	}

	if len(buf.Windows()) != 0 {
		t.Errorf("window added: %+v", buf.Windows())
	}
	if got := row(t, buf, 0); !strings.HasPrefix(got, "AFTER") {
		t.Errorf("rest of the record not applied: %q", got)
	}
}

func TestUndrawnOrdersAreCounted(t *testing.T) {
	c := testCodec(t)
	buf := screen.New(24, 80)

	selection := []byte{OrderWriteDisplayStructured, 0x00, 0x04, SFClass5250, SFDefineSelectionField}
	result := decode(t, c, buf, putGet(wtd(0, 0,
		sba(1, 1), []byte{OrderWriteExtendedAttribute, 0x01, 0x22},
		ebc(t, c, "RED"),
		selection,
	)))

	if result.SkippedOrders != 1 {
		t.Errorf("skipped orders %d", result.SkippedOrders)
	}
	if result.SkippedFields != 1 {
		t.Errorf("skipped fields %d", result.SkippedFields)
	}
	if got := row(t, buf, 0); !strings.HasPrefix(got, "RED") {
		t.Errorf("row 1 %q", got)
	}
}

func TestHostReadOfUnencodableCellIsReported(t *testing.T) {
	c := testCodec(t)
	buf := screen.New(24, 80)

	err := buf.Update(func(w *screen.Writer) error {
		return w.PutChar(0, '€')
	})
	if err != nil {
		t.Fatal(err)
	}

	result, err := c.Decode(buf, NewRecord(OpcodePutGet, 0, []byte{Escape, CmdReadScreenImmediate}))

	var convErr *ebcdic.ConversionError
	if !errors.As(err, &convErr) || convErr.Rune != '€' {
		t.Fatalf("expected a conversion error for '€', got %v", err)
	}

	var applyErr *ApplyError
	if !errors.As(err, &applyErr) {
		t.Errorf("expected *ApplyError, got %T", err)
	}

	if len(result.Responses) != 1 {
		t.Fatalf("the host is still owed a reply, got %d", len(result.Responses))
	}
	if got := result.Responses[0][HeaderLength]; got != 0x3F {
		t.Errorf("unencodable cell sent as 0x%02X", got)
	}
}
