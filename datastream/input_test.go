package datastream

import (
	"bytes"
	"errors"
	"testing"

	"github.com/moodclient/tn5250/ebcdic"
	"github.com/moodclient/tn5250/screen"
)

// formatScreen builds a screen with five fields, one per row starting at
// column 3:
//
//	A alpha, length 5, start 2
//	B digits only, length 3, start 82
//	C signed numeric, length 4, start 162
//	D bypass, length 4, start 242
//	E dup enabled, length 3, start 322
func formatScreen(t *testing.T, c *Codec) *screen.Buffer {
	t.Helper()

	buf := screen.New(24, 80)
	decode(t, c, buf, putGet(wtd(0, 0x08|0x40,
		sba(1, 2), sof(0x4000, 0x24, 5),
		sba(2, 2), sof(0x4500, 0x24, 3),
		sba(3, 2), sof(0x4700, 0x24, 4),
		sba(4, 2), sof(0x6000, 0x20, 4),
		sba(5, 2), sof(0x5000, 0x24, 3),
	)))

	if got := buf.Cursor(); got != 2 {
		t.Fatalf("cursor should start in the first input field, at %d", got)
	}

	return buf
}

func keys(t *testing.T, c *Codec, buf *screen.Buffer, text string) ([]KeyResult, error) {
	t.Helper()

	var results []KeyResult
	err := buf.Update(func(w *screen.Writer) error {
		for _, token := range Tokenize(text) {
			result, err := c.ApplyKey(w, token, ReadNone)
			if err != nil {
				return err
			}
			results = append(results, result)
		}
		return nil
	})

	return results, err
}

func mustKeys(t *testing.T, c *Codec, buf *screen.Buffer, text string) []KeyResult {
	t.Helper()

	results, err := keys(t, c, buf, text)
	if err != nil {
		t.Fatalf("keys %q: %v", text, err)
	}

	return results
}

func fieldText(t *testing.T, buf *screen.Buffer, start int) string {
	t.Helper()

	field, ok := buf.FieldAt(start)
	if !ok {
		t.Fatalf("no field at %d", start)
	}

	text, err := buf.FieldText(field.ID)
	if err != nil {
		t.Fatal(err)
	}

	return text
}

func expectReason(t *testing.T, err error, want InputReason) {
	t.Helper()

	var inputErr *InputError
	if !errors.As(err, &inputErr) {
		t.Fatalf("expected *InputError %s, got %v", want, err)
	}

	if inputErr.Reason != want {
		t.Errorf("expected reason %q, got %q", want, inputErr.Reason)
	}
}

func TestTypeIntoField(t *testing.T) {
	c := testCodec(t)
	buf := formatScreen(t, c)

	mustKeys(t, c, buf, "HI")

	if got := fieldText(t, buf, 2); got != "HI   " {
		t.Errorf("field A %q", got)
	}

	if got := buf.Cursor(); got != 4 {
		t.Errorf("cursor %d", got)
	}

	if field, _ := buf.FieldAt(2); !field.Modified() {
		t.Error("MDT not set")
	}
}

func TestRejectedTextWritesNothing(t *testing.T) {
	c := testCodec(t)
	buf := formatScreen(t, c)

	_, err := keys(t, c, buf, "ABCDEF")
	expectReason(t, err, ReasonFieldFull)

	if got := fieldText(t, buf, 2); got != "     " {
		t.Errorf("field A written after overflow: %q", got)
	}

	if buf.OIA().State().InputError == "" {
		t.Error("OIA input error not set")
	}

	_, err = keys(t, c, buf, "[tab]1a")
	expectReason(t, err, ReasonDigitsOnly)

	if got := fieldText(t, buf, 82); got != "   " {
		t.Errorf("field B written after bad digit: %q", got)
	}

	_, err = keys(t, c, buf, "[backtab]€")
	var conversion *ebcdic.ConversionError
	if !errors.As(err, &conversion) || conversion.Rune != '€' {
		t.Errorf("expected a conversion error for a rune outside the code page, got %v", err)
	}
}

func TestAutoAdvanceOnExactFill(t *testing.T) {
	c := testCodec(t)
	buf := formatScreen(t, c)

	mustKeys(t, c, buf, "ABCDE")
	if got := buf.Cursor(); got != 82 {
		t.Errorf("cursor should move to field B, at %d", got)
	}

	mustKeys(t, c, buf, "123")
	if got := buf.Cursor(); got != 162 {
		t.Errorf("cursor should move to field C, at %d", got)
	}
}

func TestProtectedArea(t *testing.T) {
	c := testCodec(t)
	buf := formatScreen(t, c)

	_, err := keys(t, c, buf, "[left][left]X")
	expectReason(t, err, ReasonProtected)
}

func TestTabFollowsInputFields(t *testing.T) {
	c := testCodec(t)
	buf := formatScreen(t, c)

	want := []int{82, 162, 322, 2, 82}
	for _, position := range want {
		mustKeys(t, c, buf, "[tab]")
		if got := buf.Cursor(); got != position {
			t.Fatalf("tab: want %d got %d", position, got)
		}
	}

	mustKeys(t, c, buf, "[backtab]")
	if got := buf.Cursor(); got != 2 {
		t.Errorf("backtab from field start: %d", got)
	}

	mustKeys(t, c, buf, "[backtab]")
	if got := buf.Cursor(); got != 322 {
		t.Errorf("backtab should wrap to the last input field: %d", got)
	}

	mustKeys(t, c, buf, "[right][backtab]")
	if got := buf.Cursor(); got != 322 {
		t.Errorf("backtab inside a field returns to its start: %d", got)
	}
}

func TestInsertMode(t *testing.T) {
	c := testCodec(t)
	buf := formatScreen(t, c)

	mustKeys(t, c, buf, "AC[left][insert]B")
	if got := fieldText(t, buf, 2); got != "ABC  " {
		t.Errorf("insert: %q", got)
	}

	if !buf.OIA().InsertMode() {
		t.Error("insert mode not shown in OIA")
	}

	mustKeys(t, c, buf, "[home]XY")
	_, err := keys(t, c, buf, "XYZ")
	expectReason(t, err, ReasonFieldFull)
}

func TestDeleteAndEraseEOF(t *testing.T) {
	c := testCodec(t)
	buf := formatScreen(t, c)

	mustKeys(t, c, buf, "ABCD[home][delete]")
	if got := fieldText(t, buf, 2); got != "BCD  " {
		t.Errorf("delete: %q", got)
	}

	mustKeys(t, c, buf, "[right][eof]")
	if got := fieldText(t, buf, 2); got != "B    " {
		t.Errorf("erase eof: %q", got)
	}
}

func TestFieldMinus(t *testing.T) {
	c := testCodec(t)
	buf := formatScreen(t, c)

	_, err := keys(t, c, buf, "[field-]")
	expectReason(t, err, ReasonFieldMinusInvalid)

	mustKeys(t, c, buf, "[tab][tab]12[field-]")
	if got := fieldText(t, buf, 162); got != " 12-" {
		t.Errorf("signed field %q", got)
	}

	if got := buf.Cursor(); got != 322 {
		t.Errorf("field minus should advance past bypass field D, at %d", got)
	}

	_, err = keys(t, c, buf, "[backtab]12345")
	expectReason(t, err, ReasonFieldFull)
}

func TestDup(t *testing.T) {
	c := testCodec(t)
	buf := formatScreen(t, c)

	_, err := keys(t, c, buf, "[dupfield]")
	expectReason(t, err, ReasonDupNotAllowed)

	mustKeys(t, c, buf, "[tab][tab][tab][dupfield]")
	for index := 322; index < 325; index++ {
		if cell, _ := buf.Cell(index); cell.Char != dupChar {
			t.Errorf("cell %d holds %q", index, cell.Char)
		}
	}
}

func TestEnterSendsModifiedFields(t *testing.T) {
	c := testCodec(t)
	buf := formatScreen(t, c)

	results := mustKeys(t, c, buf, "HI[enter]")
	last := results[len(results)-1]
	if last.AID != AIDEnter {
		t.Fatalf("expected enter, got %s", last.AID)
	}

	header, err := ParseHeader(last.Record)
	if err != nil {
		t.Fatal(err)
	}

	if header.Opcode != OpcodePutGet {
		t.Errorf("opcode %s", header.Opcode)
	}

	want := join([]byte{1, 5, byte(AIDEnter), OrderSetBufferAddress, 1, 3}, ebc(t, c, "HI"))
	if got := last.Record[header.DataStart:]; !bytes.Equal(got, want) {
		t.Errorf("payload % X, want % X", got, want)
	}

	if !buf.OIA().KeyboardLocked() {
		t.Error("keyboard should lock after an AID")
	}

	_, err = keys(t, c, buf, "X")
	expectReason(t, err, ReasonKeyboardLocked)
}

func TestClearSendsNoFields(t *testing.T) {
	c := testCodec(t)
	buf := formatScreen(t, c)

	results := mustKeys(t, c, buf, "HI[clear]")
	payload := results[len(results)-1].Record[HeaderLength:]
	if !bytes.Equal(payload, []byte{1, 5, byte(AIDClear)}) {
		t.Errorf("clear payload % X", payload)
	}
}

func TestReadInputFieldsSendsEveryField(t *testing.T) {
	c := testCodec(t)
	buf := formatScreen(t, c)

	var record []byte
	err := buf.Update(func(w *screen.Writer) (err error) {
		record, err = c.ReadResponse(w, AIDEnter, ReadInputFields)
		return err
	})
	if err != nil {
		t.Fatal(err)
	}

	sbaCount := bytes.Count(record[HeaderLength+3:], []byte{OrderSetBufferAddress})
	if sbaCount != 5 {
		t.Errorf("expected all five input fields, found %d SBA orders", sbaCount)
	}
}

func TestUnencodableFieldIsNotSent(t *testing.T) {
	c := testCodec(t)
	buf := formatScreen(t, c)

	err := buf.Update(func(w *screen.Writer) error {
		w.Fields().FieldAt(2).SetModified(true)
		return w.PutChar(3, '€')
	})
	if err != nil {
		t.Fatal(err)
	}

	_, err = keys(t, c, buf, "[enter]")

	var convErr *ebcdic.ConversionError
	if !errors.As(err, &convErr) {
		t.Fatalf("expected *ebcdic.ConversionError, got %v", err)
	}

	if convErr.Rune != '€' {
		t.Errorf("conversion error for %q", convErr.Rune)
	}

	if buf.OIA().KeyboardLocked() {
		t.Error("keyboard locked for a record that was never sent")
	}
}

func TestAttentionWhileLocked(t *testing.T) {
	c := testCodec(t)
	buf := formatScreen(t, c)
	buf.OIA().LockKeyboard()

	results := mustKeys(t, c, buf, "[attn][sysreq]")
	if len(results) != 2 {
		t.Fatalf("expected two results, got %d", len(results))
	}

	attn, _ := ParseHeader(results[0].Record)
	sysreq, _ := ParseHeader(results[1].Record)
	if attn.Flags != FlagAttention || sysreq.Flags != FlagSystemRequest {
		t.Errorf("flags 0x%02X 0x%02X", attn.Flags, sysreq.Flags)
	}
}

func TestCursorMovement(t *testing.T) {
	c := testCodec(t)
	buf := formatScreen(t, c)

	mustKeys(t, c, buf, "[up]")
	if got := buf.Cursor(); got != 23*80+2 {
		t.Errorf("up should wrap to the last row: %d", got)
	}

	mustKeys(t, c, buf, "[down][down]")
	if got := buf.Cursor(); got != 82 {
		t.Errorf("down: %d", got)
	}

	mustKeys(t, c, buf, "[newline]")
	if got := buf.Cursor(); got != 162 {
		t.Errorf("newline: %d", got)
	}
}
