package tn5250

import (
	"bytes"
	"errors"
	"testing"
	"testing/iotest"

	"github.com/google/go-cmp/cmp"
)

type scanned struct {
	Record  []byte
	Command Command
	Err     bool
}

func scanAll(t *testing.T, scanner *RecordScanner) []scanned {
	t.Helper()

	var out []scanned
	for scanner.Scan() {
		var item scanned
		if err := scanner.Err(); err != nil {
			item.Err = true
		} else if record, ok := scanner.Record(); ok {
			item.Record = record
		} else if command, ok := scanner.Command(); ok {
			item.Command = command
		}
		out = append(out, item)
	}

	if err := scanner.Err(); err != nil {
		t.Fatalf("stream ended with %v", err)
	}

	return out
}

func TestRecordScanner(t *testing.T) {
	stream := []byte{
		IAC, DO, 25,
		0x00, 0x05, IAC, IAC, 0x12, 0xA0, IAC, EOR,
		IAC, SB, 24, 1, IAC, SE,
		IAC, EOR,
		0x41, 0x42,
	}

	want := []scanned{
		{Command: Command{OpCode: DO, Option: 25}},
		{Record: []byte{0x00, 0x05, 0xFF, 0x12, 0xA0}},
		{Command: Command{OpCode: SB, Option: 24, Subnegotiation: []byte{1}}},
		{Record: []byte{}},
	}

	// one byte at a time exercises every partial-token path in the split func
	got := scanAll(t, NewRecordScanner(iotest.OneByteReader(bytes.NewReader(stream))))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestRecordScannerEscapedSubnegotiation(t *testing.T) {
	stream := []byte{IAC, SB, 39, 0, IAC, IAC, 3, IAC, SE}

	got := scanAll(t, NewRecordScanner(bytes.NewReader(stream)))
	want := []scanned{{Command: Command{OpCode: SB, Option: 39, Subnegotiation: []byte{0, 0xFF, 3}}}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestRecordScannerDiscardsRunawayRecord(t *testing.T) {
	stream := append(bytes.Repeat([]byte{0x40}, MaxRecordSize+10), IAC, EOR, 0x01, IAC, EOR)

	scanner := NewRecordScanner(bytes.NewReader(stream))
	if !scanner.Scan() {
		t.Fatal("expected an error output")
	}

	var tooLong *RecordTooLongError
	if !errors.As(scanner.Err(), &tooLong) {
		t.Fatalf("expected *RecordTooLongError, got %v", scanner.Err())
	}

	if !scanner.Scan() {
		t.Fatal("expected the next record")
	}

	if record, ok := scanner.Record(); !ok || !bytes.Equal(record, []byte{0x01}) {
		t.Errorf("record after a discarded one: % X", record)
	}
}

func TestCommandEncode(t *testing.T) {
	cases := []struct {
		command Command
		want    []byte
	}{
		{Command{OpCode: WILL, Option: 0}, []byte{IAC, WILL, 0}},
		{Command{OpCode: EOR}, []byte{IAC, EOR}},
		{Command{OpCode: SB, Option: 24, Subnegotiation: []byte{0, 'I', 0xFF}}, []byte{IAC, SB, 24, 0, 'I', 0xFF, 0xFF, IAC, SE}},
	}

	for _, tc := range cases {
		got := tc.command.encode()
		if !bytes.Equal(got, tc.want) {
			t.Errorf("%+v: got % X want % X", tc.command, got, tc.want)
		}

		parsed, err := parseCommand(got)
		if err != nil {
			t.Fatalf("parse % X: %v", got, err)
		}

		if diff := cmp.Diff(tc.command, parsed); diff != "" {
			t.Errorf("round trip (-want +got):\n%s", diff)
		}
	}
}
