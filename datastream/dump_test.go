package datastream

import (
	"strings"
	"testing"
)

func TestDump(t *testing.T) {
	c := testCodec(t)
	record := putGet(wtd(0, 0, sba(1, 1), ebc(t, c, "HELLO WORLD")))

	dump := DumpString(record, c.CodePage())
	lines := strings.Split(strings.TrimRight(dump, "\n"), "\n")

	if !strings.Contains(lines[0], "opcode put/get") {
		t.Errorf("summary line %q", lines[0])
	}

	// header, escape, command, two control bytes, SBA and eleven characters
	if want := 1 + (10+4+3+11+15)/16; len(lines) != want {
		t.Fatalf("expected %d lines, got %d:\n%s", want, len(lines), dump)
	}

	if !strings.HasPrefix(lines[1], "+0000 001C12A0") {
		t.Errorf("first dump line %q", lines[1])
	}

	if !strings.HasPrefix(lines[2], "+0010") || !strings.Contains(lines[2], "ELLO WORLD") {
		t.Errorf("second dump line %q", lines[2])
	}

	bad := DumpString([]byte{0x00, 0x01}, c.CodePage())
	if !strings.Contains(bad, "record length 2") {
		t.Errorf("dump of a short record %q", bad)
	}
}
