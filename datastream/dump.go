package datastream

import (
	"fmt"
	"io"
	"strings"

	"github.com/moodclient/tn5250/ebcdic"
)

// Dump writes a record as a hex dump: a summary of the header when it
// parses, then sixteen bytes per line with the offset, the bytes in groups
// of four and the text they decode to through page
func Dump(out io.Writer, record []byte, page *ebcdic.CodePage) error {
	if header, err := ParseHeader(record); err == nil {
		_, err := fmt.Fprintf(out, "record length %d opcode %s flags 0x%02X\n", header.Length, header.Opcode, header.Flags)
		if err != nil {
			return err
		}
	} else {
		_, err := fmt.Fprintf(out, "record length %d (%v)\n", len(record), err)
		if err != nil {
			return err
		}
	}

	for offset := 0; offset < len(record); offset += 16 {
		line := record[offset:min(offset+16, len(record))]

		var hex, text strings.Builder
		for i, b := range line {
			if i%4 == 0 {
				hex.WriteByte(' ')
			}
			fmt.Fprintf(&hex, "%02X", b)

			r := page.Decode(b)
			if r < ' ' || r == 0x7F {
				r = '.'
			}
			text.WriteRune(r)
		}

		if _, err := fmt.Fprintf(out, "+%04X%-37s  %s\n", offset, hex.String(), text.String()); err != nil {
			return err
		}
	}

	return nil
}

// DumpString is Dump into a string
func DumpString(record []byte, page *ebcdic.CodePage) string {
	var sb strings.Builder
	_ = Dump(&sb, record, page)
	return sb.String()
}
