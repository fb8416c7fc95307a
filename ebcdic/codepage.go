// Package ebcdic translates between single-byte host code pages and Unicode.
//
// Every supported CCSID is represented by an immutable CodePage built once on
// first use and shared by every session that selects it.
package ebcdic

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Substitute is the rune used for table positions that have no Unicode
// equivalent. EBCDIC 0x3F (SUB) decodes to the same rune, so the reverse
// table always resolves it back to 0x3F.
const Substitute rune = 0x1A

// ConversionError is returned when a rune has no representation in a code page.
type ConversionError struct {
	CCSID int
	Rune  rune
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("ebcdic: ccsid %d cannot encode %U", e.CCSID, e.Rune)
}

// CodePage is a 256-entry bidirectional mapping between host bytes and runes.
// A CodePage is never mutated after construction and is safe for concurrent use.
type CodePage struct {
	ccsid  int
	name   string
	toRune [256]rune
	toByte map[rune]byte
}

// NewCodePage builds a code page from a complete 256-entry table. When a rune
// appears at more than one position, the lowest byte wins for encoding.
func NewCodePage(ccsid int, name string, table [256]rune) (*CodePage, error) {
	page := &CodePage{
		ccsid:  ccsid,
		name:   name,
		toRune: table,
		toByte: make(map[rune]byte, 256),
	}

	for index, r := range table {
		if r < 0 || r > utf8.MaxRune || (r >= 0xD800 && r <= 0xDFFF) {
			return nil, fmt.Errorf("ebcdic: ccsid %d position 0x%02X holds invalid code point %d", ccsid, index, r)
		}

		if _, taken := page.toByte[r]; !taken {
			page.toByte[r] = byte(index)
		}
	}

	return page, nil
}

// CCSID returns the numeric code page identifier
func (c *CodePage) CCSID() int {
	return c.ccsid
}

// Name returns a human readable name such as "IBM-037"
func (c *CodePage) Name() string {
	return c.name
}

// Decode maps a host byte to its rune. It never fails: undefined positions
// decode to Substitute.
func (c *CodePage) Decode(b byte) rune {
	return c.toRune[b]
}

// Encode maps a rune to its host byte. Runes absent from the page produce a
// *ConversionError carrying the CCSID and the offending rune.
func (c *CodePage) Encode(r rune) (byte, error) {
	b, ok := c.toByte[r]
	if !ok {
		return 0, &ConversionError{CCSID: c.ccsid, Rune: r}
	}

	return b, nil
}

// CanEncode reports whether r has a representation in this code page
func (c *CodePage) CanEncode(r rune) bool {
	_, ok := c.toByte[r]
	return ok
}

// DecodeBytes decodes a run of host bytes
func (c *CodePage) DecodeBytes(data []byte) string {
	var sb strings.Builder
	sb.Grow(len(data))

	for _, b := range data {
		sb.WriteRune(c.toRune[b])
	}

	return sb.String()
}

// EncodeString encodes text, stopping at the first rune that cannot be represented
func (c *CodePage) EncodeString(text string) ([]byte, error) {
	out := make([]byte, 0, len(text))

	for _, r := range text {
		b, err := c.Encode(r)
		if err != nil {
			return nil, err
		}

		out = append(out, b)
	}

	return out, nil
}

// Table returns a copy of the byte-to-rune table
func (c *CodePage) Table() [256]rune {
	return c.toRune
}

func (c *CodePage) String() string {
	return fmt.Sprintf("%s (%d)", c.name, c.ccsid)
}
