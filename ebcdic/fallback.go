package ebcdic

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
)

// fallbackCodePage builds a table from a golang.org/x/text single-byte
// encoding. It is only consulted for names that do not match a built-in or
// registered CCSID.
func fallbackCodePage(name string) (*CodePage, error) {
	enc, err := findEncoding(name)
	if err != nil {
		return nil, err
	}

	ianaName, err := ianaindex.IANA.Name(enc)
	if err != nil || ianaName == "" {
		ianaName = name
	}

	table, err := tableFromEncoding(enc)
	if err != nil {
		return nil, err
	}

	ccsid, _ := parseCCSID(ianaName)
	return NewCodePage(ccsid, ianaName, table)
}

// fallbackCCSID builds the table for a CCSID that x/text knows under one of
// IBM's usual names
func fallbackCCSID(ccsid int) (*CodePage, error) {
	enc := charmapNamed(fmt.Sprintf("IBM Code Page %03d", ccsid))
	for _, format := range []string{"IBM%03d", "IBM%05d"} {
		if enc != nil {
			break
		}

		found, err := ianaindex.IANA.Encoding(fmt.Sprintf(format, ccsid))
		if err == nil && found != nil {
			enc = found
		}
	}

	if enc == nil {
		return nil, fmt.Errorf("ebcdic: no x/text encoding for ccsid %d", ccsid)
	}

	table, err := tableFromEncoding(enc)
	if err != nil {
		return nil, err
	}

	name, err := ianaindex.IANA.Name(enc)
	if err != nil || name == "" {
		name = fmt.Sprintf("IBM-%03d", ccsid)
	}

	return NewCodePage(ccsid, name, table)
}

// charmapNamed finds a charmap by its exact descriptive name
func charmapNamed(name string) encoding.Encoding {
	for _, candidate := range charmap.All {
		if cm, ok := candidate.(*charmap.Charmap); ok && strings.EqualFold(cm.String(), name) {
			return cm
		}
	}

	return nil
}

func findEncoding(name string) (encoding.Encoding, error) {
	enc, err := ianaindex.IANA.Encoding(name)
	if err == nil && enc != nil {
		return enc, nil
	}

	// charmap carries a few EBCDIC pages (1047, 1140) that are easier to
	// find by their descriptive name than through the IANA index
	lowered := strings.ToLower(name)
	for _, candidate := range charmap.All {
		cm, ok := candidate.(*charmap.Charmap)
		if !ok {
			continue
		}

		if strings.Contains(strings.ToLower(cm.String()), lowered) {
			return cm, nil
		}
	}

	return nil, errors.New("ebcdic: no x/text encoding for " + name)
}

func tableFromEncoding(enc encoding.Encoding) ([256]rune, error) {
	var table [256]rune
	decoder := enc.NewDecoder()

	for b := 0; b < 256; b++ {
		decoded, err := decoder.Bytes([]byte{byte(b)})
		if err != nil || len(decoded) == 0 {
			table[b] = Substitute
			continue
		}

		r, size := utf8.DecodeRune(decoded)
		if r == utf8.RuneError && size <= 1 {
			table[b] = Substitute
			continue
		}

		table[b] = r
	}

	if table['A'] == 'A' && table['a'] == 'a' {
		return table, errors.New("ebcdic: encoding is ASCII-based, not EBCDIC")
	}

	return table, nil
}
