package ebcdic

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// LoadJSON parses a code page document. Two shapes are accepted:
//
//	{"ccsid": 1047, "name": "IBM-1047", "chars": [0, 1, 2, ... 256 code points]}
//	{"ccsid": 1153, "name": "IBM-1153", "base": 870, "overrides": {"9F": 8364}}
//
// Override keys are hexadecimal byte positions. A base is resolved through
// the default registry.
func LoadJSON(data []byte) (*CodePage, error) {
	return defaultRegistry.LoadJSON(data)
}

// LoadJSON parses a code page document, resolving a base through r so that a
// document may build on a page registered earlier. The page is not
// registered.
func (r *Registry) LoadJSON(data []byte) (*CodePage, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("ebcdic: code page document is not valid json")
	}

	doc := gjson.ParseBytes(data)

	ccsidValue := doc.Get("ccsid")
	if !ccsidValue.Exists() || ccsidValue.Int() <= 0 {
		return nil, errors.New("ebcdic: code page document requires a positive ccsid")
	}
	ccsid := int(ccsidValue.Int())

	name := doc.Get("name").String()
	if name == "" {
		name = fmt.Sprintf("CCSID-%d", ccsid)
	}

	var table [256]rune

	switch {
	case doc.Get("chars").IsArray():
		chars := doc.Get("chars").Array()
		if len(chars) != 256 {
			return nil, fmt.Errorf("ebcdic: ccsid %d lists %d chars, expected 256", ccsid, len(chars))
		}

		for index, value := range chars {
			point, err := codePoint(value)
			if err != nil {
				return nil, fmt.Errorf("ebcdic: ccsid %d position 0x%02X: %w", ccsid, index, err)
			}
			table[index] = point
		}

	case doc.Get("base").Exists():
		base, err := r.Lookup(int(doc.Get("base").Int()))
		if err != nil {
			return nil, fmt.Errorf("ebcdic: ccsid %d: %w", ccsid, err)
		}
		table = base.Table()

	default:
		return nil, fmt.Errorf("ebcdic: ccsid %d needs either chars or base", ccsid)
	}

	var overrideErr error
	doc.Get("overrides").ForEach(func(key, value gjson.Result) bool {
		position, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(key.String()), "0x"), 16, 8)
		if err != nil {
			overrideErr = fmt.Errorf("ebcdic: ccsid %d override key %q: %w", ccsid, key.String(), err)
			return false
		}

		point, err := codePoint(value)
		if err != nil {
			overrideErr = fmt.Errorf("ebcdic: ccsid %d override 0x%02X: %w", ccsid, position, err)
			return false
		}

		table[position] = point
		return true
	})
	if overrideErr != nil {
		return nil, overrideErr
	}

	return NewCodePage(ccsid, name, table)
}

// codePoint reads a table entry, which must be a whole number naming a
// Unicode scalar value
func codePoint(value gjson.Result) (rune, error) {
	if value.Type != gjson.Number {
		return 0, fmt.Errorf("%s is not a number", value.Raw)
	}

	n := value.Float()
	if n != float64(int64(n)) || n < 0 || n > unicode.MaxRune || (n >= 0xD800 && n <= 0xDFFF) {
		return 0, fmt.Errorf("%s is not a Unicode code point", value.Raw)
	}

	return rune(n), nil
}

// ExportJSON renders a code page in the full-table document shape
func ExportJSON(page *CodePage) ([]byte, error) {
	doc := []byte(`{}`)

	doc, err := sjson.SetBytes(doc, "ccsid", page.CCSID())
	if err != nil {
		return nil, err
	}

	doc, err = sjson.SetBytes(doc, "name", page.Name())
	if err != nil {
		return nil, err
	}

	table := page.Table()
	chars := make([]int, len(table))
	for index, r := range table {
		chars[index] = int(r)
	}

	return sjson.SetBytes(doc, "chars", chars)
}

// LoadDir loads every *.json file in dir into the registry. Files describing
// a built-in CCSID are rejected.
func (r *Registry) LoadDir(dir string) ([]*CodePage, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}

	pages := make([]*CodePage, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return pages, err
		}

		page, err := r.LoadJSON(data)
		if err != nil {
			return pages, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}

		if err := r.Register(page); err != nil {
			return pages, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}

		pages = append(pages, page)
	}

	return pages, nil
}
