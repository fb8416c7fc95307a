package ebcdic

import (
	"errors"
	"testing"
)

func TestBuiltinRoundTrip(t *testing.T) {
	for _, ccsid := range CCSIDs() {
		page, err := Lookup(ccsid)
		if err != nil {
			t.Fatalf("lookup %d: %v", ccsid, err)
		}

		for b := 0; b < 256; b++ {
			decoded := page.Decode(byte(b))
			encoded, err := page.Encode(decoded)
			if err != nil {
				t.Fatalf("ccsid %d: encode(decode(0x%02X)) failed: %v", ccsid, b, err)
			}

			if again := page.Decode(encoded); again != decoded {
				t.Fatalf("ccsid %d: 0x%02X decodes to %U but round trips to %U", ccsid, b, decoded, again)
			}
		}
	}
}

func TestSupportedCCSIDs(t *testing.T) {
	want := []int{37, 273, 277, 278, 280, 284, 285, 297, 424, 500, 870, 871, 875, 930, 1025, 1026, 1112, 1122, 1140, 1141, 1147, 1148}
	got := CCSIDs()

	if len(got) != len(want) {
		t.Fatalf("expected %d built-in code pages, got %d: %v", len(want), len(got), got)
	}

	for index := range want {
		if got[index] != want[index] {
			t.Fatalf("built-in list mismatch at %d: want %d got %d", index, want[index], got[index])
		}
	}
}

func TestEncodeAbsentRuneFails(t *testing.T) {
	page, err := Lookup(37)
	if err != nil {
		t.Fatal(err)
	}

	for _, r := range []rune{'€', 'α', 'Ж', '中', '😀'} {
		b, err := page.Encode(r)
		if err == nil {
			t.Fatalf("expected encode of %U to fail, got 0x%02X", r, b)
		}

		var convErr *ConversionError
		if !errors.As(err, &convErr) {
			t.Fatalf("expected *ConversionError, got %T", err)
		}

		if convErr.CCSID != 37 || convErr.Rune != r {
			t.Fatalf("conversion error carries ccsid %d rune %U", convErr.CCSID, convErr.Rune)
		}
	}
}

func TestKnownPositions(t *testing.T) {
	cases := []struct {
		ccsid int
		b     byte
		r     rune
	}{
		{37, 0x40, ' '},
		{37, 0xC1, 'A'},
		{37, 0x81, 'a'},
		{37, 0xF0, '0'},
		{37, 0x4A, '¢'},
		{37, 0xBA, '['},
		{37, 0x3F, Substitute},
		{500, 0x4A, '['},
		{500, 0x4F, '!'},
		{273, 0x4A, 'Ä'},
		{273, 0xA1, 'ß'},
		{277, 0x5B, 'Å'},
		{278, 0x7C, 'Ö'},
		{280, 0x7B, '£'},
		{284, 0x7B, 'Ñ'},
		{285, 0x5B, '£'},
		{297, 0x7C, 'à'},
		{871, 0x5F, 'Ö'},
		{1140, 0x9F, '€'},
		{1141, 0x9F, '€'},
		{1147, 0x9F, '€'},
		{1148, 0x9F, '€'},
		{875, 0x41, 'Α'},
		{1025, 0xB9, 'А'},
		{424, 0x41, 'א'},
		{930, 0x81, 'ｱ'},
		{930, 0x62, 'a'},
		{870, 0xBA, 'Ł'},
		{1026, 0x5A, 'Ğ'},
		{273, 0xBC, '‾'},
		{1141, 0xBC, '‾'},
		{285, 0xA1, '‾'},
		{424, 0x9D, '¸'},
		{424, 0x9F, '¤'},
		{424, 0x78, '‗'},
		{875, 0xDD, '\u0387'},
		{875, 0xDE, '’'},
		{1112, 0x49, 'ž'},
		{1112, 0x54, 'č'},
		{1112, 0x56, '„'},
		{1112, 0x9D, 'ķ'},
		{1112, 0xDD, 'ł'},
		{1112, 0xFE, 'Ś'},
		{1122, 0x42, 'â'},
		{1122, 0x5A, '¤'},
		{1122, 0x8C, 'š'},
		{1122, 0xAE, 'Ž'},
	}

	for _, tc := range cases {
		page, err := Lookup(tc.ccsid)
		if err != nil {
			t.Fatal(err)
		}

		if got := page.Decode(tc.b); got != tc.r {
			t.Errorf("ccsid %d 0x%02X: want %q got %q", tc.ccsid, tc.b, tc.r, got)
		}

		if got, err := page.Encode(tc.r); err != nil || got != tc.b {
			t.Errorf("ccsid %d encode %q: want 0x%02X got 0x%02X (%v)", tc.ccsid, tc.r, tc.b, got, err)
		}
	}
}

func TestUndefinedPositionsDecodeToSubstitute(t *testing.T) {
	cases := []struct {
		ccsid int
		b     byte
	}{
		{875, 0xDC},
		{875, 0xFC},
		{424, 0x9E},
		{424, 0x70},
	}

	for _, tc := range cases {
		page, err := Lookup(tc.ccsid)
		if err != nil {
			t.Fatal(err)
		}

		if got := page.Decode(tc.b); got != Substitute {
			t.Errorf("ccsid %d 0x%02X: expected SUB, got %U", tc.ccsid, tc.b, got)
		}

		b, err := page.Encode(Substitute)
		if err != nil || b != 0x3F {
			t.Errorf("ccsid %d: expected SUB to encode to 0x3F, got 0x%02X (%v)", tc.ccsid, b, err)
		}
	}
}

func TestLookupCachesPages(t *testing.T) {
	registry := NewRegistry()

	first, err := registry.Lookup(1140)
	if err != nil {
		t.Fatal(err)
	}

	second, err := registry.Lookup(1140)
	if err != nil {
		t.Fatal(err)
	}

	if first != second {
		t.Fatal("expected the same code page instance on repeated lookups")
	}
}

func TestLookupFallsBackToXText(t *testing.T) {
	registry := NewRegistry()

	page, err := registry.Lookup(1047)
	if err != nil {
		t.Fatal(err)
	}

	if page.CCSID() != 1047 {
		t.Fatalf("resolved to ccsid %d", page.CCSID())
	}

	if got := page.Decode(0xC1); got != 'A' {
		t.Errorf("0xC1 decodes to %q", got)
	}

	if got := page.Decode(0xAD); got != '[' {
		t.Errorf("0xAD decodes to %q", got)
	}

	again, err := registry.Lookup(1047)
	if err != nil {
		t.Fatal(err)
	}

	if again != page {
		t.Error("fallback page was built twice")
	}

	named, err := registry.LookupName("IBM1047")
	if err != nil {
		t.Fatal(err)
	}

	if named != page {
		t.Error("lookup by name built a second fallback page")
	}
}

func TestRegisteredPageWinsOverFallback(t *testing.T) {
	registry := NewRegistry()

	base, err := registry.Lookup(37)
	if err != nil {
		t.Fatal(err)
	}

	custom, err := NewCodePage(1047, "custom 1047", base.Table())
	if err != nil {
		t.Fatal(err)
	}

	if err := registry.Register(custom); err != nil {
		t.Fatal(err)
	}

	page, err := registry.Lookup(1047)
	if err != nil {
		t.Fatal(err)
	}

	if page != custom {
		t.Errorf("looked up %q instead of the registered page", page.Name())
	}
}

func TestLookupNameForms(t *testing.T) {
	for _, name := range []string{"37", "037", "IBM-037", "ibm037", "CP037", "CCSID37"} {
		page, err := LookupName(name)
		if err != nil {
			t.Fatalf("%q: %v", name, err)
		}

		if page.CCSID() != 37 {
			t.Fatalf("%q resolved to ccsid %d", name, page.CCSID())
		}
	}

	if _, err := LookupName("no-such-page"); !errors.Is(err, ErrUnknownCodePage) {
		t.Fatalf("expected ErrUnknownCodePage, got %v", err)
	}
}

func TestLookupUnknownCCSID(t *testing.T) {
	if _, err := Lookup(99999); !errors.Is(err, ErrUnknownCodePage) {
		t.Fatalf("expected ErrUnknownCodePage, got %v", err)
	}
}

func TestEncodeString(t *testing.T) {
	page, err := Lookup(37)
	if err != nil {
		t.Fatal(err)
	}

	encoded, err := page.EncodeString("HELLO 42")
	if err != nil {
		t.Fatal(err)
	}

	want := []byte{0xC8, 0xC5, 0xD3, 0xD3, 0xD6, 0x40, 0xF4, 0xF2}
	if string(encoded) != string(want) {
		t.Fatalf("want % X got % X", want, encoded)
	}

	if decoded := page.DecodeBytes(encoded); decoded != "HELLO 42" {
		t.Fatalf("decode mismatch: %q", decoded)
	}

	if _, err := page.EncodeString("price €5"); err == nil {
		t.Fatal("expected euro sign to fail in ccsid 37")
	}
}
