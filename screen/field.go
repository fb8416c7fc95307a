package screen

import "slices"

// FFW bits, as the high and low byte of the two-byte field format word
const (
	FFWBypass            uint16 = 0x2000
	FFWDupEnable         uint16 = 0x1000
	FFWModified          uint16 = 0x0800
	FFWShiftMask         uint16 = 0x0700
	FFWAutoEnter         uint16 = 0x0080
	FFWFieldExitRequired uint16 = 0x0040
	FFWMonocase          uint16 = 0x0020
	FFWMandatoryEnter    uint16 = 0x0008
	FFWAdjustMask        uint16 = 0x0007
)

// Shift is the shift/edit setting of an input field
type Shift uint8

const (
	ShiftAlpha Shift = iota
	ShiftAlphaOnly
	ShiftNumeric
	ShiftNumericOnly
	ShiftKatakana
	ShiftDigitsOnly
	ShiftIOFeature
	ShiftSignedNumeric
)

var shiftNames = [...]string{"alpha", "alpha only", "numeric shift", "numeric only", "katakana", "digits only", "i/o", "signed numeric"}

func (s Shift) String() string {
	return shiftNames[s&0x07]
}

// Adjust is the right-adjust/mandatory-fill setting of an input field
type Adjust uint8

const (
	AdjustNone          Adjust = 0
	AdjustRightZeroFill Adjust = 5
	AdjustRightBlank    Adjust = 6
	AdjustMandatoryFill Adjust = 7
)

// FCW types the field table understands. Unrecognized control words are
// kept on the field untouched.
const (
	FCWCursorProgression uint16 = 0x8800
	FCWSelfCheckMod10    uint16 = 0xB140
	FCWSelfCheckMod11    uint16 = 0xB1A0
	FCWHighlightEntry    uint16 = 0x8900
)

// Field is one entry of the format table. Start is the index of the first
// data cell; the attribute byte sits in the cell before it.
type Field struct {
	ID        int
	Start     int
	Length    int
	Attribute byte
	FFW       uint16
	FCW       []uint16
}

// Input reports whether the field was defined with a field format word.
// Output-only fields carry just an attribute.
func (f *Field) Input() bool {
	return f.FFW&0xC000 == 0x4000
}

func (f *Field) Bypass() bool {
	return !f.Input() || f.FFW&FFWBypass != 0
}

func (f *Field) DupEnable() bool {
	return f.FFW&FFWDupEnable != 0
}

func (f *Field) Modified() bool {
	return f.FFW&FFWModified != 0
}

func (f *Field) SetModified(modified bool) {
	if modified {
		f.FFW |= FFWModified
	} else {
		f.FFW &^= FFWModified
	}
}

func (f *Field) Shift() Shift {
	return Shift((f.FFW & FFWShiftMask) >> 8)
}

func (f *Field) AutoEnter() bool {
	return f.FFW&FFWAutoEnter != 0
}

func (f *Field) FieldExitRequired() bool {
	return f.FFW&FFWFieldExitRequired != 0
}

func (f *Field) Monocase() bool {
	return f.FFW&FFWMonocase != 0
}

func (f *Field) MandatoryEnter() bool {
	return f.FFW&FFWMandatoryEnter != 0
}

func (f *Field) Adjust() Adjust {
	return Adjust(f.FFW & FFWAdjustMask)
}

// End is the index one past the last data cell
func (f *Field) End() int {
	return f.Start + f.Length
}

func (f *Field) Contains(index int) bool {
	return index >= f.Start && index < f.End()
}

// Progression returns the ID of the field the cursor moves to after this
// one, when the host supplied a cursor progression control word.
func (f *Field) Progression() (int, bool) {
	for _, fcw := range f.FCW {
		if fcw&0xFF00 == FCWCursorProgression {
			return int(fcw & 0x00FF), true
		}
	}

	return 0, false
}

func (f *Field) clone() Field {
	copied := *f
	copied.FCW = slices.Clone(f.FCW)
	return copied
}
