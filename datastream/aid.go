package datastream

import "fmt"

// AID is the attention identifier byte that tells the host which key ended
// an input operation
type AID byte

const (
	AIDNone            AID = 0x00
	AIDEnter           AID = 0xF1
	AIDHelp            AID = 0xF3
	AIDRollDown        AID = 0xF4
	AIDRollUp          AID = 0xF5
	AIDPrint           AID = 0xF6
	AIDRecordBackspace AID = 0xF8
	AIDClear           AID = 0xBD
	AIDStructuredField AID = 0x88

	AIDPageUp   = AIDRollDown
	AIDPageDown = AIDRollUp
)

// AIDPF returns the AID of a function key, 1 through 24
func AIDPF(n int) (AID, error) {
	switch {
	case n >= 1 && n <= 12:
		return AID(0x30 + n), nil
	case n >= 13 && n <= 24:
		return AID(0xB0 + n - 12), nil
	}

	return AIDNone, fmt.Errorf("datastream: no function key PF%d", n)
}

// SendsFields reports whether a response to this AID carries field data.
// Clear, Help, the roll keys, Print and Record Backspace send only the
// cursor address and AID.
func (a AID) SendsFields() bool {
	switch a {
	case AIDClear, AIDHelp, AIDRollDown, AIDRollUp, AIDPrint, AIDRecordBackspace:
		return false
	}

	return true
}

func (a AID) String() string {
	switch a {
	case AIDNone:
		return "none"
	case AIDEnter:
		return "enter"
	case AIDHelp:
		return "help"
	case AIDRollDown:
		return "roll down"
	case AIDRollUp:
		return "roll up"
	case AIDPrint:
		return "print"
	case AIDRecordBackspace:
		return "record backspace"
	case AIDClear:
		return "clear"
	case AIDStructuredField:
		return "structured field"
	}

	switch {
	case a >= 0x31 && a <= 0x3C:
		return fmt.Sprintf("pf%d", int(a)-0x30)
	case a >= 0xB1 && a <= 0xBC:
		return fmt.Sprintf("pf%d", int(a)-0xB0+12)
	}

	return fmt.Sprintf("aid 0x%02X", byte(a))
}
