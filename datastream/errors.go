package datastream

import (
	"errors"
	"fmt"
)

var (
	ErrTruncated      = errors.New("truncated record")
	ErrRecordType     = errors.New("not a 5250 display record")
	ErrUnknownCommand = errors.New("unknown command")
	ErrUnknownOrder   = errors.New("unknown order")
	ErrAddress        = errors.New("address out of range")
)

// ProtocolError reports a record that could not be decoded. It is returned
// before anything is applied to the screen.
type ProtocolError struct {
	Offset int
	Reason string
	Err    error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("datastream: %v at offset %d: %s", e.Err, e.Offset, e.Reason)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

func protocolError(offset int, err error, format string, args ...any) *ProtocolError {
	return &ProtocolError{
		Offset: offset,
		Reason: fmt.Sprintf(format, args...),
		Err:    err,
	}
}

// ApplyError reports parts of a parsed record that the screen could not
// take, such as a window that does not fit or a reply with a character the
// code page cannot encode. Everything else in the record was applied and
// any replies are in the Result.
type ApplyError struct {
	Opcode Opcode
	Err    error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("datastream: applying %s: %v", e.Opcode, e.Err)
}

func (e *ApplyError) Unwrap() error {
	return e.Err
}

// InputReason says why typed input was refused
type InputReason int

const (
	ReasonProtected InputReason = iota + 1
	ReasonAlphaOnly
	ReasonNumericOnly
	ReasonDigitsOnly
	ReasonSignedNumeric
	ReasonFieldFull
	ReasonDupNotAllowed
	ReasonFieldMinusInvalid
	ReasonMandatoryEnter
	ReasonKeyboardLocked
)

var reasonNames = map[InputReason]string{
	ReasonProtected:         "cursor in protected area",
	ReasonAlphaOnly:         "field accepts only alphabetic characters",
	ReasonNumericOnly:       "field accepts only numeric characters",
	ReasonDigitsOnly:        "field accepts only digits",
	ReasonSignedNumeric:     "field accepts only digits and a sign",
	ReasonFieldFull:         "field is full",
	ReasonDupNotAllowed:     "dup key not allowed in field",
	ReasonFieldMinusInvalid: "field minus not allowed in field",
	ReasonMandatoryEnter:    "mandatory enter field is empty",
	ReasonKeyboardLocked:    "keyboard locked",
}

func (r InputReason) String() string {
	if name, ok := reasonNames[r]; ok {
		return name
	}

	return "input rejected"
}

// InputError is returned when typed input breaks a field constraint.
// Nothing from the rejected run of text is written.
type InputError struct {
	Reason   InputReason
	Position int
	Rune     rune
}

func (e *InputError) Error() string {
	if e.Rune != 0 {
		return fmt.Sprintf("datastream: input %q at %d rejected: %s", e.Rune, e.Position, e.Reason)
	}

	return fmt.Sprintf("datastream: input at %d rejected: %s", e.Position, e.Reason)
}
