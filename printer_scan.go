package tn5250

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
)

// MaxRecordSize bounds a single record. The GDS length field is sixteen bits,
// so anything longer than twice that (every byte doubled as IAC IAC) means
// the host never sent IAC EOR.
const MaxRecordSize = 2 * 0x10000

// RecordTooLongError is reported when record data runs past MaxRecordSize
// without an IAC EOR. The partial record is discarded.
type RecordTooLongError struct {
	Size int
}

func (e *RecordTooLongError) Error() string {
	return fmt.Sprintf("tn5250: record exceeded %d bytes without IAC EOR", e.Size)
}

// RecordScanner splits a telnet byte stream into telnet commands and
// EOR-delimited records. IAC IAC inside record data is unescaped and the
// trailing IAC EOR is stripped.
type RecordScanner struct {
	scanner *bufio.Scanner

	pending    []byte
	discarding bool

	err     error
	record  []byte
	command Command
}

func NewRecordScanner(inputStream io.Reader) *RecordScanner {
	scan := bufio.NewScanner(inputStream)

	scanner := &RecordScanner{
		scanner: scan,
		pending: make([]byte, 0, 4096),
	}

	scan.Split(scanner.ScanTelnet)
	return scanner
}

// Err returns the problem with the last output when Scan returned true, or
// the error that ended the stream when Scan returned false. A clean end of
// stream is not an error.
func (s *RecordScanner) Err() error {
	if s.err != nil {
		return s.err
	}

	return s.scanner.Err()
}

// Record returns the record completed by the last Scan, if any. The slice
// belongs to the caller.
func (s *RecordScanner) Record() ([]byte, bool) {
	return s.record, s.record != nil
}

// Command returns the telnet command produced by the last Scan, if any
func (s *RecordScanner) Command() (Command, bool) {
	return s.command, s.command.OpCode != 0
}

// Scan advances to the next record or telnet command. It returns false when
// the stream ends.
func (s *RecordScanner) Scan() bool {
	s.err = nil
	s.record = nil
	s.command = Command{}

	for s.scanner.Scan() {
		token := s.scanner.Bytes()
		if len(token) == 0 {
			continue
		}

		if len(token) > 1 && token[0] == IAC {
			command, err := parseCommand(token)
			if err != nil {
				s.err = err
				return true
			}

			if command.OpCode != EOR {
				s.command = command
				return true
			}

			if s.discarding {
				s.discarding = false
				continue
			}

			s.record = bytes.Clone(s.pending)
			s.pending = s.pending[:0]
			return true
		}

		if s.discarding {
			continue
		}

		s.pending = append(s.pending, token...)
		if len(s.pending) > MaxRecordSize {
			s.err = &RecordTooLongError{Size: MaxRecordSize}
			s.pending = s.pending[:0]
			s.discarding = true
			return true
		}
	}

	return false
}

func (s *RecordScanner) scanTelnetWithoutEOF(data []byte) (advance int, err error) {
	specialCharIndex := bytes.IndexByte(data, IAC)

	if specialCharIndex > 0 {
		// Release all data until we get to an IAC
		return specialCharIndex, nil
	} else if specialCharIndex < 0 {
		// No special char, dump everything
		return len(data), nil
	}

	// if it's just IAC by itself, wait for more data
	if len(data) <= 1 {
		return 0, nil
	}

	// Release 'IAC IAC' on its own, it's an escaped data byte
	if data[1] == IAC {
		return 2, nil
	}

	// IAC GA, IAC EOR, and IAC NOP release on their own
	// SE should never appear here but if it does we should recover by consuming the data
	if data[1] == GA || data[1] == NOP || data[1] == SE || data[1] == EOR {
		return 2, nil
	}

	// All other codes require at least 3 characters
	if len(data) < 3 {
		return 0, nil
	}

	if data[1] != SB {
		return 3, nil
	}

	nextIndex := 0

	for {
		nextSpecialCharIndex := bytes.IndexByte(data[nextIndex+1:], IAC)

		// No more IACs, subnegotiation end is not in buffer yet
		if nextSpecialCharIndex < 0 {
			return 0, nil
		}

		nextIndex += nextSpecialCharIndex + 1
		if len(data) <= nextIndex+1 {
			// IAC is last character, but we need more
			return 0, nil
		}

		if data[nextIndex+1] == SE {
			return nextIndex + 2, nil
		}

		if data[nextIndex+1] == IAC {
			// Double 255's should be skipped over
			nextIndex++
		}
	}
}

// ScanTelnet is the split function for bufio.Scanner. Each token is a run
// of record data, a single unescaped 0xFF, or one complete telnet command.
func (s *RecordScanner) ScanTelnet(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if len(data) == 0 {
		return 0, nil, nil
	}

	advance, err = s.scanTelnetWithoutEOF(data)

	if err != nil || (advance == 0 && !atEOF) {
		return advance, nil, err
	}

	if advance == 0 && atEOF {
		// a command cut off by the end of the stream
		return len(data), nil, nil
	}

	if advance == 2 && data[0] == IAC && data[1] == IAC {
		return 2, data[1:2], nil
	}

	return advance, data[:advance], nil
}
